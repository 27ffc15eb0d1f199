package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sonrisa-dental/sonrisa-api/internal/config"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
	"github.com/sonrisa-dental/sonrisa-api/pkg/auth"
	"github.com/sonrisa-dental/sonrisa-api/pkg/metrics"
)

type RouterDeps struct {
	Config       *config.Config
	Log          *zap.Logger
	Collector    *metrics.Collector
	JWTManager   *auth.JWTManager
	AuthSvc      *service.AuthService
	DirectorySvc *service.DirectoryService
	CitaSvc      *service.CitaService
	HistorialSvc *service.HistorialService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     deps.Config.CORS.AllowedMethods,
		AllowHeaders:     deps.Config.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))
	r.Use(RateLimit(deps.Config.RateLimit.RequestsPerSecond, deps.Config.RateLimit.BurstSize))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found"})
	})

	authHandler := NewAuthHandler(deps.AuthSvc)
	userHandler := NewUserHandler(deps.DirectorySvc)
	citaHandler := NewCitaHandler(deps.CitaSvc)
	historialHandler := NewHistorialHandler(deps.HistorialSvc)

	api := r.Group("/api/v1")

	// Credential endpoints get their own, much tighter bucket.
	authGroup := api.Group("/auth")
	authGroup.Use(RateLimit(deps.Config.RateLimit.AuthRequestsPerSecond, deps.Config.RateLimit.AuthBurstSize))
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(Authenticate(deps.JWTManager))
	{
		protected.GET("/session", authHandler.Session)
		protected.POST("/auth/password", authHandler.ChangePassword)

		users := protected.Group("/users")
		{
			users.POST("", RequireRoles(domain.RoleAdministrador, domain.RoleRecepcionista), userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.DELETE("/:id", RequireRoles(domain.RoleAdministrador), userHandler.Delete)
		}

		citas := protected.Group("/citas")
		{
			citas.GET("/disponibilidad", citaHandler.Disponibilidad)
			citas.POST("", citaHandler.Create)
			citas.GET("", citaHandler.List)
			citas.GET("/:id", citaHandler.Get)
			citas.DELETE("/:id", citaHandler.Cancel)
		}

		historiales := protected.Group("/historiales")
		historiales.Use(RequireRoles(domain.RoleMedico))
		{
			historiales.POST("", historialHandler.Create)
			historiales.GET("", historialHandler.List)
			historiales.DELETE("/:id", historialHandler.Delete)
		}

		protected.GET("/medico/pacientes", RequireRoles(domain.RoleMedico), citaHandler.PacientesDeMedico)
	}

	return r
}
