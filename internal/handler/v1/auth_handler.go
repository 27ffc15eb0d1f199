package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
)

// landingRoutes maps each rol to the dashboard route the client should
// navigate to after login.
var landingRoutes = map[domain.Role]string{
	domain.RoleAdministrador: "/admin",
	domain.RolePaciente:      "/paciente",
	domain.RoleMedico:        "/medico",
	domain.RoleRecepcionista: "/recepcionista",
}

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "password updated"})
}

type sessionResponse struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	Ruta   string `json:"ruta"`
}

// Session echoes the caller's claims plus the landing route for their rol.
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	ruta, ok := landingRoutes[claims.Role]
	if !ok {
		respondError(c, http.StatusNotFound, "no dashboard for this rol")
		return
	}

	respondOK(c, sessionResponse{
		UserID: claims.UserID.String(),
		Email:  claims.Email,
		Nombre: claims.Nombre,
		Rol:    string(claims.Role),
		Ruta:   ruta,
	})
}
