package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, cita.ErrCitaNotFound),
		errors.Is(err, historial.ErrHistorialNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, cita.ErrMedicoOcupado):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "El doctor ya tiene una cita en este horario",
			Code:  "CONFLICTO_MEDICO",
		})

	case errors.Is(err, cita.ErrPacienteOcupado):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Ya tienes una cita agendada en este horario",
			Code:  "CONFLICTO_PACIENTE",
		})

	case errors.Is(err, cita.ErrFechaInvalida),
		errors.Is(err, cita.ErrFechaPasada),
		errors.Is(err, cita.ErrHoraInvalida),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrLicenseRequired),
		errors.Is(err, domain.ErrLicenseNotAllowed),
		errors.Is(err, domain.ErrNombreRequired),
		errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, historial.ErrMotivoRequired),
		errors.Is(err, service.ErrNotADoctor),
		errors.Is(err, service.ErrNotAPatient):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "account is inactive",
			Code:  "ACCOUNT_INACTIVE",
		})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// callerClaims returns the authenticated claims stashed by the middleware.
func callerClaims(c *gin.Context) (*domain.Claims, bool) {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	claims, ok := v.(*domain.Claims)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return claims, true
}
