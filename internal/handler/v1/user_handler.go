package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
)

type UserHandler struct {
	directorySvc *service.DirectoryService
}

func NewUserHandler(directorySvc *service.DirectoryService) *UserHandler {
	return &UserHandler{directorySvc: directorySvc}
}

type createUserRequest struct {
	Nombre          string `json:"nombre" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	Rol             string `json:"rol" binding:"required"`
	Identificacion  string `json:"identificacion"`
	FechaNacimiento string `json:"fechaNacimiento"`
	Telefono        string `json:"telefono"`
	Direccion       string `json:"direccion"`
	Matricula       string `json:"matricula"`
	Imagen          string `json:"imagen"`
	Especialidad    string `json:"especialidad"`
}

func (h *UserHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.CreateUserCommand{
		Nombre:          req.Nombre,
		Email:           req.Email,
		Password:        req.Password,
		Rol:             domain.Role(req.Rol),
		Identificacion:  req.Identificacion,
		FechaNacimiento: req.FechaNacimiento,
		Telefono:        req.Telefono,
		Direccion:       req.Direccion,
		Matricula:       req.Matricula,
		Imagen:          req.Imagen,
		Especialidad:    req.Especialidad,
	}

	user, err := h.directorySvc.CreateUser(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, user)
}

// List is the directory query: every user with the requested rol, ordered
// by nombre.
func (h *UserHandler) List(c *gin.Context) {
	rol := c.Query("rol")
	if rol == "" {
		respondError(c, http.StatusBadRequest, "rol query parameter is required")
		return
	}

	users, err := h.directorySvc.ListByRole(c.Request.Context(), rol)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.directorySvc.GetUser(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.directorySvc.DeleteUser(c.Request.Context(), id, claims, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "user deleted"})
}
