package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
)

type HistorialHandler struct {
	historialSvc *service.HistorialService
}

func NewHistorialHandler(historialSvc *service.HistorialService) *HistorialHandler {
	return &HistorialHandler{historialSvc: historialSvc}
}

type createHistorialRequest struct {
	PacienteID    uuid.UUID `json:"id_paciente" binding:"required"`
	Motivo        string    `json:"motivo" binding:"required"`
	Antecedentes  string    `json:"antecedentes"`
	Diagnostico   string    `json:"diagnostico"`
	Tratamiento   string    `json:"tratamiento"`
	Observaciones string    `json:"observaciones"`
	ProximaCita   string    `json:"proximaCita"`
}

func (h *HistorialHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createHistorialRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &historial.CreateHistorialCommand{
		PacienteID:    req.PacienteID,
		MedicoID:      claims.UserID,
		Motivo:        req.Motivo,
		Antecedentes:  req.Antecedentes,
		Diagnostico:   req.Diagnostico,
		Tratamiento:   req.Tratamiento,
		Observaciones: req.Observaciones,
		ProximaCita:   req.ProximaCita,
	}

	created, err := h.historialSvc.Create(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, created)
}

func (h *HistorialHandler) List(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	pacienteID, err := uuid.Parse(c.Query("paciente"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid paciente: must be a valid UUID")
		return
	}

	entries, err := h.historialSvc.List(c.Request.Context(), pacienteID, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, entries)
}

func (h *HistorialHandler) Delete(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.historialSvc.Delete(c.Request.Context(), id, claims, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "historial eliminado"})
}
