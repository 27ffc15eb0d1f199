package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
)

// unknownPaciente is the placeholder shown when a cita references a patient
// that no longer resolves.
const unknownPaciente = "unknown"

type CitaHandler struct {
	citaSvc *service.CitaService
}

func NewCitaHandler(citaSvc *service.CitaService) *CitaHandler {
	return &CitaHandler{citaSvc: citaSvc}
}

// Disponibilidad is the tri-state availability pre-check the booking form
// runs before submitting.
func (h *CitaHandler) Disponibilidad(c *gin.Context) {
	medicoID, err := uuid.Parse(c.Query("medico"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid medico: must be a valid UUID")
		return
	}
	pacienteID, err := uuid.Parse(c.Query("paciente"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid paciente: must be a valid UUID")
		return
	}

	avail, err := h.citaSvc.CheckAvailability(c.Request.Context(), medicoID, pacienteID, c.Query("fecha"), c.Query("hora"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"estado": avail})
}

type createCitaRequest struct {
	PacienteID   uuid.UUID `json:"id_paciente" binding:"required"`
	MedicoID     uuid.UUID `json:"id_medico" binding:"required"`
	Especialidad string    `json:"especialidad"`
	Fecha        string    `json:"fecha" binding:"required"`
	Hora         string    `json:"hora" binding:"required"`
}

func (h *CitaHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createCitaRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &cita.CreateCitaCommand{
		PacienteID:   req.PacienteID,
		MedicoID:     req.MedicoID,
		Especialidad: req.Especialidad,
		Fecha:        req.Fecha,
		Hora:         req.Hora,
		CreatedBy:    claims.UserID,
	}

	created, err := h.citaSvc.Book(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, created)
}

// citaView decorates a cita with the resolved patient display name for the
// receptionist/administrator listing.
type citaView struct {
	*cita.Cita
	PacienteNombre string `json:"pacienteNombre,omitempty"`
}

func (h *CitaHandler) List(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	listing, err := h.citaSvc.ListForCaller(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if listing.Nombres == nil {
		respondOK(c, listing.Citas)
		return
	}

	views := make([]citaView, 0, len(listing.Citas))
	for _, ct := range listing.Citas {
		nombre, ok := listing.Nombres[ct.PacienteID]
		if !ok {
			nombre = unknownPaciente
		}
		views = append(views, citaView{Cita: ct, PacienteNombre: nombre})
	}

	respondOK(c, views)
}

func (h *CitaHandler) Get(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	ct, err := h.citaSvc.Get(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, ct)
}

func (h *CitaHandler) Cancel(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.citaSvc.Cancel(c.Request.Context(), id, claims, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "cita cancelada"})
}

// PacientesDeMedico is the doctor's roster view.
func (h *CitaHandler) PacientesDeMedico(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	roster, err := h.citaSvc.PacientesDeMedico(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, roster)
}
