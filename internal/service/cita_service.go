package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
)

// defaultEspecialidad is applied when a booking names no specialty, matching
// the clinic's general-practice default.
const defaultEspecialidad = "Odontología General"

// lookupChunkSize bounds each batch of the id-to-name resolution query.
const lookupChunkSize = 10

// BookingMetrics records booking outcomes; implemented by pkg/metrics.
type BookingMetrics interface {
	BookingAttempt(outcome string)
}

// CitaService implements slot availability, booking, the role-scoped listing
// views and cancellation.
//
// The availability check is advisory only: two concurrent bookings for the
// same slot both see it free, and the unique keys behind Repository.Create
// decide the winner. The loser gets the same conflict error the pre-check
// would have produced.
type CitaService struct {
	citas    cita.Repository
	users    UserRepository
	auditSvc *AuditService
	metrics  BookingMetrics
	log      *zap.Logger

	now func() time.Time
}

func NewCitaService(citas cita.Repository, users UserRepository, auditSvc *AuditService, metrics BookingMetrics, log *zap.Logger) *CitaService {
	return &CitaService{
		citas:    citas,
		users:    users,
		auditSvc: auditSvc,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// CheckAvailability reports the tri-state status of a slot for a given
// doctor/patient pair. The doctor's calendar is consulted first, so a slot
// that collides on both sides reports the doctor conflict.
func (s *CitaService) CheckAvailability(ctx context.Context, medicoID, pacienteID uuid.UUID, fecha, hora string) (cita.Availability, error) {
	if err := cita.ValidateFecha(fecha, s.now()); err != nil {
		return "", err
	}
	if err := cita.ValidateHora(hora); err != nil {
		return "", err
	}

	busy, err := s.citas.ExistsMedicoSlot(ctx, medicoID, fecha, hora)
	if err != nil {
		return "", err
	}
	if busy {
		return cita.ConflictoMedico, nil
	}

	busy, err = s.citas.ExistsPacienteSlot(ctx, pacienteID, fecha, hora)
	if err != nil {
		return "", err
	}
	if busy {
		return cita.ConflictoPaciente, nil
	}

	return cita.Disponible, nil
}

// Book creates an appointment. Patients may only book for themselves;
// receptionists and administrators may book on behalf of any patient.
func (s *CitaService) Book(ctx context.Context, cmd *cita.CreateCitaCommand, caller *domain.Claims, ip string) (*cita.Cita, error) {
	switch caller.Role {
	case domain.RolePaciente:
		if cmd.PacienteID != caller.UserID {
			s.recordBooking("forbidden")
			return nil, ErrForbidden
		}
	case domain.RoleRecepcionista, domain.RoleAdministrador:
	default:
		s.recordBooking("forbidden")
		return nil, ErrForbidden
	}

	if err := cita.ValidateFecha(cmd.Fecha, s.now()); err != nil {
		s.recordBooking("invalid")
		return nil, err
	}
	if err := cita.ValidateHora(cmd.Hora); err != nil {
		s.recordBooking("invalid")
		return nil, err
	}

	medico, err := s.users.GetByID(ctx, cmd.MedicoID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordBooking("invalid")
			return nil, ErrNotADoctor
		}
		return nil, err
	}
	if medico.Rol != domain.RoleMedico {
		s.recordBooking("invalid")
		return nil, ErrNotADoctor
	}

	paciente, err := s.users.GetByID(ctx, cmd.PacienteID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordBooking("invalid")
			return nil, ErrNotAPatient
		}
		return nil, err
	}
	if paciente.Rol != domain.RolePaciente || !paciente.IsActive {
		s.recordBooking("invalid")
		return nil, ErrNotAPatient
	}

	// Advisory pre-check so the common sequential case gets its answer
	// without touching the unique keys.
	avail, err := s.CheckAvailability(ctx, cmd.MedicoID, cmd.PacienteID, cmd.Fecha, cmd.Hora)
	if err != nil {
		return nil, err
	}
	switch avail {
	case cita.ConflictoMedico:
		s.recordBooking("conflicto_medico")
		return nil, cita.ErrMedicoOcupado
	case cita.ConflictoPaciente:
		s.recordBooking("conflicto_paciente")
		return nil, cita.ErrPacienteOcupado
	}

	especialidad := cmd.Especialidad
	if especialidad == "" {
		especialidad = medico.Especialidad
	}
	if especialidad == "" {
		especialidad = defaultEspecialidad
	}

	c := &cita.Cita{
		PacienteID:   cmd.PacienteID,
		MedicoID:     cmd.MedicoID,
		Doctor:       medico.Nombre,
		Especialidad: especialidad,
		Fecha:        cmd.Fecha,
		Hora:         cmd.Hora,
		Estado:       "pendiente",
		CreatedBy:    cmd.CreatedBy,
	}

	if err := s.citas.Create(ctx, c); err != nil {
		switch {
		case errors.Is(err, cita.ErrMedicoOcupado):
			s.recordBooking("conflicto_medico")
		case errors.Is(err, cita.ErrPacienteOcupado):
			s.recordBooking("conflicto_paciente")
		}
		return nil, err
	}

	s.recordBooking("created")

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "cita",
		ResourceID:   c.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("cita booked",
		zap.String("cita_id", c.ID.String()),
		zap.String("medico_id", cmd.MedicoID.String()),
		zap.String("fecha", cmd.Fecha),
		zap.String("hora", cmd.Hora),
	)

	return c, nil
}

// Listing is the role-scoped appointment view. Nombres maps patient ids to
// display names and is only populated for the staff view; ids that no longer
// resolve (patient deleted after booking) are absent and callers render the
// placeholder.
type Listing struct {
	Citas   []*cita.Cita
	Nombres map[uuid.UUID]string
}

// ListForCaller returns the caller's slice of the appointment book:
// patients see their own citas, doctors their assigned ones, and staff the
// whole collection with patient names resolved alongside.
func (s *CitaService) ListForCaller(ctx context.Context, caller *domain.Claims) (*Listing, error) {
	switch caller.Role {
	case domain.RolePaciente:
		citas, err := s.citas.ListByPaciente(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		return &Listing{Citas: citas}, nil

	case domain.RoleMedico:
		citas, err := s.citas.ListByMedico(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		return &Listing{Citas: citas}, nil

	case domain.RoleRecepcionista, domain.RoleAdministrador:
		citas, err := s.citas.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(citas))
		seen := make(map[uuid.UUID]struct{}, len(citas))
		for _, c := range citas {
			if _, ok := seen[c.PacienteID]; ok {
				continue
			}
			seen[c.PacienteID] = struct{}{}
			ids = append(ids, c.PacienteID)
		}
		nombres, err := s.resolveNombres(ctx, ids)
		if err != nil {
			return nil, err
		}
		return &Listing{Citas: citas, Nombres: nombres}, nil

	default:
		return nil, ErrForbidden
	}
}

// Get returns a single appointment. A cita the caller is not a party to
// reads as not found rather than forbidden, so ids cannot be probed.
func (s *CitaService) Get(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*cita.Cita, error) {
	c, err := s.citas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.partyTo(c, caller) {
		return nil, cita.ErrCitaNotFound
	}
	return c, nil
}

// Cancel removes an appointment outright. Cancelling an id that no longer
// exists succeeds, so a double-click on the cancel button is harmless.
func (s *CitaService) Cancel(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	c, err := s.citas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, cita.ErrCitaNotFound) {
			return nil
		}
		return err
	}
	if !s.partyTo(c, caller) {
		return cita.ErrCitaNotFound
	}

	if err := s.citas.Delete(ctx, id); err != nil {
		if errors.Is(err, cita.ErrCitaNotFound) {
			return nil
		}
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "cita",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	s.log.Info("cita cancelled",
		zap.String("cita_id", id.String()),
		zap.String("by", caller.UserID.String()),
	)
	return nil
}

// PacientesDeMedico returns the doctor's patient roster: every patient who
// appears in at least one of the doctor's appointments.
func (s *CitaService) PacientesDeMedico(ctx context.Context, caller *domain.Claims) ([]*domain.User, error) {
	if caller.Role != domain.RoleMedico {
		return nil, ErrForbidden
	}

	ids, err := s.citas.DistinctPacientesByMedico(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	roster := make([]*domain.User, 0, len(ids))
	for _, chunk := range chunkIDs(ids, lookupChunkSize) {
		users, err := s.users.ListByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u.Rol != domain.RolePaciente {
				continue
			}
			roster = append(roster, u)
		}
	}
	return roster, nil
}

func (s *CitaService) partyTo(c *cita.Cita, caller *domain.Claims) bool {
	switch caller.Role {
	case domain.RoleRecepcionista, domain.RoleAdministrador:
		return true
	case domain.RoleMedico:
		return c.MedicoID == caller.UserID
	case domain.RolePaciente:
		return c.PacienteID == caller.UserID
	}
	return false
}

func (s *CitaService) resolveNombres(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	nombres := make(map[uuid.UUID]string, len(ids))
	for _, chunk := range chunkIDs(ids, lookupChunkSize) {
		users, err := s.users.ListByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			nombres[u.ID] = u.Nombre
		}
	}
	return nombres, nil
}

func (s *CitaService) recordBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingAttempt(outcome)
	}
}

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
