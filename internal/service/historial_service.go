package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
)

// HistorialService manages clinical notes. Entries are private to the doctor
// who wrote them: another doctor treating the same patient starts from an
// empty history.
type HistorialService struct {
	historiales historial.Repository
	users       UserRepository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewHistorialService(historiales historial.Repository, users UserRepository, auditSvc *AuditService, log *zap.Logger) *HistorialService {
	return &HistorialService{historiales: historiales, users: users, auditSvc: auditSvc, log: log}
}

func (s *HistorialService) Create(ctx context.Context, cmd *historial.CreateHistorialCommand, caller *domain.Claims, ip string) (*historial.Historial, error) {
	if caller.Role != domain.RoleMedico {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Motivo) == "" {
		return nil, historial.ErrMotivoRequired
	}

	paciente, err := s.users.GetByID(ctx, cmd.PacienteID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrNotAPatient
		}
		return nil, err
	}
	if paciente.Rol != domain.RolePaciente {
		return nil, ErrNotAPatient
	}

	h := &historial.Historial{
		PacienteID:     cmd.PacienteID,
		MedicoID:       caller.UserID,
		Motivo:         strings.TrimSpace(cmd.Motivo),
		Antecedentes:   cmd.Antecedentes,
		Diagnostico:    cmd.Diagnostico,
		Tratamiento:    cmd.Tratamiento,
		Observaciones:  cmd.Observaciones,
		ProximaCita:    cmd.ProximaCita,
		PacienteNombre: paciente.Nombre,
	}

	if err := s.historiales.Create(ctx, h); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "historial",
		ResourceID:   h.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("historial created",
		zap.String("historial_id", h.ID.String()),
		zap.String("paciente_id", cmd.PacienteID.String()),
	)

	return h, nil
}

// List returns the caller's own entries for one patient, newest first.
func (s *HistorialService) List(ctx context.Context, pacienteID uuid.UUID, caller *domain.Claims) ([]*historial.Historial, error) {
	if caller.Role != domain.RoleMedico {
		return nil, ErrForbidden
	}
	return s.historiales.ListByMedicoPaciente(ctx, caller.UserID, pacienteID)
}

// Delete removes an entry. Only the doctor who wrote it may delete it, and a
// foreign entry reads as not found.
func (s *HistorialService) Delete(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if caller.Role != domain.RoleMedico {
		return ErrForbidden
	}

	h, err := s.historiales.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if h.MedicoID != caller.UserID {
		return historial.ErrHistorialNotFound
	}

	if err := s.historiales.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "historial",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return nil
}
