package cita

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new appointment. The storage layer carries unique
	// keys on (id_medico, fecha, hora) and (id_paciente, fecha, hora), so
	// Create is the atomic arbiter for a slot: a losing concurrent insert
	// returns ErrMedicoOcupado or ErrPacienteOcupado.
	Create(ctx context.Context, c *Cita) error

	// GetByID returns ErrCitaNotFound if no such appointment exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Cita, error)

	// Delete removes the appointment outright (no retention).
	// Returns ErrCitaNotFound when the id no longer resolves.
	Delete(ctx context.Context, id uuid.UUID) error

	ListByPaciente(ctx context.Context, pacienteID uuid.UUID) ([]*Cita, error)
	ListByMedico(ctx context.Context, medicoID uuid.UUID) ([]*Cita, error)

	// ListAll returns the full collection ordered by fecha then hora
	// ascending, for the receptionist/administrator view.
	ListAll(ctx context.Context) ([]*Cita, error)

	// ExistsMedicoSlot and ExistsPacienteSlot are the two point queries of
	// the availability check. They are advisory: the race between check and
	// insert is closed by Create's unique keys, not here.
	ExistsMedicoSlot(ctx context.Context, medicoID uuid.UUID, fecha, hora string) (bool, error)
	ExistsPacienteSlot(ctx context.Context, pacienteID uuid.UUID, fecha, hora string) (bool, error)

	// DistinctPacientesByMedico lists the ids of patients appearing in the
	// doctor's appointments, for the doctor's roster view.
	DistinctPacientesByMedico(ctx context.Context, medicoID uuid.UUID) ([]uuid.UUID, error)
}
