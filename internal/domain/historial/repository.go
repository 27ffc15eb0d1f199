package historial

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, h *Historial) error

	// GetByID returns ErrHistorialNotFound if no such entry exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Historial, error)

	// ListByMedicoPaciente returns the creating doctor's entries for one
	// patient, newest first.
	ListByMedicoPaciente(ctx context.Context, medicoID, pacienteID uuid.UUID) ([]*Historial, error)

	// Delete hard-deletes an entry. Returns ErrHistorialNotFound when the
	// id no longer resolves.
	Delete(ctx context.Context, id uuid.UUID) error
}
