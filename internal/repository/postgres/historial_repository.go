package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
)

type HistorialRepository struct {
	db *gorm.DB
}

func NewHistorialRepository(db *gorm.DB) *HistorialRepository {
	return &HistorialRepository{db: db}
}

func (r *HistorialRepository) Create(ctx context.Context, h *historial.Historial) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("creating historial: %w", err)
	}
	return nil
}

func (r *HistorialRepository) GetByID(ctx context.Context, id uuid.UUID) (*historial.Historial, error) {
	var h historial.Historial
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, historial.ErrHistorialNotFound
		}
		return nil, fmt.Errorf("fetching historial: %w", err)
	}
	return &h, nil
}

func (r *HistorialRepository) ListByMedicoPaciente(ctx context.Context, medicoID, pacienteID uuid.UUID) ([]*historial.Historial, error) {
	var entries []*historial.Historial
	err := r.db.WithContext(ctx).
		Where("id_medico = ? AND id_paciente = ?", medicoID, pacienteID).
		Order("fecha DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing historiales: %w", err)
	}
	return entries, nil
}

func (r *HistorialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&historial.Historial{})
	if result.Error != nil {
		return fmt.Errorf("deleting historial: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return historial.ErrHistorialNotFound
	}
	return nil
}
