package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/pkg/database"
)

// Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// isUniqueViolation unwraps a pgconn error carrying code 23505, or nil.
func isUniqueViolation(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr
	}
	return nil
}

type CitaRepository struct {
	db *gorm.DB
}

func NewCitaRepository(db *gorm.DB) *CitaRepository {
	return &CitaRepository{db: db}
}

// Create inserts the appointment. The unique slot keys decide concurrent
// races; a violation is translated back into the matching conflict error by
// constraint name.
func (r *CitaRepository) Create(ctx context.Context, c *cita.Cita) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if pgErr := isUniqueViolation(err); pgErr != nil {
			switch pgErr.ConstraintName {
			case database.UniqueMedicoSlot:
				return cita.ErrMedicoOcupado
			case database.UniquePacienteSlot:
				return cita.ErrPacienteOcupado
			}
		}
		return fmt.Errorf("creating cita: %w", err)
	}
	return nil
}

func (r *CitaRepository) GetByID(ctx context.Context, id uuid.UUID) (*cita.Cita, error) {
	var c cita.Cita
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cita.ErrCitaNotFound
		}
		return nil, fmt.Errorf("fetching cita: %w", err)
	}
	return &c, nil
}

func (r *CitaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&cita.Cita{})
	if result.Error != nil {
		return fmt.Errorf("deleting cita: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return cita.ErrCitaNotFound
	}
	return nil
}

func (r *CitaRepository) ListByPaciente(ctx context.Context, pacienteID uuid.UUID) ([]*cita.Cita, error) {
	return r.list(ctx, "id_paciente = ?", pacienteID)
}

func (r *CitaRepository) ListByMedico(ctx context.Context, medicoID uuid.UUID) ([]*cita.Cita, error) {
	return r.list(ctx, "id_medico = ?", medicoID)
}

func (r *CitaRepository) ListAll(ctx context.Context) ([]*cita.Cita, error) {
	var citas []*cita.Cita
	err := r.db.WithContext(ctx).
		Order("fecha ASC, hora ASC").
		Find(&citas).Error
	if err != nil {
		return nil, fmt.Errorf("listing citas: %w", err)
	}
	return citas, nil
}

func (r *CitaRepository) ExistsMedicoSlot(ctx context.Context, medicoID uuid.UUID, fecha, hora string) (bool, error) {
	return r.exists(ctx, "id_medico = ? AND fecha = ? AND hora = ?", medicoID, fecha, hora)
}

func (r *CitaRepository) ExistsPacienteSlot(ctx context.Context, pacienteID uuid.UUID, fecha, hora string) (bool, error) {
	return r.exists(ctx, "id_paciente = ? AND fecha = ? AND hora = ?", pacienteID, fecha, hora)
}

func (r *CitaRepository) DistinctPacientesByMedico(ctx context.Context, medicoID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&cita.Cita{}).
		Where("id_medico = ?", medicoID).
		Distinct("id_paciente").
		Pluck("id_paciente", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing distinct pacientes: %w", err)
	}
	return ids, nil
}

func (r *CitaRepository) list(ctx context.Context, query string, arg any) ([]*cita.Cita, error) {
	var citas []*cita.Cita
	err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("fecha ASC, hora ASC").
		Find(&citas).Error
	if err != nil {
		return nil, fmt.Errorf("listing citas: %w", err)
	}
	return citas, nil
}

func (r *CitaRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&cita.Cita{}).
		Where(query, args...).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking slot: %w", err)
	}
	return count > 0, nil
}
