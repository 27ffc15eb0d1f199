package cita

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// Fecha is a bare calendar date and Hora a clinic-local slot time.
	// Neither carries a timezone: a slot means "that wall-clock time at the
	// clinic", which is how the booking data has always been stored.
	FechaLayout = "2006-01-02"
	HoraLayout  = "15:04"
)

// Availability is the tri-state result of the pre-booking check.
type Availability string

const (
	Disponible        Availability = "disponible"
	ConflictoMedico   Availability = "conflicto-medico"
	ConflictoPaciente Availability = "conflicto-paciente"
)

// Cita is a scheduled meeting between exactly one patient and one doctor.
// Doctor holds a denormalized copy of the doctor's display name so patient
// dashboards render without a join; it may go stale if the doctor renames.
type Cita struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreadaEn time.Time `gorm:"column:creada_en;autoCreateTime;index" json:"creadaEn"`

	PacienteID uuid.UUID `gorm:"column:id_paciente;type:uuid;not null;index" json:"id_paciente"`
	MedicoID   uuid.UUID `gorm:"column:id_medico;type:uuid;not null;index" json:"id_medico"`

	Doctor       string `gorm:"column:doctor;type:varchar(150);not null" json:"doctor"`
	Especialidad string `gorm:"column:especialidad;type:varchar(100)" json:"especialidad"`

	Fecha string `gorm:"column:fecha;type:varchar(10);not null;index" json:"fecha"`
	Hora  string `gorm:"column:hora;type:varchar(5);not null" json:"hora"`

	Estado string `gorm:"column:estado;type:varchar(20);default:'pendiente'" json:"estado"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"-"`
}

func (Cita) TableName() string {
	return "clinica.citas"
}

// Slot returns the (fecha, hora) pair as a single comparable key.
func (c *Cita) Slot() string {
	return c.Fecha + " " + c.Hora
}

// SlotTimes is the clinic's bookable grid: 08:00 through 22:00 at minutes
// :00 and :45, with 22:45 falling outside opening hours.
func SlotTimes() []string {
	var slots []string
	for hour := 8; hour <= 22; hour++ {
		for _, minute := range []int{0, 45} {
			if hour == 22 && minute > 0 {
				break
			}
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// ValidSlot reports whether hora falls on the bookable grid.
func ValidSlot(hora string) bool {
	for _, s := range SlotTimes() {
		if s == hora {
			return true
		}
	}
	return false
}

// ValidateFecha checks the date format and refuses days before today.
// "Today" is evaluated against now's calendar date, matching the min-date
// rule the booking form applies.
func ValidateFecha(fecha string, now time.Time) error {
	d, err := time.Parse(FechaLayout, fecha)
	if err != nil {
		return ErrFechaInvalida
	}
	today, _ := time.Parse(FechaLayout, now.Format(FechaLayout))
	if d.Before(today) {
		return ErrFechaPasada
	}
	return nil
}

// ValidateHora checks the format and the clinic slot grid.
func ValidateHora(hora string) error {
	if _, err := time.Parse(HoraLayout, hora); err != nil {
		return ErrHoraInvalida
	}
	if !ValidSlot(hora) {
		return ErrHoraInvalida
	}
	return nil
}

type CreateCitaCommand struct {
	PacienteID   uuid.UUID
	MedicoID     uuid.UUID
	Especialidad string
	Fecha        string
	Hora         string
	CreatedBy    uuid.UUID
}
