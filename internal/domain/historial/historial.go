package historial

import (
	"time"

	"github.com/google/uuid"
)

// Historial is a free-text clinical note tied to one patient and one doctor.
// PacienteNombre is denormalized at write time so the doctor's dashboard
// renders without a join.
type Historial struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Fecha time.Time `gorm:"column:fecha;autoCreateTime;index" json:"fecha"`

	PacienteID uuid.UUID `gorm:"column:id_paciente;type:uuid;not null;index" json:"id_paciente"`
	MedicoID   uuid.UUID `gorm:"column:id_medico;type:uuid;not null;index" json:"id_medico"`

	Motivo        string `gorm:"column:motivo;type:text;not null" json:"motivo"`
	Antecedentes  string `gorm:"column:antecedentes;type:text" json:"antecedentes"`
	Diagnostico   string `gorm:"column:diagnostico;type:text" json:"diagnostico"`
	Tratamiento   string `gorm:"column:tratamiento;type:text" json:"tratamiento"`
	Observaciones string `gorm:"column:observaciones;type:text" json:"observaciones"`
	ProximaCita   string `gorm:"column:proxima_cita;type:varchar(10)" json:"proximaCita,omitempty"`

	PacienteNombre string `gorm:"column:paciente_nombre;type:varchar(150)" json:"pacienteNombre"`
}

func (Historial) TableName() string {
	return "clinica.historiales"
}

type CreateHistorialCommand struct {
	PacienteID    uuid.UUID
	MedicoID      uuid.UUID
	Motivo        string
	Antecedentes  string
	Diagnostico   string
	Tratamiento   string
	Observaciones string
	ProximaCita   string
}
