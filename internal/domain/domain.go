package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role values match the `rol` attribute the clinic has persisted since the
// first deployment, so they stay in Spanish on the wire.
type Role string

const (
	RoleAdministrador Role = "administrador"
	RoleMedico        Role = "medico"
	RoleRecepcionista Role = "recepcionista"
	RolePaciente      Role = "paciente"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrador, RoleMedico, RoleRecepcionista, RolePaciente:
		return true
	}
	return false
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidRole       = errors.New("invalid role value")
	ErrLicenseRequired   = errors.New("doctors must carry a license number")
	ErrLicenseNotAllowed = errors.New("only doctors may carry a license number or profile image")
	ErrNombreRequired    = errors.New("nombre is required")
	ErrEmailRequired     = errors.New("email is required")
)

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	Nombre       string `gorm:"column:nombre;type:varchar(150);not null" json:"nombre"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Rol          Role   `gorm:"column:rol;type:varchar(30);not null;index" json:"rol"`

	Identificacion  string `gorm:"column:identificacion;type:varchar(50)" json:"identificacion,omitempty"`
	FechaNacimiento string `gorm:"column:fecha_nacimiento;type:varchar(10)" json:"fechaNacimiento,omitempty"`
	Telefono        string `gorm:"column:telefono;type:varchar(30)" json:"telefono,omitempty"`
	Direccion       string `gorm:"column:direccion;type:text" json:"direccion,omitempty"`

	// Doctor-only fields. Matricula is the professional license number;
	// Imagen is an opaque URL into the external image host.
	Matricula    string `gorm:"column:matricula;type:varchar(50)" json:"matricula,omitempty"`
	Imagen       string `gorm:"column:imagen;type:text" json:"imagen,omitempty"`
	Especialidad string `gorm:"column:especialidad;type:varchar(100)" json:"especialidad,omitempty"`

	IsActive         bool       `gorm:"column:is_active;default:true;index" json:"-"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0" json:"-"`
	LockedUntil      *time.Time `gorm:"column:locked_until" json:"-"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at" json:"-"`
}

func (User) TableName() string {
	return "clinica.usuarios"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// Validate enforces the role/field coupling the old duck-typed records left
// implicit: doctors carry a license, everyone else must not.
func (u *User) Validate() error {
	if u.Nombre == "" {
		return ErrNombreRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	if !u.Rol.IsValid() {
		return ErrInvalidRole
	}
	if u.Rol == RoleMedico {
		if u.Matricula == "" {
			return ErrLicenseRequired
		}
		return nil
	}
	if u.Matricula != "" || u.Imagen != "" {
		return ErrLicenseNotAllowed
	}
	return nil
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
	Nombre string    `json:"nombre"`
	Role   Role      `json:"rol"`
}
