package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
)

// DirectoryService owns the user registry: registration (an administrator or
// receptionist driven flow, never self-service) and the role-filtered
// directory queries every dashboard issues on mount.
type DirectoryService struct {
	repo     UserRepository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDirectoryService(repo UserRepository, auditSvc *AuditService, log *zap.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, auditSvc: auditSvc, log: log}
}

type CreateUserCommand struct {
	Nombre          string
	Email           string
	Password        string
	Rol             domain.Role
	Identificacion  string
	FechaNacimiento string
	Telefono        string
	Direccion       string
	Matricula       string
	Imagen          string
	Especialidad    string
}

func (s *DirectoryService) CreateUser(ctx context.Context, cmd *CreateUserCommand, caller *domain.Claims, ip string) (*domain.User, error) {
	switch caller.Role {
	case domain.RoleAdministrador:
		// may create any role
	case domain.RoleRecepcionista:
		// the front-desk registration flow only ever creates patients
		if cmd.Rol != domain.RolePaciente {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if err := validateCreateUserCommand(cmd); err != nil {
		return nil, err
	}

	u := &domain.User{
		Nombre:          strings.TrimSpace(cmd.Nombre),
		Email:           strings.ToLower(strings.TrimSpace(cmd.Email)),
		Rol:             cmd.Rol,
		Identificacion:  strings.TrimSpace(cmd.Identificacion),
		FechaNacimiento: cmd.FechaNacimiento,
		Telefono:        strings.TrimSpace(cmd.Telefono),
		Direccion:       cmd.Direccion,
		Matricula:       strings.TrimSpace(cmd.Matricula),
		Imagen:          cmd.Imagen,
		Especialidad:    cmd.Especialidad,
		IsActive:        true,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("rol", string(u.Rol)),
		zap.String("created_by", caller.UserID.String()),
	)

	return u, nil
}

// ListByRole returns every user whose rol matches, ordered by nombre.
// The dashboards re-issue this on every mount, so there is deliberately no
// cache and no pagination in front of it.
func (s *DirectoryService) ListByRole(ctx context.Context, rol string) ([]*domain.User, error) {
	r := domain.Role(rol)
	if !r.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	return s.repo.ListByRole(ctx, r)
}

func (s *DirectoryService) GetUser(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*domain.User, error) {
	switch caller.Role {
	case domain.RoleAdministrador, domain.RoleRecepcionista:
	default:
		if caller.UserID != id {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *DirectoryService) DeleteUser(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if caller.Role != domain.RoleAdministrador {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "delete",
		ResourceType: "user",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return nil
}

func validateCreateUserCommand(cmd *CreateUserCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Nombre) == "" {
		errs = append(errs, "nombre is required")
	}
	if strings.TrimSpace(cmd.Email) == "" || !strings.Contains(cmd.Email, "@") {
		errs = append(errs, "email is required")
	}
	if len(cmd.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if !cmd.Rol.IsValid() {
		errs = append(errs, "rol is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
