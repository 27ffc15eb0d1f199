package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrForbidden   = errors.New("forbidden: insufficient permissions")
	ErrNotADoctor  = errors.New("referenced user is not a doctor")
	ErrNotAPatient = errors.New("referenced user is not a patient")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      string
}
