package historial

import "errors"

var (
	ErrHistorialNotFound = errors.New("medical history entry not found")
	ErrMotivoRequired    = errors.New("motivo is required")
)
