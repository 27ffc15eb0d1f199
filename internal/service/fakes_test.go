package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
)

// In-memory repository fakes. The cita fake enforces the same unique slot
// keys the real schema carries, so the concurrency tests exercise the actual
// arbiter semantics.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	// listByIDsCalls records the size of each ListByIDs batch.
	listByIDsCalls []int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, rol domain.Role) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, u := range f.users {
		if u.Rol == rol {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listByIDsCalls = append(f.listByIDsCalls, len(ids))
	var out []*domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if success {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		return nil
	}
	u.FailedLoginCount++
	if u.FailedLoginCount >= maxFailedAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeCitaRepo struct {
	mu    sync.Mutex
	citas map[uuid.UUID]*cita.Cita
}

func newFakeCitaRepo() *fakeCitaRepo {
	return &fakeCitaRepo{citas: make(map[uuid.UUID]*cita.Cita)}
}

func (f *fakeCitaRepo) Create(ctx context.Context, c *cita.Cita) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.citas {
		if existing.MedicoID == c.MedicoID && existing.Fecha == c.Fecha && existing.Hora == c.Hora {
			return cita.ErrMedicoOcupado
		}
		if existing.PacienteID == c.PacienteID && existing.Fecha == c.Fecha && existing.Hora == c.Hora {
			return cita.ErrPacienteOcupado
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	copied := *c
	f.citas[c.ID] = &copied
	return nil
}

func (f *fakeCitaRepo) GetByID(ctx context.Context, id uuid.UUID) (*cita.Cita, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.citas[id]
	if !ok {
		return nil, cita.ErrCitaNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCitaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.citas[id]; !ok {
		return cita.ErrCitaNotFound
	}
	delete(f.citas, id)
	return nil
}

func (f *fakeCitaRepo) ListByPaciente(ctx context.Context, pacienteID uuid.UUID) ([]*cita.Cita, error) {
	return f.list(func(c *cita.Cita) bool { return c.PacienteID == pacienteID })
}

func (f *fakeCitaRepo) ListByMedico(ctx context.Context, medicoID uuid.UUID) ([]*cita.Cita, error) {
	return f.list(func(c *cita.Cita) bool { return c.MedicoID == medicoID })
}

func (f *fakeCitaRepo) ListAll(ctx context.Context) ([]*cita.Cita, error) {
	return f.list(func(*cita.Cita) bool { return true })
}

func (f *fakeCitaRepo) ExistsMedicoSlot(ctx context.Context, medicoID uuid.UUID, fecha, hora string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.citas {
		if c.MedicoID == medicoID && c.Fecha == fecha && c.Hora == hora {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCitaRepo) ExistsPacienteSlot(ctx context.Context, pacienteID uuid.UUID, fecha, hora string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.citas {
		if c.PacienteID == pacienteID && c.Fecha == fecha && c.Hora == hora {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCitaRepo) DistinctPacientesByMedico(ctx context.Context, medicoID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, c := range f.citas {
		if c.MedicoID != medicoID {
			continue
		}
		if _, ok := seen[c.PacienteID]; ok {
			continue
		}
		seen[c.PacienteID] = struct{}{}
		ids = append(ids, c.PacienteID)
	}
	return ids, nil
}

func (f *fakeCitaRepo) list(match func(*cita.Cita) bool) ([]*cita.Cita, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*cita.Cita
	for _, c := range f.citas {
		if match(c) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeHistorialRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*historial.Historial
}

func newFakeHistorialRepo() *fakeHistorialRepo {
	return &fakeHistorialRepo{entries: make(map[uuid.UUID]*historial.Historial)}
}

func (f *fakeHistorialRepo) Create(ctx context.Context, h *historial.Historial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	copied := *h
	f.entries[h.ID] = &copied
	return nil
}

func (f *fakeHistorialRepo) GetByID(ctx context.Context, id uuid.UUID) (*historial.Historial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.entries[id]
	if !ok {
		return nil, historial.ErrHistorialNotFound
	}
	copied := *h
	return &copied, nil
}

func (f *fakeHistorialRepo) ListByMedicoPaciente(ctx context.Context, medicoID, pacienteID uuid.UUID) ([]*historial.Historial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*historial.Historial
	for _, h := range f.entries {
		if h.MedicoID == medicoID && h.PacienteID == pacienteID {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeHistorialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return historial.ErrHistorialNotFound
	}
	delete(f.entries, id)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func newTestAuditService() *AuditService {
	return NewAuditService(&fakeAuditRepo{}, zap.NewNop())
}
