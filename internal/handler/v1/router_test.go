package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sonrisa-dental/sonrisa-api/internal/config"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/internal/service"
	"github.com/sonrisa-dental/sonrisa-api/pkg/auth"
	"github.com/sonrisa-dental/sonrisa-api/pkg/metrics"
)

// In-memory repositories backing the end-to-end flow.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) ListByRole(ctx context.Context, rol domain.Role) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.users {
		if u.Rol == rol {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memCitaRepo struct {
	mu    sync.Mutex
	citas map[uuid.UUID]*cita.Cita
}

func (m *memCitaRepo) Create(ctx context.Context, c *cita.Cita) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.citas {
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
	m.citas[c.ID] = c
	return nil
}

func (m *memCitaRepo) GetByID(ctx context.Context, id uuid.UUID) (*cita.Cita, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.citas[id]; ok {
		return c, nil
	}
	return nil, cita.ErrCitaNotFound
}

func (m *memCitaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.citas[id]; !ok {
		return cita.ErrCitaNotFound
	}
	delete(m.citas, id)
	return nil
}

func (m *memCitaRepo) ListByPaciente(ctx context.Context, pacienteID uuid.UUID) ([]*cita.Cita, error) {
	return m.filter(func(c *cita.Cita) bool { return c.PacienteID == pacienteID }), nil
}

func (m *memCitaRepo) ListByMedico(ctx context.Context, medicoID uuid.UUID) ([]*cita.Cita, error) {
	return m.filter(func(c *cita.Cita) bool { return c.MedicoID == medicoID }), nil
}

func (m *memCitaRepo) ListAll(ctx context.Context) ([]*cita.Cita, error) {
	return m.filter(func(*cita.Cita) bool { return true }), nil
}

func (m *memCitaRepo) ExistsMedicoSlot(ctx context.Context, medicoID uuid.UUID, fecha, hora string) (bool, error) {
	return len(m.filter(func(c *cita.Cita) bool {
		return c.MedicoID == medicoID && c.Fecha == fecha && c.Hora == hora
	})) > 0, nil
}

func (m *memCitaRepo) ExistsPacienteSlot(ctx context.Context, pacienteID uuid.UUID, fecha, hora string) (bool, error) {
	return len(m.filter(func(c *cita.Cita) bool {
		return c.PacienteID == pacienteID && c.Fecha == fecha && c.Hora == hora
	})) > 0, nil
}

func (m *memCitaRepo) DistinctPacientesByMedico(ctx context.Context, medicoID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, c := range m.citas {
		if c.MedicoID == medicoID {
			if _, ok := seen[c.PacienteID]; !ok {
				seen[c.PacienteID] = struct{}{}
				ids = append(ids, c.PacienteID)
			}
		}
	}
	return ids, nil
}

func (m *memCitaRepo) filter(match func(*cita.Cita) bool) []*cita.Cita {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*cita.Cita
	for _, c := range m.citas {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

type memAuditRepo struct{}

func (memAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error { return nil }

type apiFixture struct {
	router   *gin.Engine
	jwt      *auth.JWTManager
	users    *memUserRepo
	medico   *domain.User
	paciente *domain.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Name: "sonrisa-api", Environment: "test", Version: "test"},
		JWT: config.JWTConfig{
			Secret:          "test-secret-test-secret-test-secret!",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
			Issuer:          "sonrisa-test",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://app.sonrisadental.ec"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 1000, BurstSize: 1000,
			AuthRequestsPerSecond: 1000, AuthBurstSize: 1000,
		},
	}

	log := zap.NewNop()
	users := &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
	citas := &memCitaRepo{citas: make(map[uuid.UUID]*cita.Cita)}
	auditSvc := service.NewAuditService(memAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)

	jwtManager := auth.NewJWTManager(cfg.JWT)

	deps := RouterDeps{
		Config:       cfg,
		Log:          log,
		Collector:    metrics.NewCollector(fmt.Sprintf("t%d", time.Now().UnixNano())),
		JWTManager:   jwtManager,
		AuthSvc:      service.NewAuthService(users, jwtManager, auditSvc, log),
		DirectorySvc: service.NewDirectoryService(users, auditSvc, log),
		CitaSvc:      service.NewCitaService(citas, users, auditSvc, nil, log),
		HistorialSvc: nil,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	medico := &domain.User{
		ID: uuid.New(), Nombre: "Dra. Carla Mendoza", Email: "carla@sonrisa.ec",
		PasswordHash: string(hash), Rol: domain.RoleMedico,
		Matricula: "MAT-1001", Especialidad: "Ortodoncia", IsActive: true,
	}
	paciente := &domain.User{
		ID: uuid.New(), Nombre: "Luis Paredes", Email: "luis@example.com",
		PasswordHash: string(hash), Rol: domain.RolePaciente, IsActive: true,
	}
	users.users[medico.ID] = medico
	users.users[paciente.ID] = paciente

	return &apiFixture{
		router:   NewRouter(deps),
		jwt:      jwtManager,
		users:    users,
		medico:   medico,
		paciente: paciente,
	}
}

func (f *apiFixture) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	pair, err := f.jwt.GenerateTokenPair(&domain.Claims{
		UserID: u.ID, Email: u.Email, Nombre: u.Nombre, Role: u.Rol,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestBookingEndToEnd(t *testing.T) {
	f := newAPIFixture(t)

	fecha := time.Now().AddDate(0, 0, 7).Format(cita.FechaLayout)
	pacienteToken := f.tokenFor(t, f.paciente)
	medicoToken := f.tokenFor(t, f.medico)

	// Unauthenticated requests are refused.
	rec := f.do(t, http.MethodGet, "/api/v1/citas", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Login works with real credentials.
	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "luis@example.com", "password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The session endpoint knows the landing route.
	rec = f.do(t, http.MethodGet, "/api/v1/session", pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ruta":"/paciente"`)

	// The slot is free.
	rec = f.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/citas/disponibilidad?medico=%s&paciente=%s&fecha=%s&hora=10:45", f.medico.ID, f.paciente.ID, fecha),
		pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disponible")

	// The patient books it.
	rec = f.do(t, http.MethodPost, "/api/v1/citas", pacienteToken, gin.H{
		"id_paciente": f.paciente.ID, "id_medico": f.medico.ID, "fecha": fecha, "hora": "10:45",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data cita.Cita `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pendiente", created.Data.Estado)
	assert.Equal(t, "Dra. Carla Mendoza", created.Data.Doctor)

	// Both parties read it back through their scoped listings.
	rec = f.do(t, http.MethodGet, "/api/v1/citas", pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Data.ID.String())

	rec = f.do(t, http.MethodGet, "/api/v1/citas", medicoToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Data.ID.String())

	// A second booking of the same doctor slot is refused with the specific
	// doctor-conflict message.
	otro := &domain.User{
		ID: uuid.New(), Nombre: "Ana Ríos", Email: "ana@example.com",
		Rol: domain.RolePaciente, IsActive: true,
	}
	f.users.users[otro.ID] = otro

	rec = f.do(t, http.MethodPost, "/api/v1/citas", f.tokenFor(t, otro), gin.H{
		"id_paciente": otro.ID, "id_medico": f.medico.ID, "fecha": fecha, "hora": "10:45",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "El doctor ya tiene una cita en este horario")

	// Cancellation is idempotent.
	rec = f.do(t, http.MethodDelete, "/api/v1/citas/"+created.Data.ID.String(), pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/citas/"+created.Data.ID.String(), pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// And the slot opens up again.
	rec = f.do(t, http.MethodPost, "/api/v1/citas", f.tokenFor(t, otro), gin.H{
		"id_paciente": otro.ID, "id_medico": f.medico.ID, "fecha": fecha, "hora": "10:45",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Unknown routes answer JSON 404.
	rec = f.do(t, http.MethodGet, "/api/v1/nope", pacienteToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")
}

func TestDirectoryEndpointRBAC(t *testing.T) {
	f := newAPIFixture(t)

	pacienteToken := f.tokenFor(t, f.paciente)

	// The booking form lists doctors.
	rec := f.do(t, http.MethodGet, "/api/v1/users?rol=medico", pacienteToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dra. Carla Mendoza")

	rec = f.do(t, http.MethodGet, "/api/v1/users?rol=superuser", pacienteToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Patients cannot register users.
	rec = f.do(t, http.MethodPost, "/api/v1/users", pacienteToken, gin.H{
		"nombre": "X", "email": "x@example.com", "password": "password123", "rol": "paciente",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
