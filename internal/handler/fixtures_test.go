package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ridehail/backend/internal/config"
	"github.com/ridehail/backend/internal/db"
	"github.com/ridehail/backend/internal/metrics"
	"github.com/ridehail/backend/internal/model"
	"github.com/ridehail/backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryAccounts struct {
	mu      sync.Mutex
	byID    map[string]model.Account
	findErr error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[string]model.Account{}}
}

func (m *memoryAccounts) CreateAccount(_ context.Context, acc *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Role == acc.Role && existing.Email == acc.Email {
			return nil, db.ErrDuplicate
		}
	}
	created := *acc
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	m.byID[created.ID] = created
	return &created, nil
}

func (m *memoryAccounts) FindAccountByEmail(_ context.Context, role model.Role, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, acc := range m.byID {
		if acc.Role == role && acc.Email == email {
			out := acc
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memoryAccounts) FindAccountByID(_ context.Context, role model.Role, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	acc, ok := m.byID[id]
	if !ok || acc.Role != role {
		return nil, db.ErrNotFound
	}
	acc.PasswordHash = ""
	return &acc, nil
}

type testServer struct {
	router   *gin.Engine
	accounts *memoryAccounts
	revoked  *db.MemoryRevocations
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithOrigins(t, []string{"http://app.example"})
}

func newTestServerWithOrigins(t *testing.T, origins []string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := newMemoryAccounts()
	revoked, err := db.NewMemoryRevocations(24 * time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = revoked.Close() })

	reg := prometheus.NewRegistry()
	svc, err := service.NewAuthService(accounts, revoked, config.AuthConfig{
		JWTSecret:      "handler-test-secret",
		JWTIssuer:      "ridehail-test",
		JWTTTL:         time.Hour,
		BcryptCost:     bcrypt.MinCost,
		CookieSameSite: "lax",
	}, time.Second, metrics.New(reg))
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Auth:           svc,
		Health:         NewHealthHandler(map[string]Pinger{"revocations": revoked}, time.Second),
		Gatherer:       reg,
		Logger:         zerolog.Nop(),
		AllowedOrigins: origins,
	})
	return &testServer{router: router, accounts: accounts, revoked: revoked}
}

const (
	userBody = `{"fullname":{"firstname":"Alice","lastname":"Rider"},"email":"a@x.com","password":"secret-pass"}`

	captainBody = `{"fullname":{"firstname":"Bob","lastname":"Driver"},"email":"cap@x.com","password":"secret-pass",` +
		`"vehicle":{"color":"red","plate":"AB-123","capacity":4,"vehicleType":"car"}}`
)
