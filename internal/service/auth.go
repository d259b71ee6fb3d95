package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ridehail/backend/internal/auth"
	"github.com/ridehail/backend/internal/config"
	"github.com/ridehail/backend/internal/db"
	"github.com/ridehail/backend/internal/metrics"
	"github.com/ridehail/backend/internal/model"
)

const TokenCookieName = "token"

type AccountRepo interface {
	CreateAccount(ctx context.Context, acc *model.Account) (*model.Account, error)
	FindAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error)
	FindAccountByID(ctx context.Context, role model.Role, id string) (*model.Account, error)
}

type RevocationStore interface {
	RevokeToken(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

type AuthService struct {
	accounts     AccountRepo
	revoked      RevocationStore
	hasher       *auth.PasswordHasher
	tokens       *auth.TokenManager
	queryTimeout time.Duration
	cookieCfg    CookieConfig
	metrics      *metrics.Metrics
	dummyHash    string
}

func NewAuthService(accounts AccountRepo, revoked RevocationStore, cfg config.AuthConfig, queryTimeout time.Duration, m *metrics.Metrics) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid BCRYPT_COST: %v", ErrMisconfigured, err)
	}
	dummyHash, err := hasher.DummyHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}

	sameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}
	if sameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		accounts:     accounts,
		revoked:      revoked,
		hasher:       hasher,
		tokens:       tokens,
		queryTimeout: queryTimeout,
		metrics:      m,
		dummyHash:    dummyHash,
		cookieCfg: CookieConfig{
			Name:     TokenCookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cfg.CookieSecure,
			SameSite: sameSite,
			MaxAge:   int(cfg.JWTTTL.Seconds()),
		},
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// Register creates the account and issues its first token. No token is
// issued unless the account was persisted.
func (s *AuthService) Register(ctx context.Context, in model.NewAccount) (*model.Account, string, error) {
	if err := validateNewAccount(in); err != nil {
		s.metrics.Event("register", metrics.OutcomeFailure)
		return nil, "", err
	}

	existing, err := s.findByEmail(ctx, in.Role, in.Email)
	if err == nil && existing != nil {
		s.metrics.Event("register", metrics.OutcomeFailure)
		return nil, "", ErrAlreadyExists
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.metrics.Event("register", metrics.OutcomeError)
		return nil, "", unavailable("find account", err)
	}

	started := time.Now()
	hash, err := s.hasher.Hash(ctx, in.Password)
	s.metrics.ObserveHash(time.Since(started))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.metrics.Event("register", metrics.OutcomeFailure)
			return nil, "", ErrInvalidInput
		}
		s.metrics.Event("register", metrics.OutcomeError)
		return nil, "", unavailable("hash password", err)
	}

	acc := &model.Account{
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Vehicle:      in.Vehicle,
	}
	if in.Role == model.RoleCaptain {
		acc.Status = model.CaptainInactive
	}

	createCtx, cancel := s.withTimeout(ctx)
	created, err := s.accounts.CreateAccount(createCtx, acc)
	cancel()
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			s.metrics.Event("register", metrics.OutcomeFailure)
			return nil, "", ErrAlreadyExists
		}
		s.metrics.Event("register", metrics.OutcomeError)
		return nil, "", unavailable("create account", err)
	}
	created.PasswordHash = ""

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		s.metrics.Event("register", metrics.OutcomeError)
		return nil, "", err
	}
	s.metrics.Event("register", metrics.OutcomeSuccess)
	return created, token, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password. An unknown email is still checked against a dummy hash so both
// failures take the same time.
func (s *AuthService) Login(ctx context.Context, role model.Role, email, password string) (*model.Account, string, error) {
	if !role.Valid() || email == "" || password == "" {
		s.metrics.Event("login", metrics.OutcomeFailure)
		return nil, "", ErrInvalidCredentials
	}

	acc, err := s.findByEmail(ctx, role, email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.metrics.Event("login", metrics.OutcomeError)
		return nil, "", unavailable("find account", err)
	}

	hash := s.dummyHash
	if acc != nil {
		hash = acc.PasswordHash
	}
	started := time.Now()
	ok, verr := s.hasher.Verify(ctx, password, hash)
	s.metrics.ObserveVerify(time.Since(started))
	if verr != nil {
		s.metrics.Event("login", metrics.OutcomeError)
		return nil, "", unavailable("verify password", verr)
	}
	if acc == nil || !ok {
		s.metrics.Event("login", metrics.OutcomeFailure)
		return nil, "", ErrInvalidCredentials
	}
	acc.PasswordHash = ""

	token, err := s.tokens.Issue(acc.ID, acc.Role)
	if err != nil {
		s.metrics.Event("login", metrics.OutcomeError)
		return nil, "", err
	}
	s.metrics.Event("login", metrics.OutcomeSuccess)
	return acc, token, nil
}

// Logout adds token to the revocation list. Revoking twice is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthenticated
	}

	revokeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.revoked.RevokeToken(revokeCtx, token); err != nil {
		s.metrics.Event("logout", metrics.OutcomeError)
		return unavailable("revoke token", err)
	}
	s.metrics.Event("logout", metrics.OutcomeSuccess)
	return nil
}

// Authenticate runs the per-request checks in a fixed order: signature and
// expiry, then revocation, then account lookup. A revoked token never
// reaches the account store.
func (s *AuthService) Authenticate(ctx context.Context, role model.Role, token string) (*model.Account, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil || claims.Role != role {
		s.metrics.Event("authenticate", metrics.OutcomeFailure)
		return nil, ErrInvalidToken
	}

	checkCtx, cancel := s.withTimeout(ctx)
	revoked, err := s.revoked.IsTokenRevoked(checkCtx, token)
	cancel()
	if err != nil {
		s.metrics.Event("authenticate", metrics.OutcomeError)
		return nil, unavailable("check revocation", err)
	}
	if revoked {
		s.metrics.Event("authenticate", metrics.OutcomeFailure)
		return nil, ErrInvalidToken
	}

	loadCtx, cancel := s.withTimeout(ctx)
	acc, err := s.accounts.FindAccountByID(loadCtx, role, claims.AccountID())
	cancel()
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.metrics.Event("authenticate", metrics.OutcomeFailure)
			return nil, ErrInvalidToken
		}
		s.metrics.Event("authenticate", metrics.OutcomeError)
		return nil, unavailable("load account", err)
	}
	acc.PasswordHash = ""
	s.metrics.Event("authenticate", metrics.OutcomeSuccess)
	return acc, nil
}

func (s *AuthService) findByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.accounts.FindAccountByEmail(ctx, role, email)
}

func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func validateNewAccount(in model.NewAccount) error {
	if !in.Role.Valid() {
		return ErrInvalidInput
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.FullName.FirstName) == "" {
		return ErrInvalidInput
	}
	if in.Role == model.RoleCaptain && in.Vehicle == nil {
		return ErrInvalidInput
	}
	if in.Role == model.RoleUser && in.Vehicle != nil {
		return ErrInvalidInput
	}
	return nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
