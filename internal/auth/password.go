package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is used when no cost is configured. It sits above
// bcrypt.DefaultCost.
const DefaultCost = 12

var ErrInvalidPassword = errors.New("invalid password input")

// PasswordHasher hashes and verifies passwords with bcrypt. Concurrent
// hash/compare calls are bounded so a burst of logins cannot starve the
// rest of the process of CPU.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher validates cost and sizes the concurrency bound. A
// concurrency <= 0 means GOMAXPROCS.
func NewPasswordHasher(cost, concurrency int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidPassword
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidPassword
		}
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch, empty input or
// malformed stored hash is (false, nil). The only error is a context error
// from waiting for a hashing slot.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if plaintext == "" || hash == "" {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil, nil
}

// DummyHash returns a valid hash at the configured cost that matches no
// password a client can send. Checking against it costs the same as a real
// comparison.
func (h *PasswordHasher) DummyHash() (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-"+uuid.NewString()), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
