package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountStore interface {
	CreateAccount(ctx context.Context, acc *model.Account) (*model.Account, error)
	FindAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error)
	FindAccountByID(ctx context.Context, role model.Role, id string) (*model.Account, error)
}

type revocationList interface {
	RevokeToken(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

func testAccountStore(t *testing.T, store accountStore) {
	ctx := context.Background()
	email := uuid.NewString() + "@x.com"

	user, err := store.CreateAccount(ctx, &model.Account{
		Role:         model.RoleUser,
		FullName:     model.FullName{FirstName: "Alice", LastName: "Rider"},
		Email:        email,
		PasswordHash: "hash-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = store.CreateAccount(ctx, &model.Account{
		Role:         model.RoleUser,
		FullName:     model.FullName{FirstName: "Other"},
		Email:        email,
		PasswordHash: "hash-2",
	})
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	captain, err := store.CreateAccount(ctx, &model.Account{
		Role:         model.RoleCaptain,
		FullName:     model.FullName{FirstName: "Bob"},
		Email:        email,
		PasswordHash: "hash-3",
		Status:       model.CaptainInactive,
		Vehicle:      &model.Vehicle{Color: "red", Plate: "AB-123", Capacity: 4, VehicleType: "car"},
	})
	require.NoError(t, err, "same email may exist once per role")

	byEmail, err := store.FindAccountByEmail(ctx, model.RoleUser, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash-1", byEmail.PasswordHash)
	assert.Equal(t, "Rider", byEmail.FullName.LastName)
	assert.Nil(t, byEmail.Vehicle)

	byID, err := store.FindAccountByID(ctx, model.RoleCaptain, captain.ID)
	require.NoError(t, err)
	assert.Empty(t, byID.PasswordHash)
	assert.Equal(t, model.RoleCaptain, byID.Role)
	assert.Equal(t, model.CaptainInactive, byID.Status)
	require.NotNil(t, byID.Vehicle)
	assert.Equal(t, 4, byID.Vehicle.Capacity)

	_, err = store.FindAccountByID(ctx, model.RoleUser, captain.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindAccountByEmail(ctx, model.RoleUser, "missing-"+email)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testRevocationList(t *testing.T, list revocationList) {
	ctx := context.Background()
	token := "token-" + uuid.NewString()

	revoked, err := list.IsTokenRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.RevokeToken(ctx, token))
	require.NoError(t, list.RevokeToken(ctx, token), "revoking twice is a no-op")

	revoked, err = list.IsTokenRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsTokenRevoked(ctx, token+"x")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	return ctx
}
