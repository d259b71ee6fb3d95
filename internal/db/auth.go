package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ridehail/backend/internal/model"
)

func (db *Postgres) EnsureAuthSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			socket_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			vehicle_color TEXT,
			vehicle_plate TEXT,
			vehicle_capacity INTEGER,
			vehicle_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (role, email)
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			token TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS revoked_tokens_created_at_idx ON revoked_tokens(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (db *Postgres) CreateAccount(ctx context.Context, acc *model.Account) (*model.Account, error) {
	query := `
		INSERT INTO accounts (
			id, role, first_name, last_name, email, password_hash, socket_id, status,
			vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	created := *acc
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	var color, plate, vehicleType *string
	var capacity *int
	if v := created.Vehicle; v != nil {
		color, plate, capacity, vehicleType = &v.Color, &v.Plate, &v.Capacity, &v.VehicleType
	}

	err := db.Pool.QueryRow(ctx, query,
		created.ID,
		string(created.Role),
		created.FullName.FirstName,
		created.FullName.LastName,
		created.Email,
		created.PasswordHash,
		created.SocketID,
		string(created.Status),
		color,
		plate,
		capacity,
		vehicleType,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

// FindAccountByEmail includes the password hash; it backs login.
func (db *Postgres) FindAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	query := `
		SELECT id, role, first_name, last_name, email, password_hash, socket_id, status,
			vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type, created_at, updated_at
		FROM accounts
		WHERE role = $1 AND email = $2
	`
	return scanAccount(db.Pool.QueryRow(ctx, query, string(role), email))
}

// FindAccountByID never loads the password hash.
func (db *Postgres) FindAccountByID(ctx context.Context, role model.Role, id string) (*model.Account, error) {
	query := `
		SELECT id, role, first_name, last_name, email, '' AS password_hash, socket_id, status,
			vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type, created_at, updated_at
		FROM accounts
		WHERE role = $1 AND id = $2
	`
	return scanAccount(db.Pool.QueryRow(ctx, query, string(role), id))
}

func (db *Postgres) RevokeToken(ctx context.Context, token string) error {
	query := `
		INSERT INTO revoked_tokens (token, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (token) DO NOTHING
	`
	_, err := db.Pool.Exec(ctx, query, token)
	return err
}

// IsTokenRevoked ignores entries older than the retention window even if
// the sweep has not removed them yet.
func (db *Postgres) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token = $1 AND created_at > $2
		)
	`
	var revoked bool
	err := db.Pool.QueryRow(ctx, query, token, time.Now().Add(-db.retention)).Scan(&revoked)
	return revoked, err
}

func (db *Postgres) PurgeRevokedTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acc model.Account
	var role, status string
	var color, plate, vehicleType *string
	var capacity *int
	err := row.Scan(
		&acc.ID,
		&role,
		&acc.FullName.FirstName,
		&acc.FullName.LastName,
		&acc.Email,
		&acc.PasswordHash,
		&acc.SocketID,
		&status,
		&color,
		&plate,
		&capacity,
		&vehicleType,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	acc.Role = model.Role(role)
	acc.Status = model.CaptainStatus(status)
	if color != nil && plate != nil && capacity != nil && vehicleType != nil {
		acc.Vehicle = &model.Vehicle{
			Color:       *color,
			Plate:       *plate,
			Capacity:    *capacity,
			VehicleType: *vehicleType,
		}
	}
	return &acc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
