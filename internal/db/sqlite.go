package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type accountRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	Role            string `gorm:"not null;uniqueIndex:idx_accounts_role_email"`
	Email           string `gorm:"not null;uniqueIndex:idx_accounts_role_email"`
	FirstName       string `gorm:"not null"`
	LastName        string
	PasswordHash    string `gorm:"not null"`
	SocketID        string
	Status          string
	VehicleColor    *string
	VehiclePlate    *string
	VehicleCapacity *int
	VehicleType     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (accountRow) TableName() string {
	return "accounts"
}

type revokedTokenRow struct {
	Token     string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index;not null"`
}

func (revokedTokenRow) TableName() string {
	return "revoked_tokens"
}

// SQLite is the single-node embedded store, useful for local runs.
type SQLite struct {
	DB        *gorm.DB
	retention time.Duration
}

func NewSQLite(path string, retention time.Duration) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")

	return &SQLite{DB: gdb, retention: retention}, nil
}

func (s *SQLite) EnsureAuthSchema(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&accountRow{}, &revokedTokenRow{})
}

func (s *SQLite) CreateAccount(ctx context.Context, acc *model.Account) (*model.Account, error) {
	row := toAccountRow(acc)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (s *SQLite) FindAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	var row accountRow
	err := s.DB.WithContext(ctx).
		Where("role = ? AND email = ?", string(role), email).
		First(&row).Error
	return row.orNotFound(err)
}

func (s *SQLite) FindAccountByID(ctx context.Context, role model.Role, id string) (*model.Account, error) {
	var row accountRow
	err := s.DB.WithContext(ctx).
		Omit("password_hash").
		Where("role = ? AND id = ?", string(role), id).
		First(&row).Error
	return row.orNotFound(err)
}

func (s *SQLite) RevokeToken(ctx context.Context, token string) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&revokedTokenRow{Token: token, CreatedAt: time.Now().UTC()}).Error
}

func (s *SQLite) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&revokedTokenRow{}).
		Where("token = ? AND created_at > ?", token, time.Now().UTC().Add(-s.retention)).
		Count(&n).Error
	return n > 0, err
}

func (s *SQLite) PurgeRevokedTokens(ctx context.Context, before time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&revokedTokenRow{})
	return res.RowsAffected, res.Error
}

func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLite) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toAccountRow(acc *model.Account) accountRow {
	row := accountRow{
		ID:           acc.ID,
		Role:         string(acc.Role),
		Email:        acc.Email,
		FirstName:    acc.FullName.FirstName,
		LastName:     acc.FullName.LastName,
		PasswordHash: acc.PasswordHash,
		SocketID:     acc.SocketID,
		Status:       string(acc.Status),
	}
	if v := acc.Vehicle; v != nil {
		color, plate, capacity, vehicleType := v.Color, v.Plate, v.Capacity, v.VehicleType
		row.VehicleColor = &color
		row.VehiclePlate = &plate
		row.VehicleCapacity = &capacity
		row.VehicleType = &vehicleType
	}
	return row
}

func (r *accountRow) toModel() *model.Account {
	acc := &model.Account{
		ID:           r.ID,
		Role:         model.Role(r.Role),
		FullName:     model.FullName{FirstName: r.FirstName, LastName: r.LastName},
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		SocketID:     r.SocketID,
		Status:       model.CaptainStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.VehicleColor != nil && r.VehiclePlate != nil && r.VehicleCapacity != nil && r.VehicleType != nil {
		acc.Vehicle = &model.Vehicle{
			Color:       *r.VehicleColor,
			Plate:       *r.VehiclePlate,
			Capacity:    *r.VehicleCapacity,
			VehicleType: *r.VehicleType,
		}
	}
	return acc
}

func (r *accountRow) orNotFound(err error) (*model.Account, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.toModel(), nil
}
