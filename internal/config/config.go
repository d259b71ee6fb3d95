package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP       HTTPConfig
	Store      StoreConfig
	Postgres   PostgresConfig
	Mongo      MongoConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	Revocation RevocationConfig
	Auth       AuthConfig
	Log        LogConfig
}

type HTTPConfig struct {
	Addr              string
	GinMode           string
	AllowedOrigins    []string
	ReadHeaderTimeout time.Duration
}

type StoreConfig struct {
	Driver       string
	QueryTimeout time.Duration
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type MongoConfig struct {
	URI      string
	Database string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RevocationConfig struct {
	Backend       string
	Retention     time.Duration
	SweepInterval time.Duration
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	BcryptCost     int
	CookieSecure   bool
	CookieSameSite string
	CookieDomain   string
	CookiePath     string
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"

	RevocationStore  = "store"
	RevocationRedis  = "redis"
	RevocationMemory = "memory"
)

// Load reads .env (if present), then the optional config file at path, and
// lets environment variables override both. Keys are the lower-cased
// environment variable names, e.g. jwt_secret.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:              v.GetString("http_addr"),
			GinMode:           v.GetString("gin_mode"),
			AllowedOrigins:    splitList(v.GetString("cors_allowed_origins")),
			ReadHeaderTimeout: v.GetDuration("http_read_header_timeout"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
			QueryTimeout: v.GetDuration("store_query_timeout"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: v.GetString("database_url"),
			Host:        v.GetString("pghost"),
			Port:        v.GetString("pgport"),
			User:        v.GetString("pguser"),
			Password:    v.GetString("pgpassword"),
			Database:    v.GetString("pgdatabase"),
			SSLMode:     v.GetString("pgsslmode"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo_uri"),
			Database: v.GetString("mongo_database"),
		},
		SQLite: SQLiteConfig{
			Path: v.GetString("sqlite_path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Revocation: RevocationConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("revocation_backend"))),
			Retention:     v.GetDuration("revocation_retention"),
			SweepInterval: v.GetDuration("revocation_sweep_interval"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("jwt_secret"),
			JWTIssuer:      v.GetString("jwt_issuer"),
			JWTTTL:         v.GetDuration("jwt_ttl"),
			BcryptCost:     v.GetInt("bcrypt_cost"),
			CookieSecure:   v.GetBool("auth_cookie_secure"),
			CookieSameSite: v.GetString("auth_cookie_samesite"),
			CookieDomain:   v.GetString("auth_cookie_domain"),
			CookiePath:     v.GetString("auth_cookie_path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ErrInvalid reports a combination of settings the service cannot run with.
var ErrInvalid = errors.New("invalid config")

// Validate checks cross-field constraints. A revocation entry must outlive
// the token it blocks, otherwise a logged-out token works again once its
// entry expires.
func (c Config) Validate() error {
	if c.Revocation.Retention < c.Auth.JWTTTL {
		return fmt.Errorf("%w: REVOCATION_RETENTION (%s) is shorter than JWT_TTL (%s)",
			ErrInvalid, c.Revocation.Retention, c.Auth.JWTTTL)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("http_read_header_timeout", 5*time.Second)

	v.SetDefault("store_driver", DriverPostgres)
	v.SetDefault("store_query_timeout", 5*time.Second)

	v.SetDefault("database_url", "")
	v.SetDefault("pghost", "localhost")
	v.SetDefault("pgport", "5432")
	v.SetDefault("pguser", "")
	v.SetDefault("pgpassword", "")
	v.SetDefault("pgdatabase", "")
	v.SetDefault("pgsslmode", "disable")

	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "ridehail")

	v.SetDefault("sqlite_path", "data/ridehail.db")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("revocation_backend", RevocationStore)
	v.SetDefault("revocation_retention", 24*time.Hour)
	v.SetDefault("revocation_sweep_interval", time.Minute)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "ridehail")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("auth_cookie_secure", true)
	v.SetDefault("auth_cookie_samesite", "lax")
	v.SetDefault("auth_cookie_domain", "")
	v.SetDefault("auth_cookie_path", "/")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
