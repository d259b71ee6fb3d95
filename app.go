package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ridehail/backend/internal/config"
	"github.com/ridehail/backend/internal/db"
	"github.com/ridehail/backend/internal/handler"
	"github.com/ridehail/backend/internal/httpserver"
	"github.com/ridehail/backend/internal/jobs"
	"github.com/ridehail/backend/internal/logutil"
	"github.com/ridehail/backend/internal/metrics"
	"github.com/ridehail/backend/internal/service"
)

// accountStore is what every account backend provides.
type accountStore interface {
	service.AccountRepo
	service.RevocationStore
	EnsureAuthSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type revocationBackend interface {
	service.RevocationStore
	Ping(ctx context.Context) error
	Close() error
}

type env struct {
	cfg     config.Config
	log     zerolog.Logger
	store   accountStore
	revoked revocationBackend
	purger  jobs.RevocationPurger
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger := logutil.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx := logutil.WithLogger(c.Context, logger)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger, store: store}

	switch cfg.Revocation.Backend {
	case config.RevocationStore, "":
		e.revoked = store
		if p, ok := store.(jobs.RevocationPurger); ok {
			e.purger = p
		}
	case config.RevocationRedis:
		e.revoked, err = db.NewRedisRevocations(ctx, cfg.Redis, cfg.Revocation.Retention)
	case config.RevocationMemory:
		logger.Warn().Msg("in-memory revocation list: logouts are lost on restart and not shared between instances")
		e.revoked, err = db.NewMemoryRevocations(cfg.Revocation.Retention)
	default:
		err = fmt.Errorf("%w: unknown REVOCATION_BACKEND %q", service.ErrMisconfigured, cfg.Revocation.Backend)
	}
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	if e.revoked != nil && e.revoked != revocationBackend(e.store) {
		if err := e.revoked.Close(); err != nil {
			e.log.Warn().Err(err).Msg("close revocation backend")
		}
	}
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("close store")
	}
}

func openStore(ctx context.Context, cfg config.Config) (accountStore, error) {
	retention := cfg.Revocation.Retention
	switch cfg.Store.Driver {
	case config.DriverPostgres, "":
		return db.NewPostgres(ctx, cfg.Postgres, retention)
	case config.DriverMongo:
		return db.NewMongo(ctx, cfg.Mongo, retention)
	case config.DriverSQLite:
		return db.NewSQLite(cfg.SQLite.Path, retention)
	default:
		return nil, fmt.Errorf("%w: unknown STORE_DRIVER %q", service.ErrMisconfigured, cfg.Store.Driver)
	}
}

func serveAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := logutil.WithLogger(c.Context, e.log)
	if err := e.store.EnsureAuthSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authService, err := service.NewAuthService(e.store, e.revoked, e.cfg.Auth, e.cfg.Store.QueryTimeout, metrics.New(reg))
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweepDone := jobs.StartRevocationSweep(sweepCtx, e.purger, e.cfg.Revocation.Retention, e.cfg.Revocation.SweepInterval, e.log)

	checks := map[string]handler.Pinger{"store": e.store}
	if e.revoked != revocationBackend(e.store) {
		checks["revocations"] = e.revoked
	}

	if e.cfg.HTTP.GinMode != "" {
		gin.SetMode(e.cfg.HTTP.GinMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Health:         handler.NewHealthHandler(checks, e.cfg.Store.QueryTimeout),
		Gatherer:       reg,
		Logger:         e.log,
		AllowedOrigins: e.cfg.HTTP.AllowedOrigins,
	})

	err = httpserver.Serve(ctx, e.cfg.HTTP.Addr, router, httpserver.Options{
		ReadHeaderTimeout: e.cfg.HTTP.ReadHeaderTimeout,
	})
	stopSweep()
	<-sweepDone
	return err
}

func migrateAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.EnsureAuthSchema(c.Context); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	e.log.Info().Str("driver", e.cfg.Store.Driver).Msg("schema is up to date")
	return nil
}

func purgeAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if e.purger == nil {
		e.log.Info().Str("backend", e.cfg.Revocation.Backend).Msg("revocation backend expires entries itself; nothing to purge")
		return nil
	}
	n := jobs.SweepOnce(c.Context, e.purger, e.cfg.Revocation.Retention, e.log)
	fmt.Fprintf(c.App.Writer, "purged %d revoked tokens\n", n)
	return nil
}
