package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// @title Ridehail Auth API
// @version 1.0
// @description Account registration, login and session management for users and captains.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:  "ridehail",
		Usage: "Ride-hailing account and session service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Optional config file (yaml, toml or json); environment variables take precedence",
				EnvVars: []string{"RIDEHAIL_CONFIG"},
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "Create tables and indexes for the configured store",
				Action: migrateAction,
			},
			{
				Name:   "purge-revoked",
				Usage:  "Delete revoked tokens older than the retention window",
				Action: purgeAction,
			},
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
