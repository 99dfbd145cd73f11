// Package main implements the entry point for the cardbank interactive
// console application: a single-session bank account and payment card
// manager backed by PostgreSQL.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pwalczak/cardbank/internal/config"
	"github.com/pwalczak/cardbank/internal/console"
	"github.com/pwalczak/cardbank/internal/platform/logger"
	"github.com/pwalczak/cardbank/internal/platform/postgres"
	"github.com/pwalczak/cardbank/internal/service"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/pwalczak/cardbank/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run initializes configuration, logging, the database and the services,
// then hands control to the interactive shell until it exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("log_level", cfg.Server.LogLevel))

	// Ctrl+C cancels the session context; blocking prompts and the
	// activation delay both honor it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cardStore := postgres.NewPostgresCardStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)
	accountStore := postgres.NewPostgresAccountStore(db, log)

	hasher := secret.NewBcryptHasher()
	numbers := secret.NewRandomNumberSource()

	defaults, err := service.CardDefaultsFromConfig(cfg.Card)
	if err != nil {
		return fmt.Errorf("invalid card defaults: %w", err)
	}

	userService, err := service.NewUserService(userStore, hasher, log)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	accountService, err := service.NewAccountService(accountStore, numbers, log)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	cardService, err := service.NewCardService(
		db, cardStore, accountStore, userStore,
		hasher, numbers, service.NewSleeper(), defaults, log,
	)
	if err != nil {
		return fmt.Errorf("failed to create card service: %w", err)
	}

	prompter := console.NewPrompter(os.Stdin, os.Stdout)
	shell := console.NewShell(prompter, userService, accountService, cardService, log)

	return shell.Run(ctx)
}

// runMigrations brings the schema up to date from the embedded goose
// migrations.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(db, ".")
}
