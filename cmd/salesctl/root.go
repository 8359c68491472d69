package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"erp-sales/internal/app"
	"erp-sales/internal/config"
	"erp-sales/internal/db"
	"erp-sales/internal/lock"
	"erp-sales/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "salesctl",
	Short: "Administration CLI for the sales document service",
	Long: `salesctl runs the administrative tasks of the sales document service:
database migrations, company setup, API token issuance and the
overdue-invoice sweep.

Configuration is read from the environment and an optional .env file
(DATABASE_URL, JWT_SECRET, REDIS_URL, PAYMENT_TERMS_DAYS, LOG_*).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// environment is what a command needs to reach the database.
type environment struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	locker lock.Locker
}

func (e *environment) Close() {
	if e.locker != nil {
		_ = e.locker.Close()
	}
	e.pool.Close()
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, pool: pool}, nil
}

// appService wires the application facade, including the Redis locker.
func (e *environment) appService(ctx context.Context) (app.ApplicationService, error) {
	locker, err := lock.NewRedisLocker(ctx, e.cfg.RedisURL, logger.WithComponent("lock"))
	if err != nil {
		return nil, err
	}
	e.locker = locker
	services := app.NewServices(e.pool, time.Now, e.cfg.PaymentTermsDays)
	return app.NewAppService(services, locker, logger.WithComponent("app"), time.Now), nil
}
