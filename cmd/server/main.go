package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "erp-sales/internal/adapters/web"
	"erp-sales/internal/app"
	"erp-sales/internal/config"
	"erp-sales/internal/db"
	"erp-sales/internal/lock"
	"erp-sales/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("logger: %v", err)
	}
	logr := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logr.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	locker, err := lock.NewRedisLocker(ctx, cfg.RedisURL, logger.WithComponent("lock"))
	if err != nil {
		logr.Fatal().Err(err).Msg("redis")
	}
	defer locker.Close()

	services := app.NewServices(pool, time.Now, cfg.PaymentTermsDays)
	svc := app.NewAppService(services, locker, logger.WithComponent("app"), time.Now)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		Log:            logger.WithComponent("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logr.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal().Err(err).Msg("server")
	}
	logr.Info().Msg("server stopped")
}
