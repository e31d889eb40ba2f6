// Command mockapi serves an in-memory todo REST API for local development.
// SIGHUP rotates the signing key, which revokes every issued token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoweb/internal/mockapi"
	"todoweb/internal/platform/config"
	"todoweb/internal/platform/logger"
	"todoweb/internal/session"
	"todoweb/pkg/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	if secrets.WeakSigningKey(cfg.MockAPI.SigningKey) {
		log.Warn("signing key is shorter than an HS256 key", "min_bytes", secrets.SigningKeySize)
	}
	api := mockapi.New(cfg.MockAPI.SigningKey, cfg.MockAPI.TokenTTL, log,
		mockapi.WithPasswordCost(cfg.MockAPI.PasswordCost))
	if _, err := api.SeedUser("Administrator", cfg.MockAPI.AdminEmail, cfg.MockAPI.AdminPassword, session.RoleAdmin); err != nil {
		log.Error("failed to seed admin", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.MockAPI.Addr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting mock api", "addr", cfg.MockAPI.Addr, "admin", cfg.MockAPI.AdminEmail)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range signals {
		if sig != syscall.SIGHUP {
			break
		}
		if err := api.RotateSigningKey(); err != nil {
			log.Error("failed to rotate signing key", "error", err)
		}
	}

	log.Info("shutting down mock api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
