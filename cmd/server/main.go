package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equinex/backend/internal/api"
	"github.com/equinex/backend/internal/auth"
	"github.com/equinex/backend/internal/config"
	"github.com/equinex/backend/internal/notify"
	"github.com/equinex/backend/internal/service"
	"github.com/equinex/backend/internal/storage/sqlite"
	"github.com/equinex/backend/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DB.Path)

	var sender notify.Sender = notify.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = &notify.SMTPSender{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}
		slog.Info("SMTP invites enabled", "host", cfg.SMTP.Host)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify.QueueSize)
	defer dispatcher.Close()

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	handlers := api.NewHandlers(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager),
		service.NewUserService(store),
		service.NewBalanceService(store),
		service.NewExpenseService(store),
		service.NewSettlementService(store),
		service.NewGroupService(store, dispatcher),
	)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handlers, jwtManager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.HTTP.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
