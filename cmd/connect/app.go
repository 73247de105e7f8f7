package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/connecthq/connect/internal/db"
	"github.com/connecthq/connect/internal/handlers"
	"github.com/connecthq/connect/internal/handlers/middleware"
	"github.com/connecthq/connect/internal/logger"
	"github.com/connecthq/connect/internal/repository/postgres"
	"github.com/connecthq/connect/internal/service/auth"
	"github.com/connecthq/connect/internal/service/auth/tokenmanager"
	"github.com/connecthq/connect/internal/service/notifier"
	"github.com/connecthq/connect/internal/service/referral"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	notifier *notifier.Notifier
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	notifierService := notifier.New(notifier.Config{}, storage.Notification(), logger)
	referralService := referral.NewService(storage, notifierService)

	// Initialize handlers
	authHandler := handlers.NewAuth(authService, logger)
	referralHandler := handlers.NewReferral(referralService, notifierService, logger)
	adminHandler := handlers.NewAdmin(referralService, logger)
	authMiddleware := middleware.NewAuth(authService)

	mux := handlers.NewRouter(
		authHandler,
		referralHandler,
		adminHandler,
		authMiddleware,
		middleware.LoggerMiddleware(logger),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		notifier:   notifierService,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	// Start notification delivery worker
	notifierStopped := s.notifier.Run(ctx)

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			// Consider to user logger dependency
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		// Consider to user logger dependency
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-notifierStopped

	return err
}
