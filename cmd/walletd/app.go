package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mpetrov/walletd/internal/db"
	"github.com/mpetrov/walletd/internal/gateway/razorpay"
	"github.com/mpetrov/walletd/internal/handlers"
	"github.com/mpetrov/walletd/internal/logger"
	"github.com/mpetrov/walletd/internal/repository/postgres"
	"github.com/mpetrov/walletd/internal/service/auth"
	"github.com/mpetrov/walletd/internal/service/auth/tokenmanager"
	"github.com/mpetrov/walletd/internal/service/topup"
	"github.com/mpetrov/walletd/internal/service/transfer"
	"github.com/mpetrov/walletd/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
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

	userService := user.NewService(nil, storage)

	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	gateway := razorpay.NewClient(c.RazorpayKeyID, c.RazorpayKeySecret, razorpay.WithBaseURL(c.RazorpayURL))

	mux := handlers.NewRouter(
		authService,
		userService,
		transfer.NewService(storage),
		topup.NewService(gateway, storage),
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     logger,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
