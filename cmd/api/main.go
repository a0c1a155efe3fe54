package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora-express/internal/auth"
	"agora-express/internal/config"
	"agora-express/internal/database"
	"agora-express/internal/handler"
	"agora-express/internal/payment"
	"agora-express/internal/repository"
	"agora-express/internal/router"
	"agora-express/internal/service"

	"github.com/go-playground/validator/v10"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting agora-express API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	menuRepo := repository.NewMenuRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	coinRepo := repository.NewCoinRepository(pool, logger)
	loyaltyRepo := repository.NewLoyaltyRepository(pool, logger)

	// Shared request validator and token manager
	validate := validator.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMin)*time.Minute)

	// Payment gateway. Only the mock implementation exists today; a real
	// provider slots in behind the same interface.
	gateway := payment.NewMockGateway(logger)

	// Initialize services
	userService := service.NewUserService(userRepo, tokens, validate, logger)
	menuService := service.NewMenuService(menuRepo, validate, logger)
	orderService := service.NewOrderService(orderRepo, coinRepo, gateway, validate, logger)
	coinService := service.NewCoinService(coinRepo, logger)
	loyaltyService, err := service.NewLoyaltyService(loyaltyRepo, cfg.Loyalty, validate, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize loyalty service: %w", err)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(userService, logger)
	menuHandler := handler.NewMenuHandler(menuService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService, coinService, logger)

	// Initialize router
	mux := router.New(authHandler, menuHandler, orderHandler, loyaltyHandler, tokens, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
