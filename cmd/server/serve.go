package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/httpapi"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Initialize storage
	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	revoked, closeRevoked, err := revocationList(ctx, store)
	if err != nil {
		return err
	}
	defer closeRevoked()

	jwtManager := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	limiter := middleware.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, logger)
	limiter.StartCleanup(ctx, time.Minute)

	router := httpapi.NewRouter(httpapi.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
	}, httpapi.Deps{
		Auth:     service.NewAuthService(authenticator, jwtManager, revoked, logger),
		Profiles: service.NewProfileService(store, logger),
		Friends:  service.NewFriendService(store, logger),
		Expenses: service.NewExpenseService(store, logger),
		Shares:   service.NewShareService(store, logger),
		Resolver: service.NewActorResolver(store),
		JWT:      jwtManager,
		Limiter:  limiter,
		Ping:     store.Ping,
		Logger:   logger,
	})

	// h2c serves HTTP/2 without TLS alongside HTTP/1.1.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(router, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "address", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// revocationList picks the refresh-token blacklist backend.
func revocationList(ctx context.Context, store *sqlstore.SQLStore) (auth.RevocationList, func(), error) {
	if cfg.Revocation.Backend != "redis" {
		return auth.NewStoreRevocationList(store), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Token revocation backed by redis", "addr", cfg.Redis.Addr)
	return auth.NewRedisRevocationList(client), func() { client.Close() }, nil
}
