package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/config"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/db"
	internalgrpc "github.com/Hasan72341/TELEMEDICINE-SIH/internal/grpc"
	internalhttp "github.com/Hasan72341/TELEMEDICINE-SIH/internal/http"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/jobs"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/logging"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "telemedicine-api",
		Short:         "Telemedicine API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.AppEnv, cfg.LogLevel)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connection failed: %w", err)
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}

func runServer() error {
	cfg := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogLevel)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("sentry init failed: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			return fmt.Errorf("redis ping failed: %w", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn().Err(err).Msg("redis close error")
			}
		}()
	}

	server, err := internalhttp.NewServer(cfg, store, redisClient, logger)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}
	handler := server.Router()
	if cfg.SentryDSN != "" {
		handler = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(handler)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, healthServer, err := internalgrpc.NewServer(cfg.ServiceAuthToken, logger)
	if err != nil {
		return fmt.Errorf("grpc init failed: %w", err)
	}
	jobs.StartStoreProbe(ctx, cfg.StoreProbeInterval, store, func(serving bool) {
		internalgrpc.SetServing(healthServer, serving)
	}, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			errCh <- fmt.Errorf("grpc listen error: %w", err)
			return
		}
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
		if err := grpcServer.Serve(listener); err != nil {
			errCh <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	internalgrpc.SetServing(healthServer, false)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	grpcServer.GracefulStop()
	logger.Info().Msg("stopped")
	return runErr
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		if cfg.Production() {
			return nil, nil, errors.New("memory store is not allowed in production")
		}
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connection failed: %w", err)
		}
		return repository.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
