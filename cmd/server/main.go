package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tunehive/partyhub/internal/api"
	"github.com/tunehive/partyhub/internal/factory"
	redisstorage "github.com/tunehive/partyhub/internal/storage/redis"
)

func main() {
	root := &cobra.Command{
		Use:           "partyhub",
		Short:         "Collaborative music party coordination server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}

	root.Flags().String("host", "", "listen host (default: all interfaces)")
	root.Flags().Int("port", 0, "listen port (default: 8080 or PARTYHUB_PORT)")
	root.Flags().String("storage", "", "storage backend: memory or redis (default: STORAGE_TYPE or memory)")
	root.Flags().String("redis-url", "", "redis connection URL (default: REDIS_URL)")

	if err := root.Execute(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	// Local .env files are optional; missing is not an error
	_ = godotenv.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := factory.Config{
		Logger:      logger,
		StorageType: stringSetting(cmd, "storage", "STORAGE_TYPE"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := stringSetting(cmd, "redis-url", "REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when storage is redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: app.Coordinator,
		WSHandler:   app.WSHandler,
	})

	serverConfig := api.DefaultServerConfig()
	if host := stringSetting(cmd, "host", "PARTYHUB_HOST"); host != "" {
		serverConfig.Host = host
	}
	if port := intSetting(cmd, "port", "PARTYHUB_PORT"); port > 0 {
		serverConfig.Port = port
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

// stringSetting resolves a setting from a flag, falling back to an
// environment variable
func stringSetting(cmd *cobra.Command, flag, envVar string) string {
	if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
		return v
	}
	return os.Getenv(envVar)
}

func intSetting(cmd *cobra.Command, flag, envVar string) int {
	if v, err := cmd.Flags().GetInt(flag); err == nil && v > 0 {
		return v
	}
	if raw := os.Getenv(envVar); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return 0
}
