package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bobby-s-dev/energy-site-navigator/internal/api"
	"github.com/bobby-s-dev/energy-site-navigator/internal/config"
	"github.com/bobby-s-dev/energy-site-navigator/internal/scheduler"
	"github.com/bobby-s-dev/energy-site-navigator/internal/services"
	"github.com/bobby-s-dev/energy-site-navigator/internal/store"
	"github.com/bobby-s-dev/energy-site-navigator/pkg/client"
)

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	fallback *services.FallbackProvider
	cache    *services.ResultCache
	analysis *services.AnalysisService
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	logLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = logLevel

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

	rootCmd := &cobra.Command{
		Use:   "energy-site-navigator",
		Short: "Renewable energy site ranking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logger, logLevel)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logger, logLevel)
		},
	}

	var startDate, endDate string
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the ranked results",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(logger, logLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			if startDate == "" {
				startDate = a.cfg.Analysis.DefaultStartDate
			}
			if endDate == "" {
				endDate = a.cfg.Analysis.DefaultEndDate
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			run, err := a.analysis.Run(ctx, startDate, endDate)
			if err != nil {
				return err
			}
			return printJSON(cmd, run)
		},
	}
	analyzeCmd.Flags().StringVar(&startDate, "start", "", "analysis start (e.g. 2023-01-01T00)")
	analyzeCmd.Flags().StringVar(&endDate, "end", "", "analysis end (e.g. 2023-12-31T23)")

	fallbackCmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print the built-in reference dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			fallback := services.NewFallbackProvider()
			return printJSON(cmd, map[string]interface{}{
				"version":   fallback.Version(),
				"locations": fallback.Locations(),
				"results":   fallback.AnalysisResults(),
				"monthly":   fallback.MonthlyData(),
			})
		},
	}

	rootCmd.AddCommand(serveCmd, analyzeCmd, fallbackCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newApp(logger *zap.Logger, logLevel zap.AtomicLevel) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, err := zapcore.ParseLevel(cfg.Server.LogLevel); err != nil {
		logger.Warn("Invalid log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	} else {
		logLevel.SetLevel(level)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		fallback: services.NewFallbackProvider(),
	}

	upstream := client.NewAnalysisClient(cfg.Upstream.BaseURL, client.ClientConfig{
		Timeout:        cfg.Upstream.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, logger)

	a.cache = services.NewResultCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
	a.closers = append(a.closers, a.cache.Stop)

	resultStore := a.newResultStore()

	registry := services.NewLocationRegistry(upstream, a.fallback, logger, nil)
	a.analysis = services.NewAnalysisService(upstream, registry, a.cache, resultStore, cfg.Analysis.RunTimeout, logger)

	return a, nil
}

func (a *app) newResultStore() store.ResultStore {
	cfg := a.cfg.Redis
	if cfg.Addr == "" {
		a.logger.Info("Using in-memory result store", zap.Int("max_history", cfg.MaxHistory))
		return store.NewMemoryStore(cfg.MaxHistory)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	redisStore := store.NewRedisStore(rdb, cfg.KeyPrefix, cfg.ResultTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisStore.Ping(ctx); err != nil {
		a.logger.Warn("Redis unavailable, using in-memory result store",
			zap.String("addr", cfg.Addr),
			zap.Error(err))
		rdb.Close()
		return store.NewMemoryStore(cfg.MaxHistory)
	}

	a.closers = append(a.closers, func() { rdb.Close() })
	a.logger.Info("Using Redis result store", zap.String("addr", cfg.Addr))
	return redisStore
}

func serve(logger *zap.Logger, logLevel zap.AtomicLevel) error {
	logger.Info("Starting Energy Site Navigator Service")

	a, err := newApp(logger, logLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	refresh := scheduler.NewScheduler(
		a.analysis,
		a.cfg.Analysis.RefreshSchedule,
		a.cfg.Analysis.DefaultStartDate,
		a.cfg.Analysis.DefaultEndDate,
		a.cfg.Analysis.RunTimeout,
		logger,
	)

	server := fiber.New(fiber.Config{
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	handler := api.NewHandler(a.analysis, a.fallback, refresh, api.Defaults{
		StartDate: a.cfg.Analysis.DefaultStartDate,
		EndDate:   a.cfg.Analysis.DefaultEndDate,
	}, logger)
	api.SetupRoutes(server, handler, logger)

	if err := refresh.Start(); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", a.cfg.Analysis.RefreshSchedule, err)
	}

	go func() {
		addr := ":" + a.cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := server.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refresh.Stop()

	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
