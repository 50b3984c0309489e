package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/cache"
	"github.com/Napiersnotes/Dandelions/internal/config"
	"github.com/Napiersnotes/Dandelions/internal/httpserver"
	"github.com/Napiersnotes/Dandelions/internal/httpserver/middleware"
	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/factory"
	"github.com/Napiersnotes/Dandelions/internal/observability"
	"github.com/Napiersnotes/Dandelions/internal/telemetry"
	"github.com/Napiersnotes/Dandelions/internal/usage"
)

const shutdownTimeout = 10 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot services",
	Long: `Start the provider manager and the HTTP surface.

All enabled providers are initialized concurrently; a provider that fails to
come up is excluded rather than blocking startup. The process exits with an
error only when zero providers are usable.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(runServices)
}

// buildContainer wires the application graph.
func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() (*config.Config, error) { return config.Load(cfgFile) },
		observability.InitLogger,
		telemetry.New,
		newUsageStore,
		newResponseCache,
		newManager,
		newHandler,
		newMiddleware,
		httpserver.NewServer,
	}

	for _, provide := range providers {
		if err := container.Provide(provide); err != nil {
			return nil, fmt.Errorf("failed to build container: %w", err)
		}
	}

	return container, nil
}

// newUsageStore opens the usage history when configured; nil means disabled.
func newUsageStore(cfg *config.Config, logger *zap.Logger) (*usage.Store, error) {
	if cfg.Usage.DBPath == "" {
		return nil, nil
	}

	retention := time.Duration(cfg.Usage.RetentionDays) * 24 * time.Hour
	store, err := usage.Open(cfg.Usage.DBPath, retention, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newResponseCache selects Redis when configured, the no-op cache otherwise.
func newResponseCache(cfg *config.Config, logger *zap.Logger) (cache.ResponseCache, error) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewNoop(), nil
	}

	redisCache, err := cache.NewRedis(context.Background(), cache.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		// A dead cache should not block startup; fall back to no-op.
		logger.Warn("response cache unavailable, running without it", zap.Error(err))
		return cache.NewNoop(), nil
	}
	return redisCache, nil
}

func newManager(cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics, store *usage.Store) *llm.Manager {
	opts := []llm.ManagerOption{
		llm.WithRecorder(metrics),
	}
	if store != nil {
		opts = append(opts, llm.WithRecorder(store))
	}
	if cfg.Manager.SweepIntervalSeconds > 0 {
		interval := time.Duration(cfg.Manager.SweepIntervalSeconds) * time.Second
		opts = append(opts, llm.WithConnectionSweep(interval))
	}

	return llm.NewManager(cfg.ProviderConfigs(), factory.New, logger, opts...)
}

func newHandler(
	cfg *config.Config,
	manager *llm.Manager,
	responseCache cache.ResponseCache,
	store *usage.Store,
	logger *zap.Logger,
	metrics *telemetry.Metrics,
) *httpserver.Handler {
	var usageReader httpserver.UsageReader
	if store != nil {
		usageReader = store
	}

	return httpserver.NewHandler(
		manager,
		responseCache,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		usageReader,
		observability.NewEventBus(logger),
		metrics.Handler(),
	)
}

func newMiddleware(cfg *config.Config) middleware.Middleware {
	return middleware.BuildMiddlewareChain(&cfg.CORS)
}

// runServices is the start command body: bring the manager up, serve, and
// tear everything down on SIGINT/SIGTERM.
func runServices(
	cfg *config.Config,
	logger *zap.Logger,
	manager *llm.Manager,
	store *usage.Store,
	responseCache cache.ResponseCache,
	server *httpserver.Server,
) error {
	defer func() { _ = logger.Sync() }()

	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Initialize(ctx); err != nil {
		if errors.Is(err, llm.ErrNoProvidersAvailable) {
			color.Red("No providers are usable. Run `dandelion setup` to configure one.")
		}
		return err
	}

	if store != nil {
		store.StartRetention(time.Hour)
	}

	printStatus(cfg, manager)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		_ = manager.Shutdown()
		closeSinks(logger, store, responseCache)
		return err
	case <-ctx.Done():
	}

	color.Yellow("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	if err := manager.Shutdown(); err != nil {
		logger.Warn("manager shutdown failed", zap.Error(err))
	}
	closeSinks(logger, store, responseCache)

	color.Green("Stopped.")
	return nil
}

func closeSinks(logger *zap.Logger, store *usage.Store, responseCache cache.ResponseCache) {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("usage store close failed", zap.Error(err))
		}
	}
	if err := responseCache.Close(); err != nil {
		logger.Warn("response cache close failed", zap.Error(err))
	}
}

func printBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Println("Dandelion - multi-LLM bot")
}

func printStatus(cfg *config.Config, manager *llm.Manager) {
	bold := color.New(color.Bold)
	_, _ = bold.Println("Providers:")
	for _, status := range manager.ListProviders() {
		state := color.GreenString("connected")
		if !status.Connected {
			state = color.RedString("disconnected")
		}
		fmt.Printf("  %-10s priority=%d  %s\n", status.Vendor, status.Priority, state)
	}
	fmt.Printf("Listening on http://localhost:%d\n", cfg.Server.Port)
}
