package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/fetch"
	"github.com/ShadewG/auto-downloader/internal/notion"
	"github.com/ShadewG/auto-downloader/internal/observability"
	"github.com/ShadewG/auto-downloader/internal/storage"
	"github.com/ShadewG/auto-downloader/internal/usecase"
)

func main() {
	cfg := loadConfiguration()

	provider := observability.NewProvider(observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := provider.Logger("main")
	logger.Info(ctx, "starting", observability.Fields{
		"service":     cfg.ServiceName,
		"environment": cfg.Environment,
		"provider":    cfg.Storage.Provider,
	})

	runner, browser := buildRunner(ctx, cfg, provider)
	if browser != nil {
		defer browser.Close()
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, logger)
	}

	if err := run(ctx, cfg, runner); err != nil && err != context.Canceled {
		logger.Error(ctx, "runner stopped", err, nil)
		os.Exit(1)
	}
	logger.Info(ctx, "shutdown complete", nil)
}

func loadConfiguration() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	return cfg
}

// buildRunner wires the full stack: record source, case store, fetch
// strategies, pipeline, runner. The browser strategy is returned separately
// so main can close its connection on shutdown.
func buildRunner(ctx context.Context, cfg *config.Config, provider *observability.Provider) (*usecase.Runner, *fetch.BrowserStrategy) {
	source := notion.NewFromConfig(&cfg.Notion, provider.Logger("notion"))

	store, err := storage.New(ctx, &cfg.Storage, provider.Logger("storage"), provider.Metrics())
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	strategies := []fetch.Strategy{fetch.NewDirectStrategy(&cfg.Fetch)}
	var browser *fetch.BrowserStrategy
	if cfg.Fetch.BrowserEnabled {
		browser = fetch.NewBrowserStrategy(&cfg.Fetch, provider.Logger("browser"))
		strategies = append(strategies, browser)
	}
	fetcher := fetch.NewFetcher(provider.Logger("fetch"), provider.Metrics(), strategies...)

	pipeline := usecase.NewPipeline(
		source,
		store,
		fetcher,
		cfg.Fetch.DownloadDir,
		cfg.Fetch.Concurrency,
		provider.Logger("pipeline"),
		provider.Metrics(),
	)

	runner := usecase.NewRunner(source, pipeline, cfg.Runner.CaseLimit, provider.Logger("runner"), provider.Metrics())
	return runner, browser
}

func startMetricsServer(ctx context.Context, addr string, logger observability.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info(ctx, "metrics server listening", observability.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "metrics server failed", err, nil)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func run(ctx context.Context, cfg *config.Config, runner *usecase.Runner) error {
	if cfg.Runner.RunOnce {
		_, err := runner.RunBatch(ctx)
		return err
	}
	return runner.Run(ctx, cfg.Runner.PollInterval)
}
