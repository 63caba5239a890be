package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/analyzer"
	"github.com/iammorganparry/hyprcontext/internal/api"
	"github.com/iammorganparry/hyprcontext/internal/capture"
	"github.com/iammorganparry/hyprcontext/internal/config"
	"github.com/iammorganparry/hyprcontext/internal/embedding"
	"github.com/iammorganparry/hyprcontext/internal/focus"
	"github.com/iammorganparry/hyprcontext/internal/memory"
	"github.com/iammorganparry/hyprcontext/internal/notify"
	"github.com/iammorganparry/hyprcontext/internal/pipeline"
	"github.com/iammorganparry/hyprcontext/internal/privacy"
	"github.com/iammorganparry/hyprcontext/internal/retrieval"
	"github.com/iammorganparry/hyprcontext/internal/scheduler"
	"github.com/iammorganparry/hyprcontext/internal/store"
	"github.com/iammorganparry/hyprcontext/internal/watchdog"
	"github.com/iammorganparry/hyprcontext/internal/window"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("hyprcontext server failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred closes happen before main
// decides the exit code.
func run(logger *slog.Logger) error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Vector index
	index, err := openIndex(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	// Model providers
	models, err := openModels(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure model provider: %w", err)
	}
	embedder := embedding.NewCachedEmbedder(models.embedder, store.NewEmbeddingCacheStore(db), logger)

	// Memory
	mem := memory.NewStore(store.NewObservationStore(db), index, embedder, cfg.SimilarOverfetch, logger)
	if _, err := mem.Reconcile(ctx); err != nil {
		logger.Warn("vector index reconcile failed", "error", err)
	}

	// Focus ledger
	ledger, err := focus.Open(cfg.FocusDir, cfg.DailyDistractionLimit)
	if err != nil {
		return fmt.Errorf("open focus ledger: %w", err)
	}
	defer ledger.Close()

	// Watchdog
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.NotifyCommand != "" {
		notifier = notify.NewCommandNotifier(cfg.NotifyCommand)
	}
	wd := watchdog.New(watchdog.Policy{
		Threshold: cfg.DistractionThreshold,
		Cooldown:  cfg.AlertCooldown,
	}, notifier, logger)

	// Analyzer
	filter, err := privacy.NewFilter(cfg.PrivateWindows)
	if err != nil {
		return fmt.Errorf("private window pattern: %w", err)
	}
	az := analyzer.New(
		window.NewHyprland(),
		models.describer,
		embedder,
		analyzer.NewTagger(cfg.Categories),
		filter,
		analyzer.Options{Timeout: cfg.AnalyzerTimeout, HistorySize: cfg.RAMSize},
		logger,
	)

	// Pipeline and trigger
	pipe := pipeline.New(
		capture.NewCommandCapturer(cfg.CaptureCommand),
		az, mem, wd, ledger, notifier, cfg.CaptureInterval, logger,
	)
	trigger := scheduler.New(cfg.MinCooldown, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("capture loop starting",
			"interval", cfg.CaptureInterval.String(),
			"provider", cfg.ModelProvider,
			"vector_backend", cfg.VectorBackend,
		)
		err := trigger.Run(ctx, cfg.CaptureInterval, func(tickCtx context.Context) {
			pipe.Tick(tickCtx)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("capture loop stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		maintain(ctx, mem, embedder, cfg, logger)
	}()

	// Router
	router := api.NewRouter(api.Deps{
		Retriever: retrieval.New(mem, time.Local),
		Focus:     wd,
		Ledger:    ledger,
		DB:        db,
		Index:     index,
		Models:    models.health,
	}, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("hyprcontext server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Let an in-flight tick finish writing before the stores close.
	wg.Wait()
	wd.Wait()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	logger.Info("server stopped")
	return nil
}

// maintain keeps derived state in step while the server runs: the vector
// index is reconciled every cfg.ReconcileInterval, and once at startup and
// then daily expired observations and stale cached embeddings are removed.
func maintain(ctx context.Context, mem *memory.Store, cache *embedding.CachedEmbedder, cfg *config.Config, logger *slog.Logger) {
	daily := func() {
		if cfg.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
			n, err := mem.Prune(ctx, cutoff)
			if err != nil {
				logger.Error("retention prune failed", "error", err)
			} else if n > 0 {
				logger.Info("retention prune complete", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
			}
		}
		n, err := cache.Evict(ctx, time.Duration(cfg.EmbedCacheDays)*24*time.Hour)
		if err != nil {
			logger.Warn("embedding cache eviction failed", "error", err)
		} else if n > 0 {
			logger.Info("embedding cache evicted", "entries", n)
		}
	}

	daily()
	reconcile := time.NewTicker(cfg.ReconcileInterval)
	defer reconcile.Stop()
	day := time.NewTicker(24 * time.Hour)
	defer day.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-reconcile.C:
			if _, err := mem.Reconcile(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("vector index reconcile failed", "error", err, "pending", mem.PendingIndexWrites())
			}
		case <-day.C:
			daily()
		}
	}
}
