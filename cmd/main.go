package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vetterlabs/vetter/internal/adapters/http/api"
	"github.com/vetterlabs/vetter/internal/adapters/http/swagger"
	"github.com/vetterlabs/vetter/internal/adapters/marketdata"
	"github.com/vetterlabs/vetter/internal/adapters/repository"
	service "github.com/vetterlabs/vetter/internal/app"
	"github.com/vetterlabs/vetter/internal/config"
	"github.com/vetterlabs/vetter/internal/domain/settings"
	"github.com/vetterlabs/vetter/pkg/logger"
	"github.com/vetterlabs/vetter/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
		return
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.SnapshotQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithScoringWeights(cfg.MemberWeight, cfg.AutoWeight),
		service.WithVoterPoolSize(cfg.VoterPoolSize),
		service.WithMaxPageLimit(cfg.MaxPageLimit),
		service.WithInitialSettings(initialSettings(cfg)),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// Market-data poller, disabled when feed_poll_seconds is zero.
	if cfg.FeedPollSeconds > 0 {
		collector := marketdata.NewCollector(
			marketdata.WithBaseURL(cfg.MarketDataBaseURL),
			marketdata.WithSocialBaseURL(cfg.SocialBaseURL),
		)
		poller := marketdata.NewPoller(collector, svc, svc,
			marketdata.WithInterval(cfg.FeedPollInterval()),
			marketdata.WithPollerLogger(log.Named("poller")),
		)
		go poller.Run(ctx)
	}

	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildStore opens the configured backing store.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Storage == config.StoragePostgres {
		return repository.NewPostgresStore(cfg.PostgresDSN)
	}
	return repository.NewMemoryStore(ctx), nil
}

// initialSettings maps the boot configuration onto the first settings
// record. Admin updates supersede it at runtime.
func initialSettings(cfg *config.Config) settings.Settings {
	return settings.Settings{
		Version:                1,
		VoteThreshold:          cfg.VoteThreshold,
		ParticipationThreshold: cfg.ParticipationThreshold,
		AutoApprovalEnabled:    cfg.AutoApprovalEnabled,
		FastTrackEnabled:       cfg.FastTrackEnabled,
		MaxVotesPerUser:        cfg.MaxVotesPerUser,
	}
}

// startSystemMetricsUpdater periodically refreshes process-level metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service gauges that are
// not updated on the hot path.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats(ctx)

			if queueLen, ok := stats["queueLength"].(int); ok {
				metrics.UpdateQueueSize(queueLen)
			}
			if workerCount, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(workerCount)
			}
		}
	}
}
