// Command registrar runs the records engine on top of the file store until
// it receives an interrupt. It seeds demo data on first start, logs every
// notification it sends and periodically sweeps the cache and prunes old
// notifications.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xraph/registrar"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/store/file"
)

const setupFailure = 1

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", slog.String("error", err.Error()))
	}

	cfg, err := registrar.LoadConfig()
	if err != nil {
		logger.Error("load config", slog.String("error", err.Error()))
		os.Exit(setupFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := file.New(cfg.DataDir)
	if err := st.Migrate(ctx); err != nil {
		logger.Error("prepare data directory", slog.String("dir", cfg.DataDir), slog.String("error", err.Error()))
		os.Exit(setupFailure)
	}
	defer st.Close()

	eng, err := registrar.New(
		registrar.WithStore(st),
		registrar.WithConfig(cfg),
		registrar.WithLogger(logger),
	)
	if err != nil {
		logger.Error("create engine", slog.String("error", err.Error()))
		os.Exit(setupFailure)
	}
	if err := eng.Open(ctx); err != nil {
		logger.Error("open engine", slog.String("error", err.Error()))
		os.Exit(setupFailure)
	}
	eng.Notifications().Subscribe(&logObserver{logger: logger})

	logger.Info("registrar ready",
		slog.String("data_dir", cfg.DataDir),
		slog.Int("users", len(eng.Users(ctx))),
		slog.Int("modules", len(eng.Modules(ctx))),
	)

	if cfg.HousekeepInterval > 0 {
		go housekeep(ctx, eng, cfg.HousekeepInterval)
	}

	<-ctx.Done()

	stats := eng.CacheStats()
	logger.Info("shutting down",
		slog.Uint64("cache_hits", stats.Hits),
		slog.Uint64("cache_misses", stats.Misses),
		slog.Float64("cache_hit_rate", stats.HitRate),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Cleanup(shutdownCtx); err != nil {
		logger.Error("cleanup", slog.String("error", err.Error()))
	}
}

func housekeep(ctx context.Context, eng *registrar.Engine, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eng.Housekeep(ctx)
		}
	}
}

// logObserver writes every notification to the log.
type logObserver struct {
	logger *slog.Logger
}

func (o *logObserver) Name() string { return "log" }

func (o *logObserver) Deliver(_ context.Context, n *notification.Notification) error {
	o.logger.Info("notification sent",
		slog.String("id", n.ID.String()),
		slog.String("recipient", n.Recipient),
		slog.String("type", string(n.Type)),
		slog.String("priority", string(n.Priority)),
	)
	return nil
}
