package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/otel"
	"github.com/emiliopalmerini/usagetrack/internal/adapters/storage"
	"github.com/emiliopalmerini/usagetrack/internal/adapters/turso"
	"github.com/emiliopalmerini/usagetrack/internal/infrastructure/config"
	"github.com/emiliopalmerini/usagetrack/internal/ports"
)

const metricsFlushTimeout = 2 * time.Second

// AppContext holds the shared dependencies of a tracker process.
type AppContext struct {
	Config  *config.Tracker
	Logger  *slog.Logger
	Store   *turso.Store
	Backup  *storage.BackupLog
	Metrics ports.MetricsExporter
}

// NewAppContext loads configuration and opens the store, backup log and
// metrics exporter. Invalid variables are logged and replaced by defaults,
// and a store that cannot be opened is logged and left nil, so the backup
// log still receives the event.
func NewAppContext(ctx context.Context, stderr io.Writer) (*AppContext, error) {
	cfg, cfgErr := config.LoadTracker()
	if cfg == nil {
		return nil, fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	level, levelErr := cfg.Logging.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if cfgErr != nil {
		logger.Warn("invalid configuration, using defaults", "error", cfgErr)
	}
	if levelErr != nil {
		logger.Warn("falling back to warn level", "error", levelErr)
	}

	app := &AppContext{
		Config:  cfg,
		Logger:  logger,
		Backup:  storage.NewBackupLog(cfg.Storage.LogDir),
		Metrics: otel.NewNoOpExporter(),
	}

	store, err := turso.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.DBPath, "error", err)
	} else {
		app.Store = store
	}

	if cfg.OTEL.Enabled {
		exp, err := otel.NewExporter(ctx, cfg.OTEL)
		if err != nil {
			logger.Warn("metrics export disabled", "error", err)
		} else {
			app.Metrics = exp
		}
	}

	return app, nil
}

// DurableStore returns the store as a port, nil when it could not be opened.
func (a *AppContext) DurableStore() ports.Store {
	if a.Store == nil {
		return nil
	}
	return a.Store
}

// Close flushes metrics and releases the database.
func (a *AppContext) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
	defer cancel()

	if err := a.Metrics.Close(ctx); err != nil {
		a.Logger.Warn("failed to flush metrics", "error", err)
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
