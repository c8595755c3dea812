package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valkey-io/valkey-go"

	"github.com/talgya/star-dominion/internal/config"
	"github.com/talgya/star-dominion/internal/engine"
	"github.com/talgya/star-dominion/internal/lock"
	"github.com/talgya/star-dominion/internal/logging"
	"github.com/talgya/star-dominion/internal/metrics"
	"github.com/talgya/star-dominion/internal/notify"
	"github.com/talgya/star-dominion/internal/persistence"
)

// app is the wired process: config, logger, database, optional valkey and
// the engine service on top.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *persistence.DB
	metrics *metrics.Collector
	svc     *engine.Service
	closers []io.Closer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New(), closers: []io.Closer{logCloser}}

	dialect := persistence.Dialect(cfg.Database.Driver)
	if dialect == persistence.DialectSQLite && cfg.Database.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			a.Close()
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(ctx, dialect, cfg.Database.DSN, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db)

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(a.metrics),
	}
	if cfg.Redis.Enabled() {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.Redis.Addr},
			Password:    cfg.Redis.Password,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect valkey: %w", err)
		}
		a.closers = append(a.closers, closerFunc(client.Close))
		opts = append(opts,
			engine.WithLocker(lock.NewValkey(client, logger, cfg.Redis.LockPrefix, cfg.Redis.LockTTL)),
			engine.WithPublisher(notify.NewStream(client, logger, notify.StreamConfig{
				Stream: cfg.Redis.Stream,
				MaxLen: cfg.Redis.StreamMaxLen,
			})),
		)
		logger.Info("valkey enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}
	a.svc = engine.NewService(db, opts...)
	// Closed first: drains turn signals before valkey goes away.
	a.closers = append(a.closers, a.svc)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
