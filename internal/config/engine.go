package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonwraymond/snippetexec/datasource"
	"github.com/jonwraymond/snippetexec/exec"
	"github.com/jonwraymond/snippetexec/metrics"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Engine is an exec.Exec together with the resources it holds open.
type Engine struct {
	*exec.Exec
	closers []func() error
}

// Close releases the data source and metric store.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// NewEngine opens the configured collaborators and assembles an engine.
func (c *Config) NewEngine(ctx context.Context, logger *slog.Logger) (*Engine, error) {
	engine := &Engine{}
	opts := exec.Options{
		SecurityProfile: runtime.SecurityProfile(c.Profile),
		DefaultTimeout:  c.Timeout,
		MaxCalls:        c.MaxCalls,
		MaxOutputCells:  c.MaxOutputCells,
		EnableWorker:    c.Worker.Enabled,
		WorkerCommand:   c.Worker.Command,
		Logger:          logger,
	}
	if len(c.Allow) > 0 {
		opts.Allow = c.Allow
	}
	if len(c.Worker.Args) > 0 {
		opts.WorkerArgs = c.Worker.Args
	}

	if c.Data.Driver != "" {
		src, err := datasource.Open(ctx, datasource.Config{
			Driver:  c.Data.Driver,
			DSN:     c.Data.DSN,
			MaxRows: c.Data.MaxRows,
		})
		if err != nil {
			return nil, fmt.Errorf("opening data source: %w", err)
		}
		engine.closers = append(engine.closers, src.Close)
		opts.Data = src
	}

	switch c.Metrics.Backend {
	case MetricsRedis:
		store := metrics.NewRedisStore(metrics.RedisConfig{
			Addr:     c.Metrics.Redis.Addr,
			Password: c.Metrics.Redis.Password,
			DB:       c.Metrics.Redis.DB,
			Key:      c.Metrics.Redis.Key,
		})
		engine.closers = append(engine.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		opts.Metrics = store
	default:
		opts.Metrics = metrics.NewMemoryStore(c.Metrics.Values)
	}

	ex, err := exec.New(opts)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	engine.Exec = ex
	return engine, nil
}
