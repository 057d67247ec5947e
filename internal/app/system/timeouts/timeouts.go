// Package timeouts provides the timeout budgets applied to database work.
//
// Handlers wrap each request's store calls in context.WithTimeout using one
// of these values; the migration command uses Batch for its whole run.
//
//   - Ping: health checks
//   - Short: single-document reads and writes (get, end, delete)
//   - Medium: list and history queries, single creates
//   - Long: joins over large result sets, verification aggregates
//   - Batch: batch inserts and the legacy migration
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 10 * time.Minute
)

var (
	mu  sync.RWMutex
	cur = defaults()
)

// Config holds timeout configuration values.
// Zero values are ignored (the current value is kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

// Configure overrides timeout values. Call during startup, before handlers
// are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		cur.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		cur.Batch = cfg.Batch
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

func Ping() time.Duration   { return Current().Ping }
func Short() time.Duration  { return Current().Short }
func Medium() time.Duration { return Current().Medium }
func Long() time.Duration   { return Current().Long }
func Batch() time.Duration  { return Current().Batch }

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "batch assignment create")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
