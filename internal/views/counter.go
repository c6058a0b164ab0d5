// Package views counts story page views off the request path.
package views

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"site-content-store/internal/errors"
	"site-content-store/internal/metrics"
	"site-content-store/internal/worker"
)

// Incrementer is the store operation a view ends up in.
type Incrementer interface {
	IncrementViews(ctx context.Context, slug string) error
}

// Counter queues one increment per recorded view. Failures are logged and
// counted, never retried.
type Counter struct {
	pool    *worker.WorkerPool
	store   Incrementer
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCounter(pool *worker.WorkerPool, store Incrementer, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Counter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Counter{pool: pool, store: store, timeout: timeout, logger: logger, metrics: m}
}

// Record returns immediately. The increment runs on the pool with its own
// deadline, so a cancelled page request does not cancel it.
func (c *Counter) Record(slug string) {
	queued := c.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		err := c.store.IncrementViews(ctx, slug)
		switch {
		case err == nil:
			c.observe(metrics.ResultOK)
		case errors.Is(err, http.StatusNotFound):
			c.observe(metrics.ResultNotFound)
			c.logger.Debug("view for unknown story", slog.String("slug", slug))
		default:
			c.observe(metrics.ResultFailed)
			c.logger.Warn("view increment failed", slog.String("slug", slug), slog.Any("err", err))
		}
		return nil
	})
	if !queued {
		c.observe(metrics.ResultDropped)
		c.logger.Warn("view increment dropped", slog.String("slug", slug))
	}
}

// Shutdown waits for queued increments to finish.
func (c *Counter) Shutdown() {
	c.pool.Shutdown()
}

func (c *Counter) observe(result string) {
	if c.metrics != nil {
		c.metrics.ViewIncrements.WithLabelValues(result).Inc()
	}
}
