// Package retry wraps calls to the authoritative data source with
// bounded exponential backoff, jitter, transient/permanent error
// classification and an offline gate.
//
// The delay for attempt n is min(base × multiplier^n, max), plus 0–30%
// random jitter, never exceeding max. Validation-class errors are not
// retried; cancellation mid-backoff surfaces as ErrCancelled, never as
// a retryable failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrMaxRetriesExceeded is returned when every attempt failed with a
	// transient error.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrCancelled is returned when the caller's context ended the retry
	// loop, including mid-backoff.
	ErrCancelled = errors.New("retry cancelled")
)

// Classifier reports whether an error is transient and worth retrying.
type Classifier func(err error) bool

// Config tunes the backoff schedule.
type Config struct {
	BaseDelay      time.Duration `envconfig:"BASE_DELAY" default:"1s"`
	MaxDelay       time.Duration `envconfig:"MAX_DELAY" default:"30s"`
	Multiplier     float64       `envconfig:"MULTIPLIER" default:"2"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"5"`
	JitterFraction float64       `envconfig:"JITTER_FRACTION" default:"0.3"`
}

// DelayFor computes the jittered delay for one attempt. The result is
// always within [min(base × multiplier^attempt, max), max].
func (c Config) DelayFor(attempt int) time.Duration {
	exp := float64(c.BaseDelay)
	for i := 0; i < attempt; i++ {
		exp *= c.Multiplier
		if exp >= float64(c.MaxDelay) {
			exp = float64(c.MaxDelay)
			break
		}
	}
	jittered := exp * (1 + rand.Float64()*c.JitterFraction)
	if jittered > float64(c.MaxDelay) {
		jittered = float64(c.MaxDelay)
	}
	return time.Duration(jittered)
}

// policy adapts Config to the backoff.BackOff contract so the library
// drives the timer loop while the schedule stays ours.
type policy struct {
	cfg     Config
	attempt int
}

func (p *policy) NextBackOff() time.Duration {
	if p.attempt >= p.cfg.MaxAttempts-1 {
		return backoff.Stop
	}
	d := p.cfg.DelayFor(p.attempt)
	p.attempt++
	return d
}

func (p *policy) Reset() { p.attempt = 0 }

// Monitor gates retries on connectivity. It is an explicit per-client
// object, not process state, so independent stores can be observed with
// independent lifecycles.
type Monitor struct {
	mu      sync.Mutex
	online  bool
	waiters []chan struct{}
}

// NewMonitor returns a Monitor that starts online.
func NewMonitor() *Monitor {
	return &Monitor{online: true}
}

// SetOnline flips connectivity. Going online releases every waiter.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
	if online {
		for _, w := range m.waiters {
			close(w)
		}
		m.waiters = nil
	}
}

// Online reports current connectivity.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// AwaitOnline blocks until connectivity returns or ctx ends. Retries
// paused here burn no attempts.
func (m *Monitor) AwaitOnline(ctx context.Context) error {
	m.mu.Lock()
	if m.online {
		m.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client retries operations against the authoritative data source.
type Client struct {
	cfg       Config
	monitor   *Monitor
	retryable Classifier
	logger    *slog.Logger
}

// New creates a Client. monitor may be nil when connectivity gating is
// not needed.
func New(cfg Config, monitor *Monitor, retryable Classifier, logger *slog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	return &Client{
		cfg:       cfg,
		monitor:   monitor,
		retryable: retryable,
		logger:    logger.With("component", "retry-client"),
	}
}

// Run executes fn with the configured backoff schedule.
func (c *Client) Run(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := 0
	operation := func() error {
		if c.monitor != nil {
			if err := c.monitor.AwaitOnline(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !c.retryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("transient failure, will retry",
			"operation", op, "attempt", attempt, "error", err)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(&policy{cfg: c.cfg}, ctx))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %s: %v", ErrCancelled, op, ctx.Err())
	case c.retryable(err):
		return fmt.Errorf("%w: %s after %d attempts: %v", ErrMaxRetriesExceeded, op, attempt, err)
	default:
		return err
	}
}

// Do executes fn with retries and returns its value. It exists because
// methods cannot be generic.
func Do[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := c.Run(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
