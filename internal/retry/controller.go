// Package retry runs a fallible operation a bounded number of times with
// exponential backoff and reports the outcome as a value. Exhaustion is not
// an error: callers map it to a fallback with Resolve.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// Op is one attempt of the retried operation.
type Op func(ctx context.Context) (string, error)

// Outcome describes how a retried operation ended.
type Outcome struct {
	// Context is the successful result; empty when Exhausted.
	Context string

	// Attempts is the number of times the operation ran.
	Attempts int

	// Err is the last attempt's error, joined with the context error when
	// cancellation ended the retries. Nil on success.
	Err error

	// Exhausted is true when no attempt succeeded.
	Exhausted bool
}

// Resolve maps an outcome to the context handed to the answering stage.
func Resolve(o Outcome) string {
	if o.Exhausted {
		return domain.FallbackContext
	}
	return o.Context
}

// Controller executes operations under a retry schedule. It holds no
// per-call state and is safe for concurrent use.
type Controller struct {
	config Config
	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
	logger *slog.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSleep replaces the context-aware sleep, typically with a recorder in tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithJitter replaces the jitter source.
func WithJitter(jitter func(limit time.Duration) time.Duration) Option {
	return func(c *Controller) { c.jitter = jitter }
}

// WithLogger sets the logger for attempt failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a Controller. MaxAttempts below one is treated as one.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	c := &Controller{
		config: cfg,
		sleep:  sleepContext,
		jitter: uniformJitter,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "retry")
	return c
}

// MaxAttempts returns the attempt bound.
func (c *Controller) MaxAttempts() int { return c.config.MaxAttempts }

// Do runs op until it succeeds or MaxAttempts is reached. It sleeps between
// attempts but not after the last one. Cancellation of ctx ends the retries
// and yields an exhausted outcome.
func (c *Controller) Do(ctx context.Context, op Op) Outcome {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Attempts: attempt, Err: errors.Join(lastErr, err), Exhausted: true}
		}

		result, err := op(ctx)
		if err == nil {
			return Outcome{Context: result, Attempts: attempt + 1}
		}
		lastErr = err

		if attempt == c.config.MaxAttempts-1 {
			c.logger.WarnContext(ctx, "all attempts failed", "attempts", attempt+1, "error", err)
			break
		}

		wait := c.Delay(attempt)
		c.logger.WarnContext(ctx, "attempt failed, backing off",
			"attempt", attempt+1,
			"max_attempts", c.config.MaxAttempts,
			"wait", wait,
			"error", err)

		if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
			return Outcome{Attempts: attempt + 1, Err: errors.Join(lastErr, sleepErr), Exhausted: true}
		}
	}

	return Outcome{Attempts: c.config.MaxAttempts, Err: lastErr, Exhausted: true}
}
