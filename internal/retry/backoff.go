package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// backoff returns the deterministic part of the delay after failed attempt k.
func (c *Controller) backoff(attempt int) time.Duration {
	base := c.config.Base
	if base < 1 {
		base = 1
	}

	d := math.Pow(base, float64(attempt)) * float64(c.config.Unit)
	if d > math.MaxInt64 || math.IsInf(d, 0) {
		d = math.MaxInt64
	}
	delay := time.Duration(d)

	if c.config.MaxDelay > 0 && delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay
}

// Delay returns the full wait after failed attempt k, jitter included.
func (c *Controller) Delay(attempt int) time.Duration {
	delay := c.backoff(attempt)
	if jitter := c.jitter(c.config.MaxJitter); jitter > 0 && delay <= math.MaxInt64-jitter {
		delay += jitter
	}
	return delay
}

// uniformJitter draws from [0, limit).
func uniformJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit))) // #nosec G404 -- non-cryptographic jitter is appropriate here
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
