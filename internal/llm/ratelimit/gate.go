package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// NewInferenceGate returns a middleware admitting at most limit concurrent
// requests. A limit of zero or less disables the gate.
func NewInferenceGate(limit int64) transport.Middleware {
	if limit <= 0 {
		return func(next transport.Handler) transport.Handler { return next }
	}

	sem := semaphore.NewWeighted(limit)
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("waiting for inference slot: %w", err)
			}
			defer sem.Release(1)

			return next.Handle(ctx, req)
		})
	}
}
