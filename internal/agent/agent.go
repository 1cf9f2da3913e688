// Package agent wraps the completion backend with a fixed role. An Agent
// renders every input into the same (system, user) exchange shape and
// returns the backend's text unchanged.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// ErrNilBackend indicates an agent was constructed without a backend.
var ErrNilBackend = errors.New("agent backend is nil")

// Completer produces the text of a single chat completion.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, exchange domain.ChatExchange) (string, error)
}

// Agent is a stateless role bound to a shared backend. It is safe for
// concurrent use as long as the backend is.
type Agent struct {
	config  domain.AgentConfig
	backend Completer
	logger  *slog.Logger
}

// New validates cfg and binds it to backend.
func New(cfg domain.AgentConfig, backend Completer) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	return &Agent{
		config:  cfg,
		backend: backend,
		logger:  slog.Default().With("component", "agent", "role", cfg.Name),
	}, nil
}

// Name returns the role name.
func (a *Agent) Name() string { return a.config.Name }

// Config returns the role definition.
func (a *Agent) Config() domain.AgentConfig { return a.config }

// Infer sends input under the agent's role and returns the first completion
// verbatim. Backend errors are wrapped with the role name and not retried.
func (a *Agent) Infer(ctx context.Context, input string) (string, error) {
	exchange := domain.NewChatExchange(a.config, input)

	out, err := a.backend.Complete(ctx, exchange)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.config.Name, err)
	}

	a.logger.DebugContext(ctx, "inference complete", "input_len", len(input), "output_len", len(out))
	return out, nil
}
