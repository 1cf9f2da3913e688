package domain

import (
	"fmt"
)

// AgentConfig describes one agent role. It is defined once per role and never
// mutated after construction; every inference call reuses the same descriptions.
type AgentConfig struct {
	// Name identifies the role in logs and metrics (e.g., "question_extraction").
	Name string `json:"name" validate:"required"`

	// RoleDescription becomes the system instruction of every exchange.
	RoleDescription string `json:"role_description" validate:"required"`

	// TaskDescription is prepended to the input message in the user instruction.
	TaskDescription string `json:"task_description" validate:"required"`
}

// Validate checks that every description is present.
func (c AgentConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAgentConfig, err)
	}
	return nil
}

// ChatExchange is the ordered (system, user) instruction pair sent to the
// text-completion backend. It is built fresh for each call and not retained.
type ChatExchange struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// NewChatExchange renders the exchange for an agent call.
// The user instruction concatenates the task description with the input message.
func NewChatExchange(cfg AgentConfig, input string) ChatExchange {
	return ChatExchange{
		System: cfg.RoleDescription,
		User:   fmt.Sprintf("Task Description: %s\nQuestion: %s", cfg.TaskDescription, input),
	}
}
