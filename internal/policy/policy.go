// Package policy decides whether a question warrants a web search.
package policy

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the rune length above which a question is searched.
const DefaultMinLength = 15

// DefaultTriggers returns the substrings that force a search regardless of
// length. Matching is case-sensitive.
func DefaultTriggers() []string {
	return []string{"what is", "who", "which"}
}

// Config parameterizes the search decision.
type Config struct {
	MinLength int      `json:"min_length" mapstructure:"min_length" validate:"gte=0"`
	Triggers  []string `json:"triggers" mapstructure:"triggers"`
}

// DefaultConfig returns the default decision parameters.
func DefaultConfig() Config {
	return Config{MinLength: DefaultMinLength, Triggers: DefaultTriggers()}
}

// Policy is a pure predicate over the extracted question.
type Policy struct {
	minLength int
	triggers  []string
}

// New creates a Policy. Empty trigger strings are ignored since they would
// match every question.
func New(cfg Config) *Policy {
	triggers := make([]string, 0, len(cfg.Triggers))
	for _, t := range cfg.Triggers {
		if t != "" {
			triggers = append(triggers, t)
		}
	}
	return &Policy{minLength: cfg.MinLength, triggers: triggers}
}

// ShouldSearch reports whether question is longer than the minimum length,
// in code points, or contains any trigger.
func (p *Policy) ShouldSearch(question string) bool {
	if utf8.RuneCountInString(question) > p.minLength {
		return true
	}
	for _, t := range p.triggers {
		if strings.Contains(question, t) {
			return true
		}
	}
	return false
}
