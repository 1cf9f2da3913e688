package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CurrentCanonicalVersion defines the canonicalization format version.
// Increment when canonicalization logic changes to invalidate stale cache entries.
const CurrentCanonicalVersion = "v1.0"

// Validation errors for canonical payloads.
var (
	ErrOperationRequired = errors.New("operation is required")
	ErrProviderRequired  = errors.New("provider is required")
)

// CanonicalPayload represents the normalized, stable form of a logical completion request.
// It serves as the sole input to IdemKey hashing and must be deterministic across
// equivalent requests. Only line endings and outer whitespace are normalized;
// inner whitespace is part of the prompt the model sees.
type CanonicalPayload struct {
	Operation OperationType      `json:"operation"`
	Provider  string             `json:"provider"`
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []CanonicalMessage `json:"messages,omitempty"`
	Params    CanonicalParams    `json:"params"`
	Version   string             `json:"version"`
}

// CanonicalMessage represents a normalized message in the conversation.
type CanonicalMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CanonicalParams captures every sampling parameter that changes the output.
type CanonicalParams struct {
	MaxTokens     int64    `json:"max_tokens"`
	Temperature   float64  `json:"temperature"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop,omitempty"`
}

// IdemKey provides deterministic SHA-256 hex identification for canonical payloads.
type IdemKey string

// String returns the string representation of the idempotency key.
func (k IdemKey) String() string { return string(k) }

// BuildCanonicalPayload transforms a request into normalized canonical form.
func BuildCanonicalPayload(req *Request) (*CanonicalPayload, error) {
	if req.Operation == "" {
		return nil, ErrOperationRequired
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		return nil, ErrProviderRequired
	}

	payload := &CanonicalPayload{
		Operation: req.Operation,
		Provider:  provider,
		Model:     strings.TrimSpace(req.Model),
		System:    normalizeText(req.SystemPrompt),
		Messages: []CanonicalMessage{
			{Role: "user", Content: normalizeText(req.UserPrompt)},
		},
		Params: CanonicalParams{
			MaxTokens:     req.MaxTokens,
			Temperature:   req.Temperature,
			RepeatPenalty: req.RepeatPenalty,
			Stop:          req.Stop,
		},
		Version: CurrentCanonicalVersion,
	}

	return payload, nil
}

// BuildIdemKey generates a deterministic SHA-256 idempotency key.
// Struct fields marshal in declaration order, which keeps the JSON stable.
func BuildIdemKey(payload *CanonicalPayload) (IdemKey, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal canonical payload: %w", err)
	}

	hash := sha256.Sum256(jsonBytes)
	return IdemKey(hex.EncodeToString(hash[:])), nil
}

// GenerateIdemKey builds canonical payload and generates the idempotency key.
func GenerateIdemKey(req *Request) (IdemKey, error) {
	payload, err := BuildCanonicalPayload(req)
	if err != nil {
		return "", fmt.Errorf("failed to build canonical payload: %w", err)
	}

	return BuildIdemKey(payload)
}

// CacheKey constructs the complete Redis cache key.
// Uses hierarchical format {prefix}:{operation}:{idemkey}.
func CacheKey(prefix string, operation OperationType, idemKey IdemKey) string {
	return fmt.Sprintf("%s:%s:%s", prefix, operation, idemKey)
}

// normalizeText trims outer whitespace and normalizes CRLF to LF.
func normalizeText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
}
