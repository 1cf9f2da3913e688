package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ArtifactKind represents the type of content stored in an artifact.
// Using typed constants instead of raw strings provides compile-time safety
// and prevents typos that could bypass validation.
type ArtifactKind string

const (
	// ArtifactAnswer is one question's final answer, flattened to a single line.
	ArtifactAnswer ArtifactKind = "answer"

	// ArtifactMerged is the concatenation of a range of answers, one per line.
	ArtifactMerged ArtifactKind = "merged"
)

// ArtifactRef represents a reference to content stored in the artifact store.
type ArtifactRef struct {
	// Key is the store-relative name of the artifact (e.g., "12.txt").
	Key string `json:"key" validate:"required"`

	// Size is the size of the stored content in bytes.
	Size int64 `json:"size" validate:"min=0"`

	// Kind categorizes the type of content stored.
	Kind ArtifactKind `json:"kind" validate:"required,oneof=answer merged"`
}

// Validate checks if the artifact reference meets all requirements.
// Returns nil if valid, or a validation error describing the first constraint violation.
func (a ArtifactRef) Validate() error { return validate.Struct(a) }

// IsZero reports whether the artifact reference has no meaningful value set.
func (a ArtifactRef) IsZero() bool { return a.Key == "" && a.Size == 0 && a.Kind == "" }

// AnswerArtifactRef returns the reference of the answer for the 1-based batch index.
// The existence of this artifact is the sole resume marker of the batch runner.
func AnswerArtifactRef(index int) (ArtifactRef, error) {
	if index < 1 {
		return ArtifactRef{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return ArtifactRef{Key: strconv.Itoa(index) + ".txt", Kind: ArtifactAnswer}, nil
}

// FlattenAnswer replaces internal newlines with spaces so every answer
// occupies exactly one line when artifacts are merged.
func FlattenAnswer(answer string) string {
	return strings.ReplaceAll(answer, "\n", " ")
}
