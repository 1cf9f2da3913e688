package domain

import (
	"time"

	"github.com/google/uuid"
)

// StageName identifies one step of the answering pipeline.
type StageName string

// Pipeline stages in execution order. Search and skip are mutually exclusive.
const (
	StageExtractQuestion StageName = "extract_question"
	StageExtractKeywords StageName = "extract_keywords"
	StageDecideSearch    StageName = "decide_search"
	StageSearch          StageName = "search"
	StageSkipSearch      StageName = "skip_search"
	StageGenerateAnswer  StageName = "generate_answer"
)

// PipelineRun is the ephemeral record of one question's trip through the pipeline.
// Each stage reads what earlier stages produced and fills in its own fields.
// The record is never persisted; only the final answer becomes an artifact.
type PipelineRun struct {
	// ID correlates log lines of a single run.
	ID string `json:"id"`

	// OriginalQuestion is the raw input as read from the batch file.
	OriginalQuestion string `json:"original_question"`

	// ExtractedQuestion is the distilled question used by every later stage.
	ExtractedQuestion string `json:"extracted_question"`

	// Keywords are recorded for observability only and gate nothing.
	Keywords string `json:"keywords"`

	// SearchNeeded is the decision policy's verdict on ExtractedQuestion.
	SearchNeeded bool `json:"search_needed"`

	// SearchAttempts counts provider invocations, including failed ones.
	SearchAttempts int `json:"search_attempts"`

	// SearchExhausted reports that the fallback context was used.
	SearchExhausted bool `json:"search_exhausted"`

	// Context is the background material handed to the answering agent.
	Context string `json:"context"`

	// Answer is the pipeline result.
	Answer string `json:"answer"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// Stages lists completed stages in order, for debugging and tests.
	Stages []StageName `json:"stages"`
}

// NewPipelineRun starts a record for question.
func NewPipelineRun(question string) *PipelineRun {
	return &PipelineRun{
		ID:               uuid.New().String(),
		OriginalQuestion: question,
		StartedAt:        time.Now(),
	}
}

// Completed reports whether the answering stage has finished.
func (r *PipelineRun) Completed() bool { return !r.CompletedAt.IsZero() }
