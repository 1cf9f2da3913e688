package domain

// FinishReason normalizes why a backend stopped generating.
type FinishReason string

const (
	// FinishStop means the model emitted a stop sequence or end of turn.
	FinishStop FinishReason = "stop"

	// FinishLength means the max token limit was reached.
	FinishLength FinishReason = "length"

	// FinishContentFilter means output was withheld by a provider filter.
	FinishContentFilter FinishReason = "content_filter"
)
