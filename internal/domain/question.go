package domain

import "strings"

// recordDelimiter separates the question text from optional trailing metadata
// in an input record. Everything after the first delimiter is ignored.
const recordDelimiter = ","

// ParseQuestionLine extracts the question text from one newline-delimited input record.
// The record is trimmed first and the content before the first comma is returned
// unchanged, so "What is the capital of France?,extra" yields the bare question.
// Blank records produce an empty question; callers decide whether to skip them.
func ParseQuestionLine(line string) string {
	q, _, _ := strings.Cut(strings.TrimSpace(line), recordDelimiter)
	return q
}
