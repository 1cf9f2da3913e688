package domain

import "errors"

// ErrInvalidAgentConfig indicates that an agent role is missing a description.
var ErrInvalidAgentConfig = errors.New("invalid agent configuration")

// ErrInvalidIndex indicates a batch index below 1.
var ErrInvalidIndex = errors.New("batch index must be >= 1")

// ErrEmptyQuestion indicates that a pipeline run was started without a question.
var ErrEmptyQuestion = errors.New("question is empty")
