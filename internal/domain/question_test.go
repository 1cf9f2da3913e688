package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-groundqa/internal/domain"
)

func TestParseQuestionLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "metadata suffix ignored", line: "What is the capital of France?,extra", want: "What is the capital of France?"},
		{name: "no delimiter", line: "Who wrote Hamlet?", want: "Who wrote Hamlet?"},
		{name: "surrounding whitespace trimmed", line: "  台灣最高的山是哪座？ \n", want: "台灣最高的山是哪座？"},
		{name: "only first comma splits", line: "a,b,c", want: "a"},
		{name: "blank line", line: "   ", want: ""},
		{name: "leading comma", line: ",meta", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseQuestionLine(tt.line))
		})
	}
}
