package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-groundqa/internal/domain"
)

func TestNewPipelineRun(t *testing.T) {
	a := domain.NewPipelineRun("q")
	b := domain.NewPipelineRun("q")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "q", a.OriginalQuestion)
	assert.False(t, a.Completed())

	a.CompletedAt = time.Now()
	assert.True(t, a.Completed())
}
