package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-groundqa/internal/domain"
)

func TestAgentConfig_Validate(t *testing.T) {
	valid := domain.AgentConfig{Name: "qa", RoleDescription: "role", TaskDescription: "task"}
	require.NoError(t, valid.Validate())

	missingRole := valid
	missingRole.RoleDescription = ""
	err := missingRole.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAgentConfig)

	missingTask := valid
	missingTask.TaskDescription = ""
	assert.ErrorIs(t, missingTask.Validate(), domain.ErrInvalidAgentConfig)
}

func TestNewChatExchange(t *testing.T) {
	cfg := domain.AgentConfig{
		Name:            "keywords",
		RoleDescription: "You are a keyword extraction expert.",
		TaskDescription: "Extract 2-5 keywords.",
	}

	ex := domain.NewChatExchange(cfg, "What is Go?\nSecond line")

	assert.Equal(t, "You are a keyword extraction expert.", ex.System)
	assert.Equal(t, "Task Description: Extract 2-5 keywords.\nQuestion: What is Go?\nSecond line", ex.User)
}
