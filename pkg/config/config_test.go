package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 1500, cfg.Deliberation.AgentMaxTokens)
	assert.Equal(t, 3000, cfg.Deliberation.ChairMaxTokens)
	assert.Equal(t, 120*time.Second, cfg.Deliberation.FanOutTimeout)
	assert.True(t, cfg.Deliberation.ReplayFollowUps)
	assert.Equal(t, DefaultChairPrompt, cfg.Deliberation.ChairPrompt)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_RejectsOutOfRangeCeilings(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_MAX_TOKENS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENT_MAX_TOKENS")
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestDeliberationConfig_Validate(t *testing.T) {
	base := DeliberationConfig{
		AgentMaxTokens:    1000,
		ChairMaxTokens:    2000,
		FanOutTimeout:     time.Minute,
		DocumentCharLimit: 2000,
	}
	require.NoError(t, base.Validate())

	tooLarge := base
	tooLarge.ChairMaxTokens = MaxCompletionTokens + 1
	assert.Error(t, tooLarge.Validate())

	noDeadline := base
	noDeadline.FanOutTimeout = 0
	assert.Error(t, noDeadline.Validate())
}
