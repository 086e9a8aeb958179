package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/webtester/config"
)

func TestNewLLMSpec(t *testing.T) {
	t.Run("keyed provider with key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.ProviderGroq
		cfg.GroqAPIKey = "gsk-test"
		cfg.Model = "llama-3.1-70b"

		spec, err := NewLLMSpec(cfg)
		require.NoError(t, err)
		assert.Equal(t, "groq", spec.Provider)
		assert.Equal(t, "llama-3.1-70b", spec.Model)
		assert.Equal(t, "gsk-test", spec.APIKey)
	})

	t.Run("keyed provider without key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.ProviderOpenAI

		_, err := NewLLMSpec(cfg)
		assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	})

	t.Run("ollama without key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.ProviderOllama
		cfg.Model = "llama3"

		spec, err := NewLLMSpec(cfg)
		require.NoError(t, err)
		assert.Equal(t, "ollama", spec.Provider)
		assert.Empty(t, spec.APIKey)
	})

	t.Run("invalid provider", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider = config.Provider("bedrock")

		_, err := NewLLMSpec(cfg)
		assert.ErrorIs(t, err, config.ErrInvalidProvider)
	})
}
