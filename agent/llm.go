package agent

import (
	"github.com/hairizuan-noorazman/webtester/config"
)

// LLMSpec tells the browser agent runtime which model to reason with. The
// runtime owns the provider SDKs; this service only forwards identity and
// credentials.
type LLMSpec struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
}

// NewLLMSpec builds the model spec from the run's configuration snapshot.
// It fails when the active provider requires a key and none is configured.
func NewLLMSpec(cfg config.TestConfig) (LLMSpec, error) {
	if !cfg.Provider.IsValid() {
		return LLMSpec{}, config.ErrInvalidProvider
	}
	if cfg.Provider.RequiresKey() && cfg.APIKey() == "" {
		return LLMSpec{}, config.ErrMissingAPIKey
	}
	return LLMSpec{
		Provider: string(cfg.Provider),
		Model:    cfg.Model,
		APIKey:   cfg.APIKey(),
	}, nil
}
