package config

import (
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrInvalidTargetURL is returned when the target URL is empty or unparseable.
	ErrInvalidTargetURL = errors.New("target_url must be a valid http or https URL")

	// ErrEmptyAPIKey is returned when an API key field is set to an empty string.
	ErrEmptyAPIKey = errors.New("api key cannot be set to an empty string")

	// ErrInvalidProvider is returned when the provider is not one of the supported values.
	ErrInvalidProvider = errors.New("unsupported llm provider")

	// ErrInvalidCategory is returned when an unknown test category is supplied.
	ErrInvalidCategory = errors.New("unknown test category")

	// ErrMissingAPIKey is returned when a run is requested without a key for the active provider.
	ErrMissingAPIKey = errors.New("api key for the active provider is not configured")

	// ErrInvalidWindowSize is returned when browser window dimensions are not positive.
	ErrInvalidWindowSize = errors.New("browser window dimensions must be positive")
)

// Provider identifies which LLM backend the browser agent should use.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderOpenAI Provider = "openai"
	ProviderGroq   Provider = "groq"
	ProviderOllama Provider = "ollama"
)

// IsValid checks if the provider is supported.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderOpenAI, ProviderGroq, ProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresKey reports whether the provider needs an API key. Ollama runs
// against a local model server and authenticates nothing.
func (p Provider) RequiresKey() bool {
	return p != ProviderOllama
}

// Category is a test category the agent can be asked to cover.
type Category string

const (
	CategoryFunctional    Category = "functional"
	CategoryUIUX          Category = "ui_ux"
	CategoryAccessibility Category = "accessibility"
	CategoryPerformance   Category = "performance"
	CategorySecurity      Category = "security"
)

// AllCategories lists every supported test category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryFunctional,
		CategoryUIUX,
		CategoryAccessibility,
		CategoryPerformance,
		CategorySecurity,
	}
}

// IsValid checks if the category is supported.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFunctional, CategoryUIUX, CategoryAccessibility, CategoryPerformance, CategorySecurity:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable name used in coverage reports.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFunctional:
		return "Functional"
	case CategoryUIUX:
		return "UI/UX"
	case CategoryAccessibility:
		return "Accessibility"
	case CategoryPerformance:
		return "Performance"
	case CategorySecurity:
		return "Security"
	default:
		return string(c)
	}
}

// TestConfig is the runtime configuration driving a test run. It is mutated
// only through Store.Apply so every copy handed out is a consistent snapshot.
type TestConfig struct {
	TargetURL     string     `json:"target_url"`
	TestFocus     string     `json:"test_focus"`
	Provider      Provider   `json:"provider"`
	GoogleAPIKey  string     `json:"google_api_key"`
	OpenAIAPIKey  string     `json:"openai_api_key"`
	GroqAPIKey    string     `json:"groq_api_key"`
	LaminarAPIKey string     `json:"laminar_api_key"`
	Model         string     `json:"model"`
	Headless      bool       `json:"headless"`
	WindowWidth   int        `json:"window_width"`
	WindowHeight  int        `json:"window_height"`
	Categories    []Category `json:"categories"`
}

// Default returns the configuration used before any save has happened.
func Default() TestConfig {
	return TestConfig{
		TargetURL:    "https://demoblaze.com/",
		TestFocus:    "Perform a general test of the website.",
		Provider:     ProviderGoogle,
		Model:        "gemini-1.5-flash",
		Headless:     false,
		WindowWidth:  1920,
		WindowHeight: 1080,
		Categories:   AllCategories(),
	}
}

// Validate checks the configuration is internally consistent.
func (c *TestConfig) Validate() error {
	if err := validateTargetURL(c.TargetURL); err != nil {
		return err
	}
	if !c.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return ErrInvalidWindowSize
	}
	for _, cat := range c.Categories {
		if !cat.IsValid() {
			return ErrInvalidCategory
		}
	}
	return nil
}

// ValidateForRun checks the preconditions for starting a test run. A key for
// the active provider must be present before the agent is ever contacted.
func (c *TestConfig) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Provider.RequiresKey() && c.APIKey() == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// APIKey returns the key configured for the active provider.
func (c *TestConfig) APIKey() string {
	switch c.Provider {
	case ProviderGoogle:
		return c.GoogleAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	default:
		return ""
	}
}

// Redacted returns a copy safe to send over the wire. Keys are masked down
// to their last four characters so the dashboard can show which are set.
func (c TestConfig) Redacted() TestConfig {
	c.GoogleAPIKey = maskSecret(c.GoogleAPIKey)
	c.OpenAIAPIKey = maskSecret(c.OpenAIAPIKey)
	c.GroqAPIKey = maskSecret(c.GroqAPIKey)
	c.LaminarAPIKey = maskSecret(c.LaminarAPIKey)
	return c
}

// clone returns a deep copy so callers can't mutate the store's snapshot.
func (c TestConfig) clone() TestConfig {
	out := c
	out.Categories = make([]Category, len(c.Categories))
	copy(out.Categories, c.Categories)
	return out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func validateTargetURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidTargetURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTargetURL
	}
	return nil
}
