package config

import "strings"

// UpdateSetter mutates one field of a pending configuration. Setters are
// applied to a working copy; the store only commits when all of them succeed.
type UpdateSetter func(*TestConfig) error

// SetTargetURL sets the website under test.
func SetTargetURL(raw string) UpdateSetter {
	return func(c *TestConfig) error {
		if err := validateTargetURL(raw); err != nil {
			return err
		}
		c.TargetURL = raw
		return nil
	}
}

// SetTestFocus sets the free-form instruction describing what to test.
func SetTestFocus(focus string) UpdateSetter {
	return func(c *TestConfig) error {
		c.TestFocus = focus
		return nil
	}
}

// SetProvider switches the active LLM provider.
func SetProvider(p Provider) UpdateSetter {
	return func(c *TestConfig) error {
		if !p.IsValid() {
			return ErrInvalidProvider
		}
		c.Provider = p
		return nil
	}
}

// SetModel sets the model identifier passed to the agent.
func SetModel(model string) UpdateSetter {
	return func(c *TestConfig) error {
		c.Model = model
		return nil
	}
}

// SetAPIKey stores the key under the currently active provider, mirroring
// the dashboard form which has a single key input.
func SetAPIKey(key string) UpdateSetter {
	return func(c *TestConfig) error {
		if strings.TrimSpace(key) == "" {
			return ErrEmptyAPIKey
		}
		switch c.Provider {
		case ProviderGoogle:
			c.GoogleAPIKey = key
		case ProviderOpenAI:
			c.OpenAIAPIKey = key
		case ProviderGroq:
			c.GroqAPIKey = key
		case ProviderOllama:
			// Nothing to store; local models are unauthenticated.
		}
		return nil
	}
}

// SetLaminarAPIKey sets the observability collector key.
func SetLaminarAPIKey(key string) UpdateSetter {
	return func(c *TestConfig) error {
		if strings.TrimSpace(key) == "" {
			return ErrEmptyAPIKey
		}
		c.LaminarAPIKey = key
		return nil
	}
}

// SetHeadless toggles headless browser mode.
func SetHeadless(headless bool) UpdateSetter {
	return func(c *TestConfig) error {
		c.Headless = headless
		return nil
	}
}

// SetWindowSize sets the browser viewport dimensions.
func SetWindowSize(width, height int) UpdateSetter {
	return func(c *TestConfig) error {
		if width <= 0 || height <= 0 {
			return ErrInvalidWindowSize
		}
		c.WindowWidth = width
		c.WindowHeight = height
		return nil
	}
}

// SetWindowWidth sets the viewport width, keeping the current height.
func SetWindowWidth(width int) UpdateSetter {
	return func(c *TestConfig) error {
		if width <= 0 {
			return ErrInvalidWindowSize
		}
		c.WindowWidth = width
		return nil
	}
}

// SetWindowHeight sets the viewport height, keeping the current width.
func SetWindowHeight(height int) UpdateSetter {
	return func(c *TestConfig) error {
		if height <= 0 {
			return ErrInvalidWindowSize
		}
		c.WindowHeight = height
		return nil
	}
}

// SetCategories replaces the set of enabled test categories.
func SetCategories(categories []Category) UpdateSetter {
	return func(c *TestConfig) error {
		for _, cat := range categories {
			if !cat.IsValid() {
				return ErrInvalidCategory
			}
		}
		c.Categories = categories
		return nil
	}
}
