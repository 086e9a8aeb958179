package handlers

import (
	"net/http"

	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/logger"
)

// ConfigHandler serves and updates the runtime test configuration.
type ConfigHandler struct {
	store  config.Store
	logger logger.Logger
}

// NewConfigHandler creates a config handler.
func NewConfigHandler(store config.Store, log logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		store:  store,
		logger: log,
	}
}

// UpdateConfigRequest is a partial configuration update. Absent fields keep
// their prior values. The api_key field is stored under whichever provider
// is active after this update, mirroring the single key input on the form.
type UpdateConfigRequest struct {
	TargetURL     *string  `json:"target_url,omitempty"`
	TestFocus     *string  `json:"test_focus,omitempty"`
	Provider      *string  `json:"provider,omitempty"`
	APIKey        *string  `json:"api_key,omitempty"`
	LaminarAPIKey *string  `json:"laminar_api_key,omitempty"`
	Model         *string  `json:"model,omitempty"`
	Headless      *bool    `json:"headless,omitempty"`
	WindowWidth   *int     `json:"window_width,omitempty"`
	WindowHeight  *int     `json:"window_height,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// Get returns the current configuration with secrets redacted.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Get().Redacted())
}

// Update applies a partial configuration update.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Provider first: the api_key setter routes the key by active provider.
	setters := []config.UpdateSetter{}
	if req.Provider != nil {
		setters = append(setters, config.SetProvider(config.Provider(*req.Provider)))
	}
	if req.TargetURL != nil {
		setters = append(setters, config.SetTargetURL(*req.TargetURL))
	}
	if req.TestFocus != nil {
		setters = append(setters, config.SetTestFocus(*req.TestFocus))
	}
	if req.APIKey != nil {
		setters = append(setters, config.SetAPIKey(*req.APIKey))
	}
	if req.LaminarAPIKey != nil {
		setters = append(setters, config.SetLaminarAPIKey(*req.LaminarAPIKey))
	}
	if req.Model != nil {
		setters = append(setters, config.SetModel(*req.Model))
	}
	if req.Headless != nil {
		setters = append(setters, config.SetHeadless(*req.Headless))
	}
	if req.WindowWidth != nil {
		setters = append(setters, config.SetWindowWidth(*req.WindowWidth))
	}
	if req.WindowHeight != nil {
		setters = append(setters, config.SetWindowHeight(*req.WindowHeight))
	}
	if req.Categories != nil {
		categories := make([]config.Category, len(req.Categories))
		for i, c := range req.Categories {
			categories[i] = config.Category(c)
		}
		setters = append(setters, config.SetCategories(categories))
	}

	updated, err := h.store.Apply(r.Context(), setters...)
	if err != nil {
		h.logger.Error(r.Context(), "failed to update configuration", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, updated.Redacted())
}
