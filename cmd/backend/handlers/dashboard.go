package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/hairizuan-noorazman/webtester/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

// DashboardHandler serves the single-page dashboard shell. All data comes
// from the JSON API and the SSE stream; the template only carries version
// info and whether a login is required.
type DashboardHandler struct {
	tmpl         *template.Template
	version      string
	authRequired bool
	logger       logger.Logger
}

// NewDashboardHandler parses the embedded dashboard template.
func NewDashboardHandler(version string, authRequired bool, log logger.Logger) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		tmpl:         tmpl,
		version:      version,
		authRequired: authRequired,
		logger:       log,
	}, nil
}

// Index renders the dashboard page.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Version      string
		AuthRequired bool
	}{
		Version:      h.version,
		AuthRequired: h.authRequired,
	}
	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error(r.Context(), "failed to render dashboard", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
