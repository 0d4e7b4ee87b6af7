package handlers

import (
	"io/fs"
	"net/http"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

// PageHandler serves the chat page, its assets and the health probe.
type PageHandler struct {
	assets  fs.FS
	page    string
	backend string
}

// NewPageHandler serves page (a file under templates/) at the root.
// backend is reported by Health.
func NewPageHandler(assets fs.FS, page, backend string) *PageHandler {
	return &PageHandler{assets: assets, page: page, backend: backend}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.assets, "templates/"+h.page)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// Static serves files under static/, mounted at /static/.
func (h *PageHandler) Static() http.Handler {
	sub, err := fs.Sub(h.assets, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Backend: h.backend})
}
