// Package site serves the landing page listing the available rules.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/consensus/internal/domain/rules"
)

// Error constants.
var (
	ErrGenerate = errors.New("landing page generation failed")
	ErrServe    = errors.New("landing page serve failed")
)

var page = template.Must(template.ParseFS(staticFS, "static/index.html")) //nolint:gochecknoglobals // parsed once

// Register attaches the landing page and its assets to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	h := NewRootHandler()
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.Handle("GET /static/", http.StripPrefix("/static", http.FileServer(FS())))
}

// RootHandler renders the landing page.
type RootHandler struct {
	rules func() []rules.Info
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{rules: rules.Rules}
}

// Render writes the landing page to a buffer.
func (h *RootHandler) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, struct{ Rules []rules.Info }{Rules: h.rules()}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return buf.Bytes(), nil
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	body, err := h.Render()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
