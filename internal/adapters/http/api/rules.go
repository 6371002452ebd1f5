package api

import (
	"net/http"

	"github.com/okian/consensus/internal/domain/rules"
)

// RulesHandler lists the voting rules the service accepts.
type RulesHandler struct {
	deps Dependencies
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps Dependencies) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// HandleGetRules handles GET /rules.
func (h *RulesHandler) HandleGetRules(w http.ResponseWriter, _ *http.Request) {
	list := h.deps.Rules()
	if list == nil {
		list = []rules.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": list})
}
