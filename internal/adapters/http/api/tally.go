package api

import (
	"net/http"

	"github.com/okian/consensus/pkg/logger"
)

// TallyHandler computes elections synchronously without storing them.
type TallyHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	log          logger.Logger
}

// NewTallyHandler creates a new tally handler.
func NewTallyHandler(deps Dependencies, maxBodyBytes int64, log logger.Logger) *TallyHandler {
	return &TallyHandler{deps: deps, maxBodyBytes: maxBodyBytes, log: log}
}

// HandlePostTally handles POST /tally.
func (h *TallyHandler) HandlePostTally(w http.ResponseWriter, r *http.Request) {
	req, err := decodeElection(w, r, h.maxBodyBytes, "post tally")
	if err != nil {
		writeClassified(w, err)
		return
	}
	rec, err := h.deps.Tally(r.Context(), req.election())
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			err = Wrap("post tally", err)
			h.log.Error(r.Context(), "tally failed", logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, newTallyResponse(rec))
}
