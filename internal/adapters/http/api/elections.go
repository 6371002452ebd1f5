package api

import (
	"net/http"

	"github.com/okian/consensus/pkg/logger"
)

// ElectionsHandler accepts elections for asynchronous tallying and serves
// their results.
type ElectionsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	log          logger.Logger
}

// NewElectionsHandler creates a new elections handler.
func NewElectionsHandler(deps Dependencies, maxBodyBytes int64, log logger.Logger) *ElectionsHandler {
	return &ElectionsHandler{deps: deps, maxBodyBytes: maxBodyBytes, log: log}
}

// HandlePostElection handles POST /elections. It answers 202 with the
// election id once the election is queued, or 200 for a resubmitted id.
func (h *ElectionsHandler) HandlePostElection(w http.ResponseWriter, r *http.Request) {
	req, err := decodeElection(w, r, h.maxBodyBytes, "post election")
	if err != nil {
		writeClassified(w, err)
		return
	}

	receipt, err := h.deps.Submit(r.Context(), req.election())
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			err = Wrap("post election", err)
			h.log.Error(r.Context(), "submit failed", logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}

	status := http.StatusAccepted
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ackResponse{
		Status:     string(receipt.Status),
		ElectionID: receipt.ElectionID,
		Duplicate:  receipt.Duplicate,
	})
}

// HandleGetElection handles GET /elections/{id}.
func (h *ElectionsHandler) HandleGetElection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeClassified(w, NewKind("get election", ErrBadRequest))
		return
	}
	rec, err := h.deps.Result(r.Context(), id)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTallyResponse(rec))
}
