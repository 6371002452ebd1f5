// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/consensus/internal/adapters/repository"
	service "github.com/okian/consensus/internal/app"
	"github.com/okian/consensus/internal/domain/model"
	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/internal/domain/scoring"
	"github.com/okian/consensus/internal/domain/types"
	"github.com/okian/consensus/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	defaultMaxBodyBytes = 8 << 20

	// backpressureRetryAfter is the Retry-After, in seconds, sent with a 429
	// that the rate limiter did not already annotate.
	backpressureRetryAfter = 1
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues an election for asynchronous tallying.
	Submit(ctx context.Context, e model.Election) (service.Receipt, error)
	// Tally computes an election synchronously.
	Tally(ctx context.Context, e model.Election) (model.Tally, error)
	// Result returns a stored tally record.
	Result(ctx context.Context, id string) (model.Tally, error)
	// Rules lists the available voting rules.
	Rules() []rules.Info
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	electionsHandler *ElectionsHandler
	tallyHandler     *TallyHandler
	rulesHandler     *RulesHandler

	limiter *rate.Limiter
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	rps          float64
	burst        int
	maxBodyBytes int64
	logger       logger.Logger
}

// WithRateLimit enables a token bucket of rps requests per second with the
// given burst on the POST endpoints. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *serverOptions) {
		o.rps, o.burst = rps, burst
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}

	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		electionsHandler: NewElectionsHandler(deps, o.maxBodyBytes, o.logger),
		tallyHandler:     NewTallyHandler(deps, o.maxBodyBytes, o.logger),
		rulesHandler:     NewRulesHandler(deps),
	}
	if o.rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(o.rps), o.burst)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /rules", MetricsMiddleware(s.rulesHandler.HandleGetRules, "rules"))
	mux.HandleFunc("POST /elections", MetricsMiddleware(
		RateLimitMiddleware(s.limiter, "elections", s.electionsHandler.HandlePostElection), "elections"))
	mux.HandleFunc("GET /elections/{id}", MetricsMiddleware(s.electionsHandler.HandleGetElection, "election"))
	mux.HandleFunc("POST /tally", MetricsMiddleware(
		RateLimitMiddleware(s.limiter, "tally", s.tallyHandler.HandlePostTally), "tally"))
}

// electionRequest mirrors the OpenAPI schema shared by POST /elections and
// POST /tally.
type electionRequest struct {
	ElectionID string     `json:"election_id" validate:"omitempty,max=128,printascii"`
	Rule       string     `json:"rule" validate:"omitempty,max=64"`
	Weights    []float64  `json:"weights" validate:"omitempty,max=4096"`
	Ballots    [][]string `json:"ballots" validate:"dive,dive,required,max=256"`
}

func (r *electionRequest) election() model.Election {
	return model.Election{
		ID:      r.ElectionID,
		Rule:    r.Rule,
		Weights: r.Weights,
		Ballots: r.Ballots,
	}
}

type ackResponse struct {
	Status     string `json:"status"`
	ElectionID string `json:"election_id"`
	Duplicate  bool   `json:"duplicate"`
}

type tallyResponse struct {
	ElectionID  string           `json:"election_id"`
	Rule        string           `json:"rule"`
	Status      string           `json:"status"`
	Winner      string           `json:"winner,omitempty"`
	Ranking     []string         `json:"ranking"`
	Standings   []types.Standing `json:"standings"`
	Dictator    *int             `json:"dictator,omitempty"`
	Voters      int              `json:"voters"`
	Candidates  int              `json:"candidates"`
	Error       string           `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func newTallyResponse(t model.Tally) tallyResponse { //nolint:gocritic // hugeParam: records are values
	resp := tallyResponse{
		ElectionID:  t.ElectionID,
		Rule:        t.Rule,
		Status:      string(t.Status),
		Ranking:     t.Ranking,
		Standings:   types.Standings(t.Ranking, t.Scores),
		Voters:      t.Voters,
		Candidates:  t.Candidates,
		Error:       t.Error,
		SubmittedAt: t.SubmittedAt,
	}
	if resp.Ranking == nil {
		resp.Ranking = []string{}
	}
	if w, ok := t.Winner(); ok {
		resp.Winner = w
	}
	if t.Dictator >= 0 {
		d := t.Dictator
		resp.Dictator = &d
	}
	if !t.CompletedAt.IsZero() {
		c := t.CompletedAt
		resp.CompletedAt = &c
	}
	return resp
}

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if status == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", strconv.Itoa(backpressureRetryAfter))
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var unknown *rules.UnknownRuleError
	if errors.As(err, &unknown) {
		resp.Suggestion = unknown.Suggestion
	}
	writeJSON(w, status, resp)
}

// classify maps a service or domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, rules.ErrUnknownRule):
		return http.StatusBadRequest, "unknown_rule"
	case errors.Is(err, rules.ErrMissingWeights),
		errors.Is(err, rules.ErrUnexpectedWeights),
		errors.Is(err, scoring.ErrInvalidWeights):
		return http.StatusBadRequest, "invalid_weights"
	case errors.Is(err, profile.ErrEmptyProfile), errors.Is(err, profile.ErrInvalidProfile):
		return http.StatusUnprocessableEntity, profile.Reason(err)
	case errors.Is(err, ErrBodyTooLarge), errors.Is(err, service.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeClassified(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
