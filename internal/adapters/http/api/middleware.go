package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/consensus/pkg/metrics"
	"golang.org/x/time/rate"
)

// errorClass labels a failed response for the error counters.
type errorClass struct {
	kind     string
	severity string
}

// classifyStatus maps a response status onto the error counters' labels.
// ok is false for statuses below 400.
func classifyStatus(status int) (errorClass, bool) {
	switch {
	case status < http.StatusBadRequest:
		return errorClass{}, false
	case status == http.StatusUnprocessableEntity:
		return errorClass{kind: "invalid_profile", severity: "low"}, true
	case status == http.StatusRequestEntityTooLarge:
		return errorClass{kind: "too_large", severity: "low"}, true
	case status == http.StatusTooManyRequests:
		return errorClass{kind: "rate_limit", severity: "medium"}, true
	case status == http.StatusNotFound:
		return errorClass{kind: "not_found", severity: "low"}, true
	case status == http.StatusServiceUnavailable:
		return errorClass{kind: "unavailable", severity: "high"}, true
	case status >= http.StatusInternalServerError:
		return errorClass{kind: "server_error", severity: "high"}, true
	default:
		return errorClass{kind: "client_error", severity: "medium"}, true
	}
}

// MetricsMiddleware records request counts, latency and error labels for
// endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Microseconds())/1e3)

		if class, ok := classifyStatus(rec.status); ok {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class.kind)
			metrics.RecordErrorByType(class.kind, class.severity)
			metrics.RecordErrorByComponent("http", class.kind)
		}
	}
}

// RateLimitMiddleware refuses requests once limiter's bucket is empty.
// A nil limiter disables limiting.
func RateLimitMiddleware(limiter *rate.Limiter, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			metrics.RecordHTTPRateLimited(endpoint)
			retry := int(math.Ceil(1 / float64(limiter.Limit())))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, retry)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(endpoint, ErrRateLimited))
			return
		}
		next(w, r)
	}
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
