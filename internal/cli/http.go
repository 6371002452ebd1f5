package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/okian/consensus/pkg/logger"
)

// HTTPClient talks to a running consensus service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewHTTPClient creates a client for baseURL with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer closeBody(ctx, resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %d", ErrRemote, resp.StatusCode)
	}
	return nil
}

// Submit posts an election under a fresh id and returns the id.
func (c *HTTPClient) Submit(ctx context.Context, rule string, weights []float64, ballots [][]string) (string, error) {
	body := map[string]any{
		"election_id": uuid.NewString(),
		"rule":        rule,
		"ballots":     ballots,
	}
	if len(weights) > 0 {
		body["weights"] = weights
	}

	resp, err := c.do(ctx, http.MethodPost, "/elections", body)
	if err != nil {
		return "", err
	}
	defer closeBody(ctx, resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", remoteError(resp.StatusCode, data)
	}
	var ack ackResponse
	if err := json.Unmarshal(data, &ack); err != nil {
		return "", fmt.Errorf("failed to decode ack: %w", err)
	}
	return ack.ElectionID, nil
}

// Await polls GET /elections/{id} until the tally settles or the client's
// timeout elapses.
func (c *HTTPClient) Await(ctx context.Context, id string) (*tallyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		rec, err := c.result(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec.Status == statusCompleted || rec.Status == statusFailed {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrRemoteTimeout, id)
		case <-ticker.C:
		}
	}
}

func (c *HTTPClient) result(ctx context.Context, id string) (*tallyResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/elections/"+id, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrRemoteTimeout, id)
		}
		return nil, err
	}
	defer closeBody(ctx, resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp.StatusCode, data)
	}
	var rec tallyResponse
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode tally: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	return resp, nil
}

func remoteError(status int, body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return fmt.Errorf("%w: status %d", ErrRemote, status)
	}
	if e.Suggestion != "" {
		return fmt.Errorf("%w: %s (did you mean %q?)", ErrRemote, e.Message, e.Suggestion)
	}
	return fmt.Errorf("%w: %s: %s", ErrRemote, e.Code, e.Message)
}

func closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Debug(ctx, "failed to close response body", logger.Error(err))
	}
}
