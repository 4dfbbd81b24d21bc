// Package gateway is the thin HTTP adapter to the remote workout
// backend. The backend is opaque: a single endpoint that answers
// action-style GET queries and accepts JSON POST envelopes. Every
// failure surfaces as a *NetworkError so callers can degrade to
// local-only behavior.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// NetworkError wraps any remote-call failure: transport errors,
// non-200 statuses and server-side rejections (success=false).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client talks to the remote workout endpoint over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a Client for the given endpoint URL.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ping checks whether the backend is reachable and answering.
func (c *Client) Ping(ctx context.Context) error {
	var result models.RemoteResult
	if err := c.get(ctx, "ping", nil, &result); err != nil {
		return err
	}
	if !result.Success {
		return &NetworkError{Op: "ping", Err: fmt.Errorf("server reported failure")}
	}
	return nil
}

// GetHistory fetches up to limit recent sessions from the backend.
func (c *Client) GetHistory(ctx context.Context, limit int) ([]models.RemoteWorkout, error) {
	var result models.RemoteHistory
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "getHistory", params, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &NetworkError{Op: "getHistory", Err: fmt.Errorf("server reported failure")}
	}
	return result.Workouts, nil
}

// GetRecords fetches the personal-best table from the backend.
func (c *Client) GetRecords(ctx context.Context) ([]models.RemoteRecord, error) {
	var result models.RemoteRecords
	if err := c.get(ctx, "getRecords", nil, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &NetworkError{Op: "getRecords", Err: fmt.Errorf("server reported failure")}
	}
	return result.Records, nil
}

// SaveSession submits a finalized session. Retries up to 3 times with
// exponential backoff before giving up; the caller enqueues the session
// for later sync on failure.
func (c *Client) SaveSession(ctx context.Context, s *models.Session) error {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			case <-ctx.Done():
				return &NetworkError{Op: "saveWorkoutSession", Err: ctx.Err()}
			}
		}
		if lastErr = c.post(ctx, "saveWorkoutSession", s); lastErr == nil {
			return nil
		}
	}
	return &NetworkError{Op: "saveWorkoutSession", Err: fmt.Errorf("after 3 attempts: %w", lastErr)}
}

// SaveActivePlan notifies the backend of the newly activated plan.
// Single attempt: this is a best-effort notification, never retried and
// never rolled back locally.
func (c *Client) SaveActivePlan(ctx context.Context, p *models.Plan) error {
	if err := c.post(ctx, "saveActiveScheda", p); err != nil {
		return &NetworkError{Op: "saveActiveScheda", Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, action string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &NetworkError{Op: action, Err: err}
	}
	// The backend must never serve a cached response for history reads.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &NetworkError{Op: action, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: action, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, action string, data any) error {
	payload, err := json.Marshal(models.RemoteEnvelope{Action: action, Data: data})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	// text/plain avoids a CORS preflight on the hosted backend.
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var result models.RemoteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !result.Success {
		if result.Message != "" {
			return fmt.Errorf("server rejected %s: %s", action, result.Message)
		}
		return fmt.Errorf("server rejected %s", action)
	}
	return nil
}
