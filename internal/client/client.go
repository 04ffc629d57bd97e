// Package client implements the HTTP client the sync agent uses against the
// session store API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/luminacoach/sessionsync/internal/api"
)

// ErrUnauthenticated is returned for HTTP 401 responses. Callers treat it as
// "stop calling for a while", distinct from a transient failure.
var ErrUnauthenticated = errors.New("unauthenticated")

// Client talks to the session store API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a session store client.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether the conversation is already registered.
func (c *Client) Check(ctx context.Context, projectID, externalSessionID string) (bool, error) {
	var resp api.CheckResponse
	err := c.post(ctx, "/api/sessions/check", api.CheckRequest{
		ProjectID:       projectID,
		VoiceflowUserID: externalSessionID,
	}, &resp)
	if err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("check failed: %s", resp.Error)
	}
	return resp.Exists, nil
}

// Register creates a server record for a newly observed conversation.
func (c *Client) Register(ctx context.Context, projectID string, data api.SessionData, sessionName string) error {
	var resp api.GenericResponse
	err := c.post(ctx, "/api/sessions/register", api.RegisterRequest{
		ProjectID:   projectID,
		SessionData: data,
		SessionName: sessionName,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("register failed: %s", resp.Error)
	}
	return nil
}

// Update refreshes an existing record with the current full widget state.
func (c *Client) Update(ctx context.Context, projectID string, data api.SessionData) error {
	var resp api.GenericResponse
	err := c.post(ctx, "/api/sessions/update", api.UpdateRequest{
		ProjectID:   projectID,
		SessionData: data,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("update failed: %s", resp.Error)
	}
	return nil
}

// List returns the owner's sessions keyed by external session ID.
func (c *Client) List(ctx context.Context) (map[string]api.SessionRecord, error) {
	var resp api.ListResponse
	if err := c.post(ctx, "/api/sessions/list", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("list failed: %s", resp.Error)
	}
	return resp.Sessions, nil
}

// SubmitFeedback records a rating for a session.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID, rating, comment string) error {
	var resp api.GenericResponse
	err := c.post(ctx, "/api/sessions/feedback", api.FeedbackRequest{
		SessionID: sessionID,
		Rating:    rating,
		Comment:   comment,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("feedback failed: %s", resp.Error)
	}
	return nil
}

// ListFeedback returns the feedback submitted for a session.
func (c *Client) ListFeedback(ctx context.Context, sessionID string) ([]api.FeedbackEntry, error) {
	var resp api.FeedbackListResponse
	err := c.post(ctx, "/api/sessions/feedback/list", api.FeedbackListRequest{SessionID: sessionID}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("feedback list failed: %s", resp.Error)
	}
	return resp.Feedback, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
