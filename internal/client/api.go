// Package client talks to a Time Shop server: the JSON API over HTTP
// and the realtime channel over websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/timeshop/internal/models"
)

// API is the HTTP client.
type API struct {
	baseURL string
	http    *http.Client
}

// New creates an API client for baseURL (e.g. http://localhost:6020).
func New(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type authPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResult struct {
	Username string       `json:"username"`
	State    models.State `json:"state"`
}

type statePayload struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	State    models.State `json:"state"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *API) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.NewDecoder(res.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s (status %d)", path, apiErr.Error, res.StatusCode)
		}
		return fmt.Errorf("%s: status %d", path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Signup creates an account and returns its fresh state.
func (c *API) Signup(ctx context.Context, username, password string) (models.State, error) {
	var out authResult
	err := c.postJSON(ctx, "/auth/signup", authPayload{Username: username, Password: password}, &out)
	return out.State, err
}

// Login returns the stored state for the account.
func (c *API) Login(ctx context.Context, username, password string) (models.State, error) {
	var out authResult
	err := c.postJSON(ctx, "/auth/login", authPayload{Username: username, Password: password}, &out)
	return out.State, err
}

// SyncState pushes a full state snapshot.
func (c *API) SyncState(ctx context.Context, username, password string, state models.State) error {
	return c.postJSON(ctx, "/api/state", statePayload{Username: username, Password: password, State: state}, nil)
}

// SubmitReview posts a review for a card level.
func (c *API) SubmitReview(ctx context.Context, username, password, cardLevel, text string) error {
	body := map[string]string{
		"username":  username,
		"password":  password,
		"cardLevel": cardLevel,
		"text":      text,
	}
	return c.postJSON(ctx, "/api/reviews", body, nil)
}

// StateSyncer binds an account credential to the API, satisfying the
// session runner's Syncer.
type StateSyncer struct {
	api      *API
	username string
	password string
}

// NewStateSyncer creates a Syncer for one account.
func NewStateSyncer(api *API, username, password string) *StateSyncer {
	return &StateSyncer{api: api, username: username, password: password}
}

// Sync pushes state under the bound credential.
func (s *StateSyncer) Sync(ctx context.Context, state models.State) error {
	return s.api.SyncState(ctx, s.username, s.password, state)
}
