package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/swiss/internal/domain/model"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Client speaks the tournament HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. token is sent on admin routes when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type reportRequest struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}

type reportResponse struct {
	Match     *model.Match `json:"match"`
	Duplicate bool         `json:"duplicate"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// Reset deletes every match and player.
func (c *Client) Reset(ctx context.Context) error {
	h := c.adminHeaders()
	if err := c.do(ctx, http.MethodDelete, "/matches", nil, h, nil); err != nil {
		return fmt.Errorf("reset matches: %w", err)
	}
	if err := c.do(ctx, http.MethodDelete, "/players", nil, h, nil); err != nil {
		return fmt.Errorf("reset players: %w", err)
	}
	return nil
}

// Register adds a player.
func (c *Client) Register(ctx context.Context, name string) (model.Player, error) {
	var p model.Player
	err := c.do(ctx, http.MethodPost, "/players", map[string]string{"name": name}, nil, &p)
	return p, err
}

// Standings fetches GET /standings.
func (c *Client) Standings(ctx context.Context) ([]model.Standing, error) {
	var rows []model.Standing
	err := c.do(ctx, http.MethodGet, "/standings", nil, nil, &rows)
	return rows, err
}

// Pairings fetches GET /pairings.
func (c *Client) Pairings(ctx context.Context) ([]model.Pairing, error) {
	var pairs []model.Pairing
	err := c.do(ctx, http.MethodGet, "/pairings", nil, nil, &pairs)
	return pairs, err
}

// Matches fetches GET /matches.
func (c *Client) Matches(ctx context.Context) ([]model.Match, error) {
	var log []model.Match
	err := c.do(ctx, http.MethodGet, "/matches", nil, nil, &log)
	return log, err
}

// Report posts a result under key and reports whether the server saw key before.
func (c *Client) Report(ctx context.Context, key string, winnerID, loserID int64) (bool, error) {
	var resp reportResponse
	h := map[string]string{"Idempotency-Key": key}
	if err := c.do(ctx, http.MethodPost, "/matches", reportRequest{WinnerID: winnerID, LoserID: loserID}, h, &resp); err != nil {
		return false, err
	}
	return resp.Duplicate, nil
}

func (c *Client) adminHeaders() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
