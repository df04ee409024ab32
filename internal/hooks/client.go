package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// EnvServerURL overrides the server address hooks talk to.
const EnvServerURL = "VERDICT_URL"

// Client talks to the verdict server.
type Client struct {
	http      *http.Client
	serverURL string
}

// NewClient creates a hook client for serverURL. An empty serverURL uses
// $VERDICT_URL, falling back to http://127.0.0.1:37778.
func NewClient(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv(EnvServerURL)
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Process posts text to the server's process endpoint and returns the keys
// of the decisions recorded.
func (c *Client) Process(ctx context.Context, text, sessionID, role string) ([]string, error) {
	body, err := json.Marshal(map[string]string{
		"text":       text,
		"session_id": sessionID,
		"role":       role,
	})
	if err != nil {
		return nil, err
	}

	const path = "/api/decisions/process"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}

	var out struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response %s: %w", path, err)
	}
	return out.Keys, nil
}
