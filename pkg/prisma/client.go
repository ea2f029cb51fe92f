package prisma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// AuthHeader carries the session token on every authenticated call.
	AuthHeader = "x-redlock-auth"
	// RequestIDHeader correlates all calls of one run.
	RequestIDHeader = "x-request-id"

	defaultTimeout = 30 * time.Second
)

// Endpoints holds the vendor-specific paths of the operations the client uses.
// SearchHistory is a prefix; the search id is appended to it.
type Endpoints struct {
	Login            string `yaml:"login" json:"login"`
	ConfigSearch     string `yaml:"config_search" json:"config_search"`
	PermissionSearch string `yaml:"permission_search" json:"permission_search"`
	SearchHistory    string `yaml:"search_history" json:"search_history"`
	Policy           string `yaml:"policy" json:"policy"`
}

// DefaultEndpoints returns the paths of the public Prisma Cloud CSPM API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:            "/login",
		ConfigSearch:     "/search/api/v2/config",
		PermissionSearch: "/iam/api/v3/search/permission",
		SearchHistory:    "/search/history",
		Policy:           "/policy",
	}
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Endpoints  Endpoints
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	RunID      string
}

// Client talks to the CSPM API.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	logger     *zap.Logger
	runID      string
}

// NewClient creates a client for the API at opts.BaseURL.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		endpoints:  opts.Endpoints,
		httpClient: httpClient,
		logger:     logger,
		runID:      opts.RunID,
	}
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// postJSON sends payload to path and decodes a 2xx response into out (if non-nil).
// Non-2xx responses are returned as *APIError.
func (c *Client) postJSON(ctx context.Context, operation, path string, session *Session, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.runID != "" {
		req.Header.Set(RequestIDHeader, c.runID)
	}
	if session != nil {
		req.Header.Set(AuthHeader, session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response (status %d): %w", operation, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(operation, resp, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", operation, err)
	}
	return nil
}
