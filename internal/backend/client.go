// Package backend implements the request forwarder for the SDS Manager
// API. One outbound HTTP attempt per call, no retries; the backend owns
// all validation of tokens, ids, and queries.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/sdsgate/internal/config"
	"github.com/example/sdsgate/internal/errors"
)

// Client forwards tool calls to the backend API.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// NewClient creates a forwarder for the configured backend.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: cfg.AuthHeader,
		httpClient: &http.Client{
			Transport: NewTransport(DefaultTransportConfig),
			Timeout:   cfg.Timeout,
		},
	}
}

// Search queries the backend substance index. The response body is the
// backend's JSON, returned unmodified.
func (c *Client) Search(ctx context.Context, token, query string, page, pageSize int) ([]byte, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	return c.get(ctx, token, c.baseURL+"/substance/?"+q.Encode())
}

// Fetch retrieves one document by id. The payload structure is opaque to
// the gateway.
func (c *Client) Fetch(ctx context.Context, token, id string) ([]byte, error) {
	return c.get(ctx, token, c.baseURL+"/substance/"+url.PathEscape(id)+"/")
}

func (c *Client) get(ctx context.Context, token, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.authHeader, c.authValue(token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewBackendError(resp.StatusCode, body)
	}
	return body, nil
}

// authValue formats the token for the configured header. The backend
// expects "JWT <token>" on the standard Authorization header and a bare
// token on API-key style headers.
func (c *Client) authValue(token string) string {
	if http.CanonicalHeaderKey(c.authHeader) == "Authorization" {
		return "JWT " + token
	}
	return token
}
