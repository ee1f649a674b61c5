// Package actions fetches domain-scoped suggested operations for a query.
// The fetch runs in parallel with the main search and its failures are
// swallowed: suggestions are advisory, never worth failing a search over.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/token"
)

// DefaultTimeout bounds a suggestions fetch.
const DefaultTimeout = 3 * time.Second

// Config holds the suggestions client settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     *token.Bounded
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client fetches action suggestions keyed by (query, domain).
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Bounded
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a suggestions client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		timeout:    timeout,
		logger:     logger,
	}
}

type suggestionsResponse struct {
	Suggestions []domain.ActionSuggestion `json:"suggestions"`
}

// Fetch returns the suggested operations for a query within a domain.
// Any failure returns (nil, error); callers log and move on.
func (c *Client) Fetch(
	ctx context.Context, query string, d domain.Domain,
) ([]domain.ActionSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/search/actions?q=%s&domain=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(string(d)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build actions request: %w", err)
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("actions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("actions status %d: %w", resp.StatusCode, domain.ErrBadStatus)
	}

	var decoded suggestionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode actions response: %w", err)
	}
	return decoded.Suggestions, nil
}
