// Package fallback implements the degraded search path: one non-streaming
// POST against a simpler endpoint when the primary stream fails.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/mapping"
	"github.com/pelorus-marine/spyglass/internal/token"
)

// DefaultTimeout bounds the whole fallback request.
const DefaultTimeout = 5 * time.Second

// DefaultLimit is the result-count ceiling sent to the endpoint.
const DefaultLimit = 50

// Config holds the fallback client settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     *token.Bounded
	YachtID    string
	SessionID  string
	Timeout    time.Duration
	Limit      int
	Logger     *zap.Logger
}

// Client issues non-streaming fallback search requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Bounded
	yachtID    string
	sessionID  string
	timeout    time.Duration
	limit      int
	logger     *zap.Logger
}

// NewClient creates a fallback search client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		yachtID:    cfg.YachtID,
		sessionID:  cfg.SessionID,
		timeout:    timeout,
		limit:      limit,
		logger:     logger,
	}
}

type fallbackRequest struct {
	Query   string `json:"query"`
	YachtID string `json:"yacht_id"`
	Limit   int    `json:"limit"`
}

type fallbackResponse struct {
	Results    []mapping.RawResult `json:"results"`
	TotalCount int                 `json:"total_count"`
}

// Search executes the fallback request. The primary path's context is
// deliberately NOT reused: it is already cancelled by the time control
// reaches here, so the request runs on a fresh context bound only to the
// fixed timeout. Failure wraps domain.ErrFallbackFailed and is terminal
// for the query.
func (c *Client) Search(query string) ([]domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	body, err := json.Marshal(fallbackRequest{
		Query:   query,
		YachtID: c.yachtID,
		Limit:   c.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode fallback request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/search/fallback", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build fallback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if c.sessionID != "" {
		req.Header.Set("X-Search-Session", c.sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fallback request: %v: %w", err, domain.ErrFallbackFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fallback status %d: %w: %w",
			resp.StatusCode, domain.ErrBadStatus, domain.ErrFallbackFailed)
	}

	var decoded fallbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode fallback response: %v: %w", err, domain.ErrFallbackFailed)
	}

	c.logger.Debug("Fallback search completed",
		zap.String("query", query),
		zap.Int("results", len(decoded.Results)),
		zap.Int("total_count", decoded.TotalCount),
	)
	return mapping.ToResults(decoded.Results), nil
}
