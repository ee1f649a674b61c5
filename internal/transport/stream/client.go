// Package stream implements the primary search path: a single streaming
// GET whose body is a text/event-stream of typed result batches.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/mapping"
	"github.com/pelorus-marine/spyglass/internal/metrics"
	"github.com/pelorus-marine/spyglass/internal/token"
)

// Recognized event types on the wire.
const (
	eventResultBatch   = "result_batch"
	eventExactMatchWin = "exact_match_win"
	eventFinalized     = "finalized"
	eventDiagnostics   = "diagnostics"
	eventError         = "error"
)

// Config holds the streaming client settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     *token.Bounded
	Signature  string // optional X-Yacht-Signature value
	SessionID  string
	Logger     *zap.Logger
}

// Client issues streaming search requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Bounded
	signature  string
	sessionID  string
	logger     *zap.Logger
}

// NewClient creates a streaming search client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		signature:  cfg.Signature,
		sessionID:  cfg.SessionID,
		logger:     logger,
	}
}

// Search executes the streaming request for query, invoking yield once per
// result batch in arrival order. Cancellation surfaces as ctx.Err(); every
// other failure (connect, non-2xx, malformed event) wraps
// domain.ErrStreamFailed so the caller can degrade to the fallback path.
func (c *Client) Search(ctx context.Context, query string, yield func([]domain.SearchResult)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	endpoint := c.baseURL + "/search/stream?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.setIdentityHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("stream request: %v: %w", err, domain.ErrStreamFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stream status %d: %w: %w",
			resp.StatusCode, domain.ErrBadStatus, domain.ErrStreamFailed)
	}

	if err := c.consume(ctx, bufio.NewReader(resp.Body), query, yield); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("consume stream: %v: %w", err, domain.ErrStreamFailed)
	}
	return nil
}

// setIdentityHeaders attaches the bearer token (if one can be obtained in
// time), the yacht-scope signature, and the session id.
func (c *Client) setIdentityHeaders(ctx context.Context, req *http.Request) {
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if c.signature != "" {
		req.Header.Set("X-Yacht-Signature", c.signature)
	}
	if c.sessionID != "" {
		req.Header.Set("X-Search-Session", c.sessionID)
	}
}

// consume reads event:/data: frames until EOF, dispatching each complete
// event. Reads suspend once per network chunk; cancellation aborts the
// body read through the request context.
func (c *Client) consume(
	ctx context.Context, r *bufio.Reader, query string, yield func([]domain.SearchResult),
) error {
	var eventType string
	var data strings.Builder

	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if line == "" && err == nil {
			if dispatchErr := c.dispatch(eventType, data.String(), query, yield); dispatchErr != nil {
				return dispatchErr
			}
			eventType = ""
			data.Reset()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// comment frame, keep-alive
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				// trailing event without final blank line
				return c.dispatch(eventType, data.String(), query, yield)
			}
			return err
		}
	}
}

// dispatch handles one complete event. Informational events are logged,
// never yielded; an undecodable result payload is a transport failure.
func (c *Client) dispatch(
	eventType, data, query string, yield func([]domain.SearchResult),
) error {
	if eventType == "" && data == "" {
		return nil
	}
	metrics.StreamEventsTotal.WithLabelValues(eventType).Inc()

	switch eventType {
	case eventResultBatch:
		var raws []mapping.RawResult
		if err := json.Unmarshal([]byte(data), &raws); err != nil {
			return fmt.Errorf("decode result_batch: %w", err)
		}
		yield(mapping.ToResults(raws))

	case eventExactMatchWin:
		var raw mapping.RawResult
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return fmt.Errorf("decode exact_match_win: %w", err)
		}
		yield(mapping.ToResults([]mapping.RawResult{raw}))

	case eventFinalized, eventDiagnostics:
		c.logger.Debug("Stream info event",
			zap.String("type", eventType),
			zap.String("query", query),
		)

	case eventError:
		// Server-reported error does not abort the stream; transport-level
		// failure is the abort path.
		c.logger.Warn("Stream error event",
			zap.String("query", query),
			zap.String("payload", data),
		)

	default:
		c.logger.Debug("Unknown stream event", zap.String("type", eventType))
	}
	return nil
}
