// Package spyglass is the interactive global-search client for the
// maritime maintenance platform. It turns raw keystrokes into a single,
// cancellable, streaming query against the remote search service, with
// local caching, graceful degradation to a fallback endpoint, and
// side-channel action-intent detection.
package spyglass

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/cache"
	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/intent"
	"github.com/pelorus-marine/spyglass/internal/kv"
	kvFile "github.com/pelorus-marine/spyglass/internal/kv/file"
	kvMemory "github.com/pelorus-marine/spyglass/internal/kv/memory"
	kvRedis "github.com/pelorus-marine/spyglass/internal/kv/redis"
	"github.com/pelorus-marine/spyglass/internal/metrics"
	"github.com/pelorus-marine/spyglass/internal/orchestrator"
	"github.com/pelorus-marine/spyglass/internal/recent"
	"github.com/pelorus-marine/spyglass/internal/token"
	"github.com/pelorus-marine/spyglass/internal/transport/actions"
	"github.com/pelorus-marine/spyglass/internal/transport/fallback"
	"github.com/pelorus-marine/spyglass/internal/transport/stream"
)

// Public aliases for the observable types.
type (
	// SearchResult is a single entity hit.
	SearchResult = domain.SearchResult
	// ActionSuggestion is a domain-scoped suggested operation.
	ActionSuggestion = domain.ActionSuggestion
	// Domain identifies an action-intent domain.
	Domain = domain.Domain
	// State is a snapshot of the observable search state.
	State = orchestrator.State
	// Phase names the orchestrator state-machine phase.
	Phase = orchestrator.Phase
)

// Re-exported phases.
const (
	PhaseIdle       = orchestrator.PhaseIdle
	PhaseDebouncing = orchestrator.PhaseDebouncing
	PhaseInFlight   = orchestrator.PhaseInFlight
)

// Searcher is one interactive search session against the remote service.
type Searcher struct {
	orch      *orchestrator.Orchestrator
	recent    *recent.Store
	sessionID string
	closeFn   func()
}

// New creates a Searcher talking to the search service at baseURL.
func New(baseURL string, opts ...Option) (*Searcher, error) {
	if baseURL == "" {
		return nil, errors.New("spyglass: search service base URL required")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newID := cfg.newID
	if newID == nil {
		newID = uuid.NewString
	}
	sessionID := newID()

	store, closeFn, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	tokens := token.NewBounded(cfg.tokenProvider, cfg.tokenTimeout, logger)

	streamClient := stream.NewClient(&stream.Config{
		BaseURL:    baseURL,
		HTTPClient: cfg.httpClient,
		Tokens:     tokens,
		Signature:  cfg.yachtSignature,
		SessionID:  sessionID,
		Logger:     logger,
	})
	fallbackClient := fallback.NewClient(&fallback.Config{
		BaseURL:    baseURL,
		HTTPClient: cfg.httpClient,
		Tokens:     tokens,
		YachtID:    cfg.yachtID,
		SessionID:  sessionID,
		Timeout:    cfg.fallbackTimeout,
		Limit:      cfg.fallbackLimit,
		Logger:     logger,
	})
	actionsClient := actions.NewClient(&actions.Config{
		BaseURL:    baseURL,
		HTTPClient: cfg.httpClient,
		Tokens:     tokens,
		Logger:     logger,
	})

	resultCache := cache.New(cfg.cacheTTL, metrics.CacheTotal)
	recentStore := recent.New(store, logger)

	orch := orchestrator.New(orchestrator.Config{
		Stream:      streamClient,
		Fallback:    fallbackClient,
		Suggestions: actionsClient,
		Cache:       resultCache,
		Recent:      recentStore,
		Classify:    intent.Classify,
		Clock:       cfg.clock,
		Logger:      logger.With(zap.String("session", sessionID)),
		OnState:     cfg.onState,
	})

	return &Searcher{
		orch:      orch,
		recent:    recentStore,
		sessionID: sessionID,
		closeFn:   closeFn,
	}, nil
}

func createStore(cfg *clientConfig) (kv.Store, func(), error) {
	switch {
	case len(cfg.redisAddrs) > 0:
		s, err := kvRedis.NewStore(kvRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("spyglass: create redis store: %w", err)
		}
		return s, s.Close, nil
	case cfg.fileDir != "":
		s, err := kvFile.New(cfg.fileDir)
		if err != nil {
			return nil, nil, fmt.Errorf("spyglass: create file store: %w", err)
		}
		return s, nil, nil
	default:
		return kvMemory.New(), nil, nil
	}
}

// OnQueryChange feeds one keystroke's worth of query text.
func (s *Searcher) OnQueryChange(text string) { s.orch.OnQueryChange(text) }

// Submit executes text immediately, bypassing the debounce window.
func (s *Searcher) Submit(text string) { s.orch.Submit(text) }

// Clear cancels outstanding work and resets all state.
func (s *Searcher) Clear() { s.orch.Clear() }

// Refetch re-runs the last submitted query, bypassing the cache.
func (s *Searcher) Refetch() { s.orch.Refetch() }

// State returns the current observable state.
func (s *Searcher) State() State { return s.orch.State() }

// RecentQueries returns the persisted recent-query list, most recent first.
func (s *Searcher) RecentQueries(ctx context.Context) []string {
	return s.recent.List(ctx)
}

// SessionID returns this session's correlation id.
func (s *Searcher) SessionID() string { return s.sessionID }

// Close releases store resources.
func (s *Searcher) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// RegisterMetrics registers the Prometheus collectors. Call once from main
// when metrics exposure is wanted; the library never registers implicitly.
func RegisterMetrics() {
	metrics.RegisterSearchMetrics()
}
