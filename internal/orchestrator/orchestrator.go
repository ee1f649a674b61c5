// Package orchestrator coordinates the interactive search session: it
// debounces keystrokes, cancels superseded requests, merges streamed
// result batches into stable order, drives the cache and recent-query
// stores, and exposes the reactive state consumed by the UI.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/metrics"
)

// Debounce tuning. A keystroke gap under fastTypingGap marks the user as
// typing fast and widens the window; minRequestSpacing keeps the start of
// two consecutive network requests at least that far apart.
const (
	fastTypingGap     = 100 * time.Millisecond
	fastDebounce      = 140 * time.Millisecond
	slowDebounce      = 80 * time.Millisecond
	minRequestSpacing = 100 * time.Millisecond
	retryDelay        = 2 * time.Second
)

// retryingMessage is the transient error text shown while the single
// automatic retry is pending.
const retryingMessage = "Connection interrupted - retrying..."

// StreamSearcher is the primary, streaming search path.
type StreamSearcher interface {
	Search(ctx context.Context, query string, yield func([]domain.SearchResult)) error
}

// FallbackSearcher is the degraded non-streaming path. It owns its own
// timeout-bound context; the primary's cancelled context must not leak in.
type FallbackSearcher interface {
	Search(query string) ([]domain.SearchResult, error)
}

// SuggestionFetcher retrieves action suggestions for a classified domain.
type SuggestionFetcher interface {
	Fetch(ctx context.Context, query string, d domain.Domain) ([]domain.ActionSuggestion, error)
}

// ResultCache memoizes completed searches.
type ResultCache interface {
	Get(query string) ([]domain.SearchResult, bool)
	Put(query string, results []domain.SearchResult)
	PrefixHint(query string) (int, bool)
}

// RecentQueries persists the recent-query list.
type RecentQueries interface {
	Add(ctx context.Context, query string)
	PrefixMatches(ctx context.Context, prefix string) []string
}

// Classifier maps a query to zero-or-one action domain.
type Classifier func(query string) (domain.Domain, bool)

// Config wires an Orchestrator.
type Config struct {
	Stream      StreamSearcher
	Fallback    FallbackSearcher
	Suggestions SuggestionFetcher
	Cache       ResultCache
	Recent      RecentQueries
	Classify    Classifier
	Clock       Clock
	Logger      *zap.Logger
	OnState     func(State)
}

// Orchestrator owns one search session's state. All mutable fields are
// guarded by mu; every asynchronous continuation re-checks its epoch under
// the lock before touching them, so only the most recent query's work can
// ever write to shared state.
type Orchestrator struct {
	stream      StreamSearcher
	fallback    FallbackSearcher
	suggestions SuggestionFetcher
	cache       ResultCache
	recent      RecentQueries
	classify    Classifier
	clock       Clock
	logger      *zap.Logger
	onState     func(State)

	mu            sync.Mutex
	epoch         uint64
	cancel        context.CancelFunc
	debounceTimer Timer
	retryTimer    Timer

	lastKeystroke    time.Time
	lastRequestStart time.Time
	searchStarted    time.Time
	pendingQuery     string
	lastSubmitted    string
	retried          bool
	batches          int

	merged    map[string]domain.SearchResult
	order     map[string]int
	nextOrder int

	state State
}

// New creates an orchestrator. Stream, Fallback, Cache, Recent and
// Classify are required; the rest default sensibly.
func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		stream:      cfg.Stream,
		fallback:    cfg.Fallback,
		suggestions: cfg.Suggestions,
		cache:       cfg.Cache,
		recent:      cfg.Recent,
		classify:    cfg.Classify,
		clock:       clock,
		logger:      logger,
		onState:     cfg.OnState,
		merged:      make(map[string]domain.SearchResult),
		order:       make(map[string]int),
		state:       State{Phase: PhaseIdle, CachedHint: NoCachedHint},
	}
}

// OnQueryChange handles one keystroke: the displayed query updates
// immediately, instant local suggestions are computed synchronously, any
// in-flight work is cancelled, and a debounced search is scheduled for
// non-empty text.
func (o *Orchestrator) OnQueryChange(text string) {
	o.mu.Lock()

	o.invalidateLocked()
	o.state.Query = text
	o.state.Err = ""
	o.computeInstantLocked(text)

	if isEmpty(text) {
		o.resetResultsLocked()
		o.state.Phase = PhaseIdle
		o.pendingQuery = ""
		s := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(s)
		return
	}

	now := o.clock.Now()
	window := slowDebounce
	if !o.lastKeystroke.IsZero() && now.Sub(o.lastKeystroke) < fastTypingGap {
		window = fastDebounce
	}
	o.lastKeystroke = now

	// Floor: keep consecutive request starts >= minRequestSpacing apart.
	if !o.lastRequestStart.IsZero() {
		if earliest := o.lastRequestStart.Add(minRequestSpacing); now.Add(window).Before(earliest) {
			window = earliest.Sub(now)
		}
	}

	o.pendingQuery = text
	o.state.Phase = PhaseDebouncing
	epoch := o.epoch
	o.debounceTimer = o.clock.AfterFunc(window, func() {
		o.fire(epoch, text, false)
	})

	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)
}

// Submit bypasses the debounce window and executes immediately, as on an
// explicit Enter.
func (o *Orchestrator) Submit(text string) {
	if isEmpty(text) {
		o.Clear()
		return
	}

	o.mu.Lock()
	o.invalidateLocked()
	o.state.Query = text
	o.state.Err = ""
	o.computeInstantLocked(text)
	o.pendingQuery = text
	epoch := o.epoch
	o.mu.Unlock()

	o.fire(epoch, text, false)
}

// Clear cancels outstanding work and resets all state to empty.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.invalidateLocked()
	o.resetResultsLocked()
	o.state = State{Phase: PhaseIdle, CachedHint: NoCachedHint}
	o.pendingQuery = ""
	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)
}

// Refetch re-runs the last submitted query, bypassing the cache.
func (o *Orchestrator) Refetch() {
	o.mu.Lock()
	query := o.lastSubmitted
	if query == "" {
		o.mu.Unlock()
		return
	}
	o.invalidateLocked()
	o.state.Query = query
	o.state.Err = ""
	o.pendingQuery = query
	epoch := o.epoch
	o.mu.Unlock()

	o.fire(epoch, query, true)
}

// State returns a snapshot of the current observable state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// invalidateLocked is the single supersession point: it advances the
// epoch, cancels the in-flight context, and disarms both timers. Every
// path that accepts new input goes through here first. Caller holds o.mu.
func (o *Orchestrator) invalidateLocked() {
	o.epoch++
	o.retried = false
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.debounceTimer != nil {
		if o.debounceTimer.Stop() {
			metrics.DebouncedTotal.Inc()
		}
		o.debounceTimer = nil
	}
	if o.retryTimer != nil {
		o.retryTimer.Stop()
		o.retryTimer = nil
	}
}

// computeInstantLocked fills the instant local suggestions: recent-query
// prefix matches plus a cached-result-count hint. Caller holds o.mu.
func (o *Orchestrator) computeInstantLocked(text string) {
	o.state.RecentMatches = nil
	o.state.CachedHint = NoCachedHint
	if o.recent != nil {
		o.state.RecentMatches = o.recent.PrefixMatches(context.Background(), text)
	}
	if o.cache != nil && !isEmpty(text) {
		if n, ok := o.cache.PrefixHint(text); ok {
			o.state.CachedHint = n
		}
	}

	// Intent clearing is synchronous: once the query stops matching any
	// domain, stale suggestions must not linger.
	if o.classify != nil {
		if _, ok := o.classify(text); !ok {
			o.state.Suggestions = nil
		}
	}
}

func (o *Orchestrator) resetResultsLocked() {
	o.merged = make(map[string]domain.SearchResult)
	o.order = make(map[string]int)
	o.nextOrder = 0
	o.state.Results = nil
	o.state.Suggestions = nil
	o.batches = 0
}

func isEmpty(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}
