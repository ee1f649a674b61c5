package orchestrator

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/metrics"
)

// fire begins the actual search once the debounce window elapses (or
// immediately for Submit/Refetch/retry). A stale epoch means the user
// typed again while the timer was pending; the whole search is skipped.
func (o *Orchestrator) fire(epoch uint64, query string, bypassCache bool) {
	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return
	}
	o.debounceTimer = nil
	o.resetResultsLocked()
	o.lastSubmitted = query

	if !bypassCache && o.cache != nil {
		if cached, ok := o.cache.Get(query); ok {
			o.state.Results = cached
			o.state.Phase = PhaseIdle
			o.state.Err = ""
			metrics.SearchesTotal.WithLabelValues("cache").Inc()
			if o.recent != nil {
				o.recent.Add(context.Background(), query)
			}
			o.logger.Debug("Search served from cache",
				zap.String("query", query),
				zap.Int("results", len(cached)),
			)
			s := o.snapshotLocked()
			o.mu.Unlock()
			o.emit(s)
			o.dispatchSuggestions(epoch, query)
			return
		}
	}

	// A retry re-enters here under the same epoch; release the failed
	// search's context before replacing it.
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.state.Phase = PhaseInFlight
	o.lastRequestStart = o.clock.Now()
	o.searchStarted = o.lastRequestStart

	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)

	o.dispatchSuggestions(epoch, query)
	go o.runSearch(ctx, epoch, query)
}

// runSearch drives the primary stream and, on non-cancellation failure,
// degrades to the fallback path.
func (o *Orchestrator) runSearch(ctx context.Context, epoch uint64, query string) {
	err := o.stream.Search(ctx, query, func(batch []domain.SearchResult) {
		o.applyBatch(epoch, batch)
	})
	if err == nil {
		o.finish(epoch, query, "stream")
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Superseded by newer input. Silent by contract: no error state,
		// no fallback for an abandoned query.
		return
	}

	o.logger.Warn("Stream search failed, degrading to fallback",
		zap.String("query", query),
		zap.Error(err),
	)
	metrics.FallbacksTotal.Inc()

	results, ferr := o.fallback.Search(query)
	if ferr != nil {
		o.logger.Warn("Fallback search failed",
			zap.String("query", query),
			zap.Error(ferr),
		)
		o.fail(epoch, query)
		return
	}
	o.applyBatch(epoch, results)
	o.finish(epoch, query, "fallback")
}

// applyBatch merges one batch into the per-query identity map. A later
// arrival for an id already seen overwrites it (mid-stream score
// refinement) without changing its insertion rank.
func (o *Orchestrator) applyBatch(epoch uint64, batch []domain.SearchResult) {
	if len(batch) == 0 {
		return
	}
	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return
	}
	o.batches++
	for _, r := range batch {
		if _, seen := o.order[r.ID]; !seen {
			o.order[r.ID] = o.nextOrder
			o.nextOrder++
		}
		o.merged[r.ID] = r
	}
	o.state.Results = o.sortedLocked()
	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)
}

// sortedLocked rebuilds the visible result set: map values in insertion
// order, then a stable sort descending by score so equal scores keep
// arrival order. Caller holds o.mu.
func (o *Orchestrator) sortedLocked() []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(o.merged))
	for _, r := range o.merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return o.order[out[i].ID] < o.order[out[j].ID]
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// finish completes a search: cache and recent-query write-through (both
// skipped for empty sets), metrics, and the canonical per-search log line.
func (o *Orchestrator) finish(epoch uint64, query, source string) {
	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state.Phase = PhaseIdle
	o.state.Err = ""

	results := o.state.Results
	latency := o.clock.Now().Sub(o.searchStarted)
	metrics.SearchesTotal.WithLabelValues(source).Inc()
	metrics.SearchDuration.WithLabelValues(source).Observe(latency.Seconds())

	if len(results) > 0 {
		if o.cache != nil {
			o.cache.Put(query, results)
		}
		if o.recent != nil {
			o.recent.Add(context.Background(), query)
		}
	}

	o.logger.Info("search_completed",
		zap.String("query", query),
		zap.String("source", source),
		zap.Int("results", len(results)),
		zap.Int("batches", o.batches),
		zap.Duration("latency", latency),
	)

	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)
}

// fail is terminal for the query on this attempt: empty result set, a
// transient error message, and exactly one scheduled retry while the
// failed query is still the pending one.
func (o *Orchestrator) fail(epoch uint64, query string) {
	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state.Phase = PhaseIdle
	o.merged = make(map[string]domain.SearchResult)
	o.order = make(map[string]int)
	o.nextOrder = 0
	o.state.Results = nil

	if !o.retried && o.pendingQuery == query {
		o.retried = true
		o.state.Err = retryingMessage
		o.retryTimer = o.clock.AfterFunc(retryDelay, func() {
			o.retry(epoch, query)
		})
	} else {
		o.state.Err = "Search is currently unavailable"
	}

	s := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(s)
}

// retry re-executes a failed query if, two seconds later, it is still
// what the user wants.
func (o *Orchestrator) retry(epoch uint64, query string) {
	o.mu.Lock()
	if epoch != o.epoch || o.pendingQuery != query {
		o.mu.Unlock()
		return
	}
	o.retryTimer = nil
	o.mu.Unlock()

	metrics.RetriesTotal.Inc()
	o.fire(epoch, query, true)
}

// dispatchSuggestions runs the action-intent flow in parallel with the
// main search. Classification already happened synchronously for the
// clearing side; here a matched domain triggers the secondary fetch,
// whose failure never touches search state.
func (o *Orchestrator) dispatchSuggestions(epoch uint64, query string) {
	if o.classify == nil || o.suggestions == nil {
		return
	}
	d, ok := o.classify(query)
	if !ok {
		return
	}

	go func() {
		sugg, err := o.suggestions.Fetch(context.Background(), query, d)
		if err != nil {
			o.logger.Debug("Suggestions fetch failed",
				zap.String("query", query),
				zap.String("domain", string(d)),
				zap.Error(err),
			)
			return
		}

		o.mu.Lock()
		if epoch != o.epoch {
			o.mu.Unlock()
			return
		}
		o.state.Suggestions = sugg
		s := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(s)
	}()
}
