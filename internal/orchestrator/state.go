package orchestrator

import (
	"time"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

// Phase names the orchestrator's position in its debounce/flight machine.
type Phase string

// State machine phases: Idle -> Debouncing -> InFlight -> Idle.
const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseInFlight   Phase = "in_flight"
)

// NoCachedHint marks the absence of a cached-result-count hint.
const NoCachedHint = -1

// State is an immutable snapshot of the observable search state. A copy is
// handed to the OnState callback after every change; slices are never
// shared with internal storage.
type State struct {
	// Query is the text as typed, echoed without debounce.
	Query string
	// Phase is the current state-machine phase.
	Phase Phase
	// Results is the merged, de-duplicated, score-sorted result set for
	// the current query.
	Results []domain.SearchResult
	// RecentMatches holds recent queries that prefix-match the current
	// text, most recent first.
	RecentMatches []string
	// CachedHint is the result count of the longest cached prefix of the
	// current query, or NoCachedHint. A hint, never authoritative.
	CachedHint int
	// Suggestions holds the action suggestions for the classified domain.
	Suggestions []domain.ActionSuggestion
	// Err is the transient user-visible error text, empty when healthy.
	Err string
	// UpdatedAt is when this snapshot was taken.
	UpdatedAt time.Time
}

// snapshotLocked copies the mutable state. Caller holds o.mu.
func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	s.Results = append([]domain.SearchResult(nil), o.state.Results...)
	s.RecentMatches = append([]string(nil), o.state.RecentMatches...)
	s.Suggestions = append([]domain.ActionSuggestion(nil), o.state.Suggestions...)
	s.UpdatedAt = o.clock.Now()
	return s
}

func (o *Orchestrator) emit(s State) {
	if o.onState != nil {
		o.onState(s)
	}
}
