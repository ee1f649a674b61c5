// Package recent persists the last few user queries for suggestion
// purposes, write-through on every completed non-empty search.
package recent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/kv"
)

// storageKey is the single fixed key holding the JSON-encoded query list.
const storageKey = "spyglass:recent_queries"

// MaxEntries caps the persisted list.
const MaxEntries = 5

// Store keeps the recent-query list in a durable key/value store.
// Storage failures degrade silently: suggestions are a convenience, never
// worth failing a search over.
type Store struct {
	kv     kv.Store
	logger *zap.Logger
}

// New creates a recent-query store.
func New(store kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: store, logger: logger}
}

// Add records a completed query at the front of the list, deduplicated
// (the most recent instance wins position) and capped at MaxEntries.
func (s *Store) Add(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	queries := s.List(ctx)

	updated := make([]string, 0, MaxEntries)
	updated = append(updated, query)
	for _, q := range queries {
		if strings.EqualFold(q, query) {
			continue
		}
		updated = append(updated, q)
		if len(updated) == MaxEntries {
			break
		}
	}

	data, err := json.Marshal(updated)
	if err != nil {
		s.logger.Warn("Failed to encode recent queries", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, storageKey, data); err != nil {
		s.logger.Warn("Failed to persist recent queries", zap.Error(err))
	}
}

// List returns the persisted queries, most recent first.
func (s *Store) List(ctx context.Context) []string {
	data, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			s.logger.Warn("Failed to load recent queries", zap.Error(err))
		}
		return nil
	}

	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		s.logger.Warn("Corrupt recent-query list, discarding", zap.Error(err))
		return nil
	}
	if len(queries) > MaxEntries {
		queries = queries[:MaxEntries]
	}
	return queries
}

// PrefixMatches returns recent queries starting with the given prefix,
// case-insensitive, most recent first. An empty prefix matches everything.
func (s *Store) PrefixMatches(ctx context.Context, prefix string) []string {
	queries := s.List(ctx)
	if prefix == "" {
		return queries
	}

	p := strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, q := range queries {
		if strings.HasPrefix(strings.ToLower(q), p) {
			out = append(out, q)
		}
	}
	return out
}
