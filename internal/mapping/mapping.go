// Package mapping converts raw wire-format result objects into canonical
// SearchResults. The search service has shipped two field shapes over its
// lifetime (object_id/object_type/payload.*/fused_score and the legacy
// primary_id/source_table/rrf_score); each canonical field is resolved by an
// ordered rule list, first match wins, so the precedence stays auditable.
package mapping

import (
	"strconv"

	"github.com/pelorus-marine/spyglass/internal/domain"
)

// RawResult is an untyped result object as decoded from the wire.
type RawResult = map[string]any

// DefaultTitle is used when no title rule matches.
const DefaultTitle = "Untitled"

// path addresses a value inside nested JSON objects.
type path []string

// Rule tables. Current shape first, legacy second, generic last.
var (
	idRules       = []path{{"object_id"}, {"primary_id"}, {"id"}}
	typeRules     = []path{{"object_type"}, {"source_table"}, {"type"}}
	titleRules    = []path{{"payload", "title"}, {"title"}, {"name"}}
	subtitleRules = []path{{"payload", "subtitle"}, {"subtitle"}}
	snippetRules  = []path{{"payload", "snippet"}, {"snippet"}, {"excerpt"}}
	scoreRules    = []path{{"fused_score"}, {"rrf_score"}, {"score"}}
	actionsRules  = []path{{"payload", "actions"}, {"actions"}}
	metadataRules = []path{{"payload", "metadata"}, {"metadata"}}
)

// ToResult maps one raw object to a canonical SearchResult, applying
// defaults for anything no rule resolves.
func ToResult(raw RawResult) domain.SearchResult {
	res := domain.SearchResult{
		ID:       firstString(raw, idRules),
		Type:     firstString(raw, typeRules),
		Title:    firstString(raw, titleRules),
		Subtitle: firstString(raw, subtitleRules),
		Snippet:  firstString(raw, snippetRules),
		Score:    firstFloat(raw, scoreRules),
		Actions:  firstStringSlice(raw, actionsRules),
		Metadata: firstObject(raw, metadataRules),
	}
	if res.Title == "" {
		res.Title = DefaultTitle
	}
	if res.Actions == nil {
		res.Actions = []string{}
	}
	return res
}

// ToResults maps a raw batch, dropping entries without a usable id.
func ToResults(raws []RawResult) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(raws))
	for _, raw := range raws {
		r := ToResult(raw)
		if r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func lookup(raw RawResult, p path) (any, bool) {
	var cur any = map[string]any(raw)
	for _, seg := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func firstString(raw RawResult, rules []path) string {
	for _, p := range rules {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstFloat tolerates numbers arriving as JSON numbers or numeric strings.
func firstFloat(raw RawResult, rules []path) float64 {
	for _, p := range rules {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func firstStringSlice(raw RawResult, rules []path) []string {
	for _, p := range rules {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func firstObject(raw RawResult, rules []path) map[string]any {
	for _, p := range rules {
		if v, ok := lookup(raw, p); ok {
			if m, ok := v.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}
