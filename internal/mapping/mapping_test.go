package mapping

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, raw string) RawResult {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestToResultCurrentShape(t *testing.T) {
	raw := decode(t, `{
		"object_id": "wo-1",
		"object_type": "work_order",
		"fused_score": 0.87,
		"payload": {
			"title": "Overhaul engine",
			"subtitle": "Engine room",
			"snippet": "4000h service",
			"actions": ["open", "complete"],
			"metadata": {"priority": "high"}
		}
	}`)

	got := ToResult(raw)
	if got.ID != "wo-1" || got.Type != "work_order" {
		t.Errorf("identity = (%q, %q), want (wo-1, work_order)", got.ID, got.Type)
	}
	if got.Title != "Overhaul engine" || got.Subtitle != "Engine room" || got.Snippet != "4000h service" {
		t.Errorf("payload fields not mapped: %+v", got)
	}
	if got.Score != 0.87 {
		t.Errorf("Score = %v, want 0.87", got.Score)
	}
	if !reflect.DeepEqual(got.Actions, []string{"open", "complete"}) {
		t.Errorf("Actions = %v", got.Actions)
	}
	if got.Metadata["priority"] != "high" {
		t.Errorf("Metadata = %v", got.Metadata)
	}
}

func TestToResultLegacyShape(t *testing.T) {
	raw := decode(t, `{
		"primary_id": "flt-9",
		"source_table": "fault",
		"title": "Bilge alarm",
		"rrf_score": 0.42
	}`)

	got := ToResult(raw)
	if got.ID != "flt-9" || got.Type != "fault" {
		t.Errorf("identity = (%q, %q), want (flt-9, fault)", got.ID, got.Type)
	}
	if got.Title != "Bilge alarm" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Score != 0.42 {
		t.Errorf("Score = %v, want 0.42", got.Score)
	}
}

// When both shapes are present the current-shape field wins.
func TestToResultPrecedence(t *testing.T) {
	raw := decode(t, `{
		"object_id": "new-id",
		"primary_id": "old-id",
		"object_type": "part",
		"source_table": "legacy_part",
		"fused_score": 0.9,
		"rrf_score": 0.1
	}`)

	got := ToResult(raw)
	if got.ID != "new-id" {
		t.Errorf("ID = %q, want new-id", got.ID)
	}
	if got.Type != "part" {
		t.Errorf("Type = %q, want part", got.Type)
	}
	if got.Score != 0.9 {
		t.Errorf("Score = %v, want 0.9", got.Score)
	}
}

func TestToResultDefaults(t *testing.T) {
	got := ToResult(decode(t, `{"object_id": "x"}`))
	if got.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", got.Title, DefaultTitle)
	}
	if got.Score != 0 {
		t.Errorf("Score = %v, want 0", got.Score)
	}
	if got.Actions == nil || len(got.Actions) != 0 {
		t.Errorf("Actions = %#v, want empty non-nil slice", got.Actions)
	}
}

func TestToResultScoreAsString(t *testing.T) {
	got := ToResult(decode(t, `{"object_id": "x", "fused_score": "0.55"}`))
	if got.Score != 0.55 {
		t.Errorf("Score = %v, want 0.55", got.Score)
	}
}

func TestToResultsDropsMissingID(t *testing.T) {
	raws := []RawResult{
		decode(t, `{"object_id": "a", "fused_score": 1}`),
		decode(t, `{"title": "orphan"}`),
		decode(t, `{"primary_id": "b"}`),
	}
	got := ToResults(raws)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("ids = %q, %q", got[0].ID, got[1].ID)
	}
}
