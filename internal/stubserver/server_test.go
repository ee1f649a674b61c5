package stubserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(nil)
	s.EventDelay = 0
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
				cur = sseEvent{}
			}
		}
	}
	return events
}

func TestStreamEmitsBatchesAndFinalized(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/stream?q=engine")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	events := readEvents(t, string(raw))

	total := 0
	sawFinalized := false
	for _, e := range events {
		switch e.name {
		case "result_batch":
			var batch []map[string]any
			if err := json.Unmarshal([]byte(e.data), &batch); err != nil {
				t.Fatalf("decode batch %q: %v", e.data, err)
			}
			if len(batch) == 0 || len(batch) > 2 {
				t.Errorf("batch size = %d, want 1 or 2", len(batch))
			}
			total += len(batch)
		case "finalized":
			sawFinalized = true
		}
	}

	// "engine" hits the overhaul work order, the chief engineer rotation
	// plan, and the port main engine equipment entry.
	if total != 3 {
		t.Errorf("streamed results = %d, want 3", total)
	}
	if !sawFinalized {
		t.Error("stream ended without a finalized event")
	}
}

func TestStreamExactMatchWinsFirst(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/stream?q=" + strings.ReplaceAll("Port main engine", " ", "+"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	events := readEvents(t, string(raw))
	if len(events) == 0 {
		t.Fatal("no events")
	}
	if events[0].name != "exact_match_win" {
		t.Fatalf("first event = %q, want exact_match_win", events[0].name)
	}

	var hit map[string]any
	if err := json.Unmarshal([]byte(events[0].data), &hit); err != nil {
		t.Fatalf("decode exact match: %v", err)
	}
	if hit["object_id"] != "eqp-88" {
		t.Errorf("exact match = %v, want eqp-88", hit["object_id"])
	}
}

func TestStreamFailInjection(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/stream?q=fail:engine")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestStreamDieInjectionTruncates(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/stream?q=die:engine")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)
	if strings.Contains(body, "finalized") {
		t.Errorf("severed stream still finalized: %q", body)
	}
}

func TestFallbackStripsDiePrefix(t *testing.T) {
	srv := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{
		"query":    "die:engine",
		"yacht_id": "yacht-1",
		"limit":    2,
	})
	resp, err := http.Post(srv.URL+"/search/fallback", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Results    []map[string]any `json:"results"`
		TotalCount int              `json:"total_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 2 {
		t.Errorf("results = %d, want limit of 2", len(body.Results))
	}
	if body.TotalCount != 3 {
		t.Errorf("total_count = %d, want 3", body.TotalCount)
	}
}

func TestFallbackFailInjection(t *testing.T) {
	srv := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{"query": "fail:engine"})
	resp, err := http.Post(srv.URL+"/search/fallback", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestActionsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/actions?q=create+work+order&domain=work_orders")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Suggestions []struct {
			Label  string `json:"label"`
			Action string `json:"action"`
		} `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v, want 2", body.Suggestions)
	}
	if body.Suggestions[0].Label != "Create work order" || body.Suggestions[0].Action != "work_orders.create" {
		t.Errorf("first suggestion = %+v", body.Suggestions[0])
	}
}

func TestActionsUnknownDomainEmpty(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search/actions?domain=unknown")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Suggestions []map[string]any `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Suggestions) != 0 {
		t.Errorf("suggestions = %+v, want none", body.Suggestions)
	}
}
