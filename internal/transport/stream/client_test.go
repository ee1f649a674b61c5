package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/token"
)

func sseHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprint(w, f)
		}
	}
}

func collect(t *testing.T, c *Client, query string) ([][]domain.SearchResult, error) {
	t.Helper()
	var batches [][]domain.SearchResult
	err := c.Search(context.Background(), query, func(b []domain.SearchResult) {
		batches = append(batches, b)
	})
	return batches, err
}

func TestSearchYieldsBatchesInOrder(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		"event: result_batch\ndata: [{\"object_id\":\"a\",\"fused_score\":0.5}]\n\n",
		"event: result_batch\ndata: [{\"object_id\":\"b\",\"fused_score\":0.9},{\"primary_id\":\"c\",\"rrf_score\":0.2}]\n\n",
		"event: finalized\ndata: {\"total\":3}\n\n",
	))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	batches, err := collect(t, c, "engine")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0][0].ID != "a" {
		t.Errorf("first batch id = %q", batches[0][0].ID)
	}
	if len(batches[1]) != 2 || batches[1][0].ID != "b" || batches[1][1].ID != "c" {
		t.Errorf("second batch = %+v", batches[1])
	}
	if batches[1][1].Score != 0.2 {
		t.Errorf("legacy score = %v, want 0.2", batches[1][1].Score)
	}
}

func TestSearchExactMatchWin(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		"event: exact_match_win\ndata: {\"object_id\":\"hit\",\"fused_score\":0.99}\n\n",
	))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	batches, err := collect(t, c, "engine")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0].ID != "hit" {
		t.Fatalf("batches = %+v, want single one-element batch", batches)
	}
}

// A server-reported error event is informational; the stream continues.
func TestSearchErrorEventDoesNotAbort(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		"event: error\ndata: {\"message\":\"shard timeout\"}\n\n",
		"event: result_batch\ndata: [{\"object_id\":\"a\"}]\n\n",
	))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	batches, err := collect(t, c, "engine")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
}

func TestSearchNon2xxIsStreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	_, err := collect(t, c, "engine")
	if !errors.Is(err, domain.ErrStreamFailed) {
		t.Errorf("err = %v, want ErrStreamFailed", err)
	}
	if !errors.Is(err, domain.ErrBadStatus) {
		t.Errorf("err = %v, want ErrBadStatus in chain", err)
	}
}

func TestSearchMalformedEventIsStreamFailure(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		"event: result_batch\ndata: {not json\n\n",
	))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	_, err := collect(t, c, "engine")
	if !errors.Is(err, domain.ErrStreamFailed) {
		t.Errorf("err = %v, want ErrStreamFailed", err)
	}
}

// A cancelled context short-circuits before any network I/O.
func TestSearchCancelledBeforeFlight(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(&Config{BaseURL: srv.URL})
	err := c.Search(ctx, "engine", func([]domain.SearchResult) {
		t.Error("yield called for a cancelled search")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, domain.ErrStreamFailed) {
		t.Error("cancellation must not look like a stream failure")
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestSearchSendsIdentityHeaders(t *testing.T) {
	var gotAuth, gotSig, gotSession, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSig = r.Header.Get("X-Yacht-Signature")
		gotSession = r.Header.Get("X-Search-Session")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	tokens := token.NewBounded(token.ProviderFunc(func(context.Context) (string, error) {
		return "tok-1", nil
	}), 0, nil)
	c := NewClient(&Config{
		BaseURL:   srv.URL,
		Tokens:    tokens,
		Signature: "sig-abc",
		SessionID: "sess-1",
	})
	if _, err := collect(t, c, "engine"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotSig != "sig-abc" || gotSession != "sess-1" {
		t.Errorf("headers = %q / %q", gotSig, gotSession)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

// Token failure means no Authorization header, never a failed search.
func TestSearchProceedsWithoutToken(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
	}))
	defer srv.Close()

	tokens := token.NewBounded(token.ProviderFunc(func(context.Context) (string, error) {
		return "", errors.New("idp down")
	}), 0, nil)
	c := NewClient(&Config{BaseURL: srv.URL, Tokens: tokens})

	if _, err := collect(t, c, "engine"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sawAuth {
		t.Error("unexpected Authorization header after token failure")
	}
}
