package recent

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pelorus-marine/spyglass/internal/kv"
	"github.com/pelorus-marine/spyglass/internal/kv/memory"
)

func TestAddDedupeAndCap(t *testing.T) {
	s := New(memory.New(), nil)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three", "four", "five", "six"} {
		s.Add(ctx, q)
	}

	got := s.List(ctx)
	want := []string{"six", "five", "four", "three", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}

	// Re-adding an existing query moves it to the front, no duplicate.
	s.Add(ctx, "three")
	got = s.List(ctx)
	want = []string{"three", "six", "five", "four", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List after re-add = %v, want %v", got, want)
	}
}

func TestAddSameQueryTwice(t *testing.T) {
	s := New(memory.New(), nil)
	ctx := context.Background()

	s.Add(ctx, "abc")
	s.Add(ctx, "abc")

	got := s.List(ctx)
	if !reflect.DeepEqual(got, []string{"abc"}) {
		t.Errorf("List = %v, want [abc]", got)
	}
}

func TestAddIgnoresEmpty(t *testing.T) {
	s := New(memory.New(), nil)
	ctx := context.Background()

	s.Add(ctx, "")
	s.Add(ctx, "   ")
	if got := s.List(ctx); got != nil {
		t.Errorf("List = %v, want nil", got)
	}
}

func TestDedupeIsCaseInsensitive(t *testing.T) {
	s := New(memory.New(), nil)
	ctx := context.Background()

	s.Add(ctx, "Engine")
	s.Add(ctx, "engine")

	got := s.List(ctx)
	if !reflect.DeepEqual(got, []string{"engine"}) {
		t.Errorf("List = %v, want [engine]", got)
	}
}

func TestPrefixMatches(t *testing.T) {
	s := New(memory.New(), nil)
	ctx := context.Background()

	s.Add(ctx, "pump impeller")
	s.Add(ctx, "engine oil")
	s.Add(ctx, "Engine room fan")

	got := s.PrefixMatches(ctx, "eng")
	want := []string{"Engine room fan", "engine oil"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrefixMatches = %v, want %v", got, want)
	}

	if got := s.PrefixMatches(ctx, "zzz"); got != nil {
		t.Errorf("PrefixMatches(zzz) = %v, want nil", got)
	}
}

func TestCorruptPayloadDegrades(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Set(ctx, "spyglass:recent_queries", []byte("not json")); err != nil {
		t.Fatal(err)
	}

	s := New(store, nil)
	if got := s.List(ctx); got != nil {
		t.Errorf("List = %v, want nil for corrupt payload", got)
	}

	// A subsequent Add recovers by overwriting the corrupt value.
	s.Add(ctx, "engine")
	if got := s.List(ctx); !reflect.DeepEqual(got, []string{"engine"}) {
		t.Errorf("List after recovery = %v", got)
	}
}

// failingStore errors on everything, to prove storage failures stay silent.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, &kv.Error{Op: kv.OpGet, Err: errors.New("down")}
}
func (failingStore) Set(context.Context, string, []byte) error {
	return &kv.Error{Op: kv.OpSet, Err: errors.New("down")}
}
func (failingStore) Delete(context.Context, string) error {
	return &kv.Error{Op: kv.OpDel, Err: errors.New("down")}
}

func TestStorageFailureDegrades(t *testing.T) {
	s := New(failingStore{}, nil)
	ctx := context.Background()

	s.Add(ctx, "engine") // must not panic or error
	if got := s.List(ctx); got != nil {
		t.Errorf("List = %v, want nil when the store is down", got)
	}
}
