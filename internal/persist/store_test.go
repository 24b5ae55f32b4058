package persist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %d entries", len(entries))
	}
}

func TestStorePublishLookup(t *testing.T) {
	store := newTestStore(t)
	data := event.PlaybackData{
		Init: &event.Init{EditorValue: "1 + 1;", Chapter: 1, ExternalLibrary: schema.ExternalNone},
		Inputs: []event.TimedEvent{
			{Time: 0, Payload: event.ChapterSelect{Chapter: 2}},
			{Time: 500, Payload: event.CodeDelta{Action: event.DeltaInsert, Lines: []string{"x"}}},
		},
	}
	entry, err := NewEntry("", "Recursion", "Chapter 1 walkthrough", "https://example.org/a.mp3", data)
	if err != nil {
		t.Fatalf("new entry: %v", err)
	}
	published, err := store.Publish(entry)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.UID == "" {
		t.Fatalf("expected uid to be assigned")
	}

	got, err := store.Lookup(published.UID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	cast, err := got.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cast.AudioURL != "https://example.org/a.mp3" || cast.Title != "Recursion" {
		t.Fatalf("unexpected sourcecast: %+v", cast)
	}
	if !reflect.DeepEqual(*cast.PlaybackData.Init, *data.Init) {
		t.Fatalf("baseline mismatch: %+v", cast.PlaybackData.Init)
	}
	if len(cast.PlaybackData.Inputs) != 2 || !event.Equal(cast.PlaybackData.Inputs[1], data.Inputs[1]) {
		t.Fatalf("inputs mismatch: %+v", cast.PlaybackData.Inputs)
	}

	published.Title = "Recursion, revised"
	if _, err := store.Publish(published); err != nil {
		t.Fatalf("republish: %v", err)
	}
	entries, _ := store.Load()
	if len(entries) != 1 || entries[0].Title != "Recursion, revised" {
		t.Fatalf("expected replacement, got %+v", entries)
	}
}

func TestStoreLookupMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Lookup("nope"); !errors.Is(err, schema.ErrSourcecastNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Delete("nope"); !errors.Is(err, schema.ErrSourcecastNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestStorePublishRequiresTitle(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Publish(Entry{}); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestEntryWithoutBaselineIsUnavailable(t *testing.T) {
	entry := Entry{UID: "x", PlaybackData: `{"inputs":[]}`}
	if _, err := entry.Decode(); !errors.Is(err, schema.ErrRecordingUnavailable) {
		t.Fatalf("expected recording unavailable, got %v", err)
	}
	entry.PlaybackData = "{not-json"
	if _, err := entry.Decode(); !errors.Is(err, schema.ErrRecordingUnavailable) {
		t.Fatalf("expected recording unavailable for bad json, got %v", err)
	}
}

func TestStoreSearch(t *testing.T) {
	store := newTestStore(t)
	for _, e := range []Entry{
		{UID: "a", Title: "Higher order functions", Description: "map and filter"},
		{UID: "b", Title: "Streams", Description: "lazy lists"},
		{UID: "c", Title: "Rune patterns", Description: "drawing with runes"},
	} {
		if _, err := store.Publish(e); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	all, err := store.Search("")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all entries, got %d (%v)", len(all), err)
	}
	got, err := store.Search("runes")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) == 0 || got[0].UID != "c" {
		t.Fatalf("expected rune entry first, got %+v", got)
	}
}

func TestStoreLoadInvalidJSON(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("write bad json: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
