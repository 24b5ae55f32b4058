package recordstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/recorder"
	"pkt.systems/sourcecast/schema"
)

var _ recorder.Sink = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recordings.db")
	store, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	init := event.Init{EditorValue: "const x = 1;", Chapter: 2, Variant: schema.VariantDefault, ExternalLibrary: schema.ExternalRunes}
	started := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	if err := store.StartSession(ctx, "s1", init, started); err != nil {
		t.Fatalf("start session: %v", err)
	}
	events := []event.TimedEvent{
		{Time: 0, Payload: event.ChapterSelect{Chapter: 3}},
		{Time: 250, Payload: event.CodeDelta{
			Start:  event.Position{Row: 0, Column: 12},
			End:    event.Position{Row: 0, Column: 13},
			Action: event.DeltaInsert,
			Lines:  []string{"2"},
		}},
		{Time: 900, Payload: event.ForcePause{}},
	}
	for i, ev := range events {
		if err := store.Append(ctx, "s1", i+1, ev); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	rec, err := store.LoadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *rec.PlaybackData.Init != init {
		t.Fatalf("baseline mismatch: %+v", rec.PlaybackData.Init)
	}
	if !rec.StartedAt.Equal(started) {
		t.Fatalf("started at mismatch: %v", rec.StartedAt)
	}
	if len(rec.PlaybackData.Inputs) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(rec.PlaybackData.Inputs))
	}
	for i := range events {
		if !event.Equal(events[i], rec.PlaybackData.Inputs[i]) {
			t.Fatalf("event %d mismatch: %+v", i, rec.PlaybackData.Inputs[i])
		}
	}

	summaries, err := store.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Events != 3 || summaries[0].Duration != 900 || summaries[0].Chapter != 2 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestStoreRejectsDuplicateSequence(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.StartSession(ctx, "s1", event.Init{Chapter: 1}, time.Now()); err != nil {
		t.Fatalf("start session: %v", err)
	}
	ev := event.TimedEvent{Time: 5, Payload: event.CursorPosition{Row: 1}}
	if err := store.Append(ctx, "s1", 1, ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "s1", 1, ev); !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestStoreUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if _, err := store.LoadSession(ctx, "missing"); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeleteSession(ctx, "missing"); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	ev := event.TimedEvent{Time: 0, Payload: event.ForcePause{}}
	if err := store.Append(ctx, "missing", 1, ev); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected not found on append, got %v", err)
	}
}

func TestStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	_ = store.StartSession(ctx, "s1", event.Init{Chapter: 1}, time.Now())
	_ = store.Append(ctx, "s1", 1, event.TimedEvent{Time: 1, Payload: event.ForcePause{}})
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	summaries, err := store.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no sessions, got %+v", summaries)
	}
}

func TestStoreBacksRecorder(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	rec := recorder.New(store, nil)
	session := rec.StartSession(ctx, event.Init{EditorValue: "", Chapter: 1})
	session.RecordAt(ctx, 10, event.ChapterSelect{Chapter: 2})
	session.RecordAt(ctx, 20, event.ActiveTabChange{Tab: schema.TabSubstVisualizer})
	if session.Failures() != 0 {
		t.Fatalf("expected no sink failures, got %d", session.Failures())
	}
	loaded, err := store.LoadSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.PlaybackData.Inputs) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(loaded.PlaybackData.Inputs))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordings.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path, nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		_ = store.Close()
	}
}
