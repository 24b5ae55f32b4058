package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/schema"
)

type fakeSink struct {
	failStart  bool
	failAppend map[int]bool
	started    []schema.SessionID
	appended   []event.TimedEvent
	seqs       []int
}

func (f *fakeSink) StartSession(ctx context.Context, id schema.SessionID, init event.Init, startedAt time.Time) error {
	f.started = append(f.started, id)
	if f.failStart {
		return errors.New("sink offline")
	}
	return nil
}

func (f *fakeSink) Append(ctx context.Context, id schema.SessionID, seq int, ev event.TimedEvent) error {
	if f.failAppend[seq] {
		return errors.New("transmission failed")
	}
	f.appended = append(f.appended, ev)
	f.seqs = append(f.seqs, seq)
	return nil
}

type panicSink struct{}

func (panicSink) StartSession(ctx context.Context, id schema.SessionID, init event.Init, startedAt time.Time) error {
	panic("transport exploded")
}

func (panicSink) Append(ctx context.Context, id schema.SessionID, seq int, ev event.TimedEvent) error {
	panic("transport exploded")
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	return c.now
}

func (c *stepClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestStartSessionAssignsDistinctIDs(t *testing.T) {
	sink := &fakeSink{}
	rec := New(sink, nil)
	a := rec.StartSession(context.Background(), event.Init{Chapter: 1})
	b := rec.StartSession(context.Background(), event.Init{Chapter: 1})
	if a.ID() == "" || b.ID() == "" {
		t.Fatalf("expected session ids")
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct session ids, got %q twice", a.ID())
	}
	if len(sink.started) != 2 {
		t.Fatalf("expected sink to see 2 sessions, got %d", len(sink.started))
	}
}

func TestRecordStampsRelativeTime(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	sink := &fakeSink{}
	rec := New(sink, nil, WithClock(clock.Now))
	session := rec.StartSession(context.Background(), event.Init{EditorValue: "", Chapter: 2})

	session.Record(context.Background(), event.ChapterSelect{Chapter: 2})
	clock.advance(500 * time.Millisecond)
	session.Record(context.Background(), event.CodeDelta{Action: event.DeltaInsert, Lines: []string{"1;"}})

	events := session.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Time != 0 || events[1].Time != 500 {
		t.Fatalf("unexpected times: %d, %d", events[0].Time, events[1].Time)
	}
	if len(sink.appended) != 2 || sink.seqs[1] != 2 {
		t.Fatalf("expected sink to receive both events in order, got %+v", sink.seqs)
	}
}

func TestRecordSurvivesSinkFailures(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	sink := &fakeSink{failStart: true, failAppend: map[int]bool{1: true, 2: true}}
	rec := New(sink, nil, WithClock(clock.Now))
	session := rec.StartSession(context.Background(), event.Init{Chapter: 1})

	for i := 0; i < 3; i++ {
		clock.advance(10 * time.Millisecond)
		session.Record(context.Background(), event.CursorPosition{Row: i})
	}

	if got := len(session.Events()); got != 3 {
		t.Fatalf("expected all 3 events kept locally, got %d", got)
	}
	if session.Failures() != 3 {
		t.Fatalf("expected 3 failures (start + 2 appends), got %d", session.Failures())
	}
	if len(sink.appended) != 1 || sink.seqs[0] != 3 {
		t.Fatalf("expected only the third append to reach the sink, got %+v", sink.seqs)
	}
}

func TestRecordSurvivesPanickingSink(t *testing.T) {
	rec := New(panicSink{}, nil)
	session := rec.StartSession(context.Background(), event.Init{Chapter: 1})
	session.Record(context.Background(), event.ForcePause{})
	session.Record(context.Background(), event.ChapterSelect{Chapter: 2})

	if got := len(session.Events()); got != 2 {
		t.Fatalf("expected 2 events kept locally, got %d", got)
	}
	if session.Failures() != 3 {
		t.Fatalf("expected 3 failures (start + 2 appends), got %d", session.Failures())
	}
}

func TestRecordAtClampsBackwardTimes(t *testing.T) {
	rec := New(nil, nil)
	session := rec.StartSession(context.Background(), event.Init{Chapter: 1})
	session.RecordAt(context.Background(), 300, event.ForcePause{})
	session.RecordAt(context.Background(), 100, event.ForcePause{})

	events := session.Events()
	if events[1].Time != 300 {
		t.Fatalf("expected clamped time 300, got %d", events[1].Time)
	}
}

func TestPlaybackDataCarriesBaseline(t *testing.T) {
	rec := New(nil, nil)
	seed := event.Init{EditorValue: "display(1);", Chapter: 3, ExternalLibrary: schema.ExternalRunes}
	session := rec.StartSession(context.Background(), seed)
	session.RecordAt(context.Background(), 10, event.ChapterSelect{Chapter: 4})

	data := session.PlaybackData()
	if data.Init == nil || *data.Init != seed {
		t.Fatalf("expected baseline %+v, got %+v", seed, data.Init)
	}
	if len(data.Inputs) != 1 {
		t.Fatalf("expected 1 input, got %d", len(data.Inputs))
	}
}
