package event

import (
	"encoding/json"
	"errors"
	"testing"

	"pkt.systems/sourcecast/schema"
)

func TestDecodeRecordedInputs(t *testing.T) {
	raw := []byte(`[
		{"time":0,"type":"chapterSelect","data":2},
		{"time":500,"type":"codeDelta","data":{"start":{"row":0,"column":0},"end":{"row":0,"column":5},"action":"insert","lines":["hello"]}},
		{"time":650,"type":"cursorPositionChange","data":{"row":0,"column":5}},
		{"time":700,"type":"selectionRangeData","data":{"range":{"start":{"row":0,"column":0},"end":{"row":0,"column":5}},"isBackwards":true}},
		{"time":800,"type":"externalLibrarySelect","data":"RUNES"},
		{"time":900,"type":"activeTabChange","data":"inspector"},
		{"time":1000,"type":"forcePause"}
	]`)
	events, skipped, err := DecodeAll(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped entries: %v", skipped)
	}
	wantKinds := []Kind{
		KindChapterSelect,
		KindCodeDelta,
		KindCursorPositionChange,
		KindSelectionRangeData,
		KindExternalLibrarySelect,
		KindActiveTabChange,
		KindForcePause,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("expected %d events, got %d", len(wantKinds), len(events))
	}
	for i, kind := range wantKinds {
		if events[i].Kind() != kind {
			t.Fatalf("event %d: expected %s, got %s", i, kind, events[i].Kind())
		}
	}
	if got := events[0].Payload.(ChapterSelect).Chapter; got != 2 {
		t.Fatalf("expected chapter 2, got %d", got)
	}
	delta := events[1].Payload.(CodeDelta)
	if delta.Action != DeltaInsert || len(delta.Lines) != 1 || delta.Lines[0] != "hello" {
		t.Fatalf("unexpected delta: %+v", delta)
	}
	if sel := events[3].Payload.(SelectionRange); !sel.IsBackwards || sel.Range.End.Column != 5 {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	if lib := events[4].Payload.(ExternalLibrarySelect).Library; lib != schema.ExternalRunes {
		t.Fatalf("expected RUNES, got %q", lib)
	}
	if tab := events[5].Payload.(ActiveTabChange).Tab; tab != schema.TabInspector {
		t.Fatalf("expected inspector tab, got %q", tab)
	}
}

func TestDecodeUnknownTypeIsPreserved(t *testing.T) {
	var ev TimedEvent
	if err := json.Unmarshal([]byte(`{"time":10,"type":"keyboardCommand","data":{"k":"run"}}`), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind() != KindUnknown {
		t.Fatalf("expected unknown kind, got %s", ev.Kind())
	}
	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var back TimedEvent
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if !Equal(ev, back) {
		t.Fatalf("unknown event changed across encode: %+v vs %+v", ev, back)
	}
	if back.Payload.(Unknown).Type != "keyboardCommand" {
		t.Fatalf("expected type to be kept, got %+v", back.Payload)
	}
}

func TestDecodeAllSkipsMalformed(t *testing.T) {
	raw := []byte(`[
		{"time":0,"type":"chapterSelect","data":"two"},
		{"time":5,"type":"codeDelta","data":{"action":"replace","lines":[]}},
		{"time":10,"type":"chapterSelect","data":3}
	]`)
	events, skipped, err := DecodeAll(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Time != 10 {
		t.Fatalf("expected only the valid event, got %+v", events)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped entries, got %d", len(skipped))
	}
	for _, err := range skipped {
		if !errors.Is(err, ErrMalformedEvent) {
			t.Fatalf("expected ErrMalformedEvent, got %v", err)
		}
	}
}

func TestEqualIsStructural(t *testing.T) {
	a := TimedEvent{Time: 5, Payload: CodeDelta{Action: DeltaInsert, Lines: []string{"x"}}}
	b := TimedEvent{Time: 5, Payload: CodeDelta{Action: DeltaInsert, Lines: []string{"x"}}}
	if !Equal(a, b) {
		t.Fatalf("expected equal events")
	}
	b.Payload = CodeDelta{Action: DeltaInsert, Lines: []string{"y"}}
	if Equal(a, b) {
		t.Fatalf("expected different payloads to differ")
	}
}

func TestLogAppendClampsTime(t *testing.T) {
	log := &Log{}
	log.Append(TimedEvent{Time: 100, Payload: ForcePause{}})
	stored := log.Append(TimedEvent{Time: 40, Payload: ForcePause{}})
	if stored.Time != 100 {
		t.Fatalf("expected clamped time 100, got %d", stored.Time)
	}
	if log.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", log.Len())
	}
}

func TestSortedIsStable(t *testing.T) {
	events := []TimedEvent{
		{Time: 20, Payload: ChapterSelect{Chapter: 1}},
		{Time: 10, Payload: ChapterSelect{Chapter: 2}},
		{Time: 20, Payload: ChapterSelect{Chapter: 3}},
		{Time: 10, Payload: ChapterSelect{Chapter: 4}},
	}
	sorted := Sorted(events)
	want := []schema.Chapter{2, 4, 1, 3}
	for i, ch := range want {
		if got := sorted[i].Payload.(ChapterSelect).Chapter; got != ch {
			t.Fatalf("position %d: expected chapter %d, got %d", i, ch, got)
		}
	}
	if events[0].Time != 20 {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestCountAtOrBefore(t *testing.T) {
	sorted := []TimedEvent{{Time: 0}, {Time: 500}, {Time: 500}, {Time: 1200}}
	cases := map[int64]int{-1: 0, 0: 1, 499: 1, 500: 3, 1199: 3, 1200: 4, 5000: 4}
	for at, want := range cases {
		if got := CountAtOrBefore(sorted, at); got != want {
			t.Fatalf("CountAtOrBefore(%d) = %d, want %d", at, got, want)
		}
	}
}
