package core

import (
	"errors"
	"testing"

	"pkt.systems/sourcecast/internal/event"
)

func TestDocumentInsertSingleLine(t *testing.T) {
	doc := NewDocument("ac")
	if err := doc.Apply(event.CodeDelta{Action: event.DeltaInsert, Start: event.Position{Row: 0, Column: 1}, Lines: []string{"b"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := doc.Text(); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestDocumentInsertAndRemoveAcrossLines(t *testing.T) {
	doc := NewDocument("xy")
	if err := doc.Apply(event.CodeDelta{Action: event.DeltaInsert, Start: event.Position{Row: 0, Column: 1}, Lines: []string{"a", "b"}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := doc.Text(); got != "xa\nby" {
		t.Fatalf("expected split text, got %q", got)
	}
	if doc.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", doc.LineCount())
	}
	if err := doc.Apply(event.CodeDelta{Action: event.DeltaRemove, Start: event.Position{Row: 0, Column: 1}, End: event.Position{Row: 1, Column: 1}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := doc.Text(); got != "xy" {
		t.Fatalf("expected xy, got %q", got)
	}
}

func TestDocumentColumnsCountRunes(t *testing.T) {
	doc := NewDocument("héllo")
	if err := doc.Apply(event.CodeDelta{Action: event.DeltaRemove, Start: event.Position{Row: 0, Column: 1}, End: event.Position{Row: 0, Column: 2}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := doc.Text(); got != "hllo" {
		t.Fatalf("expected hllo, got %q", got)
	}
}

func TestDocumentOutOfRangeLeavesTextUnchanged(t *testing.T) {
	doc := NewDocument("one\ntwo")
	err := doc.Apply(event.CodeDelta{Action: event.DeltaInsert, Start: event.Position{Row: 5, Column: 0}, Lines: []string{"x"}})
	if !errors.Is(err, ErrDeltaOutOfRange) {
		t.Fatalf("expected ErrDeltaOutOfRange, got %v", err)
	}
	err = doc.Apply(event.CodeDelta{Action: event.DeltaRemove, Start: event.Position{Row: 0, Column: 0}, End: event.Position{Row: 1, Column: 9}})
	if !errors.Is(err, ErrDeltaOutOfRange) {
		t.Fatalf("expected ErrDeltaOutOfRange, got %v", err)
	}
	if got := doc.Text(); got != "one\ntwo" {
		t.Fatalf("document changed: %q", got)
	}
}

func TestDocumentNormalizesCRLF(t *testing.T) {
	doc := NewDocument("a\r\nb")
	if doc.LineCount() != 2 || doc.Text() != "a\nb" {
		t.Fatalf("unexpected document %q", doc.Text())
	}
}
