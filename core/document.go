package core

import (
	"errors"
	"fmt"
	"strings"

	"pkt.systems/sourcecast/internal/event"
)

// ErrDeltaOutOfRange reports a code delta that does not fit the document.
var ErrDeltaOutOfRange = errors.New("delta out of range")

// Document is the editor text as a list of lines. Columns count runes.
type Document struct {
	lines [][]rune
}

// NewDocument splits text into lines.
func NewDocument(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, part := range parts {
		lines[i] = []rune(part)
	}
	return &Document{lines: lines}
}

// Text joins the lines with newlines.
func (d *Document) Text() string {
	parts := make([]string, len(d.lines))
	for i, line := range d.lines {
		parts[i] = string(line)
	}
	return strings.Join(parts, "\n")
}

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Apply applies an insert or remove delta. A delta that does not fit leaves
// the document unchanged.
func (d *Document) Apply(delta event.CodeDelta) error {
	switch delta.Action {
	case event.DeltaInsert:
		return d.insert(delta.Start, delta.Lines)
	case event.DeltaRemove:
		return d.remove(delta.Start, delta.End)
	default:
		return fmt.Errorf("unknown delta action %q", delta.Action)
	}
}

func (d *Document) valid(pos event.Position) bool {
	if pos.Row < 0 || pos.Row >= len(d.lines) {
		return false
	}
	return pos.Column >= 0 && pos.Column <= len(d.lines[pos.Row])
}

func (d *Document) insert(at event.Position, lines []string) error {
	if !d.valid(at) {
		return fmt.Errorf("%w: insert at %d:%d", ErrDeltaOutOfRange, at.Row, at.Column)
	}
	if len(lines) == 0 {
		return nil
	}
	current := d.lines[at.Row]
	head := append([]rune(nil), current[:at.Column]...)
	tail := append([]rune(nil), current[at.Column:]...)

	if len(lines) == 1 {
		d.lines[at.Row] = append(append(head, []rune(lines[0])...), tail...)
		return nil
	}
	inserted := make([][]rune, 0, len(lines))
	inserted = append(inserted, append(head, []rune(lines[0])...))
	for _, line := range lines[1 : len(lines)-1] {
		inserted = append(inserted, []rune(line))
	}
	inserted = append(inserted, append([]rune(lines[len(lines)-1]), tail...))

	out := make([][]rune, 0, len(d.lines)+len(lines)-1)
	out = append(out, d.lines[:at.Row]...)
	out = append(out, inserted...)
	out = append(out, d.lines[at.Row+1:]...)
	d.lines = out
	return nil
}

func (d *Document) remove(start, end event.Position) error {
	if end.Less(start) {
		start, end = end, start
	}
	if !d.valid(start) || !d.valid(end) {
		return fmt.Errorf("%w: remove %d:%d-%d:%d", ErrDeltaOutOfRange, start.Row, start.Column, end.Row, end.Column)
	}
	joined := append(append([]rune(nil), d.lines[start.Row][:start.Column]...), d.lines[end.Row][end.Column:]...)
	out := make([][]rune, 0, len(d.lines)-(end.Row-start.Row))
	out = append(out, d.lines[:start.Row]...)
	out = append(out, joined)
	out = append(out, d.lines[end.Row+1:]...)
	d.lines = out
	return nil
}
