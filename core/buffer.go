package core

// defaultReplMaxLines bounds REPL output kept per workspace.
const defaultReplMaxLines = 2000

// replBuffer stores REPL output lines, dropping the oldest past maxLines.
type replBuffer struct {
	lines    []string
	maxLines int
}

func newReplBuffer(maxLines int) *replBuffer {
	if maxLines <= 0 {
		maxLines = defaultReplMaxLines
	}
	return &replBuffer{maxLines: maxLines}
}

// Append adds lines and trims the oldest ones past the limit.
func (b *replBuffer) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	b.lines = append(b.lines, lines...)
	if len(b.lines) > b.maxLines {
		trim := len(b.lines) - b.maxLines
		b.lines = append([]string(nil), b.lines[trim:]...)
	}
}

// Clear drops all output.
func (b *replBuffer) Clear() {
	b.lines = nil
}

// Len returns the number of stored lines.
func (b *replBuffer) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the stored lines.
func (b *replBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
