// Package event defines the timestamped input events shared by live recording
// and sourcecast replay.
//
// A TimedEvent carries a millisecond timestamp relative to its session and a
// payload drawn from a closed set of variants. Consumers must only rely on the
// relative order of events and their payload kind, never on the size of the
// gaps between timestamps.
package event

import (
	"reflect"

	"pkt.systems/sourcecast/schema"
)

// Kind identifies the payload variant of a TimedEvent.
type Kind string

const (
	KindCodeDelta             Kind = "codeDelta"
	KindCursorPositionChange  Kind = "cursorPositionChange"
	KindSelectionRangeData    Kind = "selectionRangeData"
	KindChapterSelect         Kind = "chapterSelect"
	KindExternalLibrarySelect Kind = "externalLibrarySelect"
	KindActiveTabChange       Kind = "activeTabChange"
	KindForcePause            Kind = "forcePause"
	// KindUnknown marks a decoded event whose type is outside the closed set.
	KindUnknown Kind = "unknown"
)

// Kinds lists the known kinds in declaration order.
var Kinds = []Kind{
	KindCodeDelta,
	KindCursorPositionChange,
	KindSelectionRangeData,
	KindChapterSelect,
	KindExternalLibrarySelect,
	KindActiveTabChange,
	KindForcePause,
}

// Payload is implemented only by the variants in this package.
type Payload interface {
	Kind() Kind
	isPayload()
}

// TimedEvent is an immutable recorded input.
type TimedEvent struct {
	Time    int64
	Payload Payload
}

// Kind returns the payload kind, or KindUnknown for a nil payload.
func (e TimedEvent) Kind() Kind {
	if e.Payload == nil {
		return KindUnknown
	}
	return e.Payload.Kind()
}

// Equal reports structural equality of two events.
func Equal(a, b TimedEvent) bool {
	return a.Time == b.Time && reflect.DeepEqual(a.Payload, b.Payload)
}

// Position is a zero-based row/column location in the editor.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Less reports whether p sorts before other.
func (p Position) Less(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

// Range is a start/end pair of positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Empty reports whether the range selects nothing.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// DeltaAction is the edit operation of a code delta.
type DeltaAction string

const (
	DeltaInsert DeltaAction = "insert"
	DeltaRemove DeltaAction = "remove"
)

// CodeDelta is an incremental edit. Deltas are not idempotent and must be
// applied at most once, in recorded order.
type CodeDelta struct {
	Start  Position    `json:"start"`
	End    Position    `json:"end"`
	Action DeltaAction `json:"action"`
	Lines  []string    `json:"lines"`
}

// CursorPosition moves the editor cursor.
type CursorPosition Position

// SelectionRange selects a non-empty range of text.
type SelectionRange struct {
	Range       Range `json:"range"`
	IsBackwards bool  `json:"isBackwards"`
}

// ChapterSelect switches the language chapter.
type ChapterSelect struct {
	Chapter schema.Chapter
}

// ExternalLibrarySelect switches the external library.
type ExternalLibrarySelect struct {
	Library schema.ExternalLibrary
}

// ActiveTabChange switches the side-content tab.
type ActiveTabChange struct {
	Tab schema.TabID
}

// ForcePause pauses playback at the point the author paused the recording.
type ForcePause struct{}

// Unknown preserves a decoded event of an unrecognised type.
type Unknown struct {
	Type string
	Raw  []byte
}

func (CodeDelta) Kind() Kind             { return KindCodeDelta }
func (CursorPosition) Kind() Kind        { return KindCursorPositionChange }
func (SelectionRange) Kind() Kind        { return KindSelectionRangeData }
func (ChapterSelect) Kind() Kind         { return KindChapterSelect }
func (ExternalLibrarySelect) Kind() Kind { return KindExternalLibrarySelect }
func (ActiveTabChange) Kind() Kind       { return KindActiveTabChange }
func (ForcePause) Kind() Kind            { return KindForcePause }
func (Unknown) Kind() Kind               { return KindUnknown }

func (CodeDelta) isPayload()             {}
func (CursorPosition) isPayload()        {}
func (SelectionRange) isPayload()        {}
func (ChapterSelect) isPayload()         {}
func (ExternalLibrarySelect) isPayload() {}
func (ActiveTabChange) isPayload()       {}
func (ForcePause) isPayload()            {}
func (Unknown) isPayload()               {}
