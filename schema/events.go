package schema

// EventField names the part of a workspace an event updates. Subscribers
// pick the fields they depend on.
type EventField string

const (
	// FieldConfig carries the WorkspaceConfig.
	FieldConfig EventField = "config"
	// FieldTabs carries the resolved []TabSnapshot.
	FieldTabs EventField = "tabs"
	// FieldActiveTab carries the active TabID.
	FieldActiveTab EventField = "active_tab"
	// FieldEditor carries the editor text.
	FieldEditor EventField = "editor"
	// FieldCursor carries the editor CursorSnapshot.
	FieldCursor EventField = "cursor"
	// FieldRepl carries the REPL output lines.
	FieldRepl EventField = "repl"
	// FieldSubst carries the substitution mode flag.
	FieldSubst EventField = "subst"
	// FieldBreakpoints carries the breakpoint count.
	FieldBreakpoints EventField = "breakpoints"
	// FieldPlayback carries a PlaybackSnapshot.
	FieldPlayback EventField = "playback"
	// FieldReplay carries a BatchSnapshot.
	FieldReplay EventField = "replay"
	// FieldRecording carries the recording SessionID.
	FieldRecording EventField = "recording"
)

// WorkspaceEvent is a change notification from a workspace. Scope is the
// owning player or recording session.
type WorkspaceEvent struct {
	Scope string     `json:"scope"`
	Field EventField `json:"field"`
	Data  any        `json:"data,omitempty"`
}
