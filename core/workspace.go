package core

import (
	"context"
	"fmt"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/controlbar"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/recorder"
	"pkt.systems/sourcecast/internal/replay"
	"pkt.systems/sourcecast/internal/sidecontent"
	"pkt.systems/sourcecast/schema"
)

// WorkspaceOptions configures a Workspace.
type WorkspaceOptions struct {
	// Scope tags published events, usually the player or session id.
	Scope           string
	Mobile          bool
	RemoteExecution bool
	Sink            EventSink
	Logger          pslog.Logger
	ReplMaxLines    int
	Now             func() time.Time
	// Tabs overrides the playground tab list, e.g. with the player page tabs.
	Tabs sidecontent.TabSource
}

// Workspace is the playground facade: editor, REPL, side-content tabs and
// the control-bar inputs of one session. User actions are recorded when a
// recording is attached; replayed events arrive through the replay.Handler
// methods and are never re-recorded.
//
// A Workspace is not safe for concurrent use.
type Workspace struct {
	scope       string
	cfg         schema.WorkspaceConfig
	baseline    event.Init
	resolver    sidecontent.Resolver
	tabs        *sidecontent.Controller
	doc         *Document
	cursor      event.Position
	selection   *event.SelectionRange
	repl        *replBuffer
	playground  PlaygroundState
	breakpoints []string
	recording   *recorder.Session
	lastEdit    time.Time
	sink        EventSink
	log         pslog.Logger
	now         func() time.Time
}

var _ replay.Handler = (*Workspace)(nil)
var _ sidecontent.Effects = (*Workspace)(nil)

// NewWorkspace constructs a workspace at the baseline init.
func NewWorkspace(init event.Init, opts WorkspaceOptions) (*Workspace, error) {
	cfg, err := configFromInit(init, schema.WorkspaceConfig{Mobile: opts.Mobile, RemoteExecution: opts.RemoteExecution})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	init.Chapter = cfg.Chapter
	init.Variant = cfg.Variant
	init.ExternalLibrary = cfg.ExternalLibrary
	w := &Workspace{
		scope:    opts.Scope,
		cfg:      cfg,
		baseline: init,
		doc:      NewDocument(init.EditorValue),
		repl:     newReplBuffer(opts.ReplMaxLines),
		sink:     sink,
		log:      logger,
		now:      now,
	}
	w.resolver.Source = opts.Tabs
	active := w.resolver.Active(cfg, schema.TabIntroduction)
	w.tabs = sidecontent.NewController(w, active, cfg.Chapter, logger)
	return w, nil
}

func configFromInit(init event.Init, base schema.WorkspaceConfig) (schema.WorkspaceConfig, error) {
	chapter := init.Chapter
	if chapter == 0 {
		chapter = schema.MinChapter
	}
	normalized, err := schema.NormalizeChapter(int(chapter))
	if err != nil {
		return schema.WorkspaceConfig{}, err
	}
	variant, err := schema.NormalizeVariant(string(init.Variant))
	if err != nil {
		return schema.WorkspaceConfig{}, err
	}
	cfg := base
	cfg.Chapter = normalized
	cfg.Variant = variant
	cfg.ExternalLibrary = init.ExternalLibrary
	if cfg.ExternalLibrary == "" {
		cfg.ExternalLibrary = schema.ExternalNone
	}
	return sidecontent.NormalizeLibrary(cfg), nil
}

// Scope returns the event scope.
func (w *Workspace) Scope() string {
	return w.scope
}

// Config returns the current configuration.
func (w *Workspace) Config() schema.WorkspaceConfig {
	return w.cfg
}

// Baseline returns the snapshot Resync restores.
func (w *Workspace) Baseline() event.Init {
	return w.baseline
}

// Tabs returns the resolved side-content tabs.
func (w *Workspace) Tabs() []sidecontent.Tab {
	return w.resolver.Tabs(w.cfg)
}

// ActiveTab returns the active side-content tab.
func (w *Workspace) ActiveTab() schema.TabID {
	return w.tabs.Active()
}

// Text returns the editor text.
func (w *Workspace) Text() string {
	return w.doc.Text()
}

// Cursor returns the editor cursor.
func (w *Workspace) Cursor() event.Position {
	return w.cursor
}

// Selection returns the current selection, if any.
func (w *Workspace) Selection() (event.SelectionRange, bool) {
	if w.selection == nil {
		return event.SelectionRange{}, false
	}
	return *w.selection, true
}

// ReplOutput returns the REPL output lines.
func (w *Workspace) ReplOutput() []string {
	return w.repl.Lines()
}

// Playground returns the playground page state.
func (w *Workspace) Playground() PlaygroundState {
	return w.playground
}

// LastEdit returns the time of the last editor change.
func (w *Workspace) LastEdit() time.Time {
	return w.lastEdit
}

// ControlBar derives the control bar for the current state.
func (w *Workspace) ControlBar() controlbar.Layout {
	return controlbar.Derive(controlbar.Input{
		Config:     w.cfg,
		ActiveTab:  w.tabs.Active(),
		UsingSubst: w.playground.UsingSubst,
	})
}

// FileButtons derives the GitHub and Google Drive popovers. A file is dirty
// when it was edited after it was last saved.
func (w *Workspace) FileButtons() (github, persistence controlbar.FileButtons) {
	p := w.playground
	github = controlbar.GitHubButtons(p.GitHubLoggedIn, p.GitHubFile, w.lastEdit)
	persistence = controlbar.PersistenceButtons(p.PersistenceLoggedIn, p.PersistenceFile, w.lastEdit)
	return github, persistence
}

// Snapshot returns a transport view of the workspace.
func (w *Workspace) Snapshot() schema.WorkspaceSnapshot {
	active := w.tabs.Active()
	github, persistence := w.FileButtons()
	return schema.WorkspaceSnapshot{
		Config:      w.cfg,
		Tabs:        tabSnapshots(w.Tabs(), active),
		ActiveTab:   active,
		Editor:      w.doc.Text(),
		Cursor:      schema.CursorSnapshot{Row: w.cursor.Row, Column: w.cursor.Column},
		ReplOutput:  w.repl.Lines(),
		UsingSubst:  w.playground.UsingSubst,
		Breakpoints: w.tabs.Breakpoints(),
		ControlBar:  controlbar.Snapshot(w.ControlBar(), github, persistence),
	}
}

// StartRecording begins a recording whose baseline is the current editor
// text and configuration. A running recording is replaced. An unscoped
// workspace takes the session id as its scope.
func (w *Workspace) StartRecording(ctx context.Context, rec *recorder.Recorder) *recorder.Session {
	session := rec.StartSession(ctx, event.Init{
		EditorValue:     w.doc.Text(),
		Chapter:         w.cfg.Chapter,
		Variant:         w.cfg.Variant,
		ExternalLibrary: w.cfg.ExternalLibrary,
	})
	if w.recording != nil {
		w.log.Debug("workspace recording replaced", "previous", w.recording.ID(), "session", session.ID())
	}
	w.recording = session
	if w.scope == "" {
		w.scope = string(session.ID())
	}
	w.publish(schema.FieldRecording, session.ID())
	return session
}

// StopRecording detaches and returns the current recording.
func (w *Workspace) StopRecording() *recorder.Session {
	session := w.recording
	w.recording = nil
	if session != nil {
		w.publish(schema.FieldRecording, schema.SessionID(""))
	}
	return session
}

// Recording returns the attached recording, if any.
func (w *Workspace) Recording() *recorder.Session {
	return w.recording
}

// EditorChange applies a user edit and records it.
func (w *Workspace) EditorChange(ctx context.Context, delta event.CodeDelta) error {
	if err := w.apply(delta); err != nil {
		return err
	}
	w.record(ctx, delta)
	return nil
}

// CursorChange moves the cursor and records it.
func (w *Workspace) CursorChange(ctx context.Context, pos event.Position) {
	payload := event.CursorPosition(pos)
	_ = w.apply(payload)
	w.record(ctx, payload)
}

// SelectionChange records a selection. Empty selections are ignored.
func (w *Workspace) SelectionChange(ctx context.Context, sel event.SelectionRange) {
	if sel.Range.Empty() {
		return
	}
	_ = w.apply(sel)
	w.record(ctx, sel)
}

// SelectChapter switches chapter and variant and records the chapter.
func (w *Workspace) SelectChapter(ctx context.Context, chapter schema.Chapter, variant schema.Variant) error {
	v, err := schema.NormalizeVariant(string(variant))
	if err != nil {
		return err
	}
	if _, err := schema.NormalizeChapter(int(chapter)); err != nil {
		return err
	}
	w.cfg.Variant = v
	payload := event.ChapterSelect{Chapter: chapter}
	if err := w.apply(payload); err != nil {
		return err
	}
	w.record(ctx, payload)
	return nil
}

// SelectExternal switches the external library and records it.
func (w *Workspace) SelectExternal(ctx context.Context, lib schema.ExternalLibrary) error {
	normalized, err := schema.NormalizeExternalLibrary(string(lib))
	if err != nil {
		return err
	}
	payload := event.ExternalLibrarySelect{Library: normalized}
	if err := w.apply(payload); err != nil {
		return err
	}
	w.record(ctx, payload)
	return nil
}

// ChangeTab moves to next, applies the transition effects and records the
// change when the active tab moved.
func (w *Workspace) ChangeTab(ctx context.Context, next schema.TabID) sidecontent.Outcome {
	out := w.changeTab(next)
	if out.Changed {
		w.record(ctx, event.ActiveTabChange{Tab: out.Active})
	}
	return out
}

// UpdateBreakpoints replaces the editor breakpoints.
func (w *Workspace) UpdateBreakpoints(breakpoints []string) sidecontent.Outcome {
	w.breakpoints = append([]string(nil), breakpoints...)
	out := w.tabs.SetBreakpoints(breakpoints)
	w.publish(schema.FieldBreakpoints, w.tabs.Breakpoints())
	return out
}

// SetMobile switches between the desktop and mobile layout.
func (w *Workspace) SetMobile(mobile bool) {
	if w.cfg.Mobile == mobile {
		return
	}
	w.cfg.Mobile = mobile
	w.refreshTabs()
}

// SetRemoteExecution toggles remote execution mode.
func (w *Workspace) SetRemoteExecution(on bool) {
	if w.cfg.RemoteExecution == on {
		return
	}
	w.cfg.RemoteExecution = on
	w.cfg = sidecontent.NormalizeLibrary(w.cfg)
	w.refreshTabs()
}

// AppendReplOutput adds evaluator output to the REPL.
func (w *Workspace) AppendReplOutput(lines ...string) {
	if len(lines) == 0 {
		return
	}
	w.repl.Append(lines...)
	w.publish(schema.FieldRepl, w.repl.Lines())
}

// ClearReplOutput clears the REPL.
func (w *Workspace) ClearReplOutput() {
	w.repl.Clear()
	w.publish(schema.FieldRepl, []string{})
}

// SetUsingSubst turns substitution mode on or off.
func (w *Workspace) SetUsingSubst(on bool) {
	w.Dispatch(ToggleUsingSubst{On: on})
}

// Dispatch applies a playground action.
func (w *Workspace) Dispatch(action PlaygroundAction) {
	prev := w.playground
	w.playground = ReducePlayground(w.playground, action)
	if prev.UsingSubst != w.playground.UsingSubst {
		w.log.Debug("workspace subst", "on", w.playground.UsingSubst)
		w.publish(schema.FieldSubst, w.playground.UsingSubst)
	}
}

// Input applies a user event captured elsewhere, e.g. by a remote editor,
// and records it at its own session time.
func (w *Workspace) Input(ctx context.Context, ev event.TimedEvent) error {
	switch p := ev.Payload.(type) {
	case event.SelectionRange:
		if p.Range.Empty() {
			return nil
		}
	case event.ActiveTabChange:
		out := w.changeTab(p.Tab)
		if !out.Changed {
			return nil
		}
		w.recordAt(ctx, ev.Time, p)
		return nil
	case event.ExternalLibrarySelect:
		lib, err := schema.NormalizeExternalLibrary(string(p.Library))
		if err != nil {
			return err
		}
		p.Library = lib
		ev.Payload = p
	}
	if err := w.apply(ev.Payload); err != nil {
		return err
	}
	w.recordAt(ctx, ev.Time, ev.Payload)
	return nil
}

// Resync restores the baseline before a replay catch-up.
func (w *Workspace) Resync() error {
	cfg, err := configFromInit(w.baseline, schema.WorkspaceConfig{Mobile: w.cfg.Mobile, RemoteExecution: w.cfg.RemoteExecution})
	if err != nil {
		return err
	}
	w.cfg = cfg
	w.doc = NewDocument(w.baseline.EditorValue)
	w.cursor = event.Position{}
	w.selection = nil
	w.repl.Clear()
	w.breakpoints = nil
	w.playground.UsingSubst = false
	active := w.resolver.Active(cfg, schema.TabIntroduction)
	w.tabs = sidecontent.NewController(w, active, cfg.Chapter, w.log)
	w.log.Debug("workspace resync", "chapter", cfg.Chapter, "active", active)
	w.publish(schema.FieldConfig, w.cfg)
	w.publish(schema.FieldEditor, w.doc.Text())
	w.publish(schema.FieldCursor, schema.CursorSnapshot{})
	w.publish(schema.FieldRepl, []string{})
	w.publish(schema.FieldSubst, false)
	w.publish(schema.FieldTabs, tabSnapshots(w.Tabs(), active))
	w.publish(schema.FieldActiveTab, active)
	return nil
}

// CodeDelta applies a replayed edit.
func (w *Workspace) CodeDelta(delta event.CodeDelta) error { return w.apply(delta) }

// CursorPosition applies a replayed cursor move.
func (w *Workspace) CursorPosition(pos event.CursorPosition) error { return w.apply(pos) }

// SelectionRange applies a replayed selection.
func (w *Workspace) SelectionRange(sel event.SelectionRange) error { return w.apply(sel) }

// ChapterSelect applies a replayed chapter switch.
func (w *Workspace) ChapterSelect(sel event.ChapterSelect) error { return w.apply(sel) }

// ExternalLibrarySelect applies a replayed library switch.
func (w *Workspace) ExternalLibrarySelect(sel event.ExternalLibrarySelect) error { return w.apply(sel) }

// ActiveTabChange applies a replayed tab switch.
func (w *Workspace) ActiveTabChange(change event.ActiveTabChange) error {
	w.changeTab(change.Tab)
	return nil
}

// ForcePause marks the point the author paused. Playback status is changed
// by the replay engine, not here.
func (w *Workspace) ForcePause() error {
	w.log.Debug("workspace force pause")
	return nil
}

func (w *Workspace) apply(payload event.Payload) error {
	switch p := payload.(type) {
	case event.CodeDelta:
		if err := w.doc.Apply(p); err != nil {
			return err
		}
		w.lastEdit = w.now()
		w.publish(schema.FieldEditor, w.doc.Text())
	case event.CursorPosition:
		w.cursor = event.Position(p)
		w.publish(schema.FieldCursor, schema.CursorSnapshot{Row: p.Row, Column: p.Column})
	case event.SelectionRange:
		if p.Range.Empty() {
			return nil
		}
		sel := p
		w.selection = &sel
	case event.ChapterSelect:
		chapter, err := schema.NormalizeChapter(int(p.Chapter))
		if err != nil {
			return err
		}
		w.cfg.Chapter = chapter
		w.tabs.SelectChapter(chapter)
		w.publish(schema.FieldConfig, w.cfg)
		w.refreshTabs()
	case event.ExternalLibrarySelect:
		w.cfg.ExternalLibrary = p.Library
		w.cfg = sidecontent.NormalizeLibrary(w.cfg)
		w.publish(schema.FieldConfig, w.cfg)
		w.refreshTabs()
	case event.ActiveTabChange:
		w.changeTab(p.Tab)
	case event.ForcePause:
		return w.ForcePause()
	case event.Unknown:
		return fmt.Errorf("%w: %q", replay.ErrUnknownKind, p.Type)
	default:
		return fmt.Errorf("%w: %T", replay.ErrUnknownKind, payload)
	}
	return nil
}

func (w *Workspace) changeTab(next schema.TabID) sidecontent.Outcome {
	out := w.tabs.ChangeTab(next)
	if out.Changed {
		w.publish(schema.FieldActiveTab, out.Active)
	}
	return out
}

func (w *Workspace) refreshTabs() {
	tabs := w.resolver.Tabs(w.cfg)
	active := w.tabs.Active()
	next := w.resolver.Active(w.cfg, active)
	if next != active {
		w.tabs.Redirect(next)
	}
	w.publish(schema.FieldTabs, tabSnapshots(tabs, next))
	if next != active {
		w.publish(schema.FieldActiveTab, next)
	}
}

func (w *Workspace) record(ctx context.Context, payload event.Payload) {
	if w.recording == nil {
		return
	}
	w.recording.Record(ctx, payload)
}

func (w *Workspace) recordAt(ctx context.Context, at int64, payload event.Payload) {
	if w.recording == nil {
		return
	}
	w.recording.RecordAt(ctx, at, payload)
}

func (w *Workspace) publish(field schema.EventField, data any) {
	w.sink.OnWorkspaceEvent(schema.WorkspaceEvent{Scope: w.scope, Field: field, Data: data})
}
