// Package replay re-delivers a recorded session log against an external
// playback clock.
//
// Each Tick reads the clock once and delivers every event that has become
// due since the previous tick, exactly once and in recorded order. Code deltas
// are not idempotent, so a backward seek is never undone event by event:
// the consumer is told to restore its baseline and the engine re-applies the
// prefix of the log that precedes the new position. A recorded pause holds
// playback at its own timestamp and ends the tick.
package replay

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/playback"
	"pkt.systems/sourcecast/schema"
)

var (
	// ErrUnknownKind reports an event whose kind has no handler.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrClockRequired indicates a missing playback clock.
	ErrClockRequired = errors.New("playback clock is required")
	// ErrHandlerRequired indicates a missing handler.
	ErrHandlerRequired = errors.New("replay handler is required")
)

// Handler applies delivered events. There is one method per event kind, so
// a consumer that misses a kind does not compile.
type Handler interface {
	// Resync restores the consumer to its baseline before a catch-up batch.
	Resync() error
	CodeDelta(delta event.CodeDelta) error
	CursorPosition(pos event.CursorPosition) error
	SelectionRange(sel event.SelectionRange) error
	ChapterSelect(sel event.ChapterSelect) error
	ExternalLibrarySelect(sel event.ExternalLibrarySelect) error
	ActiveTabChange(change event.ActiveTabChange) error
	ForcePause() error
}

// Cursor tracks how far into the log has been delivered.
// Time is the timestamp of the last delivered event.
type Cursor struct {
	Index int
	Time  int64
}

// Batch is the outcome of one tick.
type Batch struct {
	At     int64
	Status schema.PlaybackStatus
	// Events were delivered in this tick, in order.
	Events []event.TimedEvent
	// Resync is set when the consumer was reset to its baseline and Events
	// is the catch-up prefix up to At.
	Resync bool
	// Reset is set when playback stopped after progress had been made.
	Reset   bool
	Dropped int
	Failed  int
}

// Diagnostic describes an event that was dropped or whose handler failed.
type Diagnostic struct {
	Index int
	Event event.TimedEvent
	Err   error
}

// Options configures an Engine.
type Options struct {
	Logger       pslog.Logger
	OnDiagnostic func(Diagnostic)
}

// Engine is the replay state for one session log. It is driven by a single
// caller and is not safe for concurrent ticks.
type Engine struct {
	events     []event.TimedEvent
	clock      playback.Clock
	control    playback.Control
	handler    Handler
	cursor     Cursor
	lastStatus schema.PlaybackStatus
	log        pslog.Logger
	onDiag     func(Diagnostic)
}

// New constructs an engine over a copy of events, stable-sorted by time.
// control may be nil, in which case forced pauses are delivered but cannot
// change playback status.
func New(events []event.TimedEvent, clock playback.Clock, control playback.Control, handler Handler, opts Options) (*Engine, error) {
	if clock == nil {
		return nil, ErrClockRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Engine{
		events:     event.Sorted(events),
		clock:      clock,
		control:    control,
		handler:    handler,
		lastStatus: schema.PlaybackStopped,
		log:        logger,
		onDiag:     opts.OnDiagnostic,
	}, nil
}

// Cursor returns the current cursor.
func (e *Engine) Cursor() Cursor {
	return e.cursor
}

// Len returns the number of events in the log.
func (e *Engine) Len() int {
	return len(e.events)
}

// Tick reads the clock once and delivers what has become due.
func (e *Engine) Tick() Batch {
	now := e.clock.CurrentTime()
	status := e.clock.Status()
	batch := Batch{At: now, Status: status}
	if status != e.lastStatus {
		e.log.Debug("replay status", "from", e.lastStatus, "to", status, "at", now)
	}
	defer func() {
		e.lastStatus = status
	}()

	if status == schema.PlaybackStopped {
		if e.cursor != (Cursor{}) {
			batch.Reset = true
			e.log.Debug("replay reset", "index", e.cursor.Index, "last_time", e.cursor.Time)
		}
		e.cursor = Cursor{}
		return batch
	}

	if now < e.cursor.Time {
		return e.resync(now, batch)
	}

	for idx := e.cursor.Index; idx < len(e.events); idx++ {
		ev := e.events[idx]
		if ev.Time > now {
			break
		}
		paused := e.deliver(idx, ev, &batch, true)
		e.cursor = Cursor{Index: idx + 1, Time: ev.Time}
		if paused {
			// Playback holds at the pause point; later events wait for the
			// next tick after the pause is acknowledged.
			batch.At = ev.Time
			e.control.SetCurrentTime(ev.Time)
			break
		}
	}
	if len(batch.Events) > 0 {
		e.log.Trace("replay deliver", "at", now, "count", len(batch.Events), "index", e.cursor.Index)
	}
	return batch
}

func (e *Engine) resync(now int64, batch Batch) Batch {
	target := event.CountAtOrBefore(e.events, now)
	e.log.Debug("replay resync", "from_time", e.cursor.Time, "to_time", now, "from_index", e.cursor.Index, "to_index", target)
	batch.Resync = true
	if err := e.safeResync(); err != nil {
		e.report(Diagnostic{Index: -1, Err: err})
		e.log.Warn("replay resync failed", "err", err)
	}
	e.cursor = Cursor{}
	for idx := 0; idx < target; idx++ {
		ev := e.events[idx]
		e.deliver(idx, ev, &batch, false)
		e.cursor = Cursor{Index: idx + 1, Time: ev.Time}
	}
	return batch
}

// deliver dispatches one event and reports whether it forced a pause. live is
// false for catch-up after a resync, where recorded pauses are history and
// must not pause playback again.
func (e *Engine) deliver(idx int, ev event.TimedEvent, batch *Batch, live bool) bool {
	err := e.dispatch(ev)
	switch {
	case errors.Is(err, ErrUnknownKind):
		batch.Dropped++
		e.report(Diagnostic{Index: idx, Event: ev, Err: err})
		e.log.Warn("replay drop", "index", idx, "time", ev.Time, "kind", ev.Kind(), "err", err)
		return false
	case err != nil:
		batch.Failed++
		e.report(Diagnostic{Index: idx, Event: ev, Err: err})
		e.log.Warn("replay handler failed", "index", idx, "time", ev.Time, "kind", ev.Kind(), "err", err)
	}
	batch.Events = append(batch.Events, ev)
	if live && ev.Kind() == event.KindForcePause {
		return e.forcePause(idx)
	}
	return false
}

func (e *Engine) forcePause(idx int) bool {
	if e.control == nil {
		return false
	}
	if e.clock.Status() != schema.PlaybackPlaying {
		return false
	}
	if err := e.control.SetStatus(schema.PlaybackForcedPaused); err != nil {
		e.log.Debug("replay force pause ignored", "index", idx, "err", err)
		return false
	}
	e.log.Info("replay force pause", "index", idx)
	return true
}

func (e *Engine) dispatch(ev event.TimedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	switch p := ev.Payload.(type) {
	case event.CodeDelta:
		return e.handler.CodeDelta(p)
	case event.CursorPosition:
		return e.handler.CursorPosition(p)
	case event.SelectionRange:
		return e.handler.SelectionRange(p)
	case event.ChapterSelect:
		return e.handler.ChapterSelect(p)
	case event.ExternalLibrarySelect:
		return e.handler.ExternalLibrarySelect(p)
	case event.ActiveTabChange:
		return e.handler.ActiveTabChange(p)
	case event.ForcePause:
		return e.handler.ForcePause()
	case event.Unknown:
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Type)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, p)
	}
}

func (e *Engine) safeResync() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resync panic: %v", r)
		}
	}()
	return e.handler.Resync()
}

func (e *Engine) report(d Diagnostic) {
	if e.onDiag != nil {
		e.onDiag(d)
	}
}
