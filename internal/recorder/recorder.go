// Package recorder captures live workspace actions into a session log.
//
// Recording is best-effort: Record never returns an error and a failing sink
// never blocks or drops later records. The in-memory log is always kept.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/logx"
	"pkt.systems/sourcecast/schema"
)

// Sink receives the growing log of a session.
type Sink interface {
	StartSession(ctx context.Context, id schema.SessionID, init event.Init, startedAt time.Time) error
	Append(ctx context.Context, id schema.SessionID, seq int, ev event.TimedEvent) error
}

// Recorder starts recording sessions.
type Recorder struct {
	sink Sink
	log  pslog.Logger
	now  func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Recorder. A nil sink keeps logs in memory only.
func New(sink Sink, logger pslog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	r := &Recorder{sink: sink, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartSession assigns a new session id and captures the baseline.
func (r *Recorder) StartSession(ctx context.Context, seed event.Init) *Session {
	id := schema.SessionID(uuid.NewString())
	started := r.now()
	s := &Session{
		id:      id,
		init:    seed,
		started: started,
		events:  &event.Log{},
		sink:    r.sink,
		now:     r.now,
		log:     logx.WithSession(r.log, id),
	}
	if r.sink != nil {
		if err := guardSink(func() error { return r.sink.StartSession(ctx, id, seed, started) }); err != nil {
			s.failures++
			s.log.Warn("record session start failed", "err", err)
		}
	}
	s.log.Info("record session started", "chapter", seed.Chapter, "external", seed.ExternalLibrary)
	return s
}

// Session is a single recording. It is owned by the workspace that started it.
type Session struct {
	mu       sync.Mutex
	id       schema.SessionID
	init     event.Init
	started  time.Time
	events   *event.Log
	sink     Sink
	now      func() time.Time
	log      pslog.Logger
	failures int
}

// ID returns the session identifier.
func (s *Session) ID() schema.SessionID {
	return s.id
}

// Init returns the baseline captured at session start.
func (s *Session) Init() event.Init {
	return s.init
}

// Record stamps the payload with the session clock and appends it.
func (s *Session) Record(ctx context.Context, payload event.Payload) {
	if s == nil || payload == nil {
		return
	}
	s.RecordAt(ctx, s.now().Sub(s.started).Milliseconds(), payload)
}

// RecordAt appends a payload with a caller-supplied session time. Times that
// would go backwards are clamped to the last recorded time.
func (s *Session) RecordAt(ctx context.Context, at int64, payload event.Payload) {
	if s == nil || payload == nil {
		return
	}
	s.mu.Lock()
	stored := s.events.Append(event.TimedEvent{Time: at, Payload: payload})
	seq := s.events.Len()
	sink := s.sink
	s.mu.Unlock()

	s.log.Trace("record append", "seq", seq, "kind", stored.Kind(), "time", stored.Time)
	if sink == nil {
		return
	}
	if err := guardSink(func() error { return sink.Append(ctx, s.id, seq, stored) }); err != nil {
		s.mu.Lock()
		s.failures++
		failures := s.failures
		s.mu.Unlock()
		s.log.Warn("record sink failed", "seq", seq, "failures", failures, "err", err)
	}
}

// guardSink turns a sink panic into an error so it never reaches the caller.
func guardSink(call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return call()
}

// Failures returns how many sink calls failed.
func (s *Session) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Events returns a copy of the recorded log.
func (s *Session) Events() []event.TimedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.Events()
}

// PlaybackData returns the baseline and inputs recorded so far.
func (s *Session) PlaybackData() event.PlaybackData {
	init := s.init
	return event.PlaybackData{Init: &init, Inputs: s.Events()}
}
