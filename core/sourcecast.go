package core

import (
	"context"
	"fmt"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/logx"
	"pkt.systems/sourcecast/internal/persist"
	"pkt.systems/sourcecast/internal/playback"
	"pkt.systems/sourcecast/internal/replay"
	"pkt.systems/sourcecast/internal/sidecontent"
	"pkt.systems/sourcecast/schema"
)

const maxDiagnostics = 64

// PlayerOptions configures a SourcecastPlayer.
type PlayerOptions struct {
	Mobile bool
	// Duration is the audio length in milliseconds; 0 leaves seeking
	// unbounded until SetDuration is called.
	Duration int64
	Sink     EventSink
	Logger   pslog.Logger
}

// SourcecastPlayer replays one published sourcecast into its own workspace,
// driven by an in-process playback clock.
type SourcecastPlayer struct {
	mu          sync.Mutex
	id          schema.PlayerID
	cast        persist.Sourcecast
	workspace   *Workspace
	clock       *playback.Player
	engine      *replay.Engine
	diagnostics []replay.Diagnostic
	log         pslog.Logger
	sink        EventSink
}

// NewSourcecastPlayer loads cast for replay. A sourcecast without a baseline
// yields schema.ErrRecordingUnavailable.
func NewSourcecastPlayer(id schema.PlayerID, cast persist.Sourcecast, opts PlayerOptions) (*SourcecastPlayer, error) {
	if cast.PlaybackData.Init == nil {
		return nil, fmt.Errorf("%w: %s has no baseline", schema.ErrRecordingUnavailable, cast.UID)
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	logger = logx.WithSourcecast(logx.WithPlayer(logger, id), cast.UID, cast.Title)
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	workspace, err := NewWorkspace(*cast.PlaybackData.Init, WorkspaceOptions{
		Scope:  string(id),
		Mobile: opts.Mobile,
		Sink:   sink,
		Logger: logger,
		Tabs:   sidecontent.SourcecastSource,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrRecordingUnavailable, err)
	}
	p := &SourcecastPlayer{
		id:        id,
		cast:      cast,
		workspace: workspace,
		clock:     playback.NewPlayer(opts.Duration),
		log:       logger,
		sink:      sink,
	}
	engine, err := replay.New(cast.PlaybackData.Inputs, p.clock, p.clock, workspace, replay.Options{
		Logger:       logger,
		OnDiagnostic: p.addDiagnostic,
	})
	if err != nil {
		return nil, err
	}
	p.engine = engine
	if len(cast.Skipped) > 0 {
		logger.Warn("sourcecast inputs skipped", "count", len(cast.Skipped))
	}
	logger.Info("sourcecast player loaded", "events", engine.Len(), "duration", event.Duration(cast.PlaybackData.Inputs))
	return p, nil
}

// ID returns the player id.
func (p *SourcecastPlayer) ID() schema.PlayerID {
	return p.id
}

// Sourcecast returns the loaded sourcecast.
func (p *SourcecastPlayer) Sourcecast() persist.Sourcecast {
	return p.cast
}

// Play starts or resumes playback.
func (p *SourcecastPlayer) Play() (replay.Batch, error) {
	return p.control(p.clock.Play)
}

// Pause pauses playback.
func (p *SourcecastPlayer) Pause() (replay.Batch, error) {
	return p.control(p.clock.Pause)
}

// Stop stops playback and returns the workspace to its baseline.
func (p *SourcecastPlayer) Stop() (replay.Batch, error) {
	return p.control(p.clock.Stop)
}

// Acknowledge resumes after a forced pause.
func (p *SourcecastPlayer) Acknowledge() (replay.Batch, error) {
	return p.control(p.clock.Acknowledge)
}

// Seek moves playback to t in either direction.
func (p *SourcecastPlayer) Seek(t int64) (replay.Batch, error) {
	return p.control(func() error {
		p.clock.Seek(t)
		return nil
	})
}

// Advance moves time forward while playing, as an audio timeupdate would.
func (p *SourcecastPlayer) Advance(delta int64) (replay.Batch, error) {
	return p.control(func() error {
		p.clock.Advance(delta)
		return nil
	})
}

// SetDuration records the audio length once known.
func (p *SourcecastPlayer) SetDuration(d int64) {
	p.clock.SetDuration(d)
}

// Tick delivers whatever became due without changing the clock.
func (p *SourcecastPlayer) Tick() replay.Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tickLocked()
}

// Snapshot returns the workspace view with playback state.
func (p *SourcecastPlayer) Snapshot() schema.WorkspaceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.workspace.Snapshot()
	state := p.playbackLocked()
	snap.Playback = &state
	return snap
}

// Diagnostics returns the most recent dropped or failed events.
func (p *SourcecastPlayer) Diagnostics() []replay.Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]replay.Diagnostic(nil), p.diagnostics...)
}

// Cursor returns the replay cursor.
func (p *SourcecastPlayer) Cursor() replay.Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Cursor()
}

func (p *SourcecastPlayer) control(change func() error) (replay.Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := change(); err != nil {
		p.log.Debug("sourcecast control rejected", "status", p.clock.Status(), "err", err)
		return replay.Batch{}, err
	}
	return p.tickLocked(), nil
}

func (p *SourcecastPlayer) tickLocked() replay.Batch {
	batch := p.engine.Tick()
	if batch.Reset {
		if err := p.workspace.Resync(); err != nil {
			p.log.Warn("sourcecast reset failed", "err", err)
		}
	}
	p.sink.OnWorkspaceEvent(schema.WorkspaceEvent{Scope: string(p.id), Field: schema.FieldPlayback, Data: p.playbackLocked()})
	if len(batch.Events) > 0 || batch.Resync || batch.Reset {
		p.sink.OnWorkspaceEvent(schema.WorkspaceEvent{Scope: string(p.id), Field: schema.FieldReplay, Data: BatchSnapshot(batch, p.engine.Cursor())})
	}
	return batch
}

func (p *SourcecastPlayer) playbackLocked() schema.PlaybackSnapshot {
	return schema.PlaybackSnapshot{
		Status:   p.clock.Status(),
		Time:     p.clock.CurrentTime(),
		Duration: p.clock.Duration(),
	}
}

// addDiagnostic runs inside Tick, with p.mu held by the caller.
func (p *SourcecastPlayer) addDiagnostic(d replay.Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)
	if len(p.diagnostics) > maxDiagnostics {
		p.diagnostics = append([]replay.Diagnostic(nil), p.diagnostics[len(p.diagnostics)-maxDiagnostics:]...)
	}
}

// BatchSnapshot converts a replay batch to its transport view.
func BatchSnapshot(batch replay.Batch, cursor replay.Cursor) schema.BatchSnapshot {
	delivered := make([]string, 0, len(batch.Events))
	for _, ev := range batch.Events {
		delivered = append(delivered, string(ev.Kind()))
	}
	return schema.BatchSnapshot{
		At:        batch.At,
		Status:    batch.Status,
		Delivered: delivered,
		Resync:    batch.Resync,
		Reset:     batch.Reset,
		Dropped:   batch.Dropped,
		Failed:    batch.Failed,
		Cursor:    cursor.Index,
	}
}
