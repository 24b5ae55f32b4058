package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/logx"
	"pkt.systems/sourcecast/internal/persist"
	"pkt.systems/sourcecast/internal/recorder"
	"pkt.systems/sourcecast/internal/replay"
	"pkt.systems/sourcecast/internal/sidecontent"
	"pkt.systems/sourcecast/schema"
)

// service implements the core service behavior.
type service struct {
	cfg        schema.ServiceConfig
	index      SourcecastIndex
	recorder   *recorder.Recorder
	recordings RecordingLoader
	sink       EventSink
	logger     pslog.Logger
	resolver   sidecontent.Resolver

	mu       sync.Mutex
	sessions map[schema.SessionID]*recordingState
	players  map[schema.PlayerID]*SourcecastPlayer
}

type recordingState struct {
	mu        sync.Mutex
	workspace *Workspace
	session   *recorder.Session
	live      bool
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if deps.Index == nil {
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return nil, err
		}
		store, err := persist.NewStoreWithLogger(cfg.IndexPath, logger)
		if err != nil {
			return nil, err
		}
		deps.Index = store
	}
	sink := deps.EventSink
	if sink == nil {
		sink = nopSink{}
	}
	return &service{
		cfg:        cfg,
		index:      deps.Index,
		recorder:   recorder.New(deps.RecordingSink, logger),
		recordings: deps.Recordings,
		sink:       sink,
		logger:     logger,
		sessions:   make(map[schema.SessionID]*recordingState),
		players:    make(map[schema.PlayerID]*SourcecastPlayer),
	}, nil
}

func (s *service) ListSourcecasts(ctx context.Context, req schema.ListSourcecastsRequest) (schema.ListSourcecastsResponse, error) {
	entries, err := s.index.Search(req.Query)
	if err != nil {
		logx.Ctx(ctx).Warn("service sourcecast list failed", "query", req.Query, "err", err)
		return schema.ListSourcecastsResponse{}, err
	}
	out := make([]schema.SourcecastSummary, 0, len(entries))
	for _, entry := range entries {
		out = append(out, summaryFromEntry(entry))
	}
	return schema.ListSourcecastsResponse{Sourcecasts: out}, nil
}

func (s *service) GetSourcecast(ctx context.Context, req schema.GetSourcecastRequest) (schema.GetSourcecastResponse, error) {
	if strings.TrimSpace(string(req.UID)) == "" {
		return schema.GetSourcecastResponse{}, fmt.Errorf("%w: uid is required", schema.ErrInvalidRequest)
	}
	entry, err := s.index.Lookup(req.UID)
	if err != nil {
		return schema.GetSourcecastResponse{}, err
	}
	cast, err := entry.Decode()
	if err != nil {
		logx.Ctx(ctx).Warn("service sourcecast decode failed", "uid", req.UID, "err", err)
		return schema.GetSourcecastResponse{}, err
	}
	return schema.GetSourcecastResponse{
		Sourcecast: summaryFromEntry(entry),
		Init:       *cast.PlaybackData.Init,
		Events:     len(cast.PlaybackData.Inputs),
		Duration:   event.Duration(cast.PlaybackData.Inputs),
		Skipped:    len(cast.Skipped),
	}, nil
}

func (s *service) ResolveTabs(_ context.Context, req schema.ResolveTabsRequest) (schema.ResolveTabsResponse, error) {
	cfg := req.Config
	chapter, err := schema.NormalizeChapter(int(cfg.Chapter))
	if err != nil {
		return schema.ResolveTabsResponse{}, err
	}
	variant, err := schema.NormalizeVariant(string(cfg.Variant))
	if err != nil {
		return schema.ResolveTabsResponse{}, err
	}
	cfg.Chapter = chapter
	cfg.Variant = variant
	cfg = sidecontent.NormalizeLibrary(cfg)
	active := req.Active
	if active == "" {
		active = schema.TabIntroduction
	}
	s.mu.Lock()
	tabs := s.resolver.Tabs(cfg)
	active = s.resolver.Active(cfg, active)
	s.mu.Unlock()
	return schema.ResolveTabsResponse{Tabs: tabSnapshots(tabs, active), Active: active}, nil
}

func (s *service) StartRecording(ctx context.Context, req schema.StartRecordingRequest) (schema.StartRecordingResponse, error) {
	workspace, err := NewWorkspace(req.Init, WorkspaceOptions{
		Mobile: req.Mobile,
		Sink:   s.sink,
		Logger: s.logger,
	})
	if err != nil {
		return schema.StartRecordingResponse{}, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	session := workspace.StartRecording(ctx, s.recorder)
	workspace.log = logx.WithSession(s.logger, session.ID())

	s.mu.Lock()
	s.sessions[session.ID()] = &recordingState{workspace: workspace, session: session, live: true}
	s.mu.Unlock()

	workspace.log.Info("service recording start", "chapter", workspace.Config().Chapter, "mobile", req.Mobile)
	return schema.StartRecordingResponse{SessionID: session.ID(), Snapshot: workspace.Snapshot()}, nil
}

func (s *service) AppendRecording(ctx context.Context, req schema.AppendRecordingRequest) (schema.AppendRecordingResponse, error) {
	state, err := s.session(req.SessionID)
	if err != nil {
		return schema.AppendRecordingResponse{}, err
	}
	events, skipped, err := event.DecodeAll(req.Events)
	if err != nil {
		return schema.AppendRecordingResponse{}, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	resp := schema.AppendRecordingResponse{Skipped: len(skipped)}
	for _, skip := range skipped {
		resp.Errors = append(resp.Errors, skip.Error())
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if !state.live {
		return schema.AppendRecordingResponse{}, fmt.Errorf("%w: %s is stopped", schema.ErrInvalidRequest, req.SessionID)
	}
	for _, ev := range events {
		if err := state.workspace.Input(ctx, ev); err != nil {
			resp.Skipped++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s at %d: %v", ev.Kind(), ev.Time, err))
			continue
		}
		resp.Appended++
	}
	if resp.Skipped > 0 {
		state.workspace.log.Debug("service recording append skipped", "appended", resp.Appended, "skipped", resp.Skipped)
	}
	return resp, nil
}

func (s *service) StopRecording(_ context.Context, req schema.StopRecordingRequest) (schema.StopRecordingResponse, error) {
	state, err := s.session(req.SessionID)
	if err != nil {
		return schema.StopRecordingResponse{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.live {
		state.workspace.StopRecording()
		state.live = false
	}
	events := state.session.Events()
	resp := schema.StopRecordingResponse{
		SessionID: req.SessionID,
		Events:    len(events),
		Duration:  event.Duration(events),
		Failures:  state.session.Failures(),
	}
	state.workspace.log.Info("service recording stop", "events", resp.Events, "duration", resp.Duration, "sink_failures", resp.Failures)
	return resp, nil
}

func (s *service) PublishRecording(ctx context.Context, req schema.PublishRecordingRequest) (schema.PublishRecordingResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return schema.PublishRecordingResponse{}, fmt.Errorf("%w: title is required", schema.ErrInvalidRequest)
	}
	data, err := s.playbackData(ctx, req.SessionID)
	if err != nil {
		return schema.PublishRecordingResponse{}, err
	}
	entry, err := persist.NewEntry(req.UID, req.Title, req.Description, req.AudioURL, data)
	if err != nil {
		return schema.PublishRecordingResponse{}, err
	}
	entry, err = s.index.Publish(entry)
	if err != nil {
		return schema.PublishRecordingResponse{}, err
	}
	evicted := s.evictStopped(req.SessionID)
	logx.WithSession(s.logger, req.SessionID).Info("service recording publish", "uid", entry.UID, "title", entry.Title, "events", len(data.Inputs), "evicted", evicted)
	return schema.PublishRecordingResponse{UID: entry.UID}, nil
}

func (s *service) OpenPlayer(ctx context.Context, req schema.OpenPlayerRequest) (schema.OpenPlayerResponse, error) {
	if strings.TrimSpace(string(req.UID)) == "" {
		return schema.OpenPlayerResponse{}, fmt.Errorf("%w: uid is required", schema.ErrInvalidRequest)
	}
	entry, err := s.index.Lookup(req.UID)
	if err != nil {
		return schema.OpenPlayerResponse{}, err
	}
	cast, err := entry.Decode()
	if err != nil {
		logx.Ctx(ctx).Warn("service player open failed", "uid", req.UID, "err", err)
		return schema.OpenPlayerResponse{}, err
	}
	id := newPlayerID()
	player, err := NewSourcecastPlayer(id, cast, PlayerOptions{
		Mobile:   req.Mobile,
		Duration: req.Duration,
		Sink:     s.sink,
		Logger:   s.logger,
	})
	if err != nil {
		return schema.OpenPlayerResponse{}, err
	}
	s.mu.Lock()
	s.players[id] = player
	s.mu.Unlock()
	return schema.OpenPlayerResponse{PlayerID: id, Snapshot: player.Snapshot()}, nil
}

func (s *service) ControlPlayer(_ context.Context, req schema.ControlPlayerRequest) (schema.ControlPlayerResponse, error) {
	player, err := s.player(req.PlayerID)
	if err != nil {
		return schema.ControlPlayerResponse{}, err
	}
	var control func() (replay.Batch, error)
	switch req.Action {
	case schema.PlayerPlay:
		control = player.Play
	case schema.PlayerPause:
		control = player.Pause
	case schema.PlayerStop:
		control = player.Stop
	case schema.PlayerAcknowledge:
		control = player.Acknowledge
	case schema.PlayerSeek:
		if req.Time < 0 {
			return schema.ControlPlayerResponse{}, fmt.Errorf("%w: seek time must not be negative", schema.ErrInvalidRequest)
		}
		control = func() (replay.Batch, error) { return player.Seek(req.Time) }
	case schema.PlayerAdvance:
		if req.Time < 0 {
			return schema.ControlPlayerResponse{}, fmt.Errorf("%w: advance must not be negative", schema.ErrInvalidRequest)
		}
		control = func() (replay.Batch, error) { return player.Advance(req.Time) }
	case schema.PlayerTick:
		control = func() (replay.Batch, error) { return player.Tick(), nil }
	default:
		return schema.ControlPlayerResponse{}, fmt.Errorf("%w: unknown action %q", schema.ErrInvalidRequest, req.Action)
	}
	batch, err := control()
	if err != nil {
		return schema.ControlPlayerResponse{}, err
	}
	return schema.ControlPlayerResponse{
		Batch:    BatchSnapshot(batch, player.Cursor()),
		Snapshot: player.Snapshot(),
	}, nil
}

func (s *service) GetPlayer(_ context.Context, req schema.GetPlayerRequest) (schema.GetPlayerResponse, error) {
	player, err := s.player(req.PlayerID)
	if err != nil {
		return schema.GetPlayerResponse{}, err
	}
	diagnostics := player.Diagnostics()
	lines := make([]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		lines = append(lines, fmt.Sprintf("#%d %s at %d: %v", d.Index, d.Event.Kind(), d.Event.Time, d.Err))
	}
	return schema.GetPlayerResponse{
		Snapshot:    player.Snapshot(),
		Cursor:      player.Cursor().Index,
		Diagnostics: lines,
	}, nil
}

func (s *service) ClosePlayer(_ context.Context, req schema.ClosePlayerRequest) (schema.ClosePlayerResponse, error) {
	s.mu.Lock()
	player, ok := s.players[req.PlayerID]
	delete(s.players, req.PlayerID)
	s.mu.Unlock()
	if !ok {
		return schema.ClosePlayerResponse{}, fmt.Errorf("%w: %s", schema.ErrPlayerNotFound, req.PlayerID)
	}
	_, _ = player.Stop()
	logx.WithPlayer(s.logger, req.PlayerID).Info("service player close")
	return schema.ClosePlayerResponse{}, nil
}

func (s *service) session(id schema.SessionID) (*recordingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	return state, nil
}

// evictStopped drops a stopped in-memory session. Live sessions stay so the
// author can keep recording and publish again.
func (s *service) evictStopped(id schema.SessionID) bool {
	s.mu.Lock()
	state, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	state.mu.Lock()
	live := state.live
	state.mu.Unlock()
	if live {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] != state {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *service) player(id schema.PlayerID) (*SourcecastPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrPlayerNotFound, id)
	}
	return player, nil
}

// playbackData resolves a session recorded by this service or, failing
// that, one stored by the recording loader.
func (s *service) playbackData(ctx context.Context, id schema.SessionID) (event.PlaybackData, error) {
	state, err := s.session(id)
	if err == nil {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.session.PlaybackData(), nil
	}
	if s.recordings == nil {
		return event.PlaybackData{}, err
	}
	rec, loadErr := s.recordings.LoadSession(ctx, id)
	if loadErr != nil {
		if errors.Is(loadErr, schema.ErrSessionNotFound) {
			return event.PlaybackData{}, loadErr
		}
		return event.PlaybackData{}, fmt.Errorf("load session %s: %w", id, loadErr)
	}
	if len(rec.Skipped) > 0 {
		logx.WithSession(s.logger, id).Warn("service stored events skipped", "count", len(rec.Skipped))
	}
	return rec.PlaybackData, nil
}

func summaryFromEntry(entry persist.Entry) schema.SourcecastSummary {
	return schema.SourcecastSummary{
		UID:         entry.UID,
		Title:       entry.Title,
		Description: entry.Description,
		AudioURL:    entry.URL,
	}
}
