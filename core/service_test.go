package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pkt.systems/sourcecast/schema"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(schema.ServiceConfig{StateDir: t.TempDir()}, ServiceDeps{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

const recordedInputs = `[
	{"time":100,"type":"codeDelta","data":{"start":{"row":0,"column":0},"end":{"row":0,"column":1},"action":"insert","lines":["x"]}},
	{"time":150,"type":"keyboardCommand","data":"run"},
	{"time":"late","type":"codeDelta"},
	{"time":200,"type":"forcePause"}
]`

func recordAndPublish(t *testing.T, svc Service) schema.SourcecastUID {
	t.Helper()
	ctx := context.Background()
	start, err := svc.StartRecording(ctx, schema.StartRecordingRequest{Init: schema.RecordingInit{Chapter: 1}})
	if err != nil {
		t.Fatalf("start recording: %v", err)
	}
	appended, err := svc.AppendRecording(ctx, schema.AppendRecordingRequest{SessionID: start.SessionID, Events: json.RawMessage(recordedInputs)})
	if err != nil {
		t.Fatalf("append recording: %v", err)
	}
	if appended.Appended != 2 || appended.Skipped != 2 || len(appended.Errors) != 2 {
		t.Fatalf("unexpected append result %+v", appended)
	}
	stopped, err := svc.StopRecording(ctx, schema.StopRecordingRequest{SessionID: start.SessionID})
	if err != nil {
		t.Fatalf("stop recording: %v", err)
	}
	if stopped.Events != 2 || stopped.Duration != 200 {
		t.Fatalf("unexpected stop result %+v", stopped)
	}
	if _, err := svc.AppendRecording(ctx, schema.AppendRecordingRequest{SessionID: start.SessionID, Events: json.RawMessage(`[]`)}); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected append after stop to fail, got %v", err)
	}
	if _, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{SessionID: start.SessionID}); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected missing title error, got %v", err)
	}
	published, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{
		SessionID:   start.SessionID,
		Title:       "Intro to recursion",
		Description: "factorial",
		AudioURL:    "https://audio/1.mp3",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.UID == "" {
		t.Fatalf("expected assigned uid")
	}
	return published.UID
}

func TestServicePublishEvictsStoppedSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	live, err := svc.StartRecording(ctx, schema.StartRecordingRequest{Init: schema.RecordingInit{Chapter: 1}})
	if err != nil {
		t.Fatalf("start recording: %v", err)
	}
	if _, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{SessionID: live.SessionID, Title: "draft"}); err != nil {
		t.Fatalf("publish live: %v", err)
	}
	if _, err := svc.AppendRecording(ctx, schema.AppendRecordingRequest{SessionID: live.SessionID, Events: json.RawMessage(`[]`)}); err != nil {
		t.Fatalf("expected live session to survive publish, got %v", err)
	}

	if _, err := svc.StopRecording(ctx, schema.StopRecordingRequest{SessionID: live.SessionID}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{SessionID: live.SessionID, Title: "final"}); err != nil {
		t.Fatalf("publish stopped: %v", err)
	}
	if _, err := svc.StopRecording(ctx, schema.StopRecordingRequest{SessionID: live.SessionID}); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected stopped session to be evicted, got %v", err)
	}
	if _, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{SessionID: live.SessionID, Title: "again"}); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected republish without a store to fail, got %v", err)
	}
}

func TestServiceRecordPublishAndList(t *testing.T) {
	svc := newTestService(t)
	uid := recordAndPublish(t, svc)
	ctx := context.Background()

	list, err := svc.ListSourcecasts(ctx, schema.ListSourcecastsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Sourcecasts) != 1 || list.Sourcecasts[0].UID != uid {
		t.Fatalf("unexpected list %+v", list)
	}
	search, err := svc.ListSourcecasts(ctx, schema.ListSourcecastsRequest{Query: "recur"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(search.Sourcecasts) != 1 {
		t.Fatalf("expected fuzzy match, got %+v", search)
	}

	got, err := svc.GetSourcecast(ctx, schema.GetSourcecastRequest{UID: uid})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Events != 2 || got.Duration != 200 || got.Sourcecast.AudioURL != "https://audio/1.mp3" {
		t.Fatalf("unexpected sourcecast %+v", got)
	}
	if _, err := svc.GetSourcecast(ctx, schema.GetSourcecastRequest{UID: "missing"}); !errors.Is(err, schema.ErrSourcecastNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServicePlayerControls(t *testing.T) {
	svc := newTestService(t)
	uid := recordAndPublish(t, svc)
	ctx := context.Background()

	opened, err := svc.OpenPlayer(ctx, schema.OpenPlayerRequest{UID: uid, Duration: 1000})
	if err != nil {
		t.Fatalf("open player: %v", err)
	}
	control := func(action schema.PlayerAction, at int64) (schema.ControlPlayerResponse, error) {
		return svc.ControlPlayer(ctx, schema.ControlPlayerRequest{PlayerID: opened.PlayerID, Action: action, Time: at})
	}
	if _, err := control(schema.PlayerPlay, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	resp, err := control(schema.PlayerAdvance, 150)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if resp.Snapshot.Editor != "x" || len(resp.Batch.Delivered) != 1 {
		t.Fatalf("unexpected advance response %+v", resp)
	}
	resp, err = control(schema.PlayerAdvance, 100)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if resp.Snapshot.Playback.Status != schema.PlaybackForcedPaused {
		t.Fatalf("expected forced pause, got %s", resp.Snapshot.Playback.Status)
	}
	if _, err := control(schema.PlayerPlay, 0); !errors.Is(err, schema.ErrAcknowledgementRequired) {
		t.Fatalf("expected acknowledgement required, got %v", err)
	}
	if _, err := control(schema.PlayerAcknowledge, 0); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := control("rewind", 0); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected invalid action, got %v", err)
	}
	if _, err := control(schema.PlayerSeek, -1); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected invalid seek, got %v", err)
	}

	state, err := svc.GetPlayer(ctx, schema.GetPlayerRequest{PlayerID: opened.PlayerID})
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if state.Cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", state.Cursor)
	}

	if _, err := svc.ClosePlayer(ctx, schema.ClosePlayerRequest{PlayerID: opened.PlayerID}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.ClosePlayer(ctx, schema.ClosePlayerRequest{PlayerID: opened.PlayerID}); !errors.Is(err, schema.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestServiceUnknownSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AppendRecording(ctx, schema.AppendRecordingRequest{SessionID: "nope", Events: json.RawMessage(`[]`)}); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := svc.PublishRecording(ctx, schema.PublishRecordingRequest{SessionID: "nope", Title: "t"}); !errors.Is(err, schema.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := svc.StartRecording(ctx, schema.StartRecordingRequest{Init: schema.RecordingInit{Chapter: 9}}); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestServiceResolveTabs(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.ResolveTabs(context.Background(), schema.ResolveTabsRequest{
		Config: schema.WorkspaceConfig{Chapter: 1, Mobile: true},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resp.Active != schema.TabMobileEditor {
		t.Fatalf("expected mobile editor, got %q", resp.Active)
	}
	if len(resp.Tabs) != 1 || resp.Tabs[0].ID != schema.TabSubstVisualizer {
		t.Fatalf("unexpected tabs %+v", resp.Tabs)
	}
	if _, err := svc.ResolveTabs(context.Background(), schema.ResolveTabsRequest{Config: schema.WorkspaceConfig{Chapter: 0}}); !errors.Is(err, schema.ErrInvalidChapter) {
		t.Fatalf("expected invalid chapter, got %v", err)
	}
}
