package schema

import "encoding/json"

// Sourcecast index.

// SourcecastSummary describes a published sourcecast.
type SourcecastSummary struct {
	UID         SourcecastUID `json:"uid"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AudioURL    string        `json:"audio_url"`
}

// ListSourcecastsRequest describes a request to list or search the index.
type ListSourcecastsRequest struct {
	Query string `json:"query,omitempty"`
}

// ListSourcecastsResponse reports matching sourcecasts.
type ListSourcecastsResponse struct {
	Sourcecasts []SourcecastSummary `json:"sourcecasts"`
}

// GetSourcecastRequest describes a request for one sourcecast.
type GetSourcecastRequest struct {
	UID SourcecastUID `json:"uid"`
}

// GetSourcecastResponse reports a sourcecast and its recording.
type GetSourcecastResponse struct {
	Sourcecast SourcecastSummary `json:"sourcecast"`
	Init       RecordingInit     `json:"init"`
	Events     int               `json:"events"`
	Duration   int64             `json:"duration_ms"`
	Skipped    int               `json:"skipped,omitempty"`
}

// Tabs.

// ResolveTabsRequest describes a request to resolve side-content tabs.
type ResolveTabsRequest struct {
	Config WorkspaceConfig `json:"config"`
	Active TabID           `json:"active,omitempty"`
}

// ResolveTabsResponse reports the tabs and the active tab.
type ResolveTabsResponse struct {
	Tabs   []TabSnapshot `json:"tabs"`
	Active TabID         `json:"active"`
}

// Recording.

// StartRecordingRequest describes a request to start a recording.
type StartRecordingRequest struct {
	Init   RecordingInit `json:"init"`
	Mobile bool          `json:"mobile,omitempty"`
}

// StartRecordingResponse reports the new session.
type StartRecordingResponse struct {
	SessionID SessionID         `json:"session_id"`
	Snapshot  WorkspaceSnapshot `json:"snapshot"`
}

// AppendRecordingRequest carries wire-format events for a session.
type AppendRecordingRequest struct {
	SessionID SessionID       `json:"session_id"`
	Events    json.RawMessage `json:"events"`
}

// AppendRecordingResponse reports how many events were applied.
type AppendRecordingResponse struct {
	Appended int      `json:"appended"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// StopRecordingRequest describes a request to stop a recording.
type StopRecordingRequest struct {
	SessionID SessionID `json:"session_id"`
}

// StopRecordingResponse reports the finished recording.
type StopRecordingResponse struct {
	SessionID SessionID `json:"session_id"`
	Events    int       `json:"events"`
	Duration  int64     `json:"duration_ms"`
	Failures  int       `json:"sink_failures,omitempty"`
}

// PublishRecordingRequest describes a request to publish a recording.
type PublishRecordingRequest struct {
	SessionID   SessionID     `json:"session_id"`
	UID         SourcecastUID `json:"uid,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AudioURL    string        `json:"audio_url"`
}

// PublishRecordingResponse reports the published uid.
type PublishRecordingResponse struct {
	UID SourcecastUID `json:"uid"`
}

// Players.

// PlayerAction is a playback control.
type PlayerAction string

const (
	PlayerPlay        PlayerAction = "play"
	PlayerPause       PlayerAction = "pause"
	PlayerStop        PlayerAction = "stop"
	PlayerSeek        PlayerAction = "seek"
	PlayerAcknowledge PlayerAction = "acknowledge"
	PlayerAdvance     PlayerAction = "advance"
	PlayerTick        PlayerAction = "tick"
)

// OpenPlayerRequest describes a request to load a sourcecast for replay.
type OpenPlayerRequest struct {
	UID      SourcecastUID `json:"uid"`
	Mobile   bool          `json:"mobile,omitempty"`
	Duration int64         `json:"duration_ms,omitempty"`
}

// OpenPlayerResponse reports the new player.
type OpenPlayerResponse struct {
	PlayerID PlayerID          `json:"player_id"`
	Snapshot WorkspaceSnapshot `json:"snapshot"`
}

// ControlPlayerRequest applies a playback control. Time is the seek target
// or the advance delta in milliseconds.
type ControlPlayerRequest struct {
	PlayerID PlayerID     `json:"player_id"`
	Action   PlayerAction `json:"action"`
	Time     int64        `json:"time,omitempty"`
}

// ControlPlayerResponse reports the tick triggered by the control.
type ControlPlayerResponse struct {
	Batch    BatchSnapshot     `json:"batch"`
	Snapshot WorkspaceSnapshot `json:"snapshot"`
}

// GetPlayerRequest describes a request for player state.
type GetPlayerRequest struct {
	PlayerID PlayerID `json:"player_id"`
}

// GetPlayerResponse reports player state.
type GetPlayerResponse struct {
	Snapshot    WorkspaceSnapshot `json:"snapshot"`
	Cursor      int               `json:"cursor"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

// ClosePlayerRequest describes a request to drop a player.
type ClosePlayerRequest struct {
	PlayerID PlayerID `json:"player_id"`
}

// ClosePlayerResponse acknowledges a closed player.
type ClosePlayerResponse struct{}
