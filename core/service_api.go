package core

import (
	"context"

	"pkt.systems/sourcecast/schema"
)

// Service is the transport-agnostic API for sourcecasts, recordings and players.
type Service interface {
	ListSourcecasts(ctx context.Context, req schema.ListSourcecastsRequest) (schema.ListSourcecastsResponse, error)
	GetSourcecast(ctx context.Context, req schema.GetSourcecastRequest) (schema.GetSourcecastResponse, error)
	ResolveTabs(ctx context.Context, req schema.ResolveTabsRequest) (schema.ResolveTabsResponse, error)
	StartRecording(ctx context.Context, req schema.StartRecordingRequest) (schema.StartRecordingResponse, error)
	AppendRecording(ctx context.Context, req schema.AppendRecordingRequest) (schema.AppendRecordingResponse, error)
	StopRecording(ctx context.Context, req schema.StopRecordingRequest) (schema.StopRecordingResponse, error)
	PublishRecording(ctx context.Context, req schema.PublishRecordingRequest) (schema.PublishRecordingResponse, error)
	OpenPlayer(ctx context.Context, req schema.OpenPlayerRequest) (schema.OpenPlayerResponse, error)
	ControlPlayer(ctx context.Context, req schema.ControlPlayerRequest) (schema.ControlPlayerResponse, error)
	GetPlayer(ctx context.Context, req schema.GetPlayerRequest) (schema.GetPlayerResponse, error)
	ClosePlayer(ctx context.Context, req schema.ClosePlayerRequest) (schema.ClosePlayerResponse, error)
}
