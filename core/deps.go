package core

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/persist"
	"pkt.systems/sourcecast/internal/recorder"
	"pkt.systems/sourcecast/internal/recordstore"
	"pkt.systems/sourcecast/schema"
)

// SourcecastIndex is the published sourcecast catalogue.
type SourcecastIndex interface {
	Lookup(uid schema.SourcecastUID) (persist.Entry, error)
	Search(query string) ([]persist.Entry, error)
	Publish(entry persist.Entry) (persist.Entry, error)
}

// RecordingLoader reads recordings that are no longer live.
type RecordingLoader interface {
	LoadSession(ctx context.Context, id schema.SessionID) (recordstore.Recording, error)
}

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	// Index defaults to a JSON index at ServiceConfig.IndexPath.
	Index SourcecastIndex
	// RecordingSink receives live recordings, e.g. the SQLite store.
	RecordingSink recorder.Sink
	// Recordings resolves stopped sessions when publishing.
	Recordings RecordingLoader
	EventSink  EventSink
	Logger     pslog.Logger
}
