package core

import "pkt.systems/sourcecast/schema"

// EventSink receives workspace change notifications.
type EventSink interface {
	OnWorkspaceEvent(event schema.WorkspaceEvent)
}

type nopSink struct{}

func (nopSink) OnWorkspaceEvent(schema.WorkspaceEvent) {}
