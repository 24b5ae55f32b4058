package sourcecast

import (
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnWorkspaceEvent(event)
	}
}
