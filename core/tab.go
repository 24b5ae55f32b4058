package core

import (
	"pkt.systems/sourcecast/internal/sidecontent"
	"pkt.systems/sourcecast/schema"
)

// tabSnapshots converts resolved tabs to their transport view.
func tabSnapshots(tabs []sidecontent.Tab, active schema.TabID) []schema.TabSnapshot {
	out := make([]schema.TabSnapshot, 0, len(tabs))
	for _, tab := range tabs {
		out = append(out, schema.TabSnapshot{
			ID:     tab.ID,
			Label:  tab.Label,
			Icon:   tab.Icon,
			Active: tab.ID == active,
		})
	}
	return out
}
