// Package sidecontent derives the workspace side-content tabs from
// configuration and the side effects of moving between them.
package sidecontent

import (
	"sync"

	"pkt.systems/sourcecast/schema"
)

// Tab describes one side-content tab.
type Tab struct {
	ID    schema.TabID `json:"id"`
	Label string       `json:"label"`
	Icon  string       `json:"icon"`
}

var (
	tabIntroduction    = Tab{ID: schema.TabIntroduction, Label: "Introduction", Icon: "home"}
	tabVideoDisplay    = Tab{ID: schema.TabVideoDisplay, Label: "Video Display", Icon: "mobile-video"}
	tabFaceAPIDisplay  = Tab{ID: schema.TabFaceAPIDisplay, Label: "Face API Display", Icon: "mugshot"}
	tabDataVisualizer  = Tab{ID: schema.TabDataVisualizer, Label: "Data Visualizer", Icon: "eye-open"}
	tabInspector       = Tab{ID: schema.TabInspector, Label: "Inspector", Icon: "search"}
	tabEnvVisualizer   = Tab{ID: schema.TabEnvVisualizer, Label: "Env Visualizer", Icon: "globe"}
	tabSubstVisualizer = Tab{ID: schema.TabSubstVisualizer, Label: "Stepper", Icon: "flow-review"}
	tabRemoteExecution = Tab{ID: schema.TabRemoteExecution, Label: "Remote Execution", Icon: "satellite"}
)

// Resolve returns the ordered tab list for cfg. The result depends only on
// cfg and is freshly allocated on every call.
func Resolve(cfg schema.WorkspaceConfig) []Tab {
	tabs := []Tab{tabIntroduction}

	switch cfg.ExternalLibrary {
	case schema.ExternalPixNFlix, schema.ExternalAll:
		tabs = append(tabs, tabVideoDisplay)
	}
	if cfg.ExternalLibrary == schema.ExternalMachineLearning {
		tabs = append(tabs, tabFaceAPIDisplay)
	}

	if !cfg.RemoteExecution {
		if cfg.Chapter >= 2 {
			tabs = append(tabs, tabDataVisualizer)
		}
		if cfg.Chapter >= 3 && !concurrentVariant(cfg.Variant) {
			tabs = append(tabs, tabInspector, tabEnvVisualizer)
		}
	}

	if cfg.Chapter <= 2 && normalizedVariant(cfg.Variant) == schema.VariantDefault {
		tabs = append(tabs, tabSubstVisualizer)
	}

	tabs = append(tabs, tabRemoteExecution)

	if cfg.Mobile {
		// introduction and remote execution are replaced by the mobile
		// editor surfaces.
		tabs = tabs[1 : len(tabs)-1]
	}
	return tabs
}

// ResolveActive returns the tab that should be active for cfg given the
// previously active tab.
func ResolveActive(cfg schema.WorkspaceConfig, active schema.TabID) schema.TabID {
	return resolveActive(cfg, Resolve(cfg), active)
}

func resolveActive(cfg schema.WorkspaceConfig, tabs []Tab, active schema.TabID) schema.TabID {
	if cfg.Mobile {
		switch active {
		case schema.TabIntroduction, schema.TabRemoteExecution:
			return schema.TabMobileEditor
		}
	} else {
		switch active {
		case schema.TabMobileEditor, schema.TabMobileEditorRun:
			return schema.TabIntroduction
		}
	}
	if IsValidActiveTab(cfg, tabs, active) {
		return active
	}
	if cfg.Mobile || len(tabs) == 0 {
		return schema.TabMobileEditor
	}
	return tabs[0].ID
}

// IsValidActiveTab reports whether id may stay active with tabs. The mobile
// editor pseudo-tabs are always valid on a mobile layout.
func IsValidActiveTab(cfg schema.WorkspaceConfig, tabs []Tab, id schema.TabID) bool {
	if cfg.Mobile && (id == schema.TabMobileEditor || id == schema.TabMobileEditorRun) {
		return true
	}
	return containsTab(tabs, id)
}

func containsTab(tabs []Tab, id schema.TabID) bool {
	for _, tab := range tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}

// TabIDs returns the ids of tabs in order.
func TabIDs(tabs []Tab) []schema.TabID {
	ids := make([]schema.TabID, 0, len(tabs))
	for _, tab := range tabs {
		ids = append(ids, tab.ID)
	}
	return ids
}

// SourcecastTabs is the fixed tab list of the sourcecast player page, where
// the introduction slot lists the available recordings.
func SourcecastTabs() []Tab {
	return []Tab{
		{ID: schema.TabIntroduction, Label: "Sourcecast", Icon: "list"},
		tabDataVisualizer,
		tabInspector,
		tabEnvVisualizer,
	}
}

// SourcecastSource derives the player page tabs. The mobile layout drops the
// recording list in favour of the mobile editor.
func SourcecastSource(cfg schema.WorkspaceConfig) []Tab {
	tabs := SourcecastTabs()
	if cfg.Mobile {
		return tabs[1:]
	}
	return tabs
}

// NormalizeLibrary resets an external library the workspace cannot load to
// NONE. Remote execution leaves the selection to the device.
func NormalizeLibrary(cfg schema.WorkspaceConfig) schema.WorkspaceConfig {
	if cfg.RemoteExecution {
		return cfg
	}
	if !schema.IsKnownExternalLibrary(cfg.ExternalLibrary) {
		cfg.ExternalLibrary = schema.ExternalNone
	}
	return cfg
}

func concurrentVariant(v schema.Variant) bool {
	switch normalizedVariant(v) {
	case schema.VariantConcurrent, schema.VariantNonDet:
		return true
	}
	return false
}

func normalizedVariant(v schema.Variant) schema.Variant {
	if v == "" {
		return schema.VariantDefault
	}
	return v
}

// TabSource derives the tab list for a configuration.
type TabSource func(cfg schema.WorkspaceConfig) []Tab

// Resolver caches the last resolution keyed on the configuration value.
type Resolver struct {
	// Source replaces Resolve when set. It must be set before first use.
	Source TabSource

	mu     sync.Mutex
	cached bool
	key    schema.WorkspaceConfig
	tabs   []Tab
	hits   int
	misses int
}

// Tabs returns the tab list for cfg, recomputing only when cfg differs from
// the previous call. Callers receive a copy.
func (r *Resolver) Tabs(cfg schema.WorkspaceConfig) []Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cached || r.key != cfg {
		r.key = cfg
		if r.Source != nil {
			r.tabs = r.Source(cfg)
		} else {
			r.tabs = Resolve(cfg)
		}
		r.cached = true
		r.misses++
	} else {
		r.hits++
	}
	out := make([]Tab, len(r.tabs))
	copy(out, r.tabs)
	return out
}

// Active resolves the active tab against the cached list for cfg.
func (r *Resolver) Active(cfg schema.WorkspaceConfig, active schema.TabID) schema.TabID {
	return resolveActive(cfg, r.Tabs(cfg), active)
}

// Stats returns cache hits and misses.
func (r *Resolver) Stats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}
