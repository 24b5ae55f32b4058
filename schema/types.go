package schema

import "time"

// SessionID identifies a recording session.
type SessionID string

// PlayerID identifies a live sourcecast player.
type PlayerID string

// SourcecastUID identifies a published sourcecast in the index.
type SourcecastUID string

// TabID identifies a side-content tab.
type TabID string

const (
	// TabIntroduction is the introduction tab (sourcecast table on the sourcecast page).
	TabIntroduction TabID = "introduction"
	// TabVideoDisplay shows the PIX&FLIX video output.
	TabVideoDisplay TabID = "video_display"
	// TabFaceAPIDisplay shows the machine-learning face API output.
	TabFaceAPIDisplay TabID = "face_api_display"
	// TabDataVisualizer draws box-and-pointer diagrams.
	TabDataVisualizer TabID = "data_visualizer"
	// TabInspector shows the debugger inspector.
	TabInspector TabID = "inspector"
	// TabEnvVisualizer draws environment frames.
	TabEnvVisualizer TabID = "env_visualizer"
	// TabSubstVisualizer is the stepper (substitution model visualizer).
	TabSubstVisualizer TabID = "subst_visualizer"
	// TabRemoteExecution controls remote execution devices.
	TabRemoteExecution TabID = "remote_execution"
	// TabMobileEditor is the editor pseudo-tab on mobile layouts.
	TabMobileEditor TabID = "mobile_editor"
	// TabMobileEditorRun is the run pseudo-tab on mobile layouts.
	TabMobileEditorRun TabID = "mobile_editor_run"
)

// Chapter is a language chapter (1-4).
type Chapter int

// Variant is a language variant.
type Variant string

const (
	VariantDefault    Variant = "default"
	VariantConcurrent Variant = "concurrent"
	VariantNonDet     Variant = "non-det"
	VariantLazy       Variant = "lazy"
	VariantWasm       Variant = "wasm"
	VariantGPU        Variant = "gpu"
	VariantTyped      Variant = "typed"
	VariantNative     Variant = "native"
)

// ExternalLibrary names a selectable external library.
type ExternalLibrary string

const (
	ExternalNone            ExternalLibrary = "NONE"
	ExternalRunes           ExternalLibrary = "RUNES"
	ExternalCurves          ExternalLibrary = "CURVES"
	ExternalSounds          ExternalLibrary = "SOUNDS"
	ExternalBinaryTrees     ExternalLibrary = "BINARYTREES"
	ExternalPixNFlix        ExternalLibrary = "PIXNFLIX"
	ExternalMachineLearning ExternalLibrary = "MACHINELEARNING"
	ExternalAll             ExternalLibrary = "ALL"
)

// PlaybackStatus is the state of the external playback clock.
type PlaybackStatus string

const (
	PlaybackStopped      PlaybackStatus = "stopped"
	PlaybackPlaying      PlaybackStatus = "playing"
	PlaybackPaused       PlaybackStatus = "paused"
	PlaybackForcedPaused PlaybackStatus = "forcedPaused"
)

// WorkspaceConfig is the configuration the side-content tabs derive from.
// It is comparable so it can key caches directly.
type WorkspaceConfig struct {
	Chapter         Chapter         `json:"chapter"`
	Variant         Variant         `json:"variant"`
	ExternalLibrary ExternalLibrary `json:"external_library"`
	RemoteExecution bool            `json:"remote_execution"`
	Mobile          bool            `json:"mobile"`
}

// RecordingInit is the baseline editor snapshot and configuration a
// recording starts from.
type RecordingInit struct {
	EditorValue     string          `json:"editorValue"`
	Chapter         Chapter         `json:"chapter"`
	Variant         Variant         `json:"variant,omitempty"`
	ExternalLibrary ExternalLibrary `json:"externalLibrary"`
}

// TabSnapshot is a transport view of a side-content tab.
type TabSnapshot struct {
	ID     TabID  `json:"id"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

// CursorSnapshot is an editor position.
type CursorSnapshot struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// PlaybackSnapshot is the state of a playback clock.
type PlaybackSnapshot struct {
	Status   PlaybackStatus `json:"status"`
	Time     int64          `json:"time"`
	Duration int64          `json:"duration"`
}

// WorkspaceSnapshot is a transport view of a workspace.
type WorkspaceSnapshot struct {
	Config      WorkspaceConfig    `json:"config"`
	Tabs        []TabSnapshot      `json:"tabs"`
	ActiveTab   TabID              `json:"active_tab"`
	Editor      string             `json:"editor"`
	Cursor      CursorSnapshot     `json:"cursor"`
	ReplOutput  []string           `json:"repl_output"`
	UsingSubst  bool               `json:"using_subst"`
	Breakpoints int                `json:"breakpoints"`
	ControlBar  ControlBarSnapshot `json:"control_bar"`
	Playback    *PlaybackSnapshot  `json:"playback,omitempty"`
}

// ButtonSnapshot is one control bar button.
type ButtonSnapshot struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Icon     string `json:"icon,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// FileProviderSnapshot is the popover of a file provider.
type FileProviderSnapshot struct {
	State   string           `json:"state"`
	Main    ButtonSnapshot   `json:"main"`
	Actions []ButtonSnapshot `json:"actions"`
	Dirty   bool             `json:"dirty"`
	Current string           `json:"current,omitempty"`
}

// ControlBarSnapshot is the derived control bar of a workspace.
type ControlBarSnapshot struct {
	Editor          []ButtonSnapshot     `json:"editor"`
	Repl            []ButtonSnapshot     `json:"repl"`
	ReplHidden      bool                 `json:"repl_hidden"`
	ReplInputHidden bool                 `json:"repl_input_hidden"`
	Resizable       bool                 `json:"resizable"`
	GitHub          FileProviderSnapshot `json:"github"`
	Persistence     FileProviderSnapshot `json:"persistence"`
}

// BatchSnapshot summarizes one replay tick.
type BatchSnapshot struct {
	At        int64          `json:"at"`
	Status    PlaybackStatus `json:"status"`
	Delivered []string       `json:"delivered"`
	Resync    bool           `json:"resync,omitempty"`
	Reset     bool           `json:"reset,omitempty"`
	Dropped   int            `json:"dropped,omitempty"`
	Failed    int            `json:"failed,omitempty"`
	Cursor    int            `json:"cursor"`
}

// PersistenceFile is a file opened from the cloud persistence provider.
type PersistenceFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path,omitempty"`
	LastSaved time.Time `json:"last_saved,omitempty"`
}

// GitHubFile is a file opened from a GitHub repository.
type GitHubFile struct {
	RepoName  string    `json:"repo_name"`
	FilePath  string    `json:"file_path"`
	LastSaved time.Time `json:"last_saved,omitempty"`
}
