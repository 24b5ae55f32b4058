// Package controlbar derives the playground control bar: which buttons are
// shown, in what order, and whether they are enabled.
package controlbar

import (
	"time"

	"pkt.systems/sourcecast/schema"
)

// ButtonID identifies a control bar button or button group.
type ButtonID string

const (
	ButtonAutorun         ButtonID = "autorun"
	ButtonShare           ButtonID = "share"
	ButtonChapter         ButtonID = "chapter"
	ButtonExternalLibrary ButtonID = "external_library"
	ButtonSession         ButtonID = "session"
	ButtonPersistence     ButtonID = "persistence"
	ButtonGitHub          ButtonID = "github"
	ButtonStepLimit       ButtonID = "step_limit"
	ButtonExecutionTime   ButtonID = "execution_time"
	ButtonEval            ButtonID = "eval_repl"
	ButtonClear           ButtonID = "clear_repl"

	ButtonOpen   ButtonID = "open"
	ButtonSave   ButtonID = "save"
	ButtonSaveAs ButtonID = "save_as"
	ButtonLogIn  ButtonID = "log_in"
	ButtonLogOut ButtonID = "log_out"
)

// Button is one rendered control.
type Button struct {
	ID       ButtonID `json:"id"`
	Label    string   `json:"label"`
	Icon     string   `json:"icon,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// Input is the workspace state the layout depends on.
type Input struct {
	Config     schema.WorkspaceConfig
	ActiveTab  schema.TabID
	UsingSubst bool
}

// Layout is the derived control bar and REPL chrome.
type Layout struct {
	Editor []Button `json:"editor"`
	Repl   []Button `json:"repl"`
	// ReplHidden hides the REPL while the stepper owns the output area.
	ReplHidden      bool `json:"repl_hidden"`
	ReplInputHidden bool `json:"repl_input_hidden"`
	Resizable       bool `json:"resizable"`
}

// Derive computes the layout for in.
func Derive(in Input) Layout {
	onStepper := in.ActiveTab == schema.TabSubstVisualizer
	return Layout{
		Editor:          EditorButtons(in),
		Repl:            ReplButtons(in),
		ReplHidden:      onStepper,
		ReplInputHidden: ReplDisabled(in.Config),
		Resizable:       !onStepper,
	}
}

// EditorButtons returns the editor control bar in display order.
func EditorButtons(in Input) []Button {
	cfg := in.Config
	remote := cfg.RemoteExecution
	autorun := Button{ID: ButtonAutorun, Label: "Run", Icon: "play", Disabled: remote}
	share := Button{ID: ButtonShare, Label: "Share", Icon: "share"}
	chapter := Button{ID: ButtonChapter, Label: "Chapter", Icon: "book", Disabled: remote}
	session := Button{ID: ButtonSession, Label: "Session", Icon: "people"}
	persistence := Button{ID: ButtonPersistence, Label: "Google Drive", Icon: "cloud"}
	github := Button{ID: ButtonGitHub, Label: "GitHub", Icon: "git-branch"}

	var buttons []Button
	if cfg.Mobile {
		buttons = []Button{autorun, chapter}
		if cfg.Variant != schema.VariantConcurrent {
			buttons = append(buttons, externalLibrary(remote))
		}
		return append(buttons, share, session, persistence, github)
	}

	buttons = []Button{autorun, share, chapter}
	if cfg.Variant != schema.VariantConcurrent {
		buttons = append(buttons, externalLibrary(remote))
	}
	buttons = append(buttons, session, persistence, github)
	switch {
	case remote:
	case in.UsingSubst:
		buttons = append(buttons, Button{ID: ButtonStepLimit, Label: "Step Limit", Icon: "step-forward"})
	default:
		buttons = append(buttons, Button{ID: ButtonExecutionTime, Label: "Execution Time", Icon: "time"})
	}
	return buttons
}

func externalLibrary(remote bool) Button {
	return Button{ID: ButtonExternalLibrary, Label: "External Library", Icon: "code-block", Disabled: remote}
}

// ReplButtons returns the REPL buttons. Both are hidden on the stepper tab.
func ReplButtons(in Input) []Button {
	if in.ActiveTab == schema.TabSubstVisualizer {
		return nil
	}
	var buttons []Button
	if !ReplDisabled(in.Config) {
		buttons = append(buttons, Button{ID: ButtonEval, Label: "Eval", Icon: "code"})
	}
	return append(buttons, Button{ID: ButtonClear, Label: "Clear", Icon: "remove"})
}

// ReplDisabled reports whether REPL input is unavailable.
func ReplDisabled(cfg schema.WorkspaceConfig) bool {
	return cfg.Variant == schema.VariantConcurrent || cfg.Variant == schema.VariantWasm || cfg.RemoteExecution
}

// IsDirty reports whether a file has unsaved edits: it has never been saved
// or was last saved before lastEdit.
func IsDirty(hasFile bool, lastSaved, lastEdit time.Time) bool {
	if !hasFile {
		return false
	}
	return lastSaved.IsZero() || lastSaved.Before(lastEdit)
}
