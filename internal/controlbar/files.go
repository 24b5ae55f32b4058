package controlbar

import (
	"time"

	"pkt.systems/sourcecast/schema"
)

// LoginState is the login state of a file provider.
type LoginState string

const (
	LoggedOut LoginState = "LOGGED_OUT"
	LoggedIn  LoginState = "LOGGED_IN"
)

// FileButtons is the popover of a file provider.
type FileButtons struct {
	State   LoginState `json:"state"`
	Main    Button     `json:"main"`
	Actions []Button   `json:"actions"`
	Dirty   bool       `json:"dirty"`
	// Current names the open file, if any.
	Current string `json:"current,omitempty"`
}

// GitHubButtons derives the GitHub popover. Open, save and save-as need a
// login. Save without an open file falls through to save-as.
func GitHubButtons(loggedIn bool, file *schema.GitHubFile, lastEdit time.Time) FileButtons {
	state := LoggedOut
	if loggedIn {
		state = LoggedIn
	}
	out := FileButtons{
		State: state,
		Main:  Button{ID: ButtonGitHub, Label: "GitHub", Icon: "git-branch"},
	}
	out.Actions = []Button{
		{ID: ButtonOpen, Label: "Open", Icon: "document-open", Disabled: !loggedIn},
		{ID: ButtonSave, Label: "Save", Icon: "floppy-disk", Disabled: !loggedIn},
		{ID: ButtonSaveAs, Label: "Save as", Icon: "send-to", Disabled: !loggedIn},
	}
	if loggedIn {
		out.Actions = append(out.Actions, Button{ID: ButtonLogOut, Label: "Log Out", Icon: "log-out"})
	} else {
		out.Actions = append(out.Actions, Button{ID: ButtonLogIn, Label: "Log In", Icon: "log-in"})
	}
	if file != nil {
		out.Current = file.RepoName + "/" + file.FilePath
		out.Dirty = IsDirty(true, file.LastSaved, lastEdit)
	}
	return out
}

// PersistenceButtons derives the Google Drive popover. Opening signs the
// user in, so only save needs an open file and log out needs a login.
func PersistenceButtons(loggedIn bool, file *schema.PersistenceFile, lastEdit time.Time) FileButtons {
	state := LoggedOut
	if loggedIn {
		state = LoggedIn
	}
	out := FileButtons{
		State: state,
		Main:  Button{ID: ButtonPersistence, Label: "Google Drive", Icon: "cloud"},
		Actions: []Button{
			{ID: ButtonOpen, Label: "Open", Icon: "document-open"},
			{ID: ButtonSave, Label: "Save", Icon: "floppy-disk", Disabled: file == nil},
			{ID: ButtonSaveAs, Label: "Save as", Icon: "send-to"},
		},
	}
	if loggedIn {
		out.Actions = append(out.Actions, Button{ID: ButtonLogOut, Label: "Log Out", Icon: "log-out"})
	}
	if file != nil {
		out.Current = file.Name
		out.Dirty = IsDirty(true, file.LastSaved, lastEdit)
	}
	return out
}

// Snapshot maps the layout and file popovers to their transport view.
func Snapshot(layout Layout, github, persistence FileButtons) schema.ControlBarSnapshot {
	return schema.ControlBarSnapshot{
		Editor:          buttonSnapshots(layout.Editor),
		Repl:            buttonSnapshots(layout.Repl),
		ReplHidden:      layout.ReplHidden,
		ReplInputHidden: layout.ReplInputHidden,
		Resizable:       layout.Resizable,
		GitHub:          fileSnapshot(github),
		Persistence:     fileSnapshot(persistence),
	}
}

func buttonSnapshots(buttons []Button) []schema.ButtonSnapshot {
	out := make([]schema.ButtonSnapshot, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, buttonSnapshot(b))
	}
	return out
}

func buttonSnapshot(b Button) schema.ButtonSnapshot {
	return schema.ButtonSnapshot{ID: string(b.ID), Label: b.Label, Icon: b.Icon, Disabled: b.Disabled}
}

func fileSnapshot(f FileButtons) schema.FileProviderSnapshot {
	return schema.FileProviderSnapshot{
		State:   string(f.State),
		Main:    buttonSnapshot(f.Main),
		Actions: buttonSnapshots(f.Actions),
		Dirty:   f.Dirty,
		Current: f.Current,
	}
}
