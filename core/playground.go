package core

import "pkt.systems/sourcecast/schema"

// PlaygroundState is the playground page state outside the workspace.
type PlaygroundState struct {
	QueryString     string                  `json:"query_string,omitempty"`
	ShortURL        string                  `json:"short_url,omitempty"`
	UsingSubst      bool                    `json:"using_subst"`
	PersistenceFile *schema.PersistenceFile `json:"persistence_file,omitempty"`
	GitHubFile      *schema.GitHubFile      `json:"github_file,omitempty"`

	GitHubLoggedIn      bool `json:"github_logged_in,omitempty"`
	PersistenceLoggedIn bool `json:"persistence_logged_in,omitempty"`
}

// PlaygroundAction is an update to PlaygroundState.
type PlaygroundAction interface {
	reduce(PlaygroundState) PlaygroundState
}

// ChangeQueryString replaces the share query string.
type ChangeQueryString struct{ Value string }

// ToggleUsingSubst turns substitution mode on or off.
type ToggleUsingSubst struct{ On bool }

// UpdateShortURL replaces the shortened share link.
type UpdateShortURL struct{ Value string }

// UpdatePersistenceFile replaces the open cloud file.
type UpdatePersistenceFile struct{ File *schema.PersistenceFile }

// UpdateGitHubFile replaces the open GitHub file.
type UpdateGitHubFile struct{ File *schema.GitHubFile }

// SetGitHubLogin records whether a GitHub session is available.
type SetGitHubLogin struct{ LoggedIn bool }

// SetPersistenceLogin records whether a Google Drive session is available.
type SetPersistenceLogin struct{ LoggedIn bool }

func (a ChangeQueryString) reduce(s PlaygroundState) PlaygroundState {
	s.QueryString = a.Value
	return s
}

func (a ToggleUsingSubst) reduce(s PlaygroundState) PlaygroundState {
	s.UsingSubst = a.On
	return s
}

func (a UpdateShortURL) reduce(s PlaygroundState) PlaygroundState {
	s.ShortURL = a.Value
	return s
}

func (a UpdatePersistenceFile) reduce(s PlaygroundState) PlaygroundState {
	s.PersistenceFile = a.File
	return s
}

func (a UpdateGitHubFile) reduce(s PlaygroundState) PlaygroundState {
	s.GitHubFile = a.File
	return s
}

func (a SetGitHubLogin) reduce(s PlaygroundState) PlaygroundState {
	s.GitHubLoggedIn = a.LoggedIn
	return s
}

func (a SetPersistenceLogin) reduce(s PlaygroundState) PlaygroundState {
	s.PersistenceLoggedIn = a.LoggedIn
	return s
}

// ReducePlayground returns the state after action. A nil action is a no-op.
func ReducePlayground(state PlaygroundState, action PlaygroundAction) PlaygroundState {
	if action == nil {
		return state
	}
	return action.reduce(state)
}
