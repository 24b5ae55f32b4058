package core

import (
	"testing"
	"time"

	"pkt.systems/sourcecast/schema"
)

func TestReducePlayground(t *testing.T) {
	state := PlaygroundState{}
	state = ReducePlayground(state, ChangeQueryString{Value: "chap=2"})
	state = ReducePlayground(state, UpdateShortURL{Value: "https://short/x"})
	state = ReducePlayground(state, ToggleUsingSubst{On: true})
	file := &schema.PersistenceFile{ID: "f1", Name: "main.js", Path: "/main.js", LastSaved: time.Unix(10, 0)}
	state = ReducePlayground(state, UpdatePersistenceFile{File: file})
	state = ReducePlayground(state, UpdateGitHubFile{File: &schema.GitHubFile{RepoName: "demo", FilePath: "a.js"}})

	if state.QueryString != "chap=2" || state.ShortURL != "https://short/x" || !state.UsingSubst {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.PersistenceFile == nil || state.PersistenceFile.ID != "f1" {
		t.Fatalf("expected persistence file, got %+v", state.PersistenceFile)
	}
	if state.GitHubFile == nil || state.GitHubFile.RepoName != "demo" {
		t.Fatalf("expected github file, got %+v", state.GitHubFile)
	}

	if got := ReducePlayground(state, nil); got != state {
		t.Fatalf("nil action changed state")
	}
	state = ReducePlayground(state, UpdatePersistenceFile{})
	if state.PersistenceFile != nil {
		t.Fatalf("expected persistence file cleared")
	}
}
