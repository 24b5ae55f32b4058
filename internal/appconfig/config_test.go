package appconfig

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigPathsLiveUnderStateDir(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if filepath.Dir(cfg.Recording.DBPath) != cfg.StateDir {
		t.Fatalf("expected db under state dir, got %q", cfg.Recording.DBPath)
	}
	svc := cfg.ServiceConfig()
	if svc.IndexPath != cfg.Sourcecast.IndexPath || svc.StepLimit != cfg.Playground.StepLimit {
		t.Fatalf("unexpected service config %+v", svc)
	}
}
