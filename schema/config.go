package schema

import (
	"errors"
	"os"
	"path/filepath"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	StateDir  string
	IndexPath string
	BaseURL   string
	// ExecTimeMs is the default evaluation time limit shown in the control bar.
	ExecTimeMs int
	StepLimit  int
}

// Playground control-bar defaults.
const (
	DefaultExecTimeMs = 1000
	MinExecTimeMs     = 1000
	DefaultStepLimit  = 1000
)

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".sourcecast", "state")
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(cfg.StateDir, "index.json")
	}
	if cfg.ExecTimeMs == 0 {
		cfg.ExecTimeMs = DefaultExecTimeMs
	}
	if cfg.ExecTimeMs < MinExecTimeMs {
		return ServiceConfig{}, errors.New("exec time must be at least 1000ms")
	}
	if cfg.StepLimit <= 0 {
		cfg.StepLimit = DefaultStepLimit
	}
	return cfg, nil
}
