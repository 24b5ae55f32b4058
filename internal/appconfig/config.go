package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/sourcecast/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int              `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string           `mapstructure:"state_dir" yaml:"state_dir"`
	Recording     RecordingConfig  `mapstructure:"recording" yaml:"recording"`
	Sourcecast    SourcecastConfig `mapstructure:"sourcecast" yaml:"sourcecast"`
	HTTP          HTTPConfig       `mapstructure:"http" yaml:"http"`
	Playground    PlaygroundConfig `mapstructure:"playground" yaml:"playground"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// RecordingConfig configures the recording session store.
type RecordingConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// SourcecastConfig configures the published sourcecast index.
type SourcecastConfig struct {
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`
	// BaseURL is the public sourcecast page used for share links.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
	// HubHistory is the number of events kept per stream for reconnects.
	HubHistory int `mapstructure:"hub_history" yaml:"hub_history"`
}

// PlaygroundConfig sets the control-bar defaults.
type PlaygroundConfig struct {
	ExecTimeMs int `mapstructure:"exec_time_ms" yaml:"exec_time_ms"`
	StepLimit  int `mapstructure:"step_limit" yaml:"step_limit"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	stateDir := filepath.Join(home, ".sourcecast", "state")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      stateDir,
		Recording: RecordingConfig{
			DBPath: filepath.Join(stateDir, "recordings.db"),
		},
		Sourcecast: SourcecastConfig{
			IndexPath: filepath.Join(stateDir, "index.json"),
			BaseURL:   "",
		},
		HTTP: HTTPConfig{
			Addr:       ":27490",
			BasePath:   "",
			HubHistory: 256,
		},
		Playground: PlaygroundConfig{
			ExecTimeMs: schema.DefaultExecTimeMs,
			StepLimit:  schema.DefaultStepLimit,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sourcecast", "config.yaml"), nil
}

// ServiceConfig maps the application config onto the core service config.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		StateDir:   c.StateDir,
		IndexPath:  c.Sourcecast.IndexPath,
		BaseURL:    c.Sourcecast.BaseURL,
		ExecTimeMs: c.Playground.ExecTimeMs,
		StepLimit:  c.Playground.StepLimit,
	}
}
