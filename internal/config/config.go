package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable settings read from
// ~/.config/gosh/config.yaml. Every field has a working default so a missing
// file is not an error.
type Config struct {
	Prompt      string        `yaml:"prompt"`
	HistoryFile string        `yaml:"history_file"`
	LogFile     string        `yaml:"log_file"`
	LogLevel    string        `yaml:"log_level"`
	TabWidth    int           `yaml:"tab_width"`
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

func Default() Config {
	return Config{
		Prompt:      "> ",
		HistoryFile: HistoryFile(),
		LogFile:     LogFile(),
		LogLevel:    "info",
		TabWidth:    4,
		EvalTimeout: 30 * time.Second,
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.TabWidth <= 0 {
		cfg.TabWidth = Default().TabWidth
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = Default().EvalTimeout
	}

	return cfg, nil
}
