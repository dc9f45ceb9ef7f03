package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the lattice configuration file
// (~/.config/lattice/config.yaml). Geometry fields are pointers so "not
// set" is distinguishable from zero.
type Config struct {
	Rows  *int64 `yaml:"rows"`
	Cols  *int64 `yaml:"cols"`
	Width *int64 `yaml:"width"`
	Tile  *int64 `yaml:"tile"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lattice", "config.yaml")
}

// loadConfig reads the config file if present. A missing file is not an
// error; a malformed one is.
func loadConfig() (Config, error) {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyConfig layers config file defaults under any flag the user did not
// set explicitly.
func applyConfig(c *cli.Command, cfg Config) {
	if cfg.Rows != nil && !c.IsSet("rows") {
		gridRows = *cfg.Rows
	}
	if cfg.Cols != nil && !c.IsSet("cols") {
		gridCols = *cfg.Cols
	}
	if cfg.Width != nil && !c.IsSet("width") {
		vecWidth = *cfg.Width
	}
	if cfg.Tile != nil && !c.IsSet("tile") {
		tileWidth = *cfg.Tile
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}
