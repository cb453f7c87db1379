// Package config loads Stageboard settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// SourceConfig selects the authoritative schedule source.
type SourceConfig struct {
	// Kind is "static" (built-in mock schedule) or "sqlite".
	Kind   string `yaml:"kind"`
	DBPath string `yaml:"db_path"`
}

// ArtNetConfig configures the DMX brightness listener.
type ArtNetConfig struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	Universe    int  `yaml:"universe"`
	ChannelHigh int  `yaml:"channel_high"`
	ChannelLow  int  `yaml:"channel_low"`
}

// Config is the full service configuration.
type Config struct {
	Listen          string       `yaml:"listen"`
	StageName       string       `yaml:"stage_name"`
	Source          SourceConfig `yaml:"source"`
	RefreshInterval Duration     `yaml:"refresh_interval"`
	RefreshTimeout  Duration     `yaml:"refresh_timeout"`
	ArtNet          ArtNetConfig `yaml:"artnet"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Listen:          "127.0.0.1:8460",
		StageName:       "Main Stage",
		Source:          SourceConfig{Kind: "static", DBPath: home + "/.stageboard/stageboard.db"},
		RefreshInterval: Duration(30 * time.Second),
		RefreshTimeout:  Duration(10 * time.Second),
		ArtNet: ArtNetConfig{
			Enabled:     false,
			Port:        6454,
			Universe:    0,
			ChannelHigh: 1,
			ChannelLow:  2,
		},
	}
}

// Load reads the config file at path (defaults apply when path is empty or
// the file is missing) and then applies STAGEBOARD_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STAGEBOARD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("STAGEBOARD_STAGE_NAME"); v != "" {
		c.StageName = v
	}
	if v := os.Getenv("STAGEBOARD_SOURCE"); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv("STAGEBOARD_DB_PATH"); v != "" {
		c.Source.DBPath = v
	}
	if v := os.Getenv("STAGEBOARD_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RefreshInterval = Duration(d)
		}
	}
	if v := os.Getenv("STAGEBOARD_ARTNET_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ArtNet.Enabled = b
		}
	}
	if v := os.Getenv("STAGEBOARD_ARTNET_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ArtNet.Port = n
		}
	}
	if v := os.Getenv("STAGEBOARD_ARTNET_UNIVERSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ArtNet.Universe = n
		}
	}
}
