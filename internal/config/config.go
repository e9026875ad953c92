// Package config loads sbomvis settings from a TOML file and SBOMVIS_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/latebit/sbomvis/internal/palette"
)

// Colors holds the node colors for each scheme and the search highlight.
type Colors struct {
	DarkNode  string `toml:"dark_node"`
	DarkText  string `toml:"dark_text"`
	LightNode string `toml:"light_node"`
	LightText string `toml:"light_text"`
	Highlight string `toml:"highlight"`
}

// Config holds the viewer configuration.
type Config struct {
	Theme        string `toml:"theme"`    // dark, light, auto
	Grouping     string `toml:"grouping"` // directory, sbom
	Physics      bool   `toml:"physics"`
	HideIsolates bool   `toml:"hide_isolates"`
	ExportFormat string `toml:"export_format"` // dot, json
	ExportPath   string `toml:"export_path"`
	Watch        bool   `toml:"watch"`
	LogFormat    string `toml:"log_format"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	Colors       Colors `toml:"colors"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Theme:        palette.ModeAuto,
		Grouping:     "directory",
		Physics:      true,
		ExportFormat: "dot",
		ExportPath:   "SBOM.dot",
		LogFormat:    "text",
		LogLevel:     "info",
		Colors: Colors{
			DarkNode:  "#9ecbff",
			DarkText:  "#e6edf3",
			LightNode: "#0969da",
			LightText: "#1f2328",
			Highlight: "#f2cc60",
		},
	}
}

// DefaultPath returns the default config file path (~/.sbomvis/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sbomvis", "config.toml")
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config %q: %w", path, err)
		default:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Theme = getEnv("SBOMVIS_THEME", c.Theme)
	c.Grouping = getEnv("SBOMVIS_GROUPING", c.Grouping)
	c.Physics = getEnvAsBool("SBOMVIS_PHYSICS", c.Physics)
	c.HideIsolates = getEnvAsBool("SBOMVIS_HIDE_ISOLATES", c.HideIsolates)
	c.ExportFormat = getEnv("SBOMVIS_EXPORT_FORMAT", c.ExportFormat)
	c.ExportPath = getEnv("SBOMVIS_EXPORT_PATH", c.ExportPath)
	c.Watch = getEnvAsBool("SBOMVIS_WATCH", c.Watch)
	c.LogFormat = getEnv("SBOMVIS_LOG_FORMAT", c.LogFormat)
	c.LogLevel = getEnv("SBOMVIS_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("SBOMVIS_LOG_FILE", c.LogFile)
}

// Validate rejects unknown enumerated values and malformed colors.
func (c *Config) Validate() error {
	switch c.Theme {
	case palette.ModeDark, palette.ModeLight, palette.ModeAuto:
	default:
		return fmt.Errorf("theme: unknown value %q (want dark, light or auto)", c.Theme)
	}
	switch c.Grouping {
	case "directory", "sbom":
	default:
		return fmt.Errorf("grouping: unknown value %q (want directory or sbom)", c.Grouping)
	}
	switch c.ExportFormat {
	case "dot", "json":
	default:
		return fmt.Errorf("export_format: unknown value %q (want dot or json)", c.ExportFormat)
	}
	for name, v := range map[string]string{
		"dark_node":  c.Colors.DarkNode,
		"dark_text":  c.Colors.DarkText,
		"light_node": c.Colors.LightNode,
		"light_text": c.Colors.LightText,
		"highlight":  c.Colors.Highlight,
	} {
		if !palette.Valid(v) {
			return fmt.Errorf("colors.%s: %q is not a hex color", name, v)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
