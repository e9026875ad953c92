package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Theme != "auto" {
		t.Errorf("theme: got %q, want %q", cfg.Theme, "auto")
	}
	if cfg.Grouping != "directory" {
		t.Errorf("grouping: got %q, want %q", cfg.Grouping, "directory")
	}
	if !cfg.Physics {
		t.Error("physics: got false, want true")
	}
	if cfg.ExportPath != "SBOM.dot" {
		t.Errorf("export path: got %q, want %q", cfg.ExportPath, "SBOM.dot")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `theme = "dark"
grouping = "sbom"
physics = false

[colors]
highlight = "#ff0000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Errorf("theme: got %q, want %q", cfg.Theme, "dark")
	}
	if cfg.Grouping != "sbom" {
		t.Errorf("grouping: got %q, want %q", cfg.Grouping, "sbom")
	}
	if cfg.Physics {
		t.Error("physics: got true, want false")
	}
	if cfg.Colors.Highlight != "#ff0000" {
		t.Errorf("highlight: got %q, want %q", cfg.Colors.Highlight, "#ff0000")
	}
	// Unset colors keep their defaults.
	if cfg.Colors.DarkNode != Default().Colors.DarkNode {
		t.Errorf("dark node: got %q, want default", cfg.Colors.DarkNode)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SBOMVIS_THEME", "light")
	t.Setenv("SBOMVIS_PHYSICS", "false")
	t.Setenv("SBOMVIS_HIDE_ISOLATES", "true")
	t.Setenv("SBOMVIS_EXPORT_FORMAT", "json")
	t.Setenv("SBOMVIS_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Theme != "light" {
		t.Errorf("theme: got %q, want %q", cfg.Theme, "light")
	}
	if cfg.Physics {
		t.Error("physics: got true, want false")
	}
	if !cfg.HideIsolates {
		t.Error("hide isolates: got false, want true")
	}
	if cfg.ExportFormat != "json" {
		t.Errorf("export format: got %q, want %q", cfg.ExportFormat, "json")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("SBOMVIS_PHYSICS", "not-a-bool")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Physics {
		t.Error("physics: got false, want default true")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"theme", `theme = "sepia"`, "theme"},
		{"grouping", `grouping = "vendor"`, "grouping"},
		{"format", `export_format = "png"`, "export_format"},
		{"color", "[colors]\nhighlight = \"yellow\"", "colors.highlight"},
		{"syntax", `theme = `, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
