package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Dataset.TitlePrefix != "tt" {
		t.Errorf("expected TitlePrefix=tt, got %s", cfg.Dataset.TitlePrefix)
	}
	if cfg.Dataset.Layout != "person" {
		t.Errorf("expected Layout=person, got %s", cfg.Dataset.Layout)
	}
	if cfg.Report.Terminator != "=== Fine" {
		t.Errorf("expected Terminator='=== Fine', got %s", cfg.Report.Terminator)
	}
	if !cfg.Load.Parallel {
		t.Error("expected parallel loading by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("COLLAB_LAYOUT", "")
	t.Setenv("COLLAB_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "conf", "collab.yaml")

	cfg := DefaultConfig()
	cfg.Dataset.Layout = "title"
	cfg.Report.UnknownTitle = "Unknown Title"
	cfg.Load.Parallel = false

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Dataset.Layout != "title" {
		t.Errorf("expected Layout=title, got %s", loaded.Dataset.Layout)
	}
	if loaded.Report.UnknownTitle != "Unknown Title" {
		t.Errorf("expected UnknownTitle='Unknown Title', got %s", loaded.Report.UnknownTitle)
	}
	if loaded.Load.Parallel {
		t.Error("expected Parallel=false after reload")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collab.yaml")
	if err := os.WriteFile(path, []byte("report:\n  terminator: \"-- end\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Report.Terminator != "-- end" {
		t.Errorf("expected overridden terminator, got %q", cfg.Report.Terminator)
	}
	if cfg.Report.UnknownTitle != "Titolo Sconosciuto" {
		t.Errorf("expected default placeholder, got %q", cfg.Report.UnknownTitle)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("COLLAB_LAYOUT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dataset.Layout != "person" {
		t.Errorf("expected defaults, got %+v", cfg.Dataset)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collab.yaml")
	if err := os.WriteFile(path, []byte("dataset: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COLLAB_LAYOUT", "title")
	t.Setenv("COLLAB_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dataset.Layout != "title" {
		t.Errorf("expected Layout=title, got %s", cfg.Dataset.Layout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"title layout", func(c *Config) { c.Dataset.Layout = "Title" }, false},
		{"auto layout", func(c *Config) { c.Dataset.Layout = "auto" }, true},
		{"json logs", func(c *Config) { c.Logging.Format = "json" }, false},
		{"xml logs", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"multiline terminator", func(c *Config) { c.Report.Terminator = "a\nb" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
