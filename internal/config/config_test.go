package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Scan.ModelRoots) == 0 || cfg.Scan.ModelRoots[0] != "models" {
		t.Errorf("expected default model root models, got %v", cfg.Scan.ModelRoots)
	}
	if cfg.Analysis.DuplicateTiebreak != "first" {
		t.Errorf("expected default tiebreak first, got %q", cfg.Analysis.DuplicateTiebreak)
	}
	if cfg.Output.DefaultFormat != "yaml" {
		t.Errorf("expected default format yaml, got %q", cfg.Output.DefaultFormat)
	}
	if !cfg.ReservedSet()["res.partner"] {
		t.Error("res.partner missing from default reserved set")
	}
	if len(cfg.Rules()) == 0 {
		t.Error("expected built-in synthesis rules")
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("LoadFromPath failed: %v", err)
		}
		if cfg.Output.DefaultFormat != "yaml" {
			t.Errorf("expected defaults, got %+v", cfg.Output)
		}
	})

	t.Run("loaded values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		content := `scan:
  model_roots:
    - src/models
analysis:
  duplicate_tiebreak: last
  critical_views:
    - "*_form_*"
output:
  default_format: json
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("LoadFromPath failed: %v", err)
		}
		if cfg.Scan.ModelRoots[0] != "src/models" {
			t.Errorf("model roots not overridden: %v", cfg.Scan.ModelRoots)
		}
		if cfg.Analysis.DuplicateTiebreak != "last" {
			t.Errorf("tiebreak not overridden: %q", cfg.Analysis.DuplicateTiebreak)
		}
		if len(cfg.Analysis.CriticalViews) != 1 {
			t.Errorf("critical views not loaded: %v", cfg.Analysis.CriticalViews)
		}
		if cfg.Output.DefaultFormat != "json" {
			t.Errorf("format not overridden: %q", cfg.Output.DefaultFormat)
		}
		// Untouched sections keep defaults.
		if len(cfg.Scan.ViewRoots) == 0 || cfg.Scan.ViewRoots[0] != "views" {
			t.Errorf("view roots should fall back to defaults, got %v", cfg.Scan.ViewRoots)
		}
	})

	t.Run("reserved models extend the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		content := `analysis:
  reserved_models:
    - x.frozen.core
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("LoadFromPath failed: %v", err)
		}
		set := cfg.ReservedSet()
		if !set["x.frozen.core"] {
			t.Error("configured reserved model missing")
		}
		if !set["res.partner"] {
			t.Error("default reserved model lost after merge")
		}
	})

	t.Run("invalid tiebreak rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		if err := os.WriteFile(path, []byte("analysis:\n  duplicate_tiebreak: newest\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid synthesis rule rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		content := `synthesis:
  rules:
    - name: broken
      match: regex
      pattern: x
      type: text
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		if err := os.WriteFile(path, []byte("scan: [unclosed"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadFromPath(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	t.Run("finds dir in ancestor", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ConfigDirName)
		nested := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(nested, 0755); err != nil {
			t.Fatal(err)
		}

		found, err := FindConfigDir(nested)
		if err != nil {
			t.Fatalf("FindConfigDir failed: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := FindConfigDir(t.TempDir())
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureConfigDir(root)
	if err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("config dir not created: %v", err)
	}

	// Idempotent.
	again, err := EnsureConfigDir(root)
	if err != nil || again != dir {
		t.Fatalf("second call should return the same dir, got %s (%v)", again, err)
	}
}
