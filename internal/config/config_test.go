package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug: got false, want true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.TopN != 10 {
		t.Errorf("top_n: got %d, want 10", cfg.Recommend.TopN)
	}
	if cfg.Auth.MinUsernameLen != 3 || cfg.Auth.MinPasswordLen != 6 {
		t.Errorf("auth policy: got %d/%d", cfg.Auth.MinUsernameLen, cfg.Auth.MinPasswordLen)
	}
	if cfg.Poster.BaseURL == "" || cfg.Poster.ImageBaseURL == "" {
		t.Error("poster URLs not defaulted")
	}
	if cfg.Watch.Enabled {
		t.Error("watch should default to disabled")
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "storage:\n  dataset_path: ./movies.csv\n  catalog_path: ./catalog.gob\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(cfg.Storage.DatasetPath) {
		t.Errorf("dataset_path not absolute: %s", cfg.Storage.DatasetPath)
	}
	if filepath.Dir(cfg.Storage.DatasetPath) != dir {
		t.Errorf("dataset_path: got %s, want under %s", cfg.Storage.DatasetPath, dir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
