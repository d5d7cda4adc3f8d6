// Copyright 2026 FoodBlock Protocol
//
// Unit tests for configuration loading
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("got port %q, want 8080", cfg.Port)
	}
	if cfg.ServerName != "foodblock-node" {
		t.Errorf("got server name %q, want foodblock-node", cfg.ServerName)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{RateLimitPerMinute: 100}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error when DATABASE_URL is empty")
	}
}

func TestLoadFileAppliesTrustPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foodblock.yaml")
	content := "recognized_authorities:\n  - \"auth1\"\n  - \"auth2\"\nrecognized_processors:\n  - \"proc1\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := &Config{}
	if err := loadFile(path, cfg); err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if len(cfg.RecognizedAuthorities) != 2 || cfg.RecognizedAuthorities[0] != "auth1" {
		t.Errorf("got authorities %v", cfg.RecognizedAuthorities)
	}
	if len(cfg.RecognizedProcessors) != 1 || cfg.RecognizedProcessors[0] != "proc1" {
		t.Errorf("got processors %v", cfg.RecognizedProcessors)
	}
}

func TestLoadFileRejectsMissingPath(t *testing.T) {
	cfg := &Config{}
	if err := loadFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err == nil {
		t.Error("expected an error for a nonexistent config file")
	}
}
