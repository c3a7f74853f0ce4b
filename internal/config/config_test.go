// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate, got %v", err)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") failed: %v", err)
	}

	if cfg.Profile.MaxBehaviorEvents != 1000 {
		t.Errorf("Expected default max_behavior_events 1000, got %d", cfg.Profile.MaxBehaviorEvents)
	}
	if cfg.Cache.MaxEntries != 1000 {
		t.Errorf("Expected default cache max_entries 1000, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Trending.MinPlayCount != 1000 {
		t.Errorf("Expected default min_play_count 1000, got %d", cfg.Trending.MinPlayCount)
	}
}

func TestLoadFile_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
cache:
  max_entries: 500
  default_ttl: 15m
trending:
  velocity_threshold: 2.0
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("Expected file override max_entries 500, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.DefaultTTL != 15*time.Minute {
		t.Errorf("Expected file override default_ttl 15m, got %s", cfg.Cache.DefaultTTL)
	}
	if cfg.Trending.VelocityThreshold != 2.0 {
		t.Errorf("Expected file override velocity_threshold 2.0, got %f", cfg.Trending.VelocityThreshold)
	}
	// Untouched sections keep defaults
	if cfg.Profile.MaxGenres != 20 {
		t.Errorf("Expected default max_genres 20, got %d", cfg.Profile.MaxGenres)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  max_entries: 500\n"), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	t.Setenv("TUNEGRAPH_CACHE__MAX_ENTRIES", "2000")
	t.Setenv("TUNEGRAPH_LOGGING__LEVEL", "debug")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Cache.MaxEntries != 2000 {
		t.Errorf("Expected env override max_entries 2000, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected env override level debug, got %q", cfg.Logging.Level)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero behavior bound", func(c *Config) { c.Profile.MaxBehaviorEvents = 0 }},
		{"negative genre limit", func(c *Config) { c.Profile.MaxGenres = -1 }},
		{"zero reference duration", func(c *Config) { c.Trending.ReferenceDuration = 0 }},
		{"zero velocity threshold", func(c *Config) { c.Trending.VelocityThreshold = 0 }},
		{"one history day", func(c *Config) { c.Trending.HistoryDays = 1 }},
		{"zero cache size", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"zero default ttl", func(c *Config) { c.Cache.DefaultTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TUNEGRAPH_CACHE__MAX_ENTRIES", "cache.max_entries"},
		{"TUNEGRAPH_SERVER__ADDR", "server.addr"},
		{"TUNEGRAPH_TRENDING__MIN_PLAY_COUNT", "trending.min_play_count"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
