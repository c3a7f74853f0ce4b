// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package config provides layered configuration for Tunegraph using Koanf v2.
//
// Configuration is loaded from three sources, highest priority last:
//
//  1. Built-in defaults
//  2. Config file (config.yaml, or the path in TUNEGRAPH_CONFIG)
//  3. Environment variables (TUNEGRAPH_ prefix, "__" as section delimiter,
//     e.g. TUNEGRAPH_CACHE__MAX_ENTRIES=2000 -> cache.max_entries)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "TUNEGRAPH_CONFIG"

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tunegraph/config.yaml",
}

// Config is the root configuration for the service.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Server   ServerConfig   `koanf:"server"`
	Profile  ProfileConfig  `koanf:"profile"`
	Trending TrendingConfig `koanf:"trending"`
	Cache    CacheConfig    `koanf:"cache"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8642".
	Addr string `koanf:"addr"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IngestRateLimit is the per-IP behavior-ingest limit per minute.
	// Zero disables rate limiting.
	IngestRateLimit int `koanf:"ingest_rate_limit"`
}

// ProfileConfig controls the behavior store and profile manager.
type ProfileConfig struct {
	// MaxBehaviorEvents bounds the per-user behavior log (FIFO eviction).
	MaxBehaviorEvents int `koanf:"max_behavior_events"`

	// MaxGenres is the number of genre preferences retained per user.
	MaxGenres int `koanf:"max_genres"`

	// MaxArtists is the number of artist preferences retained per user.
	MaxArtists int `koanf:"max_artists"`
}

// TrendingConfig controls the trending analyzer.
type TrendingConfig struct {
	// ReferenceDuration is the track length used to derive completion rates
	// from observed listen durations.
	ReferenceDuration time.Duration `koanf:"reference_duration"`

	// VelocityThreshold is the minimum velocity for trending status.
	VelocityThreshold float64 `koanf:"velocity_threshold"`

	// MinPlayCount is the minimum lifetime play count for trending status.
	MinPlayCount int64 `koanf:"min_play_count"`

	// SweepInterval is how often the trending recompute service runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// HistoryDays is the rolling window kept for daily play history.
	HistoryDays int `koanf:"history_days"`
}

// CacheConfig controls the recommendation response cache.
type CacheConfig struct {
	// MaxEntries is the cache capacity; eviction triggers at this size.
	MaxEntries int `koanf:"max_entries"`

	// DefaultTTL applies to section types without an explicit TTL.
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaintenanceInterval is how often the maintenance sweep runs.
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// Default returns a Config with all default values applied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Server: ServerConfig{
			Addr:            ":8642",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IngestRateLimit: 600,
		},
		Profile: ProfileConfig{
			MaxBehaviorEvents: 1000,
			MaxGenres:         20,
			MaxArtists:        50,
		},
		Trending: TrendingConfig{
			ReferenceDuration: 210 * time.Second,
			VelocityThreshold: 1.5,
			MinPlayCount:      1000,
			SweepInterval:     5 * time.Minute,
			HistoryDays:       30,
		},
		Cache: CacheConfig{
			MaxEntries:          1000,
			DefaultTTL:          30 * time.Minute,
			MaintenanceInterval: 10 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional config file and
// environment variables.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile builds the configuration using an explicit config file path.
// An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("TUNEGRAPH_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime behavior.
func (c *Config) Validate() error {
	if c.Profile.MaxBehaviorEvents <= 0 {
		return fmt.Errorf("profile.max_behavior_events must be positive, got %d", c.Profile.MaxBehaviorEvents)
	}
	if c.Profile.MaxGenres <= 0 || c.Profile.MaxArtists <= 0 {
		return fmt.Errorf("profile retention limits must be positive (genres=%d, artists=%d)",
			c.Profile.MaxGenres, c.Profile.MaxArtists)
	}
	if c.Trending.ReferenceDuration <= 0 {
		return fmt.Errorf("trending.reference_duration must be positive, got %s", c.Trending.ReferenceDuration)
	}
	if c.Trending.VelocityThreshold <= 0 {
		return fmt.Errorf("trending.velocity_threshold must be positive, got %f", c.Trending.VelocityThreshold)
	}
	if c.Trending.HistoryDays <= 1 {
		return fmt.Errorf("trending.history_days must be at least 2, got %d", c.Trending.HistoryDays)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive, got %s", c.Cache.DefaultTTL)
	}
	return nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to koanf paths.
// TUNEGRAPH_CACHE__MAX_ENTRIES -> cache.max_entries
func envTransform(key string) string {
	key = strings.TrimPrefix(key, "TUNEGRAPH_")
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}
