// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package main is the entry point for the Tunegraph server.
//
// Tunegraph is the profile, trending and recommendation-caching core
// of a music streaming service. It ingests listening behavior events,
// maintains per-user taste profiles and global popularity signals,
// and serves section-based recommendation feeds backed by a TTL
// cache.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config.yaml and
//     TUNEGRAPH_* environment variables (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Catalog: track metadata provider
//  4. Profile manager and trending analyzer
//  5. Recommendation engine with its response cache
//  6. Supervisor tree: periodic jobs (cache maintenance, trending
//     recompute) and the HTTP API under suture supervision
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server
// drains in-flight requests within the shutdown timeout and the
// periodic jobs stop at their next tick.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/perhassle/tunegraph/internal/api"
	"github.com/perhassle/tunegraph/internal/catalog"
	"github.com/perhassle/tunegraph/internal/config"
	"github.com/perhassle/tunegraph/internal/logging"
	"github.com/perhassle/tunegraph/internal/profile"
	"github.com/perhassle/tunegraph/internal/recommend"
	"github.com/perhassle/tunegraph/internal/scheduler"
	"github.com/perhassle/tunegraph/internal/trending"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tunegraph: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logger := logging.Logger()
	logger.Info().Str("addr", cfg.Server.Addr).Msg("Tunegraph starting")

	// TODO(perhassle): replace the fixture with the catalog service
	// client once its API is stable.
	meta := catalog.NewFixture()

	profiles := profile.NewManager(meta, profile.Options{
		MaxBehaviorEvents: cfg.Profile.MaxBehaviorEvents,
		MaxGenres:         cfg.Profile.MaxGenres,
		MaxArtists:        cfg.Profile.MaxArtists,
	}, logger)

	trends := trending.NewAnalyzer(meta, trending.Options{
		ReferenceDuration: cfg.Trending.ReferenceDuration,
		VelocityThreshold: cfg.Trending.VelocityThreshold,
		MinPlayCount:      cfg.Trending.MinPlayCount,
		HistoryDays:       cfg.Trending.HistoryDays,
	}, logger)

	cache := recommend.NewCache(recommend.CacheOptions{
		MaxEntries: cfg.Cache.MaxEntries,
		DefaultTTL: cfg.Cache.DefaultTTL,
	}, logger)

	engine := recommend.NewEngine(profiles, trends, cache, nil, logger)

	handler := api.NewHandler(engine, profiles, trends, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Routes(handler, api.RouterConfig{IngestRateLimit: cfg.Server.IngestRateLimit}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	slogger := slog.New(logging.NewSlogHandler())
	tree := scheduler.NewTree(slogger, scheduler.TreeConfig{})
	tree.AddJob(scheduler.NewPeriodicService("cache-maintenance", cfg.Cache.MaintenanceInterval, false,
		func(context.Context) { cache.PerformMaintenance() }, logger))
	tree.AddJob(scheduler.NewPeriodicService("trending-sweep", cfg.Trending.SweepInterval, true,
		func(context.Context) { trends.RecomputeTrending() }, logger))
	tree.AddAPIService(scheduler.NewHTTPServerService(server, 0))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Tunegraph stopped")
	return nil
}
