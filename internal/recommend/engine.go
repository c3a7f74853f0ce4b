// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/metrics"
	"github.com/perhassle/tunegraph/internal/profile"
	"github.com/perhassle/tunegraph/internal/trending"
)

// Request validation errors.
var (
	ErrMissingUserID  = errors.New("recommend: user id is required")
	ErrUnknownSection = errors.New("recommend: unknown section type")
)

// Generator produces recommendation responses on cache misses. The
// engine fills in request IDs, timing metadata and cache lifetimes;
// generators only rank tracks.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Engine is the facade over the profile manager, the trending
// analyzer and the response cache. It routes behavior events to both
// aggregators and serves recommendation requests cache-first.
type Engine struct {
	profiles  *profile.Manager
	trends    *trending.Analyzer
	cache     *Cache
	generator Generator
	logger    zerolog.Logger

	requests  atomic.Int64
	cacheHits atomic.Int64
}

// NewEngine wires an engine. A nil generator falls back to the
// built-in profile-and-trending generator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(profiles *profile.Manager, trends *trending.Analyzer, cache *Cache, gen Generator, logger zerolog.Logger) *Engine {
	if gen == nil {
		gen = newSectionGenerator(profiles, trends)
	}
	return &Engine{
		profiles:  profiles,
		trends:    trends,
		cache:     cache,
		generator: gen,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// RecordBehavior routes one behavior event to the profile manager and
// the trending analyzer, then drops the user's cached recommendations
// since they were built against the previous profile.
func (e *Engine) RecordBehavior(b profile.Behavior) {
	e.RecordBehaviorContext(b, trending.PlayContext{})
}

// RecordBehaviorContext is RecordBehavior with regional and
// demographic play dimensions attached.
func (e *Engine) RecordBehaviorContext(b profile.Behavior, ctx trending.PlayContext) {
	e.profiles.RecordBehavior(b)

	switch b.Action {
	case profile.ActionPlay:
		e.trends.RecordPlayContext(b.TrackID, b.UserID, b.ListenDuration, ctx)
	case profile.ActionSkip:
		e.trends.RecordSkip(b.TrackID, b.UserID)
	case profile.ActionShare:
		e.trends.RecordShare(b.TrackID, b.UserID)
	case profile.ActionAddToPlaylist:
		e.trends.RecordPlaylistAddition(b.TrackID, b.UserID)
	}

	e.cache.InvalidateUser(b.UserID)
}

// Recommend serves a recommendation request, preferring the cache and
// falling back to the generator. Generated responses are cached under
// the section lifetime before being returned.
func (e *Engine) Recommend(ctx context.Context, req Request) (Response, error) {
	if req.UserID == "" {
		return Response{}, ErrMissingUserID
	}
	req = req.normalized()
	if !req.Section.Valid() {
		return Response{}, ErrUnknownSection
	}

	e.requests.Add(1)
	start := time.Now()

	if resp, ok := e.cache.Get(req); ok {
		e.cacheHits.Add(1)
		metrics.RecommendationLatency.WithLabelValues(string(req.Section), "hit").
			Observe(time.Since(start).Seconds())
		return resp, nil
	}

	resp, err := e.generator.Generate(ctx, req)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", req.UserID).
			Str("section", string(req.Section)).Msg("Recommendation generation failed")
		return Response{}, err
	}

	resp.GeneratedAt = time.Now()
	resp.Metadata.RequestID = uuid.NewString()
	resp.Metadata.CacheHit = false
	resp.Metadata.ProcessingTime = time.Since(start)
	resp.Metadata.ProfileVersion = e.profiles.ProfileVersion(req.UserID)

	resp.ValidUntil = e.cache.Set(req, resp)
	metrics.RecommendationLatency.WithLabelValues(string(req.Section), "miss").
		Observe(time.Since(start).Seconds())
	return resp, nil
}

// InvalidateUser drops all cached recommendations for the user.
func (e *Engine) InvalidateUser(userID string) int {
	return e.cache.InvalidateUser(userID)
}

// InvalidateUserSection drops the user's cached recommendations for a
// single section.
func (e *Engine) InvalidateUserSection(userID string, section SectionType) int {
	return e.cache.InvalidateUserSection(userID, section)
}

// Stats reports request counters since startup.
func (e *Engine) Stats() (requests, hits int64) {
	return e.requests.Load(), e.cacheHits.Load()
}
