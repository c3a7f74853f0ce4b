// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package metrics exposes Prometheus instrumentation for the recommendation
// core: behavior ingest volume, profile activity, cache efficiency and
// trending sweep cost. All collectors are registered on the default registry
// and served via promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BehaviorEvents counts ingested behavior events by action.
	BehaviorEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegraph_behavior_events_total",
			Help: "Total number of behavior events recorded, by action",
		},
		[]string{"action"},
	)

	// ProfileRebuilds counts full profile recomputations.
	ProfileRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunegraph_profile_rebuilds_total",
			Help: "Total number of full profile rebuilds",
		},
	)

	// ActiveProfiles tracks the number of user profiles held in memory.
	ActiveProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunegraph_active_profiles",
			Help: "Current number of in-memory user profiles",
		},
	)

	// CacheHits counts recommendation cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunegraph_recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	// CacheMisses counts recommendation cache misses (absent or expired).
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunegraph_recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	// CacheEvictions counts removed cache entries by cause.
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegraph_recommendation_cache_evictions_total",
			Help: "Total number of cache entries removed, by cause",
		},
		[]string{"cause"}, // "expired", "capacity", "invalidated"
	)

	// CacheEntries tracks the current cache size.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunegraph_recommendation_cache_entries",
			Help: "Current number of cached recommendation responses",
		},
	)

	// TrendingSweepDuration observes trending recompute sweep latency.
	TrendingSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tunegraph_trending_sweep_duration_seconds",
			Help:    "Duration of trending recompute sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TrendingTracks tracks how many tracks currently hold trending status.
	TrendingTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunegraph_trending_tracks",
			Help: "Current number of tracks flagged as trending",
		},
	)

	// RecommendationLatency observes end-to-end recommendation serving time.
	RecommendationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunegraph_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"section", "cache"}, // cache: "hit" or "miss"
	)
)
