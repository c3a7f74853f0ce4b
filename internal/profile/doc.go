// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

/*
Package profile maintains per-user behavioral profiles for recommendations.

# Overview

Two components live here:

  - BehaviorStore: an append-only per-user event log bounded to the most
    recent 1000 events (FIFO eviction).
  - Manager: derives and caches a Profile per user, covering genre and
    artist affinity scores, listening patterns, skip behavior,
    audio-feature and time-of-day preferences.

# Update model

Profiles are maintained two ways:

  - Incremental: RecordBehavior folds a single event into the cached
    profile, bumping the matching preference counters and recomputing that
    entry's score in place. Cheap, runs on every interaction.
  - Full rebuild: RebuildProfile recomputes everything from the whole log.
    This corrects drift from incremental updates and regenerates the
    derived fields the incremental path does not touch (listening patterns,
    time-based genres, social preferences, audio features).

Profile.Version increases on every mutation and is the cache-invalidation
signal consumed by the recommendation cache's owner.

# Scoring

Genre affinity triple-penalizes genres that are played often but skipped
quickly or barely listened to:

	score = (playCount / totalInteractions)
	      x (1 - min(skipRate x 2, 1))
	      x min(averageListenTime / 30s, 1)

Artist affinity drops the listen-time factor and boosts followed artists by
1.2x. All scores are clamped to [0,1].

# Failure semantics

Absence of data yields defaults, never errors: unknown users get a seeded
default profile, empty aggregates compute to zero, and every division is
guarded. Malformed events are dropped with a warning.

# Concurrency

Operations on one user are serialized by a per-user mutex; operations on
distinct users run in parallel.
*/
package profile
