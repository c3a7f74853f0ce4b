// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package recommend serves recommendation responses for feed
// sections, caching generated results per section lifetime.
//
// # Request flow
//
// The Engine is the single entry point. Behavior events fan out to
// the profile manager and the trending analyzer, and drop the user's
// cached responses. Recommendation requests check the response cache
// first; on a miss the configured Generator builds and ranks the
// track list, and the result is cached under the section's lifetime.
//
// # Cache keys
//
// Cache keys are derived from the canonical form of a request:
// list-valued fields are sorted and empty optional fields omitted, so
// semantically identical requests share one cache entry regardless of
// field order on the wire.
//
// # Eviction
//
// Entries expire per section lifetime and are reclaimed lazily on
// read. PerformMaintenance sweeps expired entries in bulk and, when
// the cache exceeds 90% of capacity, evicts the oldest 10% of entries
// by last access time. The same capacity eviction runs inline before
// an insert into a full cache.
package recommend
