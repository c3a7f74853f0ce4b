// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import (
	"time"
)

// Track is a recommended track as returned to the consuming layer.
type Track struct {
	TrackID  string        `json:"track_id"`
	Title    string        `json:"title"`
	ArtistID string        `json:"artist_id"`
	Genre    string        `json:"genre"`
	Duration time.Duration `json:"duration"`

	// Score is the recommendation score in [0,1], higher is better.
	Score float64 `json:"score"`

	// Reason is an interpretable explanation for the recommendation.
	Reason string `json:"reason,omitempty"`
}

// Level grades a request preference such as diversity or freshness.
type Level string

const (
	// LevelLow requests minimal weight on the preference.
	LevelLow Level = "low"
	// LevelMedium is the balanced default.
	LevelMedium Level = "medium"
	// LevelHigh requests maximal weight on the preference.
	LevelHigh Level = "high"
)

// Context carries contextual information about the listening situation.
type Context struct {
	TimeOfDay string `json:"time_of_day,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`
	Season    string `json:"season,omitempty"`
	Activity  string `json:"activity,omitempty"`
	Mood      string `json:"mood,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Request asks for recommendations for one feed section.
type Request struct {
	// UserID is the user to recommend for.
	UserID string `json:"user_id"`

	// Section is the feed section being populated.
	Section SectionType `json:"section_type"`

	// Limit is the number of tracks requested. Defaults to 20.
	Limit int `json:"limit,omitempty"`

	// Algorithm optionally pins a generation algorithm.
	Algorithm string `json:"algorithm,omitempty"`

	// DiversityLevel and FreshnessLevel tune the generation tradeoffs.
	DiversityLevel Level `json:"diversity_level,omitempty"`
	FreshnessLevel Level `json:"freshness_level,omitempty"`

	// ExcludeTrackIDs are tracks that must not appear in the response.
	ExcludeTrackIDs []string `json:"exclude_track_ids,omitempty"`

	// Seed lists steer generation toward specific tracks, artists or
	// genres.
	SeedTracks  []string `json:"seed_tracks,omitempty"`
	SeedArtists []string `json:"seed_artists,omitempty"`
	SeedGenres  []string `json:"seed_genres,omitempty"`

	// Context describes the listening situation, when known.
	Context *Context `json:"context,omitempty"`
}

// Response is the recommendation payload for one request.
type Response struct {
	Tracks         []Track   `json:"tracks"`
	TotalAvailable int       `json:"total_available"`
	Algorithm      string    `json:"algorithm"`
	GeneratedAt    time.Time `json:"generated_at"`
	ValidUntil     time.Time `json:"valid_until"`

	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id"`

	// CacheHit indicates the response was served from cache.
	CacheHit bool `json:"cache_hit"`

	// ProcessingTime is the generation latency. Zero for cache hits.
	ProcessingTime time.Duration `json:"processing_time"`

	// ProfileVersion is the profile version the response was built
	// against, when generation consulted the profile.
	ProfileVersion int64 `json:"profile_version,omitempty"`
}

// normalized returns a copy of the request with defaults applied.
func (r Request) normalized() Request {
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Section == "" {
		r.Section = SectionDiscoverWeekly
	}
	if r.DiversityLevel == "" {
		r.DiversityLevel = LevelMedium
	}
	if r.FreshnessLevel == "" {
		r.FreshnessLevel = LevelMedium
	}
	return r
}
