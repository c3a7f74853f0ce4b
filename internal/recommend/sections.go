// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import "time"

// SectionType identifies a feed section of the home screen.
type SectionType string

// Feed sections. Each section has its own cache lifetime, matched to
// how quickly its contents go stale.
const (
	SectionFriendsListening SectionType = "friends_listening"
	SectionRecentlyPlayed   SectionType = "recently_played"
	SectionTrendingNow      SectionType = "trending_now"
	SectionMorningMix       SectionType = "morning_mix"
	SectionEveningChill     SectionType = "evening_chill"
	SectionNightDrive       SectionType = "night_drive"
	SectionMoodBooster      SectionType = "mood_booster"
	SectionChartsTop        SectionType = "charts_top"
	SectionNewReleases      SectionType = "new_releases"
	SectionDailyMix         SectionType = "daily_mix"
	SectionWorkoutMix       SectionType = "workout_mix"
	SectionRegionalHits     SectionType = "regional_hits"
	SectionDiscoverWeekly   SectionType = "discover_weekly"
	SectionHeavyRotation    SectionType = "heavy_rotation"
	SectionSimilarArtists   SectionType = "similar_artists"
	SectionArtistSpotlight  SectionType = "artist_spotlight"
	SectionFreshFinds       SectionType = "fresh_finds"
	SectionBecauseYouLiked  SectionType = "because_you_liked"
	SectionGenreBased       SectionType = "genre_based"
	SectionDecadeMix        SectionType = "decade_mix"
)

// sectionTTLs maps each section to its cache lifetime. Social and
// realtime sections expire within minutes, personalized mixes within
// the hour, and slow-moving editorial sections keep entries for hours.
var sectionTTLs = map[SectionType]time.Duration{
	SectionFriendsListening: 5 * time.Minute,
	SectionRecentlyPlayed:   10 * time.Minute,
	SectionTrendingNow:      15 * time.Minute,
	SectionMorningMix:       30 * time.Minute,
	SectionEveningChill:     30 * time.Minute,
	SectionNightDrive:       30 * time.Minute,
	SectionMoodBooster:      30 * time.Minute,
	SectionChartsTop:        time.Hour,
	SectionNewReleases:      time.Hour,
	SectionDailyMix:         time.Hour,
	SectionWorkoutMix:       time.Hour,
	SectionRegionalHits:     time.Hour,
	SectionDiscoverWeekly:   2 * time.Hour,
	SectionHeavyRotation:    2 * time.Hour,
	SectionSimilarArtists:   2 * time.Hour,
	SectionArtistSpotlight:  2 * time.Hour,
	SectionFreshFinds:       2 * time.Hour,
	SectionBecauseYouLiked:  2 * time.Hour,
	SectionGenreBased:       4 * time.Hour,
	SectionDecadeMix:        4 * time.Hour,
}

// TTL returns the cache lifetime for the section. Unknown sections
// fall back to the supplied default.
func (s SectionType) TTL(fallback time.Duration) time.Duration {
	if ttl, ok := sectionTTLs[s]; ok {
		return ttl
	}
	return fallback
}

// Valid reports whether s names a known feed section.
func (s SectionType) Valid() bool {
	_, ok := sectionTTLs[s]
	return ok
}
