// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package profile

import (
	"time"
)

// Action classifies a user interaction with a track.
type Action string

const (
	// ActionPlay indicates the track was played.
	ActionPlay Action = "play"
	// ActionSkip indicates the track was skipped.
	ActionSkip Action = "skip"
	// ActionShare indicates the track was shared.
	ActionShare Action = "share"
	// ActionAddToPlaylist indicates the track was added to a playlist.
	ActionAddToPlaylist Action = "add-to-playlist"
)

// Valid reports whether the action is one of the known values.
func (a Action) Valid() bool {
	switch a {
	case ActionPlay, ActionSkip, ActionShare, ActionAddToPlaylist:
		return true
	}
	return false
}

// TimeOfDay buckets the clock into four listening periods.
type TimeOfDay string

const (
	// Morning covers 05:00-11:59.
	Morning TimeOfDay = "morning"
	// Afternoon covers 12:00-16:59.
	Afternoon TimeOfDay = "afternoon"
	// Evening covers 17:00-21:59.
	Evening TimeOfDay = "evening"
	// Night covers 22:00-04:59.
	Night TimeOfDay = "night"
)

// TimeOfDayFor returns the listening period for a wall-clock time.
func TimeOfDayFor(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 22:
		return Evening
	default:
		return Night
	}
}

// Behavior is an immutable record of a single user interaction.
// Events are never mutated after creation; the store prunes the oldest
// events once a user's log exceeds its bound.
type Behavior struct {
	UserID    string    `json:"user_id"`
	TrackID   string    `json:"track_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`

	// ListenDuration is how long the user listened before the action.
	// Zero when not reported.
	ListenDuration time.Duration `json:"listen_duration,omitempty"`

	// TimeOfDay is the listening period of the event. Derived from
	// Timestamp when empty.
	TimeOfDay TimeOfDay `json:"time_of_day,omitempty"`
}

// GenrePreference is a derived per-genre affinity entry. The manager keeps
// the top entries by score and discards the rest.
type GenrePreference struct {
	Genre             string        `json:"genre"`
	Score             float64       `json:"score"`
	PlayCount         int64         `json:"play_count"`
	SkipRate          float64       `json:"skip_rate"`
	AverageListenTime time.Duration `json:"average_listen_time"`
	RecentActivity    time.Time     `json:"recent_activity"`

	skipCount   int64
	totalListen time.Duration
}

// ArtistPreference is a derived per-artist affinity entry.
type ArtistPreference struct {
	ArtistID       string    `json:"artist_id"`
	Score          float64   `json:"score"`
	PlayCount      int64     `json:"play_count"`
	SkipRate       float64   `json:"skip_rate"`
	FollowStatus   bool      `json:"follow_status"`
	RecentActivity time.Time `json:"recent_activity"`

	skipCount int64
}

// ListeningPattern aggregates activity for one time-of-day x day-of-week slot.
type ListeningPattern struct {
	TimeOfDay TimeOfDay    `json:"time_of_day"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	PlayCount int64        `json:"play_count"`
	TopGenres []string     `json:"top_genres,omitempty"`
}

// SkipBehavior aggregates skip statistics across all of a user's events.
type SkipBehavior struct {
	SkipRate         float64       `json:"skip_rate"`
	AverageSkipPoint time.Duration `json:"average_skip_point"`
	SkipAfterRepeat  bool          `json:"skip_after_repeat"`
	SkipLongTracks   bool          `json:"skip_long_tracks"`
	TotalSkips       int64         `json:"total_skips"`
	TotalPlays       int64         `json:"total_plays"`
}

// AudioFeaturePreferences holds mean acoustic preferences over played tracks.
type AudioFeaturePreferences struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
	SampleCount  int64   `json:"sample_count"`
}

// SocialPreferences holds social interaction aggregates.
type SocialPreferences struct {
	ShareCount        int64   `json:"share_count"`
	PlaylistAdditions int64   `json:"playlist_additions"`
	InfluenceScore    float64 `json:"influence_score"`
}

// Profile is the aggregate behavioral profile for one user. Version is
// incremented on every mutation and serves as a cache-invalidation signal.
type Profile struct {
	UserID            string                      `json:"user_id"`
	FavoriteGenres    []GenrePreference           `json:"favorite_genres"`
	FavoriteArtists   []ArtistPreference          `json:"favorite_artists"`
	ListeningPatterns map[string]ListeningPattern `json:"listening_patterns"`
	SkipBehavior      SkipBehavior                `json:"skip_behavior"`
	AudioFeatures     AudioFeaturePreferences     `json:"audio_features"`
	TimeBasedGenres   map[TimeOfDay][]string      `json:"time_based_genres"`
	Social            SocialPreferences           `json:"social"`
	TotalInteractions int64                       `json:"total_interactions"`
	Version           int64                       `json:"version"`
	LastUpdated       time.Time                   `json:"last_updated"`
}

// PatternKey builds the ListeningPatterns map key for a slot.
func PatternKey(tod TimeOfDay, day time.Weekday) string {
	return string(tod) + ":" + day.String()
}

// defaultTimeBasedGenres seeds time-of-day genre preferences for users with
// no behavior history.
func defaultTimeBasedGenres() map[TimeOfDay][]string {
	return map[TimeOfDay][]string{
		Morning:   {"Pop", "Indie"},
		Afternoon: {"Rock", "Hip-Hop"},
		Evening:   {"R&B", "Electronic"},
		Night:     {"Jazz", "Classical"},
	}
}

// SocialSignals is the collaborator seam for social data this core does not
// own. The default implementation returns zero values; a real implementation
// is injected by the hosting application.
type SocialSignals interface {
	// FollowsArtist reports whether the user follows the artist.
	FollowsArtist(userID, artistID string) bool

	// IsPlaylistLiked reports whether the user liked the playlist.
	IsPlaylistLiked(userID, playlistID string) bool

	// InfluenceScore returns the user's social influence score in [0,1].
	InfluenceScore(userID string) float64
}

// NoopSocialSignals is the default SocialSignals with no social data.
type NoopSocialSignals struct{}

// FollowsArtist always returns false.
func (NoopSocialSignals) FollowsArtist(string, string) bool { return false }

// IsPlaylistLiked always returns false.
func (NoopSocialSignals) IsPlaylistLiked(string, string) bool { return false }

// InfluenceScore always returns 0.
func (NoopSocialSignals) InfluenceScore(string) float64 { return 0 }
