// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package catalog defines the track-metadata lookup the recommendation core
// depends on. Production deployments implement Provider against the real
// catalog service; the Fixture provider fabricates deterministic metadata
// from track IDs and exists for tests and local development only.
package catalog

import (
	"hash/fnv"
	"strconv"
	"time"
)

// AudioFeatures describes the acoustic profile of a track.
// Values are normalized to [0,1] except Tempo (BPM).
type AudioFeatures struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
}

// TrackMeta is the metadata the core needs about a track.
type TrackMeta struct {
	TrackID  string        `json:"track_id"`
	Title    string        `json:"title"`
	ArtistID string        `json:"artist_id"`
	Genre    string        `json:"genre"`
	Duration time.Duration `json:"duration"`
	Features AudioFeatures `json:"features"`
}

// Provider resolves track metadata. Implementations must be safe for
// concurrent use and must return ok=false rather than an error for unknown
// tracks; the core degrades gracefully on missing metadata.
type Provider interface {
	Lookup(trackID string) (TrackMeta, bool)
}

// fixtureGenres is the genre pool the fixture provider assigns from.
var fixtureGenres = []string{
	"Pop", "Rock", "Hip-Hop", "Electronic", "Jazz",
	"Classical", "R&B", "Country", "Indie", "Metal",
}

// Fixture is a deterministic metadata provider for tests and development.
// Genre and artist assignment is an FNV hash of the track ID, so the same
// track always resolves to the same metadata across runs.
type Fixture struct{}

// NewFixture creates a fixture metadata provider.
func NewFixture() *Fixture {
	return &Fixture{}
}

// Lookup fabricates metadata for any track ID. It never misses.
func (f *Fixture) Lookup(trackID string) (TrackMeta, bool) {
	h := hashString(trackID)

	genre := fixtureGenres[h%uint32(len(fixtureGenres))]
	artist := fixtureArtistID(h)

	// Derive stable pseudo-features from independent hash slices.
	return TrackMeta{
		TrackID:  trackID,
		Title:    "Track " + trackID,
		ArtistID: artist,
		Genre:    genre,
		Duration: time.Duration(150+int(h%180)) * time.Second,
		Features: AudioFeatures{
			Energy:       float64(h%100) / 100.0,
			Valence:      float64((h/100)%100) / 100.0,
			Danceability: float64((h/10000)%100) / 100.0,
			Tempo:        70 + float64(h%110),
		},
	}, true
}

func fixtureArtistID(h uint32) string {
	// 64 fixture artists, "artist-0" .. "artist-63".
	return "artist-" + strconv.Itoa(int(h>>8)%64)
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Static is a Provider backed by a fixed metadata map, useful when tests
// need exact control over genre and artist assignment.
type Static struct {
	Tracks map[string]TrackMeta
}

// NewStatic creates a provider that serves exactly the given tracks.
func NewStatic(tracks map[string]TrackMeta) *Static {
	return &Static{Tracks: tracks}
}

// Lookup returns the configured metadata for the track, if any.
func (s *Static) Lookup(trackID string) (TrackMeta, bool) {
	meta, ok := s.Tracks[trackID]
	return meta, ok
}
