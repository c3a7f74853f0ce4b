// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package catalog

import (
	"testing"
	"time"
)

func TestFixture_Deterministic(t *testing.T) {
	f := NewFixture()

	first, ok := f.Lookup("track-42")
	if !ok {
		t.Fatal("Fixture lookup should never miss")
	}
	for i := 0; i < 10; i++ {
		meta, _ := f.Lookup("track-42")
		if meta != first {
			t.Fatalf("Fixture metadata changed between lookups: %+v vs %+v", meta, first)
		}
	}
}

func TestFixture_ValidRanges(t *testing.T) {
	f := NewFixture()

	ids := []string{"a", "track-1", "some-very-long-track-identifier", "", "品"}
	for _, id := range ids {
		meta, _ := f.Lookup(id)

		if meta.Genre == "" {
			t.Errorf("Lookup(%q): empty genre", id)
		}
		if meta.ArtistID == "" {
			t.Errorf("Lookup(%q): empty artist", id)
		}
		if meta.Duration < 150*time.Second || meta.Duration >= 330*time.Second {
			t.Errorf("Lookup(%q): duration %s out of range", id, meta.Duration)
		}
		fs := meta.Features
		for name, v := range map[string]float64{
			"energy": fs.Energy, "valence": fs.Valence, "danceability": fs.Danceability,
		} {
			if v < 0 || v > 1 {
				t.Errorf("Lookup(%q): %s %f out of [0,1]", id, name, v)
			}
		}
		if fs.Tempo < 70 || fs.Tempo >= 180 {
			t.Errorf("Lookup(%q): tempo %f out of range", id, fs.Tempo)
		}
	}
}

func TestStatic_Lookup(t *testing.T) {
	s := NewStatic(map[string]TrackMeta{
		"track-1": {TrackID: "track-1", Genre: "Pop", ArtistID: "artist-1"},
	})

	if meta, ok := s.Lookup("track-1"); !ok || meta.Genre != "Pop" {
		t.Errorf("Expected Pop hit, got %+v ok=%v", meta, ok)
	}
	if _, ok := s.Lookup("track-2"); ok {
		t.Error("Expected miss for unknown track")
	}
}
