// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/perhassle/tunegraph/internal/catalog"
	"github.com/perhassle/tunegraph/internal/profile"
	"github.com/perhassle/tunegraph/internal/trending"
)

// sectionGenerator is the built-in generator. It ranks candidates from
// the trending analyzer's popularity and trending signals, weighted by
// the user's genre and artist preferences.
type sectionGenerator struct {
	profiles *profile.Manager
	trends   *trending.Analyzer
	catalog  catalog.Provider
}

func newSectionGenerator(profiles *profile.Manager, trends *trending.Analyzer) *sectionGenerator {
	return &sectionGenerator{
		profiles: profiles,
		trends:   trends,
		catalog:  profiles.Catalog(),
	}
}

// candidatePool is how many ranked tracks the generator pulls before
// applying exclusions and per-user weighting.
const candidatePool = 200

// Generate builds a response for the request. Trending and chart
// sections rank by the global signals directly; personalized sections
// re-rank the global pool by profile affinity.
func (g *sectionGenerator) Generate(_ context.Context, req Request) (Response, error) {
	var (
		tracks []Track
		algo   string
	)

	switch req.Section {
	case SectionTrendingNow, SectionRegionalHits:
		tracks = g.trendingCandidates(req)
		algo = "trending-velocity"
	case SectionChartsTop, SectionNewReleases, SectionFreshFinds:
		tracks = g.popularCandidates(req)
		algo = "popularity-chart"
	default:
		tracks = g.personalizedCandidates(req)
		algo = "profile-affinity"
	}
	if req.Algorithm != "" {
		algo = req.Algorithm
	}

	tracks = excludeTracks(tracks, req.ExcludeTrackIDs)
	total := len(tracks)
	if len(tracks) > req.Limit {
		tracks = tracks[:req.Limit]
	}

	return Response{
		Tracks:         tracks,
		TotalAvailable: total,
		Algorithm:      algo,
	}, nil
}

// trendingCandidates ranks by trending score, regionally filtered
// when the request carries a location.
func (g *sectionGenerator) trendingCandidates(req Request) []Track {
	if req.Section == SectionRegionalHits && req.Context != nil && req.Context.Location != "" {
		pops := g.trends.GetRegionalTrending(req.Context.Location, candidatePool)
		out := make([]Track, 0, len(pops))
		for _, p := range pops {
			out = append(out, g.track(p.TrackID, p.Score,
				fmt.Sprintf("Popular in %s", req.Context.Location)))
		}
		return out
	}

	trendingTracks := g.trends.GetTrendingTracks(candidatePool)
	out := make([]Track, 0, len(trendingTracks))
	for _, tr := range trendingTracks {
		out = append(out, g.track(tr.TrackID, tr.Score, "Trending now"))
	}
	return out
}

// popularCandidates ranks by the composite popularity score.
func (g *sectionGenerator) popularCandidates(_ Request) []Track {
	pops := g.trends.GetPopularTracks(candidatePool)
	out := make([]Track, 0, len(pops))
	for _, p := range pops {
		out = append(out, g.track(p.TrackID, p.Score, "Popular with listeners"))
	}
	return out
}

// personalizedCandidates re-ranks the global popularity pool by the
// user's genre and artist affinities. Seed genres, when present,
// override the profile's favorites.
func (g *sectionGenerator) personalizedCandidates(req Request) []Track {
	prof := g.profiles.GetProfile(req.UserID)

	genreWeight := make(map[string]float64, len(prof.FavoriteGenres))
	for _, gp := range prof.FavoriteGenres {
		genreWeight[gp.Genre] = gp.Score
	}
	for _, seed := range req.SeedGenres {
		if genreWeight[seed] < 1 {
			genreWeight[seed] = 1
		}
	}
	artistWeight := make(map[string]float64, len(prof.FavoriteArtists))
	for _, ap := range prof.FavoriteArtists {
		artistWeight[ap.ArtistID] = ap.Score
	}
	for _, seed := range req.SeedArtists {
		if artistWeight[seed] < 1 {
			artistWeight[seed] = 1
		}
	}

	// Time-aware sections lean on the user's time-of-day genres.
	if tod := sectionTimeOfDay(req.Section); tod != "" {
		for _, genre := range prof.TimeBasedGenres[tod] {
			if genreWeight[genre] < 0.5 {
				genreWeight[genre] = 0.5
			}
		}
	}

	pops := g.trends.GetPopularTracks(candidatePool)
	out := make([]Track, 0, len(pops))
	for _, p := range pops {
		meta, ok := g.catalog.Lookup(p.TrackID)
		if !ok {
			continue
		}
		affinity := 0.6*genreWeight[meta.Genre] + 0.4*artistWeight[meta.ArtistID]
		score := clamp01(0.5*p.Score + 0.5*affinity)
		reason := "Popular with listeners"
		if genreWeight[meta.Genre] > 0 {
			reason = fmt.Sprintf("Because you listen to %s", meta.Genre)
		}
		out = append(out, Track{
			TrackID:  p.TrackID,
			Title:    meta.Title,
			ArtistID: meta.ArtistID,
			Genre:    meta.Genre,
			Duration: meta.Duration,
			Score:    score,
			Reason:   reason,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TrackID < out[j].TrackID
	})
	return out
}

// track resolves catalog metadata for a scored track ID.
func (g *sectionGenerator) track(trackID string, score float64, reason string) Track {
	t := Track{TrackID: trackID, Score: clamp01(score), Reason: reason}
	if meta, ok := g.catalog.Lookup(trackID); ok {
		t.Title = meta.Title
		t.ArtistID = meta.ArtistID
		t.Genre = meta.Genre
		t.Duration = meta.Duration
	}
	return t
}

// sectionTimeOfDay maps time-themed sections to their listening period.
func sectionTimeOfDay(s SectionType) profile.TimeOfDay {
	switch s {
	case SectionMorningMix:
		return profile.Morning
	case SectionEveningChill:
		return profile.Evening
	case SectionNightDrive:
		return profile.Night
	default:
		return ""
	}
}

func excludeTracks(tracks []Track, exclude []string) []Track {
	if len(exclude) == 0 {
		return tracks
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := tracks[:0]
	for _, t := range tracks {
		if _, ok := skip[t.TrackID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
