// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package profile

import (
	"sort"
	"time"

	"github.com/perhassle/tunegraph/internal/catalog"
)

// fullListenReference is the listen time at which the listen-time factor
// of the genre score saturates.
const fullListenReference = 30 * time.Second

// defaultSkipPoint is assumed when skips carry no listen duration.
const defaultSkipPoint = 30 * time.Second

// genreScore computes the affinity score for a genre entry.
//
//	score = (playCount / totalInteractions)
//	      x (1 - min(skipRate x 2, 1))
//	      x min(averageListenTime / 30s, 1)
//
// The result is clamped to [0,1]. Zero totals yield 0 rather than NaN.
func genreScore(playCount, totalInteractions int64, skipRate float64, avgListen time.Duration) float64 {
	if totalInteractions <= 0 || playCount <= 0 {
		return 0
	}

	playFactor := float64(playCount) / float64(totalInteractions)
	skipFactor := 1 - min(skipRate*2, 1)
	listenFactor := min(avgListen.Seconds()/fullListenReference.Seconds(), 1)

	return clamp01(playFactor * skipFactor * listenFactor)
}

// artistScore computes the affinity score for an artist entry. It omits the
// listen-time factor and boosts followed artists by 1.2x.
func artistScore(playCount, totalInteractions int64, skipRate float64, followed bool) float64 {
	if totalInteractions <= 0 || playCount <= 0 {
		return 0
	}

	score := float64(playCount) / float64(totalInteractions) * (1 - min(skipRate*2, 1))
	if followed {
		score *= 1.2
	}
	return clamp01(score)
}

// entrySkipRate derives a skip rate from per-entry counters.
func entrySkipRate(skips, plays int64) float64 {
	total := skips + plays
	if total == 0 {
		return 0
	}
	return float64(skips) / float64(total)
}

// computeGenrePreferences derives genre entries from a full event log,
// retaining at most maxGenres entries ranked by score.
func computeGenrePreferences(events []Behavior, meta catalog.Provider, maxGenres int) []GenrePreference {
	byGenre := make(map[string]*GenrePreference)
	var totalInteractions int64

	for _, ev := range events {
		m, ok := meta.Lookup(ev.TrackID)
		if !ok {
			continue
		}
		totalInteractions++

		entry := byGenre[m.Genre]
		if entry == nil {
			entry = &GenrePreference{Genre: m.Genre}
			byGenre[m.Genre] = entry
		}

		switch ev.Action {
		case ActionPlay:
			entry.PlayCount++
			entry.totalListen += ev.ListenDuration
		case ActionSkip:
			entry.skipCount++
		case ActionShare, ActionAddToPlaylist:
			// Positive signals count toward play volume for scoring.
			entry.PlayCount++
		}
		if ev.Timestamp.After(entry.RecentActivity) {
			entry.RecentActivity = ev.Timestamp
		}
	}

	prefs := make([]GenrePreference, 0, len(byGenre))
	for _, entry := range byGenre {
		entry.SkipRate = entrySkipRate(entry.skipCount, entry.PlayCount)
		if entry.PlayCount > 0 {
			entry.AverageListenTime = entry.totalListen / time.Duration(entry.PlayCount)
		}
		entry.Score = genreScore(entry.PlayCount, totalInteractions, entry.SkipRate, entry.AverageListenTime)
		prefs = append(prefs, *entry)
	}

	sortGenres(prefs)
	if len(prefs) > maxGenres {
		prefs = prefs[:maxGenres]
	}
	return prefs
}

// computeArtistPreferences derives artist entries from a full event log,
// retaining at most maxArtists entries ranked by score.
func computeArtistPreferences(userID string, events []Behavior, meta catalog.Provider, social SocialSignals, maxArtists int) []ArtistPreference {
	byArtist := make(map[string]*ArtistPreference)
	var totalInteractions int64

	for _, ev := range events {
		m, ok := meta.Lookup(ev.TrackID)
		if !ok {
			continue
		}
		totalInteractions++

		entry := byArtist[m.ArtistID]
		if entry == nil {
			entry = &ArtistPreference{
				ArtistID:     m.ArtistID,
				FollowStatus: social.FollowsArtist(userID, m.ArtistID),
			}
			byArtist[m.ArtistID] = entry
		}

		switch ev.Action {
		case ActionPlay, ActionShare, ActionAddToPlaylist:
			entry.PlayCount++
		case ActionSkip:
			entry.skipCount++
		}
		if ev.Timestamp.After(entry.RecentActivity) {
			entry.RecentActivity = ev.Timestamp
		}
	}

	prefs := make([]ArtistPreference, 0, len(byArtist))
	for _, entry := range byArtist {
		entry.SkipRate = entrySkipRate(entry.skipCount, entry.PlayCount)
		entry.Score = artistScore(entry.PlayCount, totalInteractions, entry.SkipRate, entry.FollowStatus)
		prefs = append(prefs, *entry)
	}

	sortArtists(prefs)
	if len(prefs) > maxArtists {
		prefs = prefs[:maxArtists]
	}
	return prefs
}

// computeSkipBehavior aggregates skip statistics over a full event log.
// Empty input yields the documented defaults rather than dividing by zero.
func computeSkipBehavior(events []Behavior) SkipBehavior {
	sb := SkipBehavior{AverageSkipPoint: defaultSkipPoint}

	var skipPointTotal time.Duration
	var skipPointSamples int64

	for _, ev := range events {
		switch ev.Action {
		case ActionPlay:
			sb.TotalPlays++
		case ActionSkip:
			sb.TotalSkips++
			if ev.ListenDuration > 0 {
				skipPointTotal += ev.ListenDuration
				skipPointSamples++
			}
		}
	}

	if total := sb.TotalSkips + sb.TotalPlays; total > 0 {
		sb.SkipRate = float64(sb.TotalSkips) / float64(total)
	}
	if skipPointSamples > 0 {
		sb.AverageSkipPoint = skipPointTotal / time.Duration(skipPointSamples)
	}

	sb.SkipAfterRepeat = sb.SkipRate > 0.7
	sb.SkipLongTracks = sb.AverageSkipPoint < 60*time.Second
	return sb
}

// computeListeningPatterns aggregates play activity per time-of-day x
// day-of-week slot, with the top three genres per slot.
func computeListeningPatterns(events []Behavior, meta catalog.Provider) map[string]ListeningPattern {
	type slotAgg struct {
		pattern ListeningPattern
		genres  map[string]int64
	}
	slots := make(map[string]*slotAgg)

	for _, ev := range events {
		if ev.Action != ActionPlay {
			continue
		}
		tod := ev.TimeOfDay
		if tod == "" {
			tod = TimeOfDayFor(ev.Timestamp)
		}
		key := PatternKey(tod, ev.Timestamp.Weekday())

		slot := slots[key]
		if slot == nil {
			slot = &slotAgg{
				pattern: ListeningPattern{TimeOfDay: tod, DayOfWeek: ev.Timestamp.Weekday()},
				genres:  make(map[string]int64),
			}
			slots[key] = slot
		}
		slot.pattern.PlayCount++
		if m, ok := meta.Lookup(ev.TrackID); ok {
			slot.genres[m.Genre]++
		}
	}

	patterns := make(map[string]ListeningPattern, len(slots))
	for key, slot := range slots {
		slot.pattern.TopGenres = topGenres(slot.genres, 3)
		patterns[key] = slot.pattern
	}
	return patterns
}

// computeTimeBasedGenres derives preferred genres per time-of-day from play
// events, falling back to the seeded defaults where a period has no plays.
func computeTimeBasedGenres(events []Behavior, meta catalog.Provider) map[TimeOfDay][]string {
	counts := map[TimeOfDay]map[string]int64{}

	for _, ev := range events {
		if ev.Action != ActionPlay {
			continue
		}
		m, ok := meta.Lookup(ev.TrackID)
		if !ok {
			continue
		}
		tod := ev.TimeOfDay
		if tod == "" {
			tod = TimeOfDayFor(ev.Timestamp)
		}
		if counts[tod] == nil {
			counts[tod] = make(map[string]int64)
		}
		counts[tod][m.Genre]++
	}

	prefs := defaultTimeBasedGenres()
	for tod, genres := range counts {
		if len(genres) > 0 {
			prefs[tod] = topGenres(genres, 2)
		}
	}
	return prefs
}

// computeAudioFeatures averages catalog features over played tracks.
func computeAudioFeatures(events []Behavior, meta catalog.Provider) AudioFeaturePreferences {
	var prefs AudioFeaturePreferences
	var energy, valence, dance, tempo float64

	for _, ev := range events {
		if ev.Action != ActionPlay {
			continue
		}
		m, ok := meta.Lookup(ev.TrackID)
		if !ok {
			continue
		}
		energy += m.Features.Energy
		valence += m.Features.Valence
		dance += m.Features.Danceability
		tempo += m.Features.Tempo
		prefs.SampleCount++
	}

	if prefs.SampleCount > 0 {
		n := float64(prefs.SampleCount)
		prefs.Energy = energy / n
		prefs.Valence = valence / n
		prefs.Danceability = dance / n
		prefs.Tempo = tempo / n
	}
	return prefs
}

// computeSocialPreferences aggregates share and playlist activity.
func computeSocialPreferences(userID string, events []Behavior, social SocialSignals) SocialPreferences {
	var sp SocialPreferences
	for _, ev := range events {
		switch ev.Action {
		case ActionShare:
			sp.ShareCount++
		case ActionAddToPlaylist:
			sp.PlaylistAdditions++
		}
	}
	sp.InfluenceScore = clamp01(social.InfluenceScore(userID))
	return sp
}

// sortGenres orders entries by score descending, genre name as tiebreak so
// ordering is deterministic.
func sortGenres(prefs []GenrePreference) {
	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Score != prefs[j].Score {
			return prefs[i].Score > prefs[j].Score
		}
		return prefs[i].Genre < prefs[j].Genre
	})
}

// sortArtists orders entries by score descending, artist ID as tiebreak.
func sortArtists(prefs []ArtistPreference) {
	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Score != prefs[j].Score {
			return prefs[i].Score > prefs[j].Score
		}
		return prefs[i].ArtistID < prefs[j].ArtistID
	})
}

func topGenres(counts map[string]int64, n int) []string {
	type gc struct {
		genre string
		count int64
	}
	all := make([]gc, 0, len(counts))
	for g, c := range counts {
		all = append(all, gc{g, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].genre < all[j].genre
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, g := range all {
		out[i] = g.genre
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
