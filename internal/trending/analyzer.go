// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package trending maintains global per-track popularity counters and a
// sliding-window velocity signal flagging tracks that are spiking. It is
// independent of per-user profiles: every play, skip and share from any
// user mutates the same global counters.
//
// Counters are contended across all users, so track state is sharded by
// track ID; increments on different shards never contend. Velocity and
// ranks are recomputed by a periodic sweep, not per event.
package trending

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/catalog"
	"github.com/perhassle/tunegraph/internal/metrics"
)

// Normalization ceilings for the composite popularity score.
const (
	playCountCeiling = 1_000_000
	shareCeiling     = 100_000
	playlistCeiling  = 100_000
)

// completionAlpha is the EMA weight of a single observation.
const completionAlpha = 0.05

// shardCount is the number of lock shards for track state.
const shardCount = 32

// Popularity holds the global counters for one track.
type Popularity struct {
	TrackID           string  `json:"track_id"`
	PlayCount         int64   `json:"play_count"`
	UniqueListeners   int64   `json:"unique_listeners"`
	ShareCount        int64   `json:"share_count"`
	PlaylistAdditions int64   `json:"playlist_additions"`
	SkipCount         int64   `json:"skip_count"`
	SkipRate          float64 `json:"skip_rate"`
	CompletionRate    float64 `json:"completion_rate"`

	// RecentPlayCount is the play count within the rolling daily-history
	// window (30 days by default).
	RecentPlayCount int64 `json:"recent_play_count"`

	// Score is the composite popularity score in [0,1].
	Score float64 `json:"score"`

	// Rank is the track's position in the popularity ordering, assigned
	// by the recompute sweep. Zero means unranked.
	Rank int `json:"rank,omitempty"`
}

// Trending holds the derived velocity signal for one track.
type Trending struct {
	TrackID string `json:"track_id"`

	// Velocity is the ratio of plays in the last 24h to the previous 24h.
	Velocity float64 `json:"velocity"`

	// Trending is true when velocity and lifetime play count both clear
	// their thresholds.
	Trending bool `json:"trending"`

	// TrendingRank is the position among currently-trending tracks by
	// velocity (1 = fastest). Zero when not trending.
	TrendingRank int `json:"trending_rank,omitempty"`

	// PeakRank is the best (lowest) trending rank the track has ever
	// held. Once set it never increases.
	PeakRank int `json:"peak_rank,omitempty"`

	// Score is the boosted trending score in [0,1].
	Score float64 `json:"score"`
}

// GenrePopularity aggregates popularity across all tracked tracks of a genre.
type GenrePopularity struct {
	Genre      string       `json:"genre"`
	PlayCount  int64        `json:"play_count"`
	TrackCount int          `json:"track_count"`
	TopTracks  []Popularity `json:"top_tracks"`
}

// PlayContext carries optional dimensions of a play event.
type PlayContext struct {
	Region   string
	AgeGroup string
}

// trackState is all mutable state for one track, guarded by its shard lock.
type trackState struct {
	pop       Popularity
	trend     Trending
	window    hourWindow
	history   *dayHistory
	listeners map[string]struct{}
	regions   map[string]struct{}
	ageGroups map[string]struct{}
}

type shard struct {
	mu     sync.Mutex
	tracks map[string]*trackState
}

// Options configures an Analyzer.
type Options struct {
	// ReferenceDuration converts observed listen durations into completion
	// rates. Default 210s.
	ReferenceDuration time.Duration

	// VelocityThreshold is the minimum velocity for trending status.
	// Default 1.5.
	VelocityThreshold float64

	// MinPlayCount is the minimum lifetime play count for trending
	// status. Default 1000.
	MinPlayCount int64

	// HistoryDays is the rolling daily-history window. Default 30.
	HistoryDays int
}

// Analyzer tracks global popularity and trending signals. Safe for
// concurrent use.
type Analyzer struct {
	shards  [shardCount]*shard
	catalog catalog.Provider
	logger  zerolog.Logger

	refDuration       time.Duration
	velocityThreshold float64
	minPlayCount      int64
	historyDays       int

	// regional play counts: region -> trackID -> plays in window
	regionMu sync.RWMutex
	regional map[string]map[string]int64

	now func() time.Time
}

// NewAnalyzer creates a trending analyzer backed by the given catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalyzer(meta catalog.Provider, opts Options, logger zerolog.Logger) *Analyzer {
	if opts.ReferenceDuration <= 0 {
		opts.ReferenceDuration = 210 * time.Second
	}
	if opts.VelocityThreshold <= 0 {
		opts.VelocityThreshold = 1.5
	}
	if opts.MinPlayCount <= 0 {
		opts.MinPlayCount = 1000
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 30
	}

	a := &Analyzer{
		catalog:           meta,
		logger:            logger.With().Str("component", "trending").Logger(),
		refDuration:       opts.ReferenceDuration,
		velocityThreshold: opts.VelocityThreshold,
		minPlayCount:      opts.MinPlayCount,
		historyDays:       opts.HistoryDays,
		regional:          make(map[string]map[string]int64),
		now:               time.Now,
	}
	for i := range a.shards {
		a.shards[i] = &shard{tracks: make(map[string]*trackState)}
	}
	return a
}

// RecordPlay increments the track's global play counters and folds the
// observed completion rate into the exponential moving average.
func (a *Analyzer) RecordPlay(trackID, userID string, listenDuration time.Duration) {
	a.RecordPlayContext(trackID, userID, listenDuration, PlayContext{})
}

// RecordPlayContext is RecordPlay with optional region and age-group
// dimensions feeding the trending-score boosts.
func (a *Analyzer) RecordPlayContext(trackID, userID string, listenDuration time.Duration, ctx PlayContext) {
	if trackID == "" {
		return
	}
	now := a.now()

	sh := a.shard(trackID)
	sh.mu.Lock()
	state := a.stateLocked(sh, trackID)

	state.pop.PlayCount++
	if userID != "" {
		if _, seen := state.listeners[userID]; !seen {
			state.listeners[userID] = struct{}{}
			state.pop.UniqueListeners = int64(len(state.listeners))
		}
	}

	observed := clamp01(listenDuration.Seconds() / a.refDuration.Seconds())
	if state.pop.PlayCount == 1 {
		state.pop.CompletionRate = observed
	} else {
		state.pop.CompletionRate = state.pop.CompletionRate*(1-completionAlpha) + observed*completionAlpha
	}
	state.pop.SkipRate = skipRate(state.pop.SkipCount, state.pop.PlayCount)

	state.window.add(now)
	state.history.add(now, 1)

	if ctx.Region != "" {
		state.regions[ctx.Region] = struct{}{}
	}
	if ctx.AgeGroup != "" {
		state.ageGroups[ctx.AgeGroup] = struct{}{}
	}
	sh.mu.Unlock()

	if ctx.Region != "" {
		a.regionMu.Lock()
		if a.regional[ctx.Region] == nil {
			a.regional[ctx.Region] = make(map[string]int64)
		}
		a.regional[ctx.Region][trackID]++
		a.regionMu.Unlock()
	}
}

// RecordSkip increments the track's skip counter and recomputes its skip
// rate.
func (a *Analyzer) RecordSkip(trackID, userID string) {
	a.bump(trackID, func(state *trackState) {
		state.pop.SkipCount++
		state.pop.SkipRate = skipRate(state.pop.SkipCount, state.pop.PlayCount)
	})
}

// RecordShare increments the track's share counter.
func (a *Analyzer) RecordShare(trackID, userID string) {
	a.bump(trackID, func(state *trackState) {
		state.pop.ShareCount++
	})
}

// RecordPlaylistAddition increments the track's playlist-addition counter.
func (a *Analyzer) RecordPlaylistAddition(trackID, userID string) {
	a.bump(trackID, func(state *trackState) {
		state.pop.PlaylistAdditions++
	})
}

// RecomputeTrending recalculates velocity, trending status and ranks for
// every tracked track. Intended to run on a periodic sweep; per-event paths
// never pay this cost.
func (a *Analyzer) RecomputeTrending() {
	started := a.now()

	type candidate struct {
		state *trackState
		sh    *shard
	}
	var trendingSet []candidate

	for _, sh := range a.shards {
		sh.mu.Lock()
		for _, state := range sh.tracks {
			recent := state.window.last24h(started)
			previous := state.window.prev24h(started)

			var velocity float64
			switch {
			case previous > 0:
				velocity = float64(recent) / float64(previous)
			case recent > 0:
				// Brand-new activity: signal a spike without dividing
				// by zero.
				velocity = 10
			default:
				velocity = 0
			}

			state.trend.TrackID = state.pop.TrackID
			state.trend.Velocity = velocity
			state.trend.Trending = velocity > a.velocityThreshold && state.pop.PlayCount > a.minPlayCount
			state.trend.TrendingRank = 0
			state.trend.Score = a.trendingScore(state)

			if state.trend.Trending {
				trendingSet = append(trendingSet, candidate{state: state, sh: sh})
			}
		}
		sh.mu.Unlock()
	}

	// Rank trending tracks by velocity descending. Shard locks are
	// reacquired per assignment; the sweep is the only rank writer so the
	// two-phase update stays consistent.
	sort.Slice(trendingSet, func(i, j int) bool {
		if trendingSet[i].state.trend.Velocity != trendingSet[j].state.trend.Velocity {
			return trendingSet[i].state.trend.Velocity > trendingSet[j].state.trend.Velocity
		}
		return trendingSet[i].state.pop.TrackID < trendingSet[j].state.pop.TrackID
	})
	for i, c := range trendingSet {
		rank := i + 1
		c.sh.mu.Lock()
		c.state.trend.TrendingRank = rank
		if c.state.trend.PeakRank == 0 || rank < c.state.trend.PeakRank {
			c.state.trend.PeakRank = rank
		}
		c.sh.mu.Unlock()
	}

	a.recomputePopularityRanks()

	metrics.TrendingTracks.Set(float64(len(trendingSet)))
	metrics.TrendingSweepDuration.Observe(time.Since(started).Seconds())
	a.logger.Debug().
		Int("trending", len(trendingSet)).
		Dur("took", time.Since(started)).
		Msg("trending sweep complete")
}

// GetTrendingTracks returns up to limit currently-trending tracks ordered
// by trending rank.
func (a *Analyzer) GetTrendingTracks(limit int) []Trending {
	var out []Trending
	for _, sh := range a.shards {
		sh.mu.Lock()
		for _, state := range sh.tracks {
			if state.trend.Trending {
				out = append(out, state.trend)
			}
		}
		sh.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TrendingRank < out[j].TrendingRank })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetPopularTracks returns up to limit tracks ordered by composite
// popularity score.
func (a *Analyzer) GetPopularTracks(limit int) []Popularity {
	out := a.snapshotPopularity()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TrackID < out[j].TrackID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetGenrePopularity aggregates popularity for one genre. Unknown genres
// yield a zero aggregate, not an error.
func (a *Analyzer) GetGenrePopularity(genre string) GenrePopularity {
	agg := GenrePopularity{Genre: genre}

	for _, p := range a.snapshotPopularity() {
		meta, ok := a.catalog.Lookup(p.TrackID)
		if !ok || meta.Genre != genre {
			continue
		}
		agg.PlayCount += p.PlayCount
		agg.TrackCount++
		agg.TopTracks = append(agg.TopTracks, p)
	}

	sort.Slice(agg.TopTracks, func(i, j int) bool {
		if agg.TopTracks[i].Score != agg.TopTracks[j].Score {
			return agg.TopTracks[i].Score > agg.TopTracks[j].Score
		}
		return agg.TopTracks[i].TrackID < agg.TopTracks[j].TrackID
	})
	if len(agg.TopTracks) > 10 {
		agg.TopTracks = agg.TopTracks[:10]
	}
	return agg
}

// GetRegionalTrending returns up to limit tracks ordered by play count
// within one region. Unknown regions yield an empty slice.
func (a *Analyzer) GetRegionalTrending(region string, limit int) []Popularity {
	a.regionMu.RLock()
	counts := make(map[string]int64, len(a.regional[region]))
	for id, n := range a.regional[region] {
		counts[id] = n
	}
	a.regionMu.RUnlock()

	out := make([]Popularity, 0, len(counts))
	for trackID := range counts {
		if p, ok := a.GetPopularity(trackID); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i].TrackID] != counts[out[j].TrackID] {
			return counts[out[i].TrackID] > counts[out[j].TrackID]
		}
		return out[i].TrackID < out[j].TrackID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetPopularity returns the popularity counters for one track.
func (a *Analyzer) GetPopularity(trackID string) (Popularity, bool) {
	sh := a.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	state, ok := sh.tracks[trackID]
	if !ok {
		return Popularity{}, false
	}
	p := state.pop
	p.Score = a.popularityScore(state)
	p.RecentPlayCount = state.history.total()
	return p, true
}

// GetTrending returns the trending signal for one track.
func (a *Analyzer) GetTrending(trackID string) (Trending, bool) {
	sh := a.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	state, ok := sh.tracks[trackID]
	if !ok {
		return Trending{}, false
	}
	return state.trend, true
}

// popularityScore composes the weighted popularity score in [0,1]:
// play volume 40%, completion 25%, non-skip 20%, shares 10%, playlist
// additions 5%. Missing data contributes 0.
func (a *Analyzer) popularityScore(state *trackState) float64 {
	playFactor := clamp01(float64(state.pop.PlayCount) / playCountCeiling)
	shareFactor := clamp01(float64(state.pop.ShareCount) / shareCeiling)
	playlistFactor := clamp01(float64(state.pop.PlaylistAdditions) / playlistCeiling)

	score := playFactor*0.40 +
		state.pop.CompletionRate*0.25 +
		(1-clamp01(state.pop.SkipRate))*0.20 +
		shareFactor*0.10 +
		playlistFactor*0.05
	return clamp01(score)
}

// trendingScore normalizes velocity to [0,1] and applies multiplicative
// boosts for multi-region and multi-age-group reach.
func (a *Analyzer) trendingScore(state *trackState) float64 {
	score := clamp01(state.trend.Velocity / 10)
	if len(state.regions) > 1 {
		score *= 1.2
	}
	if len(state.ageGroups) > 1 {
		score *= 1.1
	}
	return clamp01(score)
}

func (a *Analyzer) recomputePopularityRanks() {
	ranked := a.snapshotPopularity()
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TrackID < ranked[j].TrackID
	})

	for i, p := range ranked {
		sh := a.shard(p.TrackID)
		sh.mu.Lock()
		if state, ok := sh.tracks[p.TrackID]; ok {
			state.pop.Rank = i + 1
		}
		sh.mu.Unlock()
	}
}

// snapshotPopularity copies all popularity entries with fresh scores.
func (a *Analyzer) snapshotPopularity() []Popularity {
	var out []Popularity
	for _, sh := range a.shards {
		sh.mu.Lock()
		for _, state := range sh.tracks {
			p := state.pop
			p.Score = a.popularityScore(state)
			p.RecentPlayCount = state.history.total()
			out = append(out, p)
		}
		sh.mu.Unlock()
	}
	return out
}

func (a *Analyzer) bump(trackID string, fn func(*trackState)) {
	if trackID == "" {
		return
	}
	sh := a.shard(trackID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(a.stateLocked(sh, trackID))
}

// stateLocked returns the track state, creating it on first touch. Caller
// holds the shard lock.
func (a *Analyzer) stateLocked(sh *shard, trackID string) *trackState {
	state, ok := sh.tracks[trackID]
	if !ok {
		state = &trackState{
			pop:       Popularity{TrackID: trackID},
			trend:     Trending{TrackID: trackID},
			history:   newDayHistory(a.historyDays),
			listeners: make(map[string]struct{}),
			regions:   make(map[string]struct{}),
			ageGroups: make(map[string]struct{}),
		}
		sh.tracks[trackID] = state
	}
	return state
}

func (a *Analyzer) shard(trackID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trackID))
	return a.shards[h.Sum32()%shardCount]
}

// skipRate derives the global skip rate; each skip widens the denominator
// alongside plays, and an empty history yields 0.
func skipRate(skips, plays int64) float64 {
	total := skips + plays
	if total == 0 {
		return 0
	}
	return float64(skips) / float64(total)
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
