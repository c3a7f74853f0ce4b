// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package profile

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/catalog"
	"github.com/perhassle/tunegraph/internal/metrics"
)

// Options configures a Manager.
type Options struct {
	// MaxBehaviorEvents bounds the per-user behavior log. Default 1000.
	MaxBehaviorEvents int

	// MaxGenres is the number of genre preferences retained. Default 20.
	MaxGenres int

	// MaxArtists is the number of artist preferences retained. Default 50.
	MaxArtists int

	// Social supplies social signals. Defaults to NoopSocialSignals.
	Social SocialSignals
}

// Manager owns behavior logs and derived user profiles. All state is held
// in process memory with the lifetime of the Manager; construct one per
// process and inject it where profiles are needed.
//
// Operations on the same user are serialized through a per-user mutex so
// incremental updates never lose version bumps or counter increments.
// Operations on distinct users proceed in parallel.
type Manager struct {
	store   *BehaviorStore
	catalog catalog.Provider
	social  SocialSignals
	logger  zerolog.Logger

	maxGenres  int
	maxArtists int

	mu    sync.Mutex
	users map[string]*userState
}

// userState is the per-user mutable state guarded by its own lock.
type userState struct {
	mu      sync.Mutex
	profile *Profile

	// Running aggregates the incremental path needs but the profile does
	// not expose.
	skipPointTotal   time.Duration
	skipPointSamples int64
}

// NewManager creates a profile manager backed by the given catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(meta catalog.Provider, opts Options, logger zerolog.Logger) *Manager {
	if opts.MaxBehaviorEvents <= 0 {
		opts.MaxBehaviorEvents = 1000
	}
	if opts.MaxGenres <= 0 {
		opts.MaxGenres = 20
	}
	if opts.MaxArtists <= 0 {
		opts.MaxArtists = 50
	}
	if opts.Social == nil {
		opts.Social = NoopSocialSignals{}
	}

	return &Manager{
		store:      NewBehaviorStore(opts.MaxBehaviorEvents),
		catalog:    meta,
		social:     opts.Social,
		logger:     logger.With().Str("component", "profile").Logger(),
		maxGenres:  opts.MaxGenres,
		maxArtists: opts.MaxArtists,
		users:      make(map[string]*userState),
	}
}

// Store exposes the underlying behavior log for read projections.
func (m *Manager) Store() *BehaviorStore {
	return m.store
}

// Catalog exposes the track metadata provider the manager was built with.
func (m *Manager) Catalog() catalog.Provider {
	return m.catalog
}

// GetProfile returns the user's profile. A cached profile is returned as-is;
// otherwise the profile is rebuilt from the behavior log, or created with
// defaults when the user has no history. It never fails.
func (m *Manager) GetProfile(userID string) Profile {
	state := m.userState(userID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.profile == nil {
		if m.store.Len(userID) > 0 {
			m.rebuildLocked(userID, state)
		} else {
			state.profile = m.defaultProfile(userID)
		}
		metrics.ActiveProfiles.Inc()
	}
	return copyProfile(state.profile)
}

// RecordBehavior appends the event to the log and applies an incremental
// update to the cached profile: matching preference counters are bumped and
// that entry's score recalculated in place, and the profile version is
// incremented. Malformed events are dropped, never errors.
func (m *Manager) RecordBehavior(b Behavior) {
	if b.UserID == "" || b.TrackID == "" || !b.Action.Valid() {
		m.logger.Warn().
			Str("user_id", b.UserID).
			Str("track_id", b.TrackID).
			Str("action", string(b.Action)).
			Msg("dropping malformed behavior event")
		return
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	if b.TimeOfDay == "" {
		b.TimeOfDay = TimeOfDayFor(b.Timestamp)
	}

	state := m.userState(b.UserID)
	state.mu.Lock()
	defer state.mu.Unlock()

	m.store.Append(b)
	metrics.BehaviorEvents.WithLabelValues(string(b.Action)).Inc()

	if state.profile == nil {
		state.profile = m.defaultProfile(b.UserID)
		metrics.ActiveProfiles.Inc()
	}
	m.applyIncremental(state, b)
}

// RebuildProfile recomputes the profile from the entire behavior log. It
// corrects drift from incremental updates and regenerates the derived fields
// the incremental path does not touch (listening patterns, time-based and
// social preferences, audio features).
func (m *Manager) RebuildProfile(userID string) Profile {
	state := m.userState(userID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.profile == nil {
		metrics.ActiveProfiles.Inc()
	}
	m.rebuildLocked(userID, state)
	return copyProfile(state.profile)
}

// ProfileVersion returns the current profile version without forcing a
// rebuild. Zero means no profile exists yet.
func (m *Manager) ProfileVersion(userID string) int64 {
	state := m.userState(userID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.profile == nil {
		return 0
	}
	return state.profile.Version
}

// userState returns the per-user state, creating it on first use.
func (m *Manager) userState(userID string) *userState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[userID]
	if !ok {
		state = &userState{}
		m.users[userID] = state
	}
	return state
}

// defaultProfile builds the well-defined empty profile for a user with no
// behavior history.
func (m *Manager) defaultProfile(userID string) *Profile {
	return &Profile{
		UserID:            userID,
		FavoriteGenres:    []GenrePreference{},
		FavoriteArtists:   []ArtistPreference{},
		ListeningPatterns: map[string]ListeningPattern{},
		SkipBehavior:      SkipBehavior{AverageSkipPoint: defaultSkipPoint, SkipLongTracks: true},
		TimeBasedGenres:   defaultTimeBasedGenres(),
		Version:           1,
		LastUpdated:       time.Now(),
	}
}

// rebuildLocked recomputes the profile from the full log. Caller holds the
// user lock.
func (m *Manager) rebuildLocked(userID string, state *userState) {
	events := m.store.Events(userID)

	var version int64 = 1
	if state.profile != nil {
		version = state.profile.Version + 1
	}

	sb := computeSkipBehavior(events)
	p := &Profile{
		UserID:            userID,
		FavoriteGenres:    computeGenrePreferences(events, m.catalog, m.maxGenres),
		FavoriteArtists:   computeArtistPreferences(userID, events, m.catalog, m.social, m.maxArtists),
		ListeningPatterns: computeListeningPatterns(events, m.catalog),
		SkipBehavior:      sb,
		AudioFeatures:     computeAudioFeatures(events, m.catalog),
		TimeBasedGenres:   computeTimeBasedGenres(events, m.catalog),
		Social:            computeSocialPreferences(userID, events, m.social),
		TotalInteractions: int64(len(events)),
		Version:           version,
		LastUpdated:       time.Now(),
	}

	// Reseed the incremental skip-point aggregates from the log so later
	// incremental updates continue from consistent state.
	state.skipPointTotal = 0
	state.skipPointSamples = 0
	for _, ev := range events {
		if ev.Action == ActionSkip && ev.ListenDuration > 0 {
			state.skipPointTotal += ev.ListenDuration
			state.skipPointSamples++
		}
	}

	state.profile = p
	metrics.ProfileRebuilds.Inc()
	m.logger.Debug().
		Str("user_id", userID).
		Int("events", len(events)).
		Int64("version", p.Version).
		Msg("profile rebuilt")
}

// applyIncremental folds one event into the cached profile. Caller holds
// the user lock.
func (m *Manager) applyIncremental(state *userState, b Behavior) {
	p := state.profile
	p.TotalInteractions++

	if meta, ok := m.catalog.Lookup(b.TrackID); ok {
		m.updateGenreEntry(p, b, meta.Genre)
		m.updateArtistEntry(p, b, meta.ArtistID)
	}

	m.updateSkipBehavior(state, b)

	switch b.Action {
	case ActionShare:
		p.Social.ShareCount++
	case ActionAddToPlaylist:
		p.Social.PlaylistAdditions++
	}

	p.Version++
	p.LastUpdated = b.Timestamp
}

func (m *Manager) updateGenreEntry(p *Profile, b Behavior, genre string) {
	idx := -1
	for i := range p.FavoriteGenres {
		if p.FavoriteGenres[i].Genre == genre {
			idx = i
			break
		}
	}

	if idx < 0 {
		entry := GenrePreference{Genre: genre, RecentActivity: b.Timestamp}
		switch b.Action {
		case ActionPlay, ActionShare, ActionAddToPlaylist:
			// A first positive interaction starts at full affinity; later
			// updates converge toward the computed score.
			entry.PlayCount = 1
			entry.Score = 1.0
			entry.totalListen = b.ListenDuration
			entry.AverageListenTime = b.ListenDuration
		case ActionSkip:
			entry.skipCount = 1
			entry.SkipRate = 1
		}
		p.FavoriteGenres = append(p.FavoriteGenres, entry)
		m.trimGenres(p)
		return
	}

	entry := &p.FavoriteGenres[idx]
	switch b.Action {
	case ActionPlay:
		entry.PlayCount++
		entry.totalListen += b.ListenDuration
		entry.AverageListenTime = entry.totalListen / time.Duration(entry.PlayCount)
	case ActionShare, ActionAddToPlaylist:
		entry.PlayCount++
	case ActionSkip:
		entry.skipCount++
	}
	entry.SkipRate = entrySkipRate(entry.skipCount, entry.PlayCount)
	entry.Score = genreScore(entry.PlayCount, p.TotalInteractions, entry.SkipRate, entry.AverageListenTime)
	entry.RecentActivity = b.Timestamp
	m.trimGenres(p)
}

func (m *Manager) updateArtistEntry(p *Profile, b Behavior, artistID string) {
	idx := -1
	for i := range p.FavoriteArtists {
		if p.FavoriteArtists[i].ArtistID == artistID {
			idx = i
			break
		}
	}

	if idx < 0 {
		entry := ArtistPreference{
			ArtistID:       artistID,
			FollowStatus:   m.social.FollowsArtist(b.UserID, artistID),
			RecentActivity: b.Timestamp,
		}
		switch b.Action {
		case ActionPlay, ActionShare, ActionAddToPlaylist:
			entry.PlayCount = 1
			entry.Score = 1.0
		case ActionSkip:
			entry.skipCount = 1
			entry.SkipRate = 1
		}
		p.FavoriteArtists = append(p.FavoriteArtists, entry)
		m.trimArtists(p)
		return
	}

	entry := &p.FavoriteArtists[idx]
	switch b.Action {
	case ActionPlay, ActionShare, ActionAddToPlaylist:
		entry.PlayCount++
	case ActionSkip:
		entry.skipCount++
	}
	entry.SkipRate = entrySkipRate(entry.skipCount, entry.PlayCount)
	entry.Score = artistScore(entry.PlayCount, p.TotalInteractions, entry.SkipRate, entry.FollowStatus)
	entry.RecentActivity = b.Timestamp
	m.trimArtists(p)
}

func (m *Manager) updateSkipBehavior(state *userState, b Behavior) {
	sb := &state.profile.SkipBehavior

	switch b.Action {
	case ActionPlay:
		sb.TotalPlays++
	case ActionSkip:
		sb.TotalSkips++
		if b.ListenDuration > 0 {
			state.skipPointTotal += b.ListenDuration
			state.skipPointSamples++
		}
	default:
		return
	}

	if total := sb.TotalSkips + sb.TotalPlays; total > 0 {
		sb.SkipRate = float64(sb.TotalSkips) / float64(total)
	}
	if state.skipPointSamples > 0 {
		sb.AverageSkipPoint = state.skipPointTotal / time.Duration(state.skipPointSamples)
	}
	sb.SkipAfterRepeat = sb.SkipRate > 0.7
	sb.SkipLongTracks = sb.AverageSkipPoint < 60*time.Second
}

// trimGenres keeps the top maxGenres entries by score; lower-ranked entries
// are discarded, not hidden.
func (m *Manager) trimGenres(p *Profile) {
	if len(p.FavoriteGenres) <= m.maxGenres {
		return
	}
	sortGenres(p.FavoriteGenres)
	p.FavoriteGenres = p.FavoriteGenres[:m.maxGenres]
}

func (m *Manager) trimArtists(p *Profile) {
	if len(p.FavoriteArtists) <= m.maxArtists {
		return
	}
	sortArtists(p.FavoriteArtists)
	p.FavoriteArtists = p.FavoriteArtists[:m.maxArtists]
}

// copyProfile returns a defensive copy so callers cannot mutate cached state.
func copyProfile(p *Profile) Profile {
	out := *p

	out.FavoriteGenres = make([]GenrePreference, len(p.FavoriteGenres))
	copy(out.FavoriteGenres, p.FavoriteGenres)

	out.FavoriteArtists = make([]ArtistPreference, len(p.FavoriteArtists))
	copy(out.FavoriteArtists, p.FavoriteArtists)

	out.ListeningPatterns = make(map[string]ListeningPattern, len(p.ListeningPatterns))
	for k, v := range p.ListeningPatterns {
		out.ListeningPatterns[k] = v
	}

	out.TimeBasedGenres = make(map[TimeOfDay][]string, len(p.TimeBasedGenres))
	for k, v := range p.TimeBasedGenres {
		genres := make([]string, len(v))
		copy(genres, v)
		out.TimeBasedGenres[k] = genres
	}
	return out
}
