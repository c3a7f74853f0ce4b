// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/profile"
	"github.com/perhassle/tunegraph/internal/recommend"
	"github.com/perhassle/tunegraph/internal/trending"
)

var validate = validator.New()

// Handler serves the recommendation engine's HTTP endpoints.
type Handler struct {
	engine   *recommend.Engine
	profiles *profile.Manager
	trends   *trending.Analyzer
	logger   zerolog.Logger
}

// NewHandler wires a handler over the engine and its aggregators.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine *recommend.Engine, profiles *profile.Manager, trends *trending.Analyzer, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		profiles: profiles,
		trends:   trends,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// errorResponse is the JSON envelope for failed requests.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a JSON response with proper headers.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // HTTP response write errors are not recoverable
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// BehaviorRequest is the ingest payload for one behavior event.
type BehaviorRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	TrackID   string `json:"track_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=play skip share add-to-playlist"`
	Timestamp string `json:"timestamp,omitempty"`

	// ListenDurationMS is how long the user listened, in milliseconds.
	ListenDurationMS int64 `json:"listen_duration_ms,omitempty" validate:"gte=0"`

	// Region and AgeGroup are optional play dimensions for trending.
	Region   string `json:"region,omitempty"`
	AgeGroup string `json:"age_group,omitempty"`
}

// behaviorResponse acknowledges an accepted event.
type behaviorResponse struct {
	Success        bool  `json:"success"`
	ProfileVersion int64 `json:"profile_version"`
}

// RecordBehavior handles POST /api/v1/behavior. Valid events are
// applied synchronously and acknowledged with 202.
func (h *Handler) RecordBehavior(w http.ResponseWriter, r *http.Request) {
	var req BehaviorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "timestamp must be RFC3339")
			return
		}
		ts = parsed
	}

	h.engine.RecordBehaviorContext(profile.Behavior{
		UserID:         req.UserID,
		TrackID:        req.TrackID,
		Action:         profile.Action(req.Action),
		Timestamp:      ts,
		ListenDuration: time.Duration(req.ListenDurationMS) * time.Millisecond,
	}, trending.PlayContext{Region: req.Region, AgeGroup: req.AgeGroup})

	writeJSON(w, http.StatusAccepted, behaviorResponse{
		Success:        true,
		ProfileVersion: h.profiles.ProfileVersion(req.UserID),
	})
}

// Recommendations handles GET /api/v1/recommendations.
//
// Query parameters: user_id (required), section, limit, algorithm,
// diversity, freshness, exclude, seed_tracks, seed_artists,
// seed_genres (comma-separated lists), and the context fields mood,
// activity and location.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	req := recommend.Request{
		UserID:          userID,
		Section:         recommend.SectionType(q.Get("section")),
		Algorithm:       q.Get("algorithm"),
		DiversityLevel:  recommend.Level(q.Get("diversity")),
		FreshnessLevel:  recommend.Level(q.Get("freshness")),
		ExcludeTrackIDs: splitList(q.Get("exclude")),
		SeedTracks:      splitList(q.Get("seed_tracks")),
		SeedArtists:     splitList(q.Get("seed_artists")),
		SeedGenres:      splitList(q.Get("seed_genres")),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		req.Limit = n
	}
	ctx := recommend.Context{
		TimeOfDay: q.Get("time_of_day"),
		DayOfWeek: q.Get("day_of_week"),
		Season:    q.Get("season"),
		Activity:  q.Get("activity"),
		Mood:      q.Get("mood"),
		Location:  q.Get("location"),
	}
	if ctx != (recommend.Context{}) {
		req.Context = &ctx
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrUnknownSection):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Recommendation request failed")
			writeError(w, http.StatusInternalServerError, "recommendation generation failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TrendingTracks handles GET /api/v1/trending. The optional region
// parameter switches to regional trending.
func (h *Handler) TrendingTracks(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, 20)
	if !ok {
		return
	}
	if region := r.URL.Query().Get("region"); region != "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"region": region,
			"tracks": h.trends.GetRegionalTrending(region, limit),
		})
		return
	}
	tracks := h.trends.GetTrendingTracks(limit)
	if tracks == nil {
		tracks = []trending.Trending{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": tracks,
	})
}

// PopularTracks handles GET /api/v1/popular.
func (h *Handler) PopularTracks(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, 20)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": h.trends.GetPopularTracks(limit),
	})
}

// GenrePopularity handles GET /api/v1/genres/{genre}/popularity.
func (h *Handler) GenrePopularity(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	writeJSON(w, http.StatusOK, h.trends.GetGenrePopularity(genre))
}

// Profile handles GET /api/v1/profile/{userID}. Profiles always
// exist; users without history get a default profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	writeJSON(w, http.StatusOK, h.profiles.GetProfile(userID))
}

// RebuildProfile handles POST /api/v1/profile/{userID}/rebuild,
// forcing a full recompute from the behavior log.
func (h *Handler) RebuildProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	prof := h.profiles.RebuildProfile(userID)
	h.engine.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, prof)
}

// InvalidateCache handles DELETE /api/v1/cache/{userID}. An optional
// section query parameter narrows the invalidation to one section.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var removed int
	if section := r.URL.Query().Get("section"); section != "" {
		st := recommend.SectionType(section)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "unknown section: "+section)
			return
		}
		removed = h.engine.InvalidateUserSection(userID, st)
	} else {
		removed = h.engine.InvalidateUser(userID)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	requests, hits := h.engine.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"requests":   requests,
		"cache_hits": hits,
	})
}

// limitParam parses the limit query parameter with a default, writing
// a 400 and returning ok=false when it is malformed.
func limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
		return 0, false
	}
	return n, true
}

// splitList parses a comma-separated query value, dropping empty
// elements.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
