// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/perhassle/tunegraph/internal/catalog"
	"github.com/perhassle/tunegraph/internal/profile"
	"github.com/perhassle/tunegraph/internal/recommend"
	"github.com/perhassle/tunegraph/internal/trending"
)

type testServer struct {
	handler  http.Handler
	profiles *profile.Manager
	trends   *trending.Analyzer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	meta := catalog.NewFixture()
	logger := zerolog.Nop()
	profiles := profile.NewManager(meta, profile.Options{}, logger)
	trends := trending.NewAnalyzer(meta, trending.Options{}, logger)
	cache := recommend.NewCache(recommend.CacheOptions{}, logger)
	engine := recommend.NewEngine(profiles, trends, cache, nil, logger)
	h := NewHandler(engine, profiles, trends, logger)
	return &testServer{
		handler:  Routes(h, RouterConfig{IngestRateLimit: 10000}),
		profiles: profiles,
		trends:   trends,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRecordBehaviorAccepted(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
		UserID:           "user-1",
		TrackID:          "track-1",
		Action:           "play",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ListenDurationMS: 180_000,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success        bool  `json:"success"`
		ProfileVersion int64 `json:"profile_version"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.ProfileVersion != 2 {
		t.Errorf("profile version = %d, want 2 after first event", resp.ProfileVersion)
	}
}

func TestRecordBehaviorValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  BehaviorRequest
	}{
		{"missing user", BehaviorRequest{TrackID: "track-1", Action: "play"}},
		{"missing track", BehaviorRequest{UserID: "user-1", Action: "play"}},
		{"bad action", BehaviorRequest{UserID: "user-1", TrackID: "track-1", Action: "loved"}},
		{"negative duration", BehaviorRequest{UserID: "user-1", TrackID: "track-1", Action: "play", ListenDurationMS: -5}},
		{"bad timestamp", BehaviorRequest{UserID: "user-1", TrackID: "track-1", Action: "play", Timestamp: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/behavior", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRecordBehaviorMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/behavior", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsRequiresUserID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/recommendations", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsRejectsUnknownSection(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsRejectsBadLimit(t *testing.T) {
	s := newTestServer(t)

	for _, limit := range []string{"0", "-1", "101", "many"} {
		rec := s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&limit="+limit, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestRecommendationsEndToEnd(t *testing.T) {
	s := newTestServer(t)

	// Seed some global popularity so the generator has candidates.
	for i := 0; i < 20; i++ {
		rec := s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
			UserID:           fmt.Sprintf("listener-%d", i%4),
			TrackID:          fmt.Sprintf("track-%d", i),
			Action:           "play",
			ListenDurationMS: 200_000,
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("seed event rejected: %d", rec.Code)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=charts_top&limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	decodeBody(t, rec, &resp)
	if len(resp.Tracks) == 0 {
		t.Fatal("expected tracks in response")
	}
	if len(resp.Tracks) > 5 {
		t.Errorf("got %d tracks, want at most 5", len(resp.Tracks))
	}
	if resp.Metadata.CacheHit {
		t.Error("first request should not be a cache hit")
	}
	if resp.Metadata.RequestID == "" {
		t.Error("response should carry a request id")
	}

	// Same request again: served from cache.
	rec = s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=charts_top&limit=5", nil)
	var cached recommend.Response
	decodeBody(t, rec, &cached)
	if !cached.Metadata.CacheHit {
		t.Error("second request should be a cache hit")
	}
}

func TestProfileEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/profile/user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var prof profile.Profile
	decodeBody(t, rec, &prof)
	if prof.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", prof.UserID)
	}
	if prof.Version != 1 {
		t.Errorf("default profile version = %d, want 1", prof.Version)
	}
}

func TestRebuildProfileEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
		UserID: "user-1", TrackID: "track-1", Action: "play", ListenDurationMS: 200_000,
	})
	rec := s.do(t, http.MethodPost, "/api/v1/profile/user-1/rebuild", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var prof profile.Profile
	decodeBody(t, rec, &prof)
	if prof.TotalInteractions != 1 {
		t.Errorf("total interactions = %d, want 1", prof.TotalInteractions)
	}
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
		UserID: "listener-1", TrackID: "track-1", Action: "play", ListenDurationMS: 200_000,
	})
	s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=charts_top", nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/cache/user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Removed int  `json:"removed"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Removed != 1 {
		t.Errorf("response = %+v, want one removed entry", resp)
	}
}

func TestInvalidateCacheSectionScoped(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
		UserID: "listener-1", TrackID: "track-1", Action: "play", ListenDurationMS: 200_000,
	})
	s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=charts_top", nil)
	s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=daily_mix", nil)
	s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-2&section=charts_top", nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/cache/user-1?section=charts_top", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Removed int  `json:"removed"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Removed != 1 {
		t.Errorf("response = %+v, want exactly the one charts_top entry removed", resp)
	}

	// The user's other section and the other user's entry stay cached.
	var kept recommend.Response
	rec = s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-1&section=daily_mix", nil)
	decodeBody(t, rec, &kept)
	if !kept.Metadata.CacheHit {
		t.Error("user-1 daily_mix should still be cached")
	}
	rec = s.do(t, http.MethodGet, "/api/v1/recommendations?user_id=user-2&section=charts_top", nil)
	decodeBody(t, rec, &kept)
	if !kept.Metadata.CacheHit {
		t.Error("user-2 charts_top should still be cached")
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/cache/user-1?section=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown section status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsContextParams(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/behavior", BehaviorRequest{
		UserID: "listener-1", TrackID: "track-1", Action: "play", ListenDurationMS: 200_000,
	})

	morning := "/api/v1/recommendations?user_id=user-1&section=charts_top&time_of_day=morning&day_of_week=monday&season=winter"
	evening := "/api/v1/recommendations?user_id=user-1&section=charts_top&time_of_day=evening&day_of_week=monday&season=winter"

	rec := s.do(t, http.MethodGet, morning, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// A different time_of_day is a different request, not a cache hit.
	var resp recommend.Response
	rec = s.do(t, http.MethodGet, evening, nil)
	decodeBody(t, rec, &resp)
	if resp.Metadata.CacheHit {
		t.Error("different context should not share a cache entry")
	}

	// The same context repeated is.
	rec = s.do(t, http.MethodGet, morning, nil)
	decodeBody(t, rec, &resp)
	if !resp.Metadata.CacheHit {
		t.Error("identical context should be served from cache")
	}
}

func TestTrendingEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/trending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Tracks []trending.Trending `json:"tracks"`
	}
	decodeBody(t, rec, &resp)
	if resp.Tracks == nil {
		t.Error("tracks should be an empty list, not null")
	}
}

func TestGenrePopularityEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/genres/Pop/popularity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp trending.GenrePopularity
	decodeBody(t, rec, &resp)
	if resp.Genre != "Pop" {
		t.Errorf("genre = %q, want Pop", resp.Genre)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
