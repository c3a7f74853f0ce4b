// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package api provides the HTTP surface of the recommendation engine
// using the chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	// IngestRateLimit is the per-IP request budget per minute for the
	// behavior ingest endpoint. Default 600.
	IngestRateLimit int
}

// Routes assembles the HTTP routes for the handler.
func Routes(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.IngestRateLimit <= 0 {
		cfg.IngestRateLimit = 600
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Ingest takes the full event firehose and gets its own budget.
		r.With(httprate.LimitByIP(cfg.IngestRateLimit, time.Minute)).
			Post("/behavior", h.RecordBehavior)

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(300, time.Minute))

			r.Get("/recommendations", h.Recommendations)
			r.Get("/trending", h.TrendingTracks)
			r.Get("/popular", h.PopularTracks)
			r.Get("/genres/{genre}/popularity", h.GenrePopularity)
			r.Get("/profile/{userID}", h.Profile)
			r.Post("/profile/{userID}/rebuild", h.RebuildProfile)
			r.Delete("/cache/{userID}", h.InvalidateCache)
		})
	})

	return r
}
