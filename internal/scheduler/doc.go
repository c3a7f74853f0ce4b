// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

// Package scheduler supervises the long-running parts of the process
// under a suture tree: the periodic maintenance jobs (cache sweeps,
// trending recomputes) and the HTTP API server.
//
// Jobs and the API run under separate child supervisors so a
// crash-looping job never takes the API down with it. Supervisor
// events are logged through the zerolog-backed slog handler.
package scheduler
