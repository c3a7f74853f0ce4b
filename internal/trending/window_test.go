// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package trending

import (
	"testing"
	"time"
)

var windowBase = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func TestHourWindow_CountsSplitByDay(t *testing.T) {
	var w hourWindow

	// 6 plays in the previous 24h window, 9 in the current one.
	for i := 0; i < 6; i++ {
		w.add(windowBase.Add(-30 * time.Hour))
	}
	for i := 0; i < 9; i++ {
		w.add(windowBase.Add(-2 * time.Hour))
	}

	if got := w.last24h(windowBase); got != 9 {
		t.Errorf("last24h = %d, want 9", got)
	}
	if got := w.prev24h(windowBase); got != 6 {
		t.Errorf("prev24h = %d, want 6", got)
	}
}

func TestHourWindow_ExpiresOldBuckets(t *testing.T) {
	var w hourWindow

	w.add(windowBase)
	w.add(windowBase)

	later := windowBase.Add(49 * time.Hour)
	if got := w.last24h(later); got != 0 {
		t.Errorf("last24h after expiry = %d, want 0", got)
	}
	if got := w.prev24h(later); got != 0 {
		t.Errorf("prev24h after expiry = %d, want 0", got)
	}
}

func TestHourWindow_RollsIntoPrevious(t *testing.T) {
	var w hourWindow

	w.add(windowBase)
	w.add(windowBase)

	// 30 hours later those plays sit in the previous-24h window.
	later := windowBase.Add(30 * time.Hour)
	if got := w.last24h(later); got != 0 {
		t.Errorf("last24h = %d, want 0", got)
	}
	if got := w.prev24h(later); got != 2 {
		t.Errorf("prev24h = %d, want 2", got)
	}
}

func TestDayHistory_PrunesOldDays(t *testing.T) {
	h := newDayHistory(30)

	h.add(windowBase.Add(-40*24*time.Hour), 100)
	h.add(windowBase.Add(-10*24*time.Hour), 5)
	h.add(windowBase, 3)

	if got := h.total(); got != 8 {
		t.Errorf("total = %d, want 8 (40-day-old entry pruned)", got)
	}
}

func TestDayHistory_AccumulatesSameDay(t *testing.T) {
	h := newDayHistory(30)

	h.add(windowBase, 1)
	h.add(windowBase.Add(time.Hour), 1)
	h.add(windowBase.Add(2*time.Hour), 1)

	if got := h.total(); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
	if got := len(h.days); got != 1 {
		t.Errorf("expected single day bucket, got %d", got)
	}
}
