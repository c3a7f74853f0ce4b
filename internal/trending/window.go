// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package trending

import (
	"time"
)

// hoursTracked is the span of the hourly play window: the current 24h
// window plus the previous 24h window used for velocity.
const hoursTracked = 48

// hourWindow is a circular buffer of hourly play counts covering the last
// 48 hours. The window advances lazily on access: buckets whose hour has
// passed are zeroed before reads and writes, so an idle track costs nothing.
//
// Not safe for concurrent use; the analyzer guards each track's window with
// its shard lock.
type hourWindow struct {
	buckets  [hoursTracked]int64
	lastHour int64 // absolute hour index of the most recent advance
}

// advance zeroes all buckets between lastHour and the current hour.
func (w *hourWindow) advance(now time.Time) {
	cur := now.Unix() / 3600
	if w.lastHour == 0 {
		w.lastHour = cur
		return
	}
	if cur <= w.lastHour {
		return
	}

	elapsed := cur - w.lastHour
	if elapsed >= hoursTracked {
		w.buckets = [hoursTracked]int64{}
	} else {
		for h := w.lastHour + 1; h <= cur; h++ {
			w.buckets[h%hoursTracked] = 0
		}
	}
	w.lastHour = cur
}

// add records one play at the given time.
func (w *hourWindow) add(now time.Time) {
	w.advance(now)
	w.buckets[(now.Unix()/3600)%hoursTracked]++
}

// last24h returns plays in the 24 hours ending now.
func (w *hourWindow) last24h(now time.Time) int64 {
	w.advance(now)
	cur := now.Unix() / 3600

	var total int64
	for h := cur - 23; h <= cur; h++ {
		if h >= 0 {
			total += w.buckets[h%hoursTracked]
		}
	}
	return total
}

// prev24h returns plays in the 24-hour window before the last24h window.
func (w *hourWindow) prev24h(now time.Time) int64 {
	w.advance(now)
	cur := now.Unix() / 3600

	var total int64
	for h := cur - 47; h <= cur-24; h++ {
		if h >= 0 {
			total += w.buckets[h%hoursTracked]
		}
	}
	return total
}

// dayHistory keeps daily play totals over a rolling window, pruned on write.
type dayHistory struct {
	days    map[int64]int64 // absolute day index -> plays
	maxDays int
}

func newDayHistory(maxDays int) *dayHistory {
	return &dayHistory{
		days:    make(map[int64]int64),
		maxDays: maxDays,
	}
}

// add records plays for the day containing now and prunes entries older
// than the rolling window.
func (h *dayHistory) add(now time.Time, n int64) {
	day := now.Unix() / 86400
	h.days[day] += n

	cutoff := day - int64(h.maxDays)
	for d := range h.days {
		if d <= cutoff {
			delete(h.days, d)
		}
	}
}

// total returns the play count across the retained window.
func (h *dayHistory) total() int64 {
	var sum int64
	for _, n := range h.days {
		sum += n
	}
	return sum
}
