// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package profile

import (
	"sync"
)

// BehaviorStore is an append-only per-user event log, bounded to the most
// recent maxEvents entries per user with FIFO eviction. It is safe for
// concurrent use; callers needing read-modify-write consistency with the
// profile state serialize through the Manager's per-user locks.
type BehaviorStore struct {
	mu        sync.RWMutex
	events    map[string][]Behavior
	maxEvents int
}

// NewBehaviorStore creates a store bounded at maxEvents entries per user.
func NewBehaviorStore(maxEvents int) *BehaviorStore {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	return &BehaviorStore{
		events:    make(map[string][]Behavior),
		maxEvents: maxEvents,
	}
}

// Append records an event for its user, dropping the oldest entry when the
// log is full.
func (s *BehaviorStore) Append(b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.events[b.UserID]
	if len(log) >= s.maxEvents {
		// Shift in place rather than re-slicing so the backing array does
		// not grow without bound.
		copy(log, log[1:])
		log[len(log)-1] = b
	} else {
		log = append(log, b)
	}
	s.events[b.UserID] = log
}

// Events returns a copy of the user's event log, oldest first. An unknown
// user yields an empty slice, not nil handling burden for callers.
func (s *BehaviorStore) Events(userID string) []Behavior {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.events[userID]
	out := make([]Behavior, len(log))
	copy(out, log)
	return out
}

// Len returns the number of stored events for the user.
func (s *BehaviorStore) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[userID])
}

// Users returns the IDs of all users with at least one stored event.
func (s *BehaviorStore) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.events))
	for id := range s.events {
		users = append(users, id)
	}
	return users
}

// Drop removes a user's entire log.
func (s *BehaviorStore) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, userID)
}
