// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package profile

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestBehaviorStore_AppendAndRead(t *testing.T) {
	store := NewBehaviorStore(1000)

	store.Append(Behavior{UserID: "u1", TrackID: "t1", Action: ActionPlay, Timestamp: time.Now()})
	store.Append(Behavior{UserID: "u1", TrackID: "t2", Action: ActionSkip, Timestamp: time.Now()})
	store.Append(Behavior{UserID: "u2", TrackID: "t3", Action: ActionPlay, Timestamp: time.Now()})

	if got := store.Len("u1"); got != 2 {
		t.Errorf("Expected 2 events for u1, got %d", got)
	}
	if got := store.Len("u2"); got != 1 {
		t.Errorf("Expected 1 event for u2, got %d", got)
	}

	events := store.Events("u1")
	if events[0].TrackID != "t1" || events[1].TrackID != "t2" {
		t.Errorf("Events out of order: %+v", events)
	}
}

func TestBehaviorStore_FIFOBound(t *testing.T) {
	store := NewBehaviorStore(1000)

	// Exceed the bound by 500 events.
	for i := 0; i < 1500; i++ {
		store.Append(Behavior{
			UserID:  "u1",
			TrackID: "track-" + strconv.Itoa(i),
			Action:  ActionPlay,
		})
	}

	if got := store.Len("u1"); got != 1000 {
		t.Fatalf("Expected log bounded at exactly 1000, got %d", got)
	}

	// The retained events must be the most recent 1000: 500..1499.
	events := store.Events("u1")
	if events[0].TrackID != "track-500" {
		t.Errorf("Expected oldest retained event track-500, got %s", events[0].TrackID)
	}
	if events[len(events)-1].TrackID != "track-1499" {
		t.Errorf("Expected newest event track-1499, got %s", events[len(events)-1].TrackID)
	}
}

func TestBehaviorStore_EventsReturnsCopy(t *testing.T) {
	store := NewBehaviorStore(10)
	store.Append(Behavior{UserID: "u1", TrackID: "t1", Action: ActionPlay})

	events := store.Events("u1")
	events[0].TrackID = "mutated"

	if store.Events("u1")[0].TrackID != "t1" {
		t.Error("Store state mutated through returned slice")
	}
}

func TestBehaviorStore_UnknownUser(t *testing.T) {
	store := NewBehaviorStore(10)

	if events := store.Events("nobody"); len(events) != 0 {
		t.Errorf("Expected empty slice for unknown user, got %d events", len(events))
	}
	if store.Len("nobody") != 0 {
		t.Error("Expected zero length for unknown user")
	}
}

func TestBehaviorStore_Drop(t *testing.T) {
	store := NewBehaviorStore(10)
	store.Append(Behavior{UserID: "u1", TrackID: "t1", Action: ActionPlay})

	store.Drop("u1")
	if store.Len("u1") != 0 {
		t.Error("Expected empty log after Drop")
	}
}

func TestBehaviorStore_ConcurrentAppends(t *testing.T) {
	store := NewBehaviorStore(1000)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			id := "user-" + strconv.Itoa(user)
			for i := 0; i < 200; i++ {
				store.Append(Behavior{UserID: id, TrackID: "t", Action: ActionPlay})
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		id := "user-" + strconv.Itoa(u)
		if got := store.Len(id); got != 200 {
			t.Errorf("Expected 200 events for %s, got %d", id, got)
		}
	}
	if got := len(store.Users()); got != 8 {
		t.Errorf("Expected 8 users, got %d", got)
	}
}
