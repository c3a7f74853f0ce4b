// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// cacheKey derives a deterministic cache key for a request. Two
// requests that are semantically identical must map to the same key,
// so list-valued fields are sorted before hashing and empty optional
// fields are omitted from the canonical form.
func cacheKey(r Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rec|user=%s|section=%s|limit=%d|", r.UserID, r.Section, r.Limit)
	if r.Algorithm != "" {
		fmt.Fprintf(&b, "algorithm=%s|", r.Algorithm)
	}
	fmt.Fprintf(&b, "diversity=%s|freshness=%s|", r.DiversityLevel, r.FreshnessLevel)
	appendSorted(&b, "exclude", r.ExcludeTrackIDs)
	appendSorted(&b, "seed_tracks", r.SeedTracks)
	appendSorted(&b, "seed_artists", r.SeedArtists)
	appendSorted(&b, "seed_genres", r.SeedGenres)
	if r.Context != nil {
		fmt.Fprintf(&b, "ctx=%s,%s,%s,%s,%s,%s|",
			r.Context.TimeOfDay, r.Context.DayOfWeek, r.Context.Season,
			r.Context.Activity, r.Context.Mood, r.Context.Location)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s:%s", r.Section, escapeKeySegment(r.UserID), hex.EncodeToString(hash[:12]))
}

// escapeKeySegment makes a user ID safe to embed between the key's
// colon delimiters. The escaped form contains no ":", so prefix scans
// for one user can never match another user whose ID merely extends
// it past a colon.
func escapeKeySegment(s string) string {
	return url.QueryEscape(s)
}

// appendSorted writes a list field in canonical order. Nil and empty
// lists produce no output so they hash identically.
func appendSorted(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	fmt.Fprintf(b, "%s=%s|", name, strings.Join(sorted, ","))
}

// keyMatchesUser reports whether key belongs to the user, used for
// targeted invalidation scans.
func keyMatchesUser(key, userID string) bool {
	i := strings.IndexByte(key, ':')
	if i < 0 {
		return false
	}
	rest := key[i+1:]
	return strings.HasPrefix(rest, escapeKeySegment(userID)+":")
}

// keyMatchesUserSection reports whether key belongs to the user within
// the section.
func keyMatchesUserSection(key, userID string, section SectionType) bool {
	return strings.HasPrefix(key, string(section)+":"+escapeKeySegment(userID)+":")
}

// keyMatchesSection reports whether key belongs to the section, for
// any user.
func keyMatchesSection(key string, section SectionType) bool {
	return strings.HasPrefix(key, string(section)+":")
}
