package utils

import (
	"sort"
	"strings"
	"time"
)

// SortKey is one column of a multi-key sort. Desc is set by a leading "-".
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSort parses "status,-createdAt" into sort keys, dropping fields not in allowed.
func ParseSort(raw string, allowed map[string]bool) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			k = SortKey{Field: part[1:], Desc: true}
		} else if strings.HasPrefix(part, "+") {
			k.Field = part[1:]
		}
		if allowed[k.Field] {
			keys = append(keys, k)
		}
	}
	return keys
}

// SortBy stable-sorts items by keys. extract returns the comparable value of a
// field; values are compared as strings, so times should go through TimeKey.
func SortBy[T any](items []T, keys []SortKey, extract func(item T, field string) string) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			a, b := extract(items[i], k.Field), extract(items[j], k.Field)
			if a == b {
				continue
			}
			if k.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

// TimeKey renders t as a fixed-width string that sorts chronologically.
func TimeKey(t time.Time) string {
	return t.UTC().Format("20060102150405.000000000")
}

// MatchesSearch reports whether any field contains query, ignoring case.
func MatchesSearch(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
