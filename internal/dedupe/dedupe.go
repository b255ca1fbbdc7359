// Package dedupe decides whether an incoming paper already exists.
//
// Two rules are in use. Single saves match on title OR url; bulk imports
// match on title only.
package dedupe

import (
	"strings"

	"github.com/matsen/papershelf/internal/paper"
)

// FindExisting returns the index of the first paper whose title matches
// title case-insensitively or whose url equals url exactly.
func FindExisting(title, url string, papers []paper.Paper) (int, bool) {
	for i, p := range papers {
		if paper.SameTitle(p.Title, title) || p.URL == url {
			return i, true
		}
	}
	return -1, false
}

// FindByTitle returns the index of the first paper whose title matches
// title case-insensitively.
func FindByTitle(title string, papers []paper.Paper) (int, bool) {
	for i, p := range papers {
		if paper.SameTitle(p.Title, title) {
			return i, true
		}
	}
	return -1, false
}

// FindByTimestamp searches for a paper by its identity timestamp.
func FindByTimestamp(timestamp string, papers []paper.Paper) (int, bool) {
	if timestamp == "" {
		return -1, false
	}
	for i, p := range papers {
		if p.Timestamp == timestamp {
			return i, true
		}
	}
	return -1, false
}

// Conflict kinds reported by Conflicts.
const (
	ConflictTitle     = "duplicate_title"
	ConflictURL       = "duplicate_url"
	ConflictTimestamp = "duplicate_timestamp"
)

// Conflict is a group of papers violating a uniqueness invariant.
type Conflict struct {
	Type    string `json:"type"`
	Key     string `json:"key"`
	Indexes []int  `json:"indexes"`
}

// Conflicts reports every group of papers sharing a case-insensitive
// title, an url or a timestamp. Groups are returned in order of first
// appearance.
func Conflicts(papers []paper.Paper) []Conflict {
	var out []Conflict
	out = append(out, groupBy(papers, ConflictTitle, func(p paper.Paper) string {
		return strings.ToLower(p.Title)
	})...)
	out = append(out, groupBy(papers, ConflictURL, func(p paper.Paper) string {
		return p.URL
	})...)
	out = append(out, groupBy(papers, ConflictTimestamp, func(p paper.Paper) string {
		return p.Timestamp
	})...)
	return out
}

func groupBy(papers []paper.Paper, kind string, key func(paper.Paper) string) []Conflict {
	groups := make(map[string][]int)
	var order []string
	for i, p := range papers {
		k := key(p)
		if k == "" {
			continue // Empty keys never identify anything
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var out []Conflict
	for _, k := range order {
		if len(groups[k]) > 1 {
			out = append(out, Conflict{Type: kind, Key: k, Indexes: groups[k]})
		}
	}
	return out
}
