// Package view filters, searches and orders an in-memory paper list.
package view

import (
	"sort"
	"strings"

	"github.com/matsen/papershelf/internal/paper"
)

// Filters are independent boolean predicates combined with AND.
// A disabled filter lets every paper through.
type Filters struct {
	NeedsImprovement bool
	HasGithub        bool
}

// Fields selects which fields a search term is matched against.
type Fields struct {
	Title    bool
	Authors  bool
	Abstract bool
	Comment  bool
}

// AllFields enables searching every field.
var AllFields = Fields{Title: true, Authors: true, Abstract: true, Comment: true}

// ParseFields builds Fields from names such as "title" or "comment".
// Unknown names are returned as the second value.
func ParseFields(names []string) (Fields, []string) {
	var f Fields
	var unknown []string
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "title":
			f.Title = true
		case "authors", "author":
			f.Authors = true
		case "abstract":
			f.Abstract = true
		case "comment", "comments":
			f.Comment = true
		case "":
		default:
			unknown = append(unknown, n)
		}
	}
	return f, unknown
}

// Apply returns the papers passing filters and search, newest first.
// Papers with equal timestamps keep their original relative order.
// The input slice is not modified.
func Apply(papers []paper.Paper, filters Filters, search string, fields Fields) []paper.Paper {
	term := strings.ToLower(search)

	out := make([]paper.Paper, 0, len(papers))
	for _, p := range papers {
		if filters.NeedsImprovement && !p.NeedsImprovement {
			continue
		}
		if filters.HasGithub && !p.HasGithub {
			continue
		}
		if term != "" && !matches(p, term, fields) {
			continue
		}
		out = append(out, p)
	}

	SortNewestFirst(out)
	return out
}

// SortNewestFirst stable-sorts papers by timestamp, most recent first.
func SortNewestFirst(papers []paper.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Created().After(papers[j].Created())
	})
}

// matches reports whether any enabled field contains term.
// term must already be lower-cased.
func matches(p paper.Paper, term string, fields Fields) bool {
	if fields.Title && contains(p.Title, term) {
		return true
	}
	if fields.Authors && contains(p.Authors, term) {
		return true
	}
	if fields.Abstract && contains(p.Abstract, term) {
		return true
	}
	if fields.Comment && contains(p.Comment, term) {
		return true
	}
	return false
}

func contains(s, term string) bool {
	return strings.Contains(strings.ToLower(s), term)
}
