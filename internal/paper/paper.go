// Package paper defines the core domain type for saved papers.
package paper

import (
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for Timestamp and LastEdited.
// Values are always rendered in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Paper is one saved bibliographic entry with user annotations.
type Paper struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Comment  string `json:"comment"`
	URL      string `json:"url"`

	// Timestamp is the creation time and doubles as the row identifier.
	// It is never rewritten after creation.
	Timestamp  string `json:"timestamp"`
	LastEdited string `json:"lastEdited,omitempty"`

	NeedsImprovement bool `json:"needsImprovement"`
	HasGithub        bool `json:"hasGithub"`
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses an ISO-8601 timestamp. RFC 3339 values without
// milliseconds are accepted too.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Created returns the parsed Timestamp, or the zero time if it is malformed.
func (p Paper) Created() time.Time {
	t, err := ParseTime(p.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Edited returns the parsed LastEdited and whether it is set and valid.
func (p Paper) Edited() (time.Time, bool) {
	if p.LastEdited == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(p.LastEdited)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SameTitle reports whether two titles match under the dedup rule:
// case-insensitive, no other normalization.
func SameTitle(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}
