package importer

import (
	"time"

	"github.com/matsen/papershelf/internal/dedupe"
	"github.com/matsen/papershelf/internal/paper"
)

// Import actions reported in MergeDetail.
const (
	ActionImport    = "import"
	ActionDuplicate = "duplicate"
)

// MergeResult is the outcome of merging candidates into a collection.
type MergeResult struct {
	ImportCount    int           `json:"importCount"`
	DuplicateCount int           `json:"duplicateCount"`
	Merged         []paper.Paper `json:"-"`
	Details        []MergeDetail `json:"details,omitempty"`
}

// MergeDetail describes what happened to one candidate.
type MergeDetail struct {
	Title     string `json:"title"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Merge appends every candidate whose title does not match an existing paper.
//
// Only the title rule applies here, and only against existing as it stood
// before the batch: two candidates with the same title are both imported.
// A candidate whose timestamp is already taken is moved forward by a
// millisecond until it is unique. existing is not modified.
func Merge(candidates, existing []paper.Paper) MergeResult {
	merged := make([]paper.Paper, len(existing), len(existing)+len(candidates))
	copy(merged, existing)

	taken := make(map[string]bool, len(existing)+len(candidates))
	for _, p := range existing {
		taken[p.Timestamp] = true
	}

	var result MergeResult
	for _, c := range candidates {
		if _, found := dedupe.FindByTitle(c.Title, existing); found {
			result.DuplicateCount++
			result.Details = append(result.Details, MergeDetail{Title: c.Title, Action: ActionDuplicate})
			continue
		}

		c.Timestamp = uniqueTimestamp(c.Timestamp, taken)
		taken[c.Timestamp] = true

		merged = append(merged, c)
		result.ImportCount++
		result.Details = append(result.Details, MergeDetail{Title: c.Title, Action: ActionImport, Timestamp: c.Timestamp})
	}

	result.Merged = merged
	return result
}

func uniqueTimestamp(ts string, taken map[string]bool) string {
	if !taken[ts] {
		return ts
	}
	t, err := paper.ParseTime(ts)
	if err != nil {
		t = time.Now()
	}
	for {
		t = t.Add(time.Millisecond)
		candidate := paper.FormatTime(t)
		if !taken[candidate] {
			return candidate
		}
	}
}
