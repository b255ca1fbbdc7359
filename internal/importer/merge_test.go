package importer

import (
	"testing"

	"github.com/matsen/papershelf/internal/paper"
)

func TestMerge_TitleOnlyDedup(t *testing.T) {
	existing := []paper.Paper{
		{Title: "Attention Is All You Need", URL: "https://arxiv.org/abs/1706.03762", Timestamp: "2026-01-01T00:00:00.000Z"},
	}
	candidates := []paper.Paper{
		{Title: "attention is all you need", URL: "https://other.example", Timestamp: "2026-02-01T00:00:00.000Z"},
		// Same URL as existing but different title: the import rule ignores URLs.
		{Title: "A Different Title", URL: "https://arxiv.org/abs/1706.03762", Timestamp: "2026-02-01T00:00:00.001Z"},
	}

	res := Merge(candidates, existing)
	if res.DuplicateCount != 1 || res.ImportCount != 1 {
		t.Errorf("Merge() = import %d dup %d, want 1/1", res.ImportCount, res.DuplicateCount)
	}
	if len(res.Merged) != 2 {
		t.Fatalf("Merged = %d papers, want 2", len(res.Merged))
	}
	if res.Merged[1].Title != "A Different Title" {
		t.Errorf("Merged[1] = %+v", res.Merged[1])
	}
	if res.Details[0].Action != ActionDuplicate || res.Details[1].Action != ActionImport {
		t.Errorf("Details = %+v", res.Details)
	}
}

func TestMerge_NoCrossCheckWithinBatch(t *testing.T) {
	candidates := []paper.Paper{
		{Title: "Twin", Timestamp: "2026-01-01T00:00:00.000Z"},
		{Title: "TWIN", Timestamp: "2026-01-01T00:00:00.001Z"},
	}

	res := Merge(candidates, nil)
	if res.ImportCount != 2 {
		t.Errorf("ImportCount = %d, want 2", res.ImportCount)
	}
}

func TestMerge_AppendsInInputOrder(t *testing.T) {
	existing := []paper.Paper{{Title: "Old", Timestamp: "2025-01-01T00:00:00.000Z"}}
	candidates := []paper.Paper{
		{Title: "C", Timestamp: "2026-01-03T00:00:00.000Z"},
		{Title: "A", Timestamp: "2026-01-01T00:00:00.000Z"},
		{Title: "B", Timestamp: "2026-01-02T00:00:00.000Z"},
	}

	res := Merge(candidates, existing)
	want := []string{"Old", "C", "A", "B"}
	for i, w := range want {
		if res.Merged[i].Title != w {
			t.Errorf("Merged[%d] = %s, want %s", i, res.Merged[i].Title, w)
		}
	}
	if len(existing) != 1 {
		t.Errorf("existing modified: %+v", existing)
	}
}

func TestMerge_BumpsCollidingTimestamps(t *testing.T) {
	ts := "2026-01-01T00:00:00.000Z"
	existing := []paper.Paper{{Title: "Old", Timestamp: ts}}
	candidates := []paper.Paper{
		{Title: "New 1", Timestamp: ts},
		{Title: "New 2", Timestamp: ts},
	}

	res := Merge(candidates, existing)
	seen := map[string]bool{}
	for _, p := range res.Merged {
		if seen[p.Timestamp] {
			t.Errorf("duplicate timestamp %s in %+v", p.Timestamp, res.Merged)
		}
		seen[p.Timestamp] = true
	}
	if res.Merged[1].Timestamp != "2026-01-01T00:00:00.001Z" {
		t.Errorf("Merged[1].Timestamp = %s", res.Merged[1].Timestamp)
	}
	if res.Merged[2].Timestamp != "2026-01-01T00:00:00.002Z" {
		t.Errorf("Merged[2].Timestamp = %s", res.Merged[2].Timestamp)
	}
}
