package dedupe

import (
	"testing"

	"github.com/matsen/papershelf/internal/paper"
)

func samplePapers() []paper.Paper {
	return []paper.Paper{
		{Title: "Attention Is All You Need", URL: "https://arxiv.org/abs/1706.03762", Timestamp: "2026-01-01T00:00:00.000Z"},
		{Title: "Deep Residual Learning", URL: "https://arxiv.org/abs/1512.03385", Timestamp: "2026-01-02T00:00:00.000Z"},
	}
}

func TestFindExisting(t *testing.T) {
	papers := samplePapers()

	tests := []struct {
		name    string
		title   string
		url     string
		wantIdx int
		wantOK  bool
	}{
		{"title different case, other url", "attention is all you need", "https://example.org/other", 0, true},
		{"url only", "Something Else", "https://arxiv.org/abs/1512.03385", 1, true},
		{"no match", "Something Else", "https://example.org/other", -1, false},
		{"whitespace differs", "Attention  Is All You Need", "https://example.org/other", -1, false},
		{"url differs by trailing slash", "X", "https://arxiv.org/abs/1512.03385/", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := FindExisting(tt.title, tt.url, papers)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("FindExisting() = (%d, %v), want (%d, %v)", idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestFindExisting_FirstMatchWins(t *testing.T) {
	papers := []paper.Paper{
		{Title: "A", URL: "https://b.example"},
		{Title: "B", URL: "https://a.example"},
	}
	// Title matches index 0, url matches index 1: list order decides.
	idx, ok := FindExisting("a", "https://a.example", papers)
	if !ok || idx != 0 {
		t.Errorf("FindExisting() = (%d, %v), want (0, true)", idx, ok)
	}
}

func TestFindByTitle_IgnoresURL(t *testing.T) {
	papers := samplePapers()

	if _, ok := FindByTitle("Unrelated", papers); ok {
		t.Error("FindByTitle() matched unrelated title")
	}
	idx, ok := FindByTitle("ATTENTION IS ALL YOU NEED", papers)
	if !ok || idx != 0 {
		t.Errorf("FindByTitle() = (%d, %v), want (0, true)", idx, ok)
	}
}

func TestFindByTimestamp(t *testing.T) {
	papers := samplePapers()

	idx, ok := FindByTimestamp("2026-01-02T00:00:00.000Z", papers)
	if !ok || idx != 1 {
		t.Errorf("FindByTimestamp() = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := FindByTimestamp("", papers); ok {
		t.Error("FindByTimestamp(\"\") should not match")
	}
}

func TestConflicts(t *testing.T) {
	papers := []paper.Paper{
		{Title: "Same", URL: "u1", Timestamp: "t1"},
		{Title: "SAME", URL: "u2", Timestamp: "t2"},
		{Title: "Other", URL: "u1", Timestamp: "t2"},
		{Title: "Lonely", URL: "", Timestamp: "t4"},
		{Title: "Lonely too", URL: "", Timestamp: "t5"},
	}

	conflicts := Conflicts(papers)
	if len(conflicts) != 3 {
		t.Fatalf("Conflicts() returned %d groups, want 3: %+v", len(conflicts), conflicts)
	}

	want := []struct {
		kind    string
		indexes []int
	}{
		{ConflictTitle, []int{0, 1}},
		{ConflictURL, []int{0, 2}},
		{ConflictTimestamp, []int{1, 2}},
	}
	for i, w := range want {
		c := conflicts[i]
		if c.Type != w.kind {
			t.Errorf("conflict[%d].Type = %s, want %s", i, c.Type, w.kind)
		}
		if len(c.Indexes) != len(w.indexes) || c.Indexes[0] != w.indexes[0] || c.Indexes[1] != w.indexes[1] {
			t.Errorf("conflict[%d].Indexes = %v, want %v", i, c.Indexes, w.indexes)
		}
	}
}

func TestConflicts_Clean(t *testing.T) {
	if got := Conflicts(samplePapers()); len(got) != 0 {
		t.Errorf("Conflicts() = %+v, want none", got)
	}
}
