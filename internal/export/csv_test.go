package export

import (
	"strings"
	"testing"
	"time"

	"github.com/matsen/papershelf/internal/paper"
)

func TestQuoteField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Deep Learning", "Deep Learning"},
		{"empty", "", ""},
		{"leading space stays bare", " spaced", " spaced"},
		{"comma", "Smith, J", `"Smith, J"`},
		{"quote", `the "best" model`, `"the ""best"" model"`},
		{"newline", "line1\nline2", "\"line1\nline2\""},
		{"carriage return", "a\rb", "\"a\rb\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteField(tt.input); got != tt.want {
				t.Errorf("QuoteField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToCSV_HeaderAndBOM(t *testing.T) {
	got := ToCSV(nil, time.UTC)

	if !strings.HasPrefix(got, BOM) {
		t.Fatal("ToCSV() should start with a BOM")
	}
	want := "Title,Authors,Abstract,Comment,URL,Added Date,Last Edited,Needs Improvement,Has GitHub"
	if strings.TrimPrefix(got, BOM) != want {
		t.Errorf("ToCSV() header = %q, want %q", strings.TrimPrefix(got, BOM), want)
	}
}

func TestToCSV_Row(t *testing.T) {
	p := paper.Paper{
		Title:            "Attention Is All You Need",
		Authors:          "Vaswani, Shazeer",
		Abstract:         "We propose the Transformer",
		Comment:          `the "base" model`,
		URL:              "https://arxiv.org/abs/1706.03762",
		Timestamp:        "2026-03-15T12:30:00.000Z",
		NeedsImprovement: true,
	}

	got := ToCSV([]paper.Paper{p}, time.UTC)
	lines := strings.Split(strings.TrimPrefix(got, BOM), "\n")
	if len(lines) != 2 {
		t.Fatalf("ToCSV() produced %d lines, want 2:\n%s", len(lines), got)
	}

	want := `Attention Is All You Need,"Vaswani, Shazeer",We propose the Transformer,"the ""base"" model",https://arxiv.org/abs/1706.03762,2026/03/15 12:30,,Yes,No`
	if lines[1] != want {
		t.Errorf("row =\n%s\nwant\n%s", lines[1], want)
	}
}

func TestToCSV_DisplayDateUsesLocation(t *testing.T) {
	p := paper.Paper{Title: "T", Timestamp: "2026-03-15T20:00:00.000Z", LastEdited: "2026-03-16T01:05:00.000Z"}
	shanghai := time.FixedZone("CST", 8*3600)

	got := ToCSV([]paper.Paper{p}, shanghai)
	if !strings.Contains(got, "2026/03/16 04:00,2026/03/16 09:05") {
		t.Errorf("ToCSV() dates not rendered in location:\n%s", got)
	}
}

func TestFormatDisplayDate(t *testing.T) {
	if got := FormatDisplayDate("", time.UTC); got != "" {
		t.Errorf("FormatDisplayDate(\"\") = %q, want empty", got)
	}
	if got := FormatDisplayDate("not a date", time.UTC); got != "not a date" {
		t.Errorf("FormatDisplayDate() = %q, want input unchanged", got)
	}
	if got := FormatDisplayDate("2026-01-02T03:04:00.000Z", time.UTC); got != "2026/01/02 03:04" {
		t.Errorf("FormatDisplayDate() = %q", got)
	}
}

func TestCSVFilename(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 30, 45, 678000000, time.UTC)
	want := "paper-collection-2026-03-15T12-30-45-678Z.csv"
	if got := CSVFilename(now); got != want {
		t.Errorf("CSVFilename() = %q, want %q", got, want)
	}
}
