package importer

import (
	"errors"
	"testing"
	"time"
)

var importNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParsePaperpile_ValidEntry(t *testing.T) {
	data := []byte(`[{
		"_id": "abc123",
		"citekey": "Smith2026-ab",
		"doi": "10.1234/test",
		"title": "Test Paper",
		"abstract": "This is a test abstract",
		"journal": "Test Journal",
		"published": {"year": 2026, "month": "3"},
		"author": [
			{"first": "John", "last": "Smith", "orcid": "0000-0001-2345-6789"},
			{"first": "Jane", "last": "Doe"}
		]
	}]`)

	papers, errs := ParsePaperpile(data, importNow)
	if len(errs) > 0 {
		t.Fatalf("ParsePaperpile() returned errors: %v", errs)
	}
	if len(papers) != 1 {
		t.Fatalf("ParsePaperpile() returned %d papers, want 1", len(papers))
	}

	p := papers[0]
	if p.Title != "Test Paper" {
		t.Errorf("Title = %v, want Test Paper", p.Title)
	}
	if p.Authors != "John Smith, Jane Doe" {
		t.Errorf("Authors = %v, want John Smith, Jane Doe", p.Authors)
	}
	if p.Abstract != "This is a test abstract" {
		t.Errorf("Abstract = %v", p.Abstract)
	}
	if p.URL != "https://doi.org/10.1234/test" {
		t.Errorf("URL = %v, want https://doi.org/10.1234/test", p.URL)
	}
	if p.Timestamp != "2026-03-15T12:00:00.000Z" {
		t.Errorf("Timestamp = %v", p.Timestamp)
	}
}

func TestParsePaperpile_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "missing title",
			data: `[{"_id": "abc", "doi": "10.1/x", "author": [{"first": "John", "last": "Smith"}]}]`,
		},
		{
			name: "missing doi",
			data: `[{"_id": "abc", "title": "Test", "author": []}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			papers, errs := ParsePaperpile([]byte(tt.data), importNow)
			if len(errs) == 0 {
				t.Errorf("ParsePaperpile() expected error for %s, got papers: %+v", tt.name, papers)
			}
		})
	}
}

func TestParsePaperpile_DistinctTimestamps(t *testing.T) {
	data := []byte(`[
		{"title": "A", "doi": "10.1/a"},
		{"title": "", "doi": "10.1/skip"},
		{"title": "B", "doi": "10.1/b"}
	]`)

	papers, errs := ParsePaperpile(data, importNow)
	if len(errs) != 1 {
		t.Errorf("ParsePaperpile() returned %d errors, want 1", len(errs))
	}
	if len(papers) != 2 {
		t.Fatalf("ParsePaperpile() returned %d papers, want 2", len(papers))
	}
	if papers[0].Timestamp == papers[1].Timestamp {
		t.Errorf("timestamps should differ, both %s", papers[0].Timestamp)
	}
}

func TestParsePaperpile_InvalidJSON(t *testing.T) {
	papers, errs := ParsePaperpile([]byte(`not valid json`), importNow)
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidPaperpile) {
		t.Errorf("ParsePaperpile() errs = %v, want ErrInvalidPaperpile (papers: %+v)", errs, papers)
	}
}

func TestParsePaperpile_EmptyArray(t *testing.T) {
	papers, errs := ParsePaperpile([]byte(`[]`), importNow)
	if len(errs) > 0 {
		t.Errorf("ParsePaperpile() returned errors for empty array: %v", errs)
	}
	if len(papers) != 0 {
		t.Errorf("ParsePaperpile() returned %d papers, want 0", len(papers))
	}
}
