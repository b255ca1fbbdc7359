package collection

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/extract"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/storage"
	"github.com/matsen/papershelf/internal/view"
)

var baseTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// steppingClock returns baseTime, then one second later on every call.
func steppingClock() func() time.Time {
	t := baseTime.Add(-time.Second)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T, now func() time.Time) (*Service, storage.Papers) {
	t.Helper()
	blob := storage.NewFileStore(t.TempDir())
	if now == nil {
		now = steppingClock()
	}
	return New(blob, WithClock(now), WithLocation(time.UTC)), storage.Papers{Blob: blob}
}

func seed(t *testing.T, papers storage.Papers, list ...paper.Paper) {
	t.Helper()
	if err := papers.SetAll(context.Background(), list); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
}

func stored(t *testing.T, papers storage.Papers) []paper.Paper {
	t.Helper()
	list, err := papers.GetAll(context.Background())
	if err != nil {
		t.Fatalf("reading store: %v", err)
	}
	return list
}

func attention() paper.Paper {
	return paper.Paper{
		Title:     "Attention Is All You Need",
		Authors:   "Vaswani, Shazeer",
		Abstract:  "The dominant sequence transduction models...",
		URL:       "https://arxiv.org/abs/1706.03762",
		Timestamp: "2026-01-01T00:00:00.000Z",
	}
}

func TestSave_New(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)

	form := Form{Title: "  A Paper  ", Authors: " Ann ", Abstract: "Abs\n", Comment: " good ", HasGithub: true}
	res, err := svc.Save(ctx, form, " https://example.org/p ", ViewState{})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if res.Action != ActionCreated {
		t.Errorf("Action = %q, want %q", res.Action, ActionCreated)
	}

	want := paper.Paper{
		Title:     "A Paper",
		Authors:   "Ann",
		Abstract:  "Abs",
		Comment:   "good",
		URL:       "https://example.org/p",
		Timestamp: "2026-03-15T12:00:00.000Z",
		HasGithub: true,
	}
	if res.Paper != want {
		t.Errorf("Paper = %+v, want %+v", res.Paper, want)
	}

	list := stored(t, papers)
	if len(list) != 1 || list[0] != want {
		t.Errorf("stored = %+v, want [%+v]", list, want)
	}
}

func TestSave_MissingTitle(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	seed(t, papers, attention())

	for _, state := range []ViewState{{}, {EditingTimestamp: attention().Timestamp}} {
		_, err := svc.Save(ctx, Form{Title: "   ", Authors: "x"}, "https://example.org", state)
		if !errors.Is(err, ErrMissingTitle) {
			t.Errorf("Save(editing=%v) error = %v, want ErrMissingTitle", state.Editing(), err)
		}
	}

	list := stored(t, papers)
	if len(list) != 1 || list[0] != attention() {
		t.Errorf("store changed after rejected save: %+v", list)
	}
}

func TestSave_MissingURL(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Save(context.Background(), Form{Title: "T"}, "", ViewState{})
	if !errors.Is(err, ErrMissingURL) {
		t.Errorf("Save() error = %v, want ErrMissingURL", err)
	}
}

func TestSave_Duplicate(t *testing.T) {
	tests := []struct {
		name  string
		title string
		url   string
	}{
		{"title differs only in case", "attention is all you need", "https://other.example/x"},
		{"same url", "Something Else", "https://arxiv.org/abs/1706.03762"},
		{"title with surrounding space", "  Attention Is All You Need ", "https://other.example/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, papers := newTestService(t, nil)
			seed(t, papers, attention())

			_, err := svc.Save(ctx, Form{Title: tt.title}, tt.url, ViewState{})
			var dup *DuplicateError
			if !errors.As(err, &dup) {
				t.Fatalf("Save() error = %v, want *DuplicateError", err)
			}
			if dup.Existing.Timestamp != attention().Timestamp {
				t.Errorf("Existing = %+v", dup.Existing)
			}
			if n := len(stored(t, papers)); n != 1 {
				t.Errorf("stored %d papers, want 1", n)
			}
		})
	}
}

func TestSave_UniqueTimestamp(t *testing.T) {
	ctx := context.Background()
	fixed := func() time.Time { return baseTime }
	svc, _ := newTestService(t, fixed)

	first, err := svc.Save(ctx, Form{Title: "One"}, "https://example.org/1", ViewState{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Save(ctx, Form{Title: "Two"}, "https://example.org/2", ViewState{})
	if err != nil {
		t.Fatal(err)
	}

	if first.Paper.Timestamp != "2026-03-15T12:00:00.000Z" {
		t.Errorf("first timestamp = %s", first.Paper.Timestamp)
	}
	if second.Paper.Timestamp != "2026-03-15T12:00:00.001Z" {
		t.Errorf("second timestamp = %s, want .001Z", second.Paper.Timestamp)
	}
}

func TestSave_Edit(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	seed(t, papers, attention())

	form := Form{Title: "Attention Is All You Need", Authors: "Vaswani et al.", Comment: "classic", NeedsImprovement: true}
	res, err := svc.Save(ctx, form, "https://ignored.example", ViewState{EditingTimestamp: attention().Timestamp})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if res.Action != ActionUpdated {
		t.Errorf("Action = %q, want %q", res.Action, ActionUpdated)
	}

	got := stored(t, papers)
	if len(got) != 1 {
		t.Fatalf("stored %d papers, want 1", len(got))
	}
	p := got[0]
	if p.Timestamp != attention().Timestamp {
		t.Errorf("Timestamp = %s, want unchanged", p.Timestamp)
	}
	if p.URL != attention().URL {
		t.Errorf("URL = %s, want unchanged", p.URL)
	}
	if p.LastEdited != "2026-03-15T12:00:00.000Z" {
		t.Errorf("LastEdited = %q", p.LastEdited)
	}
	if p.Authors != "Vaswani et al." || p.Comment != "classic" || !p.NeedsImprovement || p.Abstract != "" {
		t.Errorf("edited fields not applied: %+v", p)
	}
}

func TestSave_EditNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Save(context.Background(), Form{Title: "T"}, "", ViewState{EditingTimestamp: "2020-01-01T00:00:00.000Z"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Save() error = %v, want ErrNotFound", err)
	}
}

func TestSave_EditRenameCollision(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	other := paper.Paper{Title: "BERT", URL: "https://example.org/bert", Timestamp: "2026-02-01T00:00:00.000Z"}
	seed(t, papers, attention(), other)

	_, err := svc.Save(ctx, Form{Title: "bert"}, "", ViewState{EditingTimestamp: attention().Timestamp})
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Existing.Title != "BERT" {
		t.Fatalf("Save() error = %v, want duplicate of BERT", err)
	}

	// Changing only the case of its own title is allowed.
	if _, err := svc.Save(ctx, Form{Title: "ATTENTION IS ALL YOU NEED"}, "", ViewState{EditingTimestamp: attention().Timestamp}); err != nil {
		t.Errorf("Save() same-title edit error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	existing := attention()
	existing.Comment = "read twice"
	seed(t, papers, existing)

	tests := []struct {
		name         string
		extracted    extract.Result
		url          string
		wantEditing  string
		wantEditable bool
		wantTitle    string
	}{
		{
			name:      "new page",
			extracted: extract.Result{Title: "New", Authors: "A", Abstract: "B"},
			url:       "https://example.org/new",
			wantTitle: "New",
		},
		{
			name:        "existing by title",
			extracted:   extract.Result{Title: "attention is all you need"},
			url:         "https://mirror.example/attn",
			wantEditing: existing.Timestamp,
			wantTitle:   existing.Title,
		},
		{
			name:        "existing by url",
			extracted:   extract.Result{},
			url:         existing.URL,
			wantEditing: existing.Timestamp,
			wantTitle:   existing.Title,
		},
		{
			name:         "nothing extracted",
			extracted:    extract.Result{},
			url:          "https://example.org/blank",
			wantEditable: true,
		},
		{
			name:         "extraction error",
			extracted:    extract.Result{Error: "extraction failed: boom"},
			url:          "https://example.org/broken",
			wantEditable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, state, err := svc.Open(ctx, tt.extracted, tt.url)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if state.EditingTimestamp != tt.wantEditing {
				t.Errorf("EditingTimestamp = %q, want %q", state.EditingTimestamp, tt.wantEditing)
			}
			if state.FieldsEditable != tt.wantEditable {
				t.Errorf("FieldsEditable = %v, want %v", state.FieldsEditable, tt.wantEditable)
			}
			if form.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", form.Title, tt.wantTitle)
			}
			if tt.wantEditing != "" && form.Comment != "read twice" {
				t.Errorf("Comment = %q, want prefilled from stored paper", form.Comment)
			}
		})
	}
}

func TestEditGetDelete(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	other := paper.Paper{Title: "BERT", URL: "https://example.org/bert", Timestamp: "2026-02-01T00:00:00.000Z"}
	seed(t, papers, attention(), other)

	form, state, err := svc.Edit(ctx, other.Timestamp)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if form.Title != "BERT" || state.EditingTimestamp != other.Timestamp {
		t.Errorf("Edit() = %+v, %+v", form, state)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	removed, err := svc.Delete(ctx, attention().Timestamp)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.Title != attention().Title {
		t.Errorf("Delete() removed %q", removed.Title)
	}
	list := stored(t, papers)
	if len(list) != 1 || list[0].Title != "BERT" {
		t.Errorf("stored after delete = %+v", list)
	}

	if _, err := svc.Delete(ctx, attention().Timestamp); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	seed(t, papers,
		paper.Paper{Title: "Old", Timestamp: "2026-01-01T00:00:00.000Z", HasGithub: true},
		paper.Paper{Title: "New", Timestamp: "2026-03-01T00:00:00.000Z", HasGithub: true, Comment: "transformer"},
		paper.Paper{Title: "Mid", Timestamp: "2026-02-01T00:00:00.000Z"},
	)

	all, err := svc.List(ctx, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(all); got != "New,Mid,Old" {
		t.Errorf("List() = %s, want New,Mid,Old", got)
	}

	gh, _ := svc.List(ctx, Query{Filters: view.Filters{HasGithub: true}})
	if got := titles(gh); got != "New,Old" {
		t.Errorf("List(hasGithub) = %s", got)
	}

	found, _ := svc.List(ctx, Query{Search: "TRANSFORMER", Fields: view.Fields{Comment: true}})
	if got := titles(found); got != "New" {
		t.Errorf("List(search) = %s", got)
	}

	limited, _ := svc.List(ctx, Query{Limit: 1})
	if got := titles(limited); got != "New" {
		t.Errorf("List(limit 1) = %s", got)
	}
}

func titles(papers []paper.Paper) string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return strings.Join(out, ",")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)

	if _, err := svc.Export(ctx, Query{}); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Export(empty) error = %v, want ErrNothingToExport", err)
	}

	seed(t, papers,
		paper.Paper{Title: "Plain", Timestamp: "2026-01-01T00:00:00.000Z"},
		paper.Paper{Title: "Flagged", Timestamp: "2026-02-01T00:00:00.000Z", NeedsImprovement: true},
	)

	out, err := svc.Export(ctx, Query{Filters: view.Filters{NeedsImprovement: true}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(out, export.BOM) {
		t.Error("Export() missing BOM")
	}
	if !strings.Contains(out, "\nFlagged,") || strings.Contains(out, "\nPlain,") {
		t.Errorf("Export() did not follow the filter:\n%s", out)
	}

	if _, err := svc.Export(ctx, Query{Search: "nomatch", Fields: view.AllFields}); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Export(no match) error = %v, want ErrNothingToExport", err)
	}

	bib, err := svc.ExportBibTeX(ctx, Query{})
	if err != nil {
		t.Fatalf("ExportBibTeX() error = %v", err)
	}
	if strings.Count(bib, "@misc{") != 2 {
		t.Errorf("ExportBibTeX() = %s", bib)
	}
}

const importCSV = "Title,Authors,URL,Abstract\n" +
	"attention is all you need,V,https://x.example/1,A\n" +
	"Fresh Paper,F,https://x.example/2,B\n" +
	"Broken,Row\n"

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	seed(t, papers, attention())

	res, err := svc.Import(ctx, []byte(importCSV), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.ImportCount != 1 || res.DuplicateCount != 1 {
		t.Errorf("counts = %d imported, %d duplicate; want 1, 1", res.ImportCount, res.DuplicateCount)
	}
	if len(res.FailedImports) != 1 || res.FailedImports[0].Line != 4 {
		t.Errorf("FailedImports = %+v", res.FailedImports)
	}

	list := stored(t, papers)
	if len(list) != 2 || list[1].Title != "Fresh Paper" {
		t.Errorf("stored = %+v", list)
	}
}

func TestImport_DryRun(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	seed(t, papers, attention())

	res, err := svc.Import(ctx, []byte(importCSV), true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || res.ImportCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if n := len(stored(t, papers)); n != 1 {
		t.Errorf("dry run wrote %d papers, want 1", n)
	}
}

func TestImport_MissingColumns(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Import(context.Background(), []byte("Title,Authors\nx,y\n"), false)
	if err == nil {
		t.Fatal("Import() expected error for missing columns")
	}
}

func TestImportPaperpile(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)

	data := `[
		{"title": "From Paperpile", "doi": "10.1/abc", "author": [{"first": "Ann", "last": "Lee"}]},
		{"title": "No DOI"}
	]`
	res, err := svc.ImportPaperpile(ctx, []byte(data), false)
	if err != nil {
		t.Fatalf("ImportPaperpile() error = %v", err)
	}
	if res.ImportCount != 1 || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
	list := stored(t, papers)
	if len(list) != 1 || list[0].URL != "https://doi.org/10.1/abc" {
		t.Errorf("stored = %+v", list)
	}

	if _, err := svc.ImportPaperpile(ctx, []byte("not json"), false); err == nil {
		t.Error("ImportPaperpile(invalid) expected error")
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	svc, papers := newTestService(t, nil)
	a := attention()
	b := attention()
	b.Title = "ATTENTION IS ALL YOU NEED"
	b.URL = "https://other.example"
	b.Timestamp = "2026-01-02T00:00:00.000Z"
	seed(t, papers, a, b)

	conflicts, err := svc.Check(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 1 {
		t.Errorf("Check() = %+v, want one title conflict", conflicts)
	}
}
