// Package collection implements the save, edit, delete, import and export
// operations over the stored paper list.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/matsen/papershelf/internal/dedupe"
	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/extract"
	"github.com/matsen/papershelf/internal/importer"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/storage"
	"github.com/matsen/papershelf/internal/view"
)

var (
	// ErrMissingTitle is returned when a form is saved without a title.
	ErrMissingTitle = errors.New("title is required")
	// ErrMissingURL is returned when a new paper is saved without an url.
	ErrMissingURL = errors.New("url is required")
	// ErrNotFound is returned when no paper has the requested timestamp.
	ErrNotFound = errors.New("paper not found")
	// ErrNothingToExport is returned when the export view is empty.
	ErrNothingToExport = errors.New("no papers match the current filter criteria")
)

// DuplicateError reports that a save would create a second record for a
// paper already in the collection.
type DuplicateError struct {
	Existing paper.Paper
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("paper already saved: %q (%s)", e.Existing.Title, e.Existing.Timestamp)
}

// Form holds the editable fields of a paper.
type Form struct {
	Title            string `json:"title"`
	Authors          string `json:"authors"`
	Abstract         string `json:"abstract"`
	Comment          string `json:"comment"`
	NeedsImprovement bool   `json:"needsImprovement"`
	HasGithub        bool   `json:"hasGithub"`
}

// FormFromPaper copies the editable fields of p.
func FormFromPaper(p paper.Paper) Form {
	return Form{
		Title:            p.Title,
		Authors:          p.Authors,
		Abstract:         p.Abstract,
		Comment:          p.Comment,
		NeedsImprovement: p.NeedsImprovement,
		HasGithub:        p.HasGithub,
	}
}

func (f Form) trimmed() Form {
	f.Title = strings.TrimSpace(f.Title)
	f.Authors = strings.TrimSpace(f.Authors)
	f.Abstract = strings.TrimSpace(f.Abstract)
	f.Comment = strings.TrimSpace(f.Comment)
	return f
}

// ViewState says whether a form edits an existing paper and whether the
// extracted fields may be changed by hand.
type ViewState struct {
	// EditingTimestamp identifies the paper being edited. Empty for a new paper.
	EditingTimestamp string `json:"editingTimestamp,omitempty"`
	// FieldsEditable is set when extraction produced nothing usable.
	FieldsEditable bool `json:"fieldsEditable"`
}

// Editing reports whether the state refers to an existing paper.
func (s ViewState) Editing() bool {
	return s.EditingTimestamp != ""
}

// Save actions reported in SaveResult.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// SaveResult is the outcome of a successful Save.
type SaveResult struct {
	Action string      `json:"action"`
	Paper  paper.Paper `json:"paper"`
}

// Query selects and orders papers for List and Export.
type Query struct {
	Filters view.Filters
	Search  string
	Fields  view.Fields
	// Limit caps the result length when positive.
	Limit int
}

// ImportResult is the outcome of a bulk import.
type ImportResult struct {
	ImportCount    int                     `json:"importCount"`
	DuplicateCount int                     `json:"duplicateCount"`
	Details        []importer.MergeDetail  `json:"details,omitempty"`
	FailedImports  []importer.FailedImport `json:"failedImports,omitempty"`
	Errors         []string                `json:"errors,omitempty"`
	DryRun         bool                    `json:"dryRun,omitempty"`
}

// Service runs collection operations against a BlobStore.
//
// Every mutation reads the whole list, changes it and writes it back. The
// service serializes its own mutations; it does not guard against other
// processes writing the same store.
type Service struct {
	papers storage.Papers
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for new timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone used for CSV display dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Service backed by blob.
func New(blob storage.BlobStore, opts ...Option) *Service {
	s := &Service{
		papers: storage.Papers{Blob: blob},
		now:    time.Now,
		loc:    time.Local,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open prepares the form for the page at url.
//
// If the page is already saved, the form is prefilled from the stored paper
// and the state points at it. Otherwise the form comes from extracted, and
// the fields become editable when extraction failed or found nothing.
func (s *Service) Open(ctx context.Context, extracted extract.Result, url string) (Form, ViewState, error) {
	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return Form{}, ViewState{}, err
	}

	if i, found := dedupe.FindExisting(strings.TrimSpace(extracted.Title), url, papers); found {
		existing := papers[i]
		s.logger.Debug("opened existing paper", "timestamp", existing.Timestamp)
		return FormFromPaper(existing), ViewState{EditingTimestamp: existing.Timestamp}, nil
	}

	form := Form{
		Title:    extracted.Title,
		Authors:  extracted.Authors,
		Abstract: extracted.Abstract,
	}
	state := ViewState{FieldsEditable: extracted.Error != "" || extracted.Empty()}
	return form, state, nil
}

// Save stores form. A new paper is appended unless it duplicates an existing
// one by title or url. An edit replaces the editable fields of the paper the
// state points at and records the edit time; its timestamp and url are kept.
func (s *Service) Save(ctx context.Context, form Form, url string, state ViewState) (SaveResult, error) {
	form = form.trimmed()
	url = strings.TrimSpace(url)
	if form.Title == "" {
		return SaveResult{}, ErrMissingTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return SaveResult{}, err
	}

	if state.Editing() {
		return s.update(ctx, papers, form, state.EditingTimestamp)
	}
	return s.create(ctx, papers, form, url)
}

func (s *Service) create(ctx context.Context, papers []paper.Paper, form Form, url string) (SaveResult, error) {
	if url == "" {
		return SaveResult{}, ErrMissingURL
	}
	if i, found := dedupe.FindExisting(form.Title, url, papers); found {
		return SaveResult{}, &DuplicateError{Existing: papers[i]}
	}

	p := paper.Paper{
		Title:            form.Title,
		Authors:          form.Authors,
		Abstract:         form.Abstract,
		Comment:          form.Comment,
		URL:              url,
		Timestamp:        s.uniqueTimestamp(papers),
		NeedsImprovement: form.NeedsImprovement,
		HasGithub:        form.HasGithub,
	}
	papers = append(papers, p)
	if err := s.papers.SetAll(ctx, papers); err != nil {
		return SaveResult{}, err
	}

	s.logger.Info("saved paper", "title", p.Title, "timestamp", p.Timestamp)
	return SaveResult{Action: ActionCreated, Paper: p}, nil
}

func (s *Service) update(ctx context.Context, papers []paper.Paper, form Form, timestamp string) (SaveResult, error) {
	i, found := dedupe.FindByTimestamp(timestamp, papers)
	if !found {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrNotFound, timestamp)
	}
	for j, other := range papers {
		if j != i && paper.SameTitle(other.Title, form.Title) {
			return SaveResult{}, &DuplicateError{Existing: other}
		}
	}

	p := papers[i]
	p.Title = form.Title
	p.Authors = form.Authors
	p.Abstract = form.Abstract
	p.Comment = form.Comment
	p.NeedsImprovement = form.NeedsImprovement
	p.HasGithub = form.HasGithub
	p.LastEdited = paper.FormatTime(s.now())
	papers[i] = p

	if err := s.papers.SetAll(ctx, papers); err != nil {
		return SaveResult{}, err
	}

	s.logger.Info("updated paper", "title", p.Title, "timestamp", p.Timestamp)
	return SaveResult{Action: ActionUpdated, Paper: p}, nil
}

// uniqueTimestamp returns the current time, moved forward a millisecond at a
// time past any timestamp already in papers.
func (s *Service) uniqueTimestamp(papers []paper.Paper) string {
	t := s.now()
	ts := paper.FormatTime(t)
	for {
		if _, taken := dedupe.FindByTimestamp(ts, papers); !taken {
			return ts
		}
		t = t.Add(time.Millisecond)
		ts = paper.FormatTime(t)
	}
}

// Edit returns the form and state for editing the paper with timestamp.
func (s *Service) Edit(ctx context.Context, timestamp string) (Form, ViewState, error) {
	p, err := s.Get(ctx, timestamp)
	if err != nil {
		return Form{}, ViewState{}, err
	}
	return FormFromPaper(p), ViewState{EditingTimestamp: p.Timestamp}, nil
}

// Get returns the paper with timestamp.
func (s *Service) Get(ctx context.Context, timestamp string) (paper.Paper, error) {
	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return paper.Paper{}, err
	}
	i, found := dedupe.FindByTimestamp(timestamp, papers)
	if !found {
		return paper.Paper{}, fmt.Errorf("%w: %s", ErrNotFound, timestamp)
	}
	return papers[i], nil
}

// Delete removes the paper with timestamp and returns it.
func (s *Service) Delete(ctx context.Context, timestamp string) (paper.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return paper.Paper{}, err
	}
	i, found := dedupe.FindByTimestamp(timestamp, papers)
	if !found {
		return paper.Paper{}, fmt.Errorf("%w: %s", ErrNotFound, timestamp)
	}

	removed := papers[i]
	papers = append(papers[:i], papers[i+1:]...)
	if err := s.papers.SetAll(ctx, papers); err != nil {
		return paper.Paper{}, err
	}

	s.logger.Info("deleted paper", "title", removed.Title, "timestamp", removed.Timestamp)
	return removed, nil
}

// List returns the papers selected by q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]paper.Paper, error) {
	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := view.Apply(papers, q.Filters, q.Search, q.Fields)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Export renders the papers selected by q as CSV.
func (s *Service) Export(ctx context.Context, q Query) (string, error) {
	papers, err := s.List(ctx, q)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return "", ErrNothingToExport
	}
	return export.ToCSV(papers, s.loc), nil
}

// ExportBibTeX renders the papers selected by q as BibTeX entries.
func (s *Service) ExportBibTeX(ctx context.Context, q Query) (string, error) {
	papers, err := s.List(ctx, q)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return "", ErrNothingToExport
	}
	return export.ToBibTeXList(papers), nil
}

// Import merges CSV data into the collection. Rows rejected by the parser are
// reported in FailedImports; rows whose title is already saved count as
// duplicates. With dryRun nothing is written.
func (s *Service) Import(ctx context.Context, data []byte, dryRun bool) (ImportResult, error) {
	parsed, err := importer.ParseCSV(data, s.now())
	if err != nil {
		return ImportResult{}, err
	}

	result, err := s.merge(ctx, parsed.Papers, dryRun)
	if err != nil {
		return ImportResult{}, err
	}
	result.FailedImports = parsed.FailedImports
	return result, nil
}

// ImportPaperpile merges a Paperpile JSON export into the collection. Entries
// without a title or DOI are reported in Errors.
func (s *Service) ImportPaperpile(ctx context.Context, data []byte, dryRun bool) (ImportResult, error) {
	candidates, errs := importer.ParsePaperpile(data, s.now())
	if len(errs) == 1 && errors.Is(errs[0], importer.ErrInvalidPaperpile) {
		return ImportResult{}, errs[0]
	}

	result, err := s.merge(ctx, candidates, dryRun)
	if err != nil {
		return ImportResult{}, err
	}
	for _, e := range errs {
		result.Errors = append(result.Errors, e.Error())
	}
	return result, nil
}

func (s *Service) merge(ctx context.Context, candidates []paper.Paper, dryRun bool) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.papers.GetAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	merged := importer.Merge(candidates, existing)
	result := ImportResult{
		ImportCount:    merged.ImportCount,
		DuplicateCount: merged.DuplicateCount,
		Details:        merged.Details,
		DryRun:         dryRun,
	}
	if dryRun || merged.ImportCount == 0 {
		return result, nil
	}

	if err := s.papers.SetAll(ctx, merged.Merged); err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("imported papers", "imported", merged.ImportCount, "duplicates", merged.DuplicateCount)
	return result, nil
}

// Check reports uniqueness conflicts in the stored list.
func (s *Service) Check(ctx context.Context) ([]dedupe.Conflict, error) {
	papers, err := s.papers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return dedupe.Conflicts(papers), nil
}
