package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/paper"
)

// ErrInvalidPaperpile is returned when the input is not a Paperpile JSON array.
var ErrInvalidPaperpile = errors.New("invalid Paperpile JSON")

// PaperpileEntry represents a single entry from a Paperpile JSON export.
// Only the fields a saved paper can carry are decoded.
type PaperpileEntry struct {
	ID       string `json:"_id"`
	Citekey  string `json:"citekey"`
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Author   []struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"author"`
}

// ParsePaperpile parses a Paperpile JSON export into paper candidates.
// Candidate timestamps start at now and advance one millisecond per entry.
func ParsePaperpile(data []byte, now time.Time) ([]paper.Paper, []error) {
	var entries []PaperpileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("%w: %v", ErrInvalidPaperpile, err)}
	}

	var papers []paper.Paper
	var errs []error

	for i, entry := range entries {
		p, err := paperpileEntryToPaper(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, entry.Citekey, err))
			continue
		}
		p.Timestamp = paper.FormatTime(now.Add(time.Duration(len(papers)) * time.Millisecond))
		papers = append(papers, p)
	}

	return papers, errs
}

// paperpileEntryToPaper converts a Paperpile entry to a Paper.
// The DOI resolver URL stands in for the page URL.
func paperpileEntryToPaper(entry PaperpileEntry) (paper.Paper, error) {
	if strings.TrimSpace(entry.Title) == "" {
		return paper.Paper{}, fmt.Errorf("missing required field 'title'")
	}
	if strings.TrimSpace(entry.DOI) == "" {
		return paper.Paper{}, fmt.Errorf("missing required field 'doi'")
	}

	names := make([]string, 0, len(entry.Author))
	for _, a := range entry.Author {
		name := strings.TrimSpace(a.First + " " + a.Last)
		if name != "" {
			names = append(names, name)
		}
	}

	return paper.Paper{
		Title:    strings.TrimSpace(entry.Title),
		Authors:  strings.Join(names, ", "),
		Abstract: strings.TrimSpace(entry.Abstract),
		URL:      "https://doi.org/" + strings.TrimSpace(entry.DOI),
	}, nil
}
