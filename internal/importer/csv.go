// Package importer parses external formats into paper candidates and merges
// them into an existing collection.
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/paper"
)

// ReasonColumnMismatch is reported for rows whose field count differs from
// the header's.
const ReasonColumnMismatch = "Column count mismatch"

// RequiredColumns must all be present in the header, in any order.
var RequiredColumns = []string{"Title", "Authors", "URL", "Abstract"}

// requiredFields are the mapped keys a row must carry non-empty values for.
var requiredFields = []string{"title", "authors", "url", "abstract"}

// FailedImport describes one rejected row.
type FailedImport struct {
	Line   int    `json:"line"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// CSVResult holds the parsed candidates and the rows that were rejected.
type CSVResult struct {
	Papers        []paper.Paper  `json:"papers"`
	FailedImports []FailedImport `json:"failedImports"`
}

// MissingColumnsError is returned when the header lacks required columns.
// Nothing is parsed in that case.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ParseCSV decodes CSV text into paper candidates.
//
// Rows that cannot be used are collected in FailedImports and do not stop the
// batch. Rows without a usable timestamp column get now, advanced by one
// millisecond per accepted row so candidates never share an identity.
func ParseCSV(data []byte, now time.Time) (*CSVResult, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")

	records := splitRecords(text)
	if len(records) == 0 {
		return nil, &MissingColumnsError{Columns: RequiredColumns}
	}

	header := splitFields(records[0].text)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = fieldKey(h)
	}

	result := &CSVResult{
		Papers:        []paper.Paper{},
		FailedImports: []FailedImport{},
	}

	for _, rec := range records[1:] {
		fields := splitFields(rec.text)
		if len(fields) != len(header) {
			result.FailedImports = append(result.FailedImports, FailedImport{
				Line:   rec.line,
				Title:  strings.TrimSpace(fields[0]),
				Reason: ReasonColumnMismatch,
			})
			continue
		}

		values := make(map[string]string, len(keys))
		for i, k := range keys {
			values[k] = fields[i]
		}

		var missing []string
		for _, k := range requiredFields {
			if strings.TrimSpace(values[k]) == "" {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			result.FailedImports = append(result.FailedImports, FailedImport{
				Line:   rec.line,
				Title:  strings.TrimSpace(values["title"]),
				Reason: "Missing required fields: " + strings.Join(missing, ", "),
			})
			continue
		}

		p := paper.Paper{
			Title:            values["title"],
			Authors:          values["authors"],
			Abstract:         values["abstract"],
			Comment:          values["comment"],
			URL:              values["url"],
			NeedsImprovement: parseBool(values["needsImprovement"]),
			HasGithub:        parseBool(values["hasGithub"]),
		}

		if ts, err := paper.ParseTime(strings.TrimSpace(values["timestamp"])); err == nil {
			p.Timestamp = paper.FormatTime(ts)
		} else {
			p.Timestamp = paper.FormatTime(now.Add(time.Duration(len(result.Papers)) * time.Millisecond))
		}

		result.Papers = append(result.Papers, p)
	}

	return result, nil
}

// missingColumns returns the required column names absent from header.
// Matching is case-sensitive.
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// fieldKey maps a header name to a paper field key: lower-cased with
// whitespace removed, except for the two flag columns whose live names are
// camel-cased.
func fieldKey(header string) string {
	switch header {
	case "Needs Improvement":
		return "needsImprovement"
	case "Has GitHub":
		return "hasGithub"
	}
	return strings.ToLower(strings.Join(strings.Fields(header), ""))
}

// parseBool accepts yes, true and 1 in any case.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

type record struct {
	line int // 1-based line where the record starts
	text string
}

// splitRecords splits text on LF or CRLF outside quoted fields. A line
// break inside quotes belongs to the field. Blank records are dropped.
//
// A quote still open at end of input would swallow every later row, so from
// the start of that record on the text is split by physical line instead.
func splitRecords(text string) []record {
	var records []record
	inQuotes := false
	line, start, from := 1, 1, 0

	add := func(s string, at int) {
		s = strings.TrimSuffix(s, "\r")
		if strings.TrimSpace(s) != "" {
			records = append(records, record{line: at, text: s})
		}
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			line++
			if !inQuotes {
				add(text[from:i], start)
				from, start = i+1, line
			}
		}
	}
	if !inQuotes {
		add(text[from:], start)
		return records
	}

	for n, l := range strings.Split(text[from:], "\n") {
		add(l, start+n)
	}
	return records
}

// splitFields splits one record on commas. A double quote toggles the
// quoted state, a doubled quote inside quotes is a literal quote and commas
// inside quotes are not separators.
func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())

	return fields
}

// FormatFailure renders a failed row for human output.
func FormatFailure(f FailedImport) string {
	if f.Title != "" {
		return fmt.Sprintf("line %d (%s): %s", f.Line, f.Title, f.Reason)
	}
	return fmt.Sprintf("line %d: %s", f.Line, f.Reason)
}
