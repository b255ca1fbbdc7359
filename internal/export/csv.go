// Package export renders papers to external formats.
package export

import (
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/paper"
)

// BOM is written before CSV content so spreadsheet tools detect UTF-8.
const BOM = "\ufeff"

// DisplayLayout is the human-facing date format used in CSV and share text.
// It is not re-parsed on import.
const DisplayLayout = "2006/01/02 15:04"

// CSVHeader is the fixed column order of exported files.
var CSVHeader = []string{
	"Title",
	"Authors",
	"Abstract",
	"Comment",
	"URL",
	"Added Date",
	"Last Edited",
	"Needs Improvement",
	"Has GitHub",
}

// ToCSV renders papers as CSV text, BOM included, in the given order.
// Dates are rendered with DisplayLayout in loc; a nil loc means local time.
func ToCSV(papers []paper.Paper, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(BOM)
	writeRow(&b, CSVHeader)

	for _, p := range papers {
		b.WriteString("\n")
		writeRow(&b, []string{
			p.Title,
			p.Authors,
			p.Abstract,
			p.Comment,
			p.URL,
			FormatDisplayDate(p.Timestamp, loc),
			FormatDisplayDate(p.LastEdited, loc),
			yesNo(p.NeedsImprovement),
			yesNo(p.HasGithub),
		})
	}

	return b.String()
}

// CSVFilename returns the download name for an export made at now.
func CSVFilename(now time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(paper.FormatTime(now))
	return "paper-collection-" + stamp + ".csv"
}

// FormatDisplayDate renders an ISO timestamp with DisplayLayout.
// Empty input gives empty output; unparseable input is returned unchanged.
func FormatDisplayDate(iso string, loc *time.Location) string {
	if iso == "" {
		return ""
	}
	t, err := paper.ParseTime(iso)
	if err != nil {
		return iso
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayLayout)
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuoteField(f))
	}
}

// QuoteField wraps a field in double quotes, doubling inner quotes, when it
// contains a comma, a double quote or a line break. Other fields are bare.
func QuoteField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
