// Package share renders a paper as a plain-text card for pasting elsewhere.
package share

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/clipboard"
	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/paper"
)

// filenameTitleRunes is how much of the title goes into a fallback filename.
const filenameTitleRunes = 30

// Text renders the share card for p. Dates are shown in loc.
func Text(p paper.Paper, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("📄 " + p.Title + "\n\n")
	b.WriteString("👥 Authors: " + p.Authors + "\n\n")

	if p.Comment != "" {
		b.WriteString("💭 Comment:\n" + p.Comment + "\n\n")
	}
	if p.NeedsImprovement {
		b.WriteString("⚠️ Needs Improvement in Understanding\n")
	}
	if p.HasGithub {
		b.WriteString("💻 Has GitHub Repository\n")
	}

	b.WriteString("\n🔗 Link: " + p.URL + "\n\n")
	b.WriteString("Added: " + export.FormatDisplayDate(p.Timestamp, loc))
	if p.LastEdited != "" {
		b.WriteString("\nLast Edited: " + export.FormatDisplayDate(p.LastEdited, loc))
	}

	return b.String()
}

// Filename returns the fallback file name for a card about title.
func Filename(title string) string {
	runes := []rune(title)
	if len(runes) > filenameTitleRunes {
		runes = runes[:filenameTitleRunes]
	}
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, string(runes))
	return name + "_share.txt"
}

// copyText is replaced in tests.
var copyText = clipboard.Copy

// Delivery reports where a card ended up.
type Delivery struct {
	Copied bool   `json:"copied"`
	Path   string `json:"path,omitempty"`
}

// Deliver copies text to the clipboard. When the clipboard cannot be used,
// the text is written to Filename(title) inside dir instead.
func Deliver(text, title, dir string) (Delivery, error) {
	if err := copyText(text); err == nil {
		return Delivery{Copied: true}, nil
	}

	path := filepath.Join(dir, Filename(title))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return Delivery{}, err
	}
	return Delivery{Path: path}, nil
}
