package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages bounds how far into a PDF the abstract is searched for.
const maxPDFPages = 2

// maxPDFAbstract caps the abstract taken from PDF text.
const maxPDFAbstract = 3000

var (
	abstractLine    = regexp.MustCompile(`(?im)^\s*abstract\b[\s.:\-—]*`)
	abstractHeading = regexp.MustCompile(`(?i)\babstract\b[\s.:\-—]*`)
	sectionHeading  = regexp.MustCompile(`(?im)^\s*(?:1\.?|I\.)?\s*(?:introduction|keywords|index terms|ccs concepts)\b`)
)

// FromPDF extracts a best-effort title and abstract from PDF bytes. Authors
// are not recoverable from plain text reliably and are left empty.
func FromPDF(data []byte, _ Location) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("reading PDF: %v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{Error: fmt.Sprintf("reading PDF: %v", err)}
	}

	pages := r.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n")
	}

	text := b.String()
	return Result{Title: titleFromText(text), Abstract: abstractFromText(text)}
}

// titleFromText returns the first substantial line that does not look like
// a running header.
func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// abstractFromText returns the text between an "Abstract" heading and the
// next section heading, with line breaks folded into spaces.
func abstractFromText(text string) string {
	loc := abstractLine.FindStringIndex(text)
	if loc == nil {
		loc = abstractHeading.FindStringIndex(text)
	}
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end := sectionHeading.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}

	abstract := strings.Join(strings.Fields(rest), " ")
	if r := []rune(abstract); len(r) > maxPDFAbstract {
		abstract = strings.TrimSpace(string(r[:maxPDFAbstract]))
	}
	return abstract
}

// isHeaderLine reports whether a line is likely a journal header or footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "arxiv:"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}

// IsPDF reports whether a content type or leading bytes indicate a PDF.
func IsPDF(contentType string, body []byte) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/pdf") || bytes.HasPrefix(body, []byte("%PDF-"))
}
