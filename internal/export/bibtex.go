package export

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/papershelf/internal/paper"
)

// ToBibTeX converts a paper to a BibTeX @misc entry.
func ToBibTeX(p paper.Paper) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@misc{%s,\n", CiteKey(p)))

	if authors := splitAuthors(p.Authors); len(authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(strings.Join(authors, " and "))))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if created := p.Created(); !created.IsZero() {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", created.Year()))
	}

	if p.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	if p.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Abstract)))
	}

	if p.Comment != "" {
		b.WriteString(fmt.Sprintf("  note = {%s},\n", escapeLatex(p.Comment)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX format.
func ToBibTeXList(papers []paper.Paper) string {
	var entries []string
	for _, p := range papers {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

var nonKeyChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// CiteKey builds a key of the form Surname<year>-<firstword> from the first
// author, the year the paper was saved and the first title word.
func CiteKey(p paper.Paper) string {
	surname := "anon"
	if authors := splitAuthors(p.Authors); len(authors) > 0 {
		parts := strings.Fields(authors[0])
		if len(parts) > 0 {
			if s := nonKeyChars.ReplaceAllString(parts[len(parts)-1], ""); s != "" {
				surname = s
			}
		}
	}

	year := ""
	if !p.Created().IsZero() {
		year = fmt.Sprintf("%d", p.Created().Year())
	}

	word := ""
	for _, w := range strings.Fields(p.Title) {
		w = nonKeyChars.ReplaceAllString(w, "")
		if len(w) > 3 {
			word = strings.ToLower(w)
			break
		}
	}

	key := capitalize(surname) + year
	if word != "" {
		key += "-" + word
	}
	return key
}

// splitAuthors splits a free-text author list on commas, semicolons and
// " and ".
func splitAuthors(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
