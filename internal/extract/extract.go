// Package extract pulls a paper's title, authors and abstract out of a page.
//
// Extraction is rule based. The first rule whose host matches the page runs
// its strategies in order, each filling only fields that are still empty.
// Meta tags are consulted last for anything still missing.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a queryable HTML document. *goquery.Document satisfies it.
type Document interface {
	Find(selector string) *goquery.Selection
}

// Location identifies the page a Document came from.
type Location struct {
	Host string
	Path string
	URL  string
}

// LocationFromURL splits rawURL into a Location. An unparseable URL yields a
// Location with only URL set, which matches no site rule.
func LocationFromURL(rawURL string) Location {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Location{URL: rawURL}
	}
	return Location{Host: u.Hostname(), Path: u.Path, URL: rawURL}
}

// Fields are the three values every strategy tries to produce.
type Fields struct {
	Title    string
	Authors  string
	Abstract string
}

func (f Fields) complete() bool {
	return f.Title != "" && f.Authors != "" && f.Abstract != ""
}

// merge copies values from g into fields of f that are still empty.
func (f *Fields) merge(g Fields) {
	if f.Title == "" {
		f.Title = strings.TrimSpace(g.Title)
	}
	if f.Authors == "" {
		f.Authors = strings.TrimSpace(g.Authors)
	}
	if f.Abstract == "" {
		f.Abstract = strings.TrimSpace(g.Abstract)
	}
}

// Result is the extraction outcome as reported to callers. Error is set only
// when extraction itself failed, in which case the other fields are empty.
type Result struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Error    string `json:"error,omitempty"`
}

// Empty reports whether nothing was extracted.
func (r Result) Empty() bool {
	return r.Title == "" && r.Authors == "" && r.Abstract == ""
}

// Strategy produces whatever fields it can find. Fields it cannot find are
// left empty.
type Strategy func(doc Document, loc Location) Fields

// Rule binds a set of strategies to the hosts they understand.
type Rule struct {
	Name       string
	Match      func(host string) bool
	Strategies []Strategy
}

func hostContains(s string) func(string) bool {
	return func(host string) bool { return strings.Contains(host, s) }
}

// Rules lists the site rules in priority order.
var Rules = []Rule{
	{Name: "scholar", Match: hostContains("scholar.google.com"), Strategies: []Strategy{scholarDetail, scholarSearch}},
	{Name: "arxiv", Match: hostContains("arxiv.org"), Strategies: []Strategy{arxivAbstract}},
	{Name: "ieee", Match: hostContains("ieeexplore.ieee.org"), Strategies: []Strategy{ieee}},
	{Name: "acm", Match: hostContains("dl.acm.org"), Strategies: []Strategy{acm}},
	{Name: "sciencedirect", Match: hostContains("sciencedirect.com"), Strategies: []Strategy{scienceDirect, jsonLD}},
	{Name: "springer", Match: hostContains("springer.com"), Strategies: []Strategy{springer, jsonLD}},
	{Name: "openreview", Match: hostContains("openreview.net"), Strategies: []Strategy{openReview}},
}

// RuleFor returns the first rule matching loc's host.
func RuleFor(loc Location) (Rule, bool) {
	for _, r := range Rules {
		if r.Match(loc.Host) {
			return r, true
		}
	}
	return Rule{}, false
}

// Extract runs the matching site rule and the meta tag fallback over doc.
// It never panics: any failure is reported through Result.Error with all
// fields empty.
func Extract(doc Document, loc Location) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("extraction failed: %v", r)}
		}
	}()

	if doc == nil {
		return Result{Error: "no document"}
	}

	var f Fields
	if rule, ok := RuleFor(loc); ok {
		for _, s := range rule.Strategies {
			f.merge(s(doc, loc))
			if f.complete() {
				break
			}
		}
	}
	if !f.complete() {
		f.merge(metaFallback(doc, loc))
	}

	return Result{Title: f.Title, Authors: f.Authors, Abstract: f.Abstract}
}

// FromHTML parses r as HTML and extracts from it.
func FromHTML(r io.Reader, loc Location) Result {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{Error: fmt.Sprintf("parsing HTML: %v", err)}
	}
	return Extract(doc, loc)
}

// metaFallback reads citation and Open Graph meta tags, then <title>.
func metaFallback(doc Document, _ Location) Fields {
	var f Fields

	f.Title = firstAttr(doc, "content", `meta[name="citation_title"]`, `meta[property="og:title"]`)
	if f.Title == "" {
		f.Title = text(doc.Find("title").First())
	}

	var authors []string
	doc.Find(`meta[name="citation_author"]`).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.AttrOr("content", "")); v != "" {
			authors = append(authors, v)
		}
	})
	f.Authors = strings.Join(authors, ", ")
	if f.Authors == "" {
		f.Authors = firstAttr(doc, "content", `meta[name="author"]`)
	}

	f.Abstract = firstAttr(doc, "content", `meta[name="citation_abstract"]`, `meta[name="description"]`)

	return f
}

// text returns the trimmed text content of s.
func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// firstText returns the text of the first element matched by the earliest
// selector that yields non-empty text.
func firstText(doc Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := text(doc.Find(sel).First()); t != "" {
			return t
		}
	}
	return ""
}

// firstAttr is firstText for an attribute value.
func firstAttr(doc Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// joinTexts joins the non-empty texts of every element matched by selector.
// keep, when non-nil, filters individual texts.
func joinTexts(doc Document, selector, sep string, keep func(string) bool) string {
	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		t := text(s)
		if t == "" || (keep != nil && !keep(t)) {
			return
		}
		parts = append(parts, t)
	})
	return strings.Join(parts, sep)
}
