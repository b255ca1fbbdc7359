package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	scholarAuthorLabels   = []string{"Authors", "作者"}
	scholarAbstractLabels = []string{"Description", "简介"}
)

func isScholarDetail(loc Location) bool {
	return strings.Contains(loc.Path, "citations") && strings.Contains(loc.URL, "citation_for_view")
}

// scholarDetail handles a Scholar "view citation" page, where values sit in
// the element following their label.
func scholarDetail(doc Document, loc Location) Fields {
	if !isScholarDetail(loc) {
		return Fields{}
	}

	f := Fields{Title: text(doc.Find("#gsc_vcd_title").First())}
	if v := scholarValue(doc, scholarAuthorLabels); v != nil {
		f.Authors = text(v)
	}
	if v := scholarValue(doc, scholarAbstractLabels); v != nil {
		f.Abstract = text(v.Find(".gsh_small").First())
	}
	return f
}

// scholarValue returns the .gsc_oci_value following the first field whose
// label contains one of labels.
func scholarValue(doc Document, labels []string) *goquery.Selection {
	field := doc.Find(".gsc_oci_field").FilterFunction(func(_ int, s *goquery.Selection) bool {
		t := s.Text()
		for _, l := range labels {
			if strings.Contains(t, l) {
				return true
			}
		}
		return false
	}).First()
	if field.Length() == 0 {
		return nil
	}
	value := field.Next()
	if !value.HasClass("gsc_oci_value") {
		return nil
	}
	return value
}

// scholarSearch takes the first hit on a Scholar results page.
func scholarSearch(doc Document, loc Location) Fields {
	if isScholarDetail(loc) {
		return Fields{}
	}
	return Fields{
		Title:    firstText(doc, ".gs_rt", ".gsc-title"),
		Authors:  text(doc.Find(".gs_a").First()),
		Abstract: text(doc.Find(".gs_rs").First()),
	}
}

var (
	arxivTitlePrefix    = regexp.MustCompile(`(?i)^Title:?\s*`)
	arxivAuthorsPrefix  = regexp.MustCompile(`(?i)^Authors?:?\s*`)
	arxivAbstractPrefix = regexp.MustCompile(`(?i)^Abstract:?\s*`)
)

// arxivAbstract handles /abs/ pages, whose blocks carry a label prefix.
func arxivAbstract(doc Document, loc Location) Fields {
	if !strings.Contains(loc.Path, "/abs/") {
		return Fields{}
	}
	strip := func(sel string, prefix *regexp.Regexp) string {
		return strings.TrimSpace(prefix.ReplaceAllString(text(doc.Find(sel).First()), ""))
	}
	return Fields{
		Title:    strip("h1.title", arxivTitlePrefix),
		Authors:  strip(".authors", arxivAuthorsPrefix),
		Abstract: strip(".abstract", arxivAbstractPrefix),
	}
}

func ieee(doc Document, _ Location) Fields {
	return Fields{
		Title:    firstText(doc, "h1.document-title", "h1.title"),
		Authors:  joinTexts(doc, "div.authors-info span.author, span.authors", ", ", nil),
		Abstract: firstText(doc, "div.abstract-text, div.abstract"),
	}
}

func acm(doc Document, _ Location) Fields {
	return Fields{
		Title:    firstText(doc, "h1.citation__title", "h1.title"),
		Authors:  joinTexts(doc, "span.author-name, div.auth-name", ", ", nil),
		Abstract: firstText(doc, "div.abstractSection, div.abstract"),
	}
}

var scienceDirectTitles = []string{
	"h1.article-title",
	"h1.title-text",
	"span.title-text",
	`h1[class*="title"]`,
	"div.title-text",
}

var scienceDirectAuthors = strings.Join([]string{
	"div.author-group span.content",
	"div.author-group a.author-name",
	"div.author-group span.author",
	"a.author[title]",
	".authors-list span.text.given-name",
	".authors-list span.text.surname",
}, ", ")

var scienceDirectAbstracts = []string{
	"div.abstract.author p",
	"div#abstracts p",
	"div.abstract p",
	"section.abstract p",
	`[class*="abstract"] p`,
}

func scienceDirect(doc Document, _ Location) Fields {
	f := Fields{
		Title: firstText(doc, scienceDirectTitles...),
		Authors: joinTexts(doc, scienceDirectAuthors, ", ", func(s string) bool {
			return !strings.Contains(s, "View ") && !strings.Contains(s, "Show ")
		}),
	}

	// The first selector producing any usable paragraph wins; section
	// headings reading "Abstract" are dropped.
	for _, sel := range scienceDirectAbstracts {
		f.Abstract = joinTexts(doc, sel, "\n", func(s string) bool {
			return !strings.HasPrefix(strings.ToLower(s), "abstract")
		})
		if f.Abstract != "" {
			break
		}
	}
	return f
}

func springer(doc Document, _ Location) Fields {
	return Fields{
		Title:    firstText(doc, "h1.c-article-title, h1.title"),
		Authors:  joinTexts(doc, "a.c-article-author-link, span.authors", ", ", nil),
		Abstract: firstText(doc, "div.c-article-section__content p, div.abstract"),
	}
}

func openReview(doc Document, _ Location) Fields {
	f := Fields{Title: text(doc.Find("h2.citation_title").First())}

	if h3 := doc.Find("h3").First(); h3.Length() > 0 {
		authors, _, _ := strings.Cut(h3.Text(), "modified:")
		f.Authors = strings.TrimSpace(authors)
	}

	label := doc.Find("strong").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "Abstract:"
	}).First()
	if label.Length() > 0 {
		f.Abstract = strings.TrimSpace(textUntilStrong(label.Get(0)))
	}
	return f
}

// textUntilStrong concatenates the text node siblings after n, stopping at
// the next <strong> element.
func textUntilStrong(n *html.Node) string {
	var b strings.Builder
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "strong" {
			break
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
