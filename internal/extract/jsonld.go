package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// linkedData is the subset of a schema.org ScholarlyArticle we read.
type linkedData struct {
	Name        string          `json:"name"`
	Author      json.RawMessage `json:"author"`
	Description string          `json:"description"`
}

type linkedPerson struct {
	Name string `json:"name"`
}

// authorNames accepts a single author object or an array of them.
func (d linkedData) authorNames() string {
	if len(d.Author) == 0 {
		return ""
	}
	var people []linkedPerson
	if err := json.Unmarshal(d.Author, &people); err != nil {
		var one linkedPerson
		if err := json.Unmarshal(d.Author, &one); err != nil {
			return ""
		}
		people = []linkedPerson{one}
	}

	names := make([]string, 0, len(people))
	for _, p := range people {
		if n := strings.TrimSpace(p.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// jsonLD reads application/ld+json blocks. Malformed blocks are skipped and
// earlier blocks take precedence.
func jsonLD(doc Document, _ Location) Fields {
	var f Fields
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var d linkedData
		if err := json.Unmarshal([]byte(s.Text()), &d); err != nil {
			return
		}
		f.merge(Fields{Title: d.Name, Authors: d.authorNames(), Abstract: d.Description})
	})
	return f
}
