// Package extract implements rule-driven field extraction from rendered
// listing pages. Each source describes every field as an ordered chain
// of candidate rules; the first rule producing a non-empty value wins,
// which keeps extraction tolerant of markup drift between listings of
// the same source. Rules never return errors: a field all of whose
// rules miss is simply absent from the bag.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Bag is the ephemeral raw-field container produced by one extraction
// attempt: raw string fields, boolean amenity flags, and the ordered
// image URL list.
type Bag struct {
	Fields map[string]string
	Flags  map[string]bool
	Images []string
}

// NewBag returns an empty Bag.
func NewBag() *Bag {
	return &Bag{
		Fields: make(map[string]string),
		Flags:  make(map[string]bool),
	}
}

// Set stores a field value, ignoring empty strings.
func (b *Bag) Set(name, value string) {
	if value != "" {
		b.Fields[name] = value
	}
}

// Get returns the raw value for name, or "" when absent.
func (b *Bag) Get(name string) string {
	return b.Fields[name]
}

// Has reports whether a non-empty value was extracted for name.
func (b *Bag) Has(name string) bool {
	return b.Fields[name] != ""
}

// Rule is one candidate lookup against a parsed document. It returns ""
// when it does not match; it must not panic on unexpected structure.
type Rule func(doc *goquery.Document) string

// Chain is an ordered fallback list of rules for a single field.
type Chain []Rule

// First returns the first non-empty rule result, or "".
func (c Chain) First(doc *goquery.Document) string {
	for _, rule := range c {
		if v := rule(doc); v != "" {
			return v
		}
	}
	return ""
}

// RuleSet maps field names to their candidate chains.
type RuleSet map[string]Chain

// Apply runs every chain against doc and fills a fresh Bag.
func (rs RuleSet) Apply(doc *goquery.Document) *Bag {
	bag := NewBag()
	for field, chain := range rs {
		bag.Set(field, chain.First(doc))
	}
	return bag
}

// Text returns a rule reading the cleaned text of the first node
// matching selector.
func Text(selector string) Rule {
	return func(doc *goquery.Document) string {
		return CleanText(doc.Find(selector).First().Text())
	}
}

// TextExcluding reads the first node matching selector with any children
// matching drop removed first (icon SVGs, badge spans and similar).
func TextExcluding(selector, drop string) Rule {
	return func(doc *goquery.Document) string {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return ""
		}
		clone := sel.Clone()
		clone.Find(drop).Remove()
		return CleanText(clone.Text())
	}
}

// Attr returns a rule reading an attribute of the first matching node.
func Attr(selector, attr string) Rule {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// LabelValue handles the <b>LABEL</b> ... <div>value</div> layout: it
// finds the bold node whose text equals label and reads the nearest
// following div.
func LabelValue(label string) Rule {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find("b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if CleanText(s.Text()) != label {
				return true
			}
			if next := s.NextFiltered("div"); next.Length() > 0 {
				out = CleanText(next.Text())
			} else if sib := s.Parent().Find("div").First(); sib.Length() > 0 {
				out = CleanText(sib.Text())
			}
			return out == ""
		})
		return out
	}
}

// HeadingParagraph reads the paragraph that follows a heading whose text
// contains the given fragment (e.g. a description section).
func HeadingParagraph(headingSelector, contains string) Rule {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(headingSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.Contains(CleanText(s.Text()), contains) {
				return true
			}
			if next := s.NextFiltered("p"); next.Length() > 0 {
				out = CleanText(next.Text())
			} else if p := s.Parent().Find("p").First(); p.Length() > 0 {
				out = CleanText(p.Text())
			}
			return out == ""
		})
		return out
	}
}

// Paragraphs joins the cleaned text of every <p> under selector,
// skipping empty and single-character fragments.
func Paragraphs(selector string) Rule {
	return func(doc *goquery.Document) string {
		var parts []string
		doc.Find(selector).Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := CleanText(p.Text()); len(t) > 1 {
				parts = append(parts, t)
			}
		})
		return strings.Join(parts, " ")
	}
}

// JoinedList joins the cleaned text of all nodes matching selector with
// a comma (amenity/feature lists).
func JoinedList(selector string) Rule {
	return func(doc *goquery.Document) string {
		var items []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := CleanText(s.Text()); t != "" {
				items = append(items, t)
			}
		})
		return strings.Join(items, ", ")
	}
}

// FlexibleRows extracts the label/value grid used by OLX detail pages:
// rows with two h4 nodes are text fields keyed by the snake_cased
// label, rows with a single h4 are boolean amenities whose value is the
// presence of the success-checkmark SVG.
func FlexibleRows(doc *goquery.Document, rowSelector string) (map[string]string, map[string]bool) {
	fields := make(map[string]string)
	flags := make(map[string]bool)

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		h4s := row.Find("h4")
		switch {
		case h4s.Length() >= 2:
			label := SnakeLabel(CleanText(h4s.Eq(0).Text()))
			value := CleanText(h4s.Eq(1).Text())
			if label != "" && value != "" {
				fields[label] = value
			}
		case h4s.Length() == 1:
			label := SnakeLabel(CleanText(h4s.Eq(0).Text()))
			if label != "" {
				flags[label] = row.Find(`svg[data-testid="input-success-suffix"]`).Length() > 0
			}
		}
	})

	return fields, flags
}

// ImageURLs collects the ordered, de-duplicated src/data-src values of
// images under selector.
func ImageURLs(doc *goquery.Document, selector string) []string {
	var urls []string
	seen := make(map[string]struct{})

	doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		urls = append(urls, src)
	})

	return urls
}
