package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/extract"
)

// Source describes one listing site as data: how to build search URLs,
// which hrefs are detail pages, and the field rule lists. Extraction is
// configuration-driven dispatch — there is no per-source type hierarchy.
type Source struct {
	Name    string
	BaseURL string

	// SearchURL renders the paginated results URL for a page number.
	SearchURL func(page int) string

	// LinkPattern separates listing links from navigation chrome.
	LinkPattern *regexp.Regexp

	// ExternalID derives the source-qualified stable id from a detail URL.
	ExternalID func(detailURL string) string

	// Extract turns one rendered detail document into a raw field bag.
	Extract func(doc *goquery.Document) *extract.Bag

	// Render waits for the site's JS to settle after navigation.
	PageWait   time.Duration
	DetailWait time.Duration
}

// DiscoverLinks harvests detail-page URLs from a rendered results page:
// every anchor whose href matches the source's link pattern, resolved
// against the base URL, order-preserving and de-duplicated.
func (s *Source) DiscoverLinks(doc *goquery.Document) []string {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || !s.LinkPattern.MatchString(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		link := strings.TrimSuffix(resolved.String(), "/")

		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}
