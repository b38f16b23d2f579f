// Package olx defines the OLX.ba source: rule lists for the Vue-rendered
// detail pages, the flexible label/value grid, and the swiper image
// carousel.
package olx

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/extract"
	"github.com/musss2003/price-predictor-app/scraper"
)

const (
	baseURL   = "https://olx.ba"
	searchURL = "https://olx.ba/pretraga?attr=&attr_encoded=1&q=stanovi&category_id=23&page=%d&canton=9"
)

var (
	linkPattern = regexp.MustCompile(`/artikal/`)
	idPattern   = regexp.MustCompile(`/artikal/(\d+)`)
)

// gridFieldMap maps the flexible grid's Bosnian labels to canonical bag
// fields. Labels missing here stay under their own key and end up in
// the listing's extras.
var gridFieldMap = map[string]string{
	"adresa":           scraper.FieldAddress,
	"broj_kupatila":    scraper.FieldBathrooms,
	"godina_izgradnje": scraper.FieldYearBuilt,
	"datum_objave":     scraper.FieldPubDate,
}

// fieldRules is the ordered fallback chain per field. The positional
// required-wrap selectors track OLX's current detail layout; earlier
// rules cover the markup variants seen drifting between listings.
var fieldRules = extract.RuleSet{
	scraper.FieldTitle: {
		extract.Text("h1"),
		extract.Text(".main-title-listing"),
	},
	scraper.FieldPrice: {
		extract.Text(".price-heading"),
		extract.Text("span[class*=price-heading]"),
	},
	scraper.FieldMunicipality: {
		extract.TextExcluding("div.btn-pill.city", "svg"),
	},
	scraper.FieldDescription: {
		extract.Paragraphs(".ad-description-container"),
		extract.Paragraphs("div.ad-description"),
		extract.TextExcluding("div[class*=ad-description-container]", "button"),
	},
	scraper.FieldCondition: {
		extract.Text("div.required-wrap:nth-child(2) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldAdType: {
		extract.Text("div.required-wrap:nth-child(3) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldPropertyType: {
		extract.Text("div.required-wrap:nth-child(4) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldRooms: {
		extract.Text("div.required-wrap:nth-child(5) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldArea: {
		extract.Text("div.required-wrap:nth-child(6) > div:nth-child(2) > h4:nth-child(2)"),
	},
	"equipment": {
		extract.Text("div.required-wrap:nth-child(7) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldLevel: {
		extract.Text("div.required-wrap:nth-child(8) > div:nth-child(2) > h4:nth-child(2)"),
	},
	scraper.FieldHeating: {
		extract.Text("div.required-wrap:nth-child(9) > div:nth-child(2) > h4:nth-child(2)"),
	},
}

// Source returns the OLX.ba source definition.
func Source() *scraper.Source {
	return &scraper.Source{
		Name:        "olx_ba",
		BaseURL:     baseURL,
		SearchURL:   func(page int) string { return fmt.Sprintf(searchURL, page) },
		LinkPattern: linkPattern,
		ExternalID:  externalID,
		Extract:     extractBag,
		PageWait:    5 * time.Second,
		DetailWait:  4 * time.Second,
	}
}

// externalID derives the stable id from the artikal URL; URLs without a
// numeric id fall back to a stable hash so re-runs agree.
func externalID(detailURL string) string {
	if m := idPattern.FindStringSubmatch(detailURL); m != nil {
		return "olx_" + m[1]
	}
	h := fnv.New32a()
	h.Write([]byte(detailURL))
	return fmt.Sprintf("olx_%d", h.Sum32()%10000000)
}

func extractBag(doc *goquery.Document) *extract.Bag {
	bag := fieldRules.Apply(doc)

	// The tbody grid carries everything the fixed selectors miss:
	// address, bathrooms, build year, publication date, and the
	// checkmark amenities.
	fields, flags := extract.FlexibleRows(doc, "div.tbody div.grid")
	for label, value := range fields {
		if target, ok := gridFieldMap[label]; ok {
			bag.Set(target, value)
			continue
		}
		bag.Set(label, value)
	}
	for label, present := range flags {
		bag.Flags[label] = present
	}

	bag.Images = extract.ImageURLs(doc, "div.swiper-slide:not(.swiper-slide-duplicate) img")
	if len(bag.Images) == 0 {
		bag.Images = extract.ImageURLs(doc, "img.article-img")
	}

	return bag
}
