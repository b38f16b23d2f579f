// Package nekretnine defines the Nekretnine.ba source: label-sibling
// lookups for the static detail tables and the Leaflet-based location
// widget handled by the geo resolver.
package nekretnine

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/extract"
	"github.com/musss2003/price-predictor-app/scraper"
)

const (
	baseURL   = "https://nekretnine.ba/"
	searchURL = "https://nekretnine.ba/listing.php?lang=ba&sel=nekretnine&grad=65&naselje=&kat=3&subjekt=2&cij1=&cij2=&pov1=&pov2=&spr1=&spr2=&firma=&page=%d"
)

var (
	linkPattern = regexp.MustCompile(`^real-estate\.php\?lang=ba&sel=nekretnine&view=`)
	idPattern   = regexp.MustCompile(`view=(\d+)`)
)

var fieldRules = extract.RuleSet{
	scraper.FieldTitle: {
		extract.TextExcluding("div.listing-titlebar-title h2", "span.listing-tag"),
		extract.Text("h1"),
	},
	scraper.FieldMunicipality: {
		extract.Text("a.listing-address"),
	},
	scraper.FieldPrice: {
		extract.Text("span.re-slidep"),
	},
	scraper.FieldPropertyType: {
		extract.LabelValue("TIP"),
	},
	scraper.FieldAdType: {
		extract.LabelValue("SUBJEKT"),
	},
	scraper.FieldRooms: {
		extract.LabelValue("BROJ SOBA"),
	},
	scraper.FieldArea: {
		extract.LabelValue("POVRŠINA"),
	},
	scraper.FieldDescription: {
		extract.HeadingParagraph("h3", "Opis nekretnine"),
	},
	"equipment": {
		extract.JoinedList("ul.listing-features li"),
	},
}

// Source returns the Nekretnine.ba source definition.
func Source() *scraper.Source {
	return &scraper.Source{
		Name:        "nekretnine_ba",
		BaseURL:     baseURL,
		SearchURL:   func(page int) string { return fmt.Sprintf(searchURL, page) },
		LinkPattern: linkPattern,
		ExternalID:  externalID,
		Extract:     extractBag,
		PageWait:    10 * time.Second,
		DetailWait:  10 * time.Second,
	}
}

func externalID(detailURL string) string {
	if m := idPattern.FindStringSubmatch(detailURL); m != nil {
		return "nekretnine_" + m[1]
	}
	h := fnv.New32a()
	h.Write([]byte(detailURL))
	return fmt.Sprintf("nekretnine_%d", h.Sum32()%10000000)
}

func extractBag(doc *goquery.Document) *extract.Bag {
	bag := fieldRules.Apply(doc)

	// Amenities live in the free-form features list rather than a
	// checkmark grid; match the vocabulary against it.
	features := strings.ToLower(bag.Get("equipment"))
	if features != "" {
		bag.Flags["lift"] = strings.Contains(features, "lift") || strings.Contains(features, "dizalo")
		bag.Flags["balkon"] = strings.Contains(features, "balkon")
		bag.Flags["parking"] = strings.Contains(features, "parking")
		bag.Flags["garaža"] = strings.Contains(features, "garaž") || strings.Contains(features, "garaz")
		bag.Flags["internet"] = strings.Contains(features, "internet")
	}

	bag.Images = extract.ImageURLs(doc, "div.gallery img")
	if len(bag.Images) == 0 {
		bag.Images = extract.ImageURLs(doc, "div.images img")
	}

	return bag
}
