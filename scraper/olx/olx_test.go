package olx

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/musss2003/price-predictor-app/scraper"
)

// detailPage mirrors the rendered artikal layout: fixed required-wrap
// rows, the flexible tbody grid, and the swiper carousel.
const detailPage = `
<html><body>
	<h1>Dvosoban stan 58m2, Hrasno</h1>
	<span class="price-heading">165.000 KM</span>
	<div class="btn-pill city"><svg viewBox="0 0 24 24"></svg>Novo Sarajevo</div>

	<div class="ad-description-container">
		<p>Prodaje se dvosoban stan u Hrasnom.</p>
		<p>Stan je renoviran 2021. godine.</p>
	</div>

	<div class="central">
		<div class="heading">Osnovne informacije</div>
		<div class="required-wrap"><div>ikona</div><div><h4>Stanje</h4><h4>Renovirano</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Vrsta oglasa</h4><h4>Prodaja</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Vrsta nekretnine</h4><h4>Stan</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Broj soba</h4><h4>Dvosoban</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Kvadrata</h4><h4>58</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Opremljenost</h4><h4>Namješten</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Sprat</h4><h4>3</h4></div></div>
		<div class="required-wrap"><div>ikona</div><div><h4>Grijanje</h4><h4>Centralno</h4></div></div>
	</div>

	<div class="tbody">
		<div class="grid"><h4>Adresa</h4><h4>Azize Šaćirbegović bb</h4></div>
		<div class="grid"><h4>Broj kupatila</h4><h4>1</h4></div>
		<div class="grid"><h4>Godina izgradnje</h4><h4>1982</h4></div>
		<div class="grid"><h4>Datum objave</h4><h4>15.05.2024</h4></div>
		<div class="grid"><h4>Balkon</h4><svg data-testid="input-success-suffix"></svg></div>
		<div class="grid"><h4>Lift</h4><svg data-testid="input-success-suffix"></svg></div>
		<div class="grid"><h4>Garaža</h4></div>
	</div>

	<div class="swiper-slide"><img src="https://img.olx.ba/1.jpg"></div>
	<div class="swiper-slide"><img src="https://img.olx.ba/2.jpg"></div>
	<div class="swiper-slide swiper-slide-duplicate"><img src="https://img.olx.ba/1.jpg"></div>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractDetailPage(t *testing.T) {
	bag := Source().Extract(parseDoc(t, detailPage))

	wantFields := map[string]string{
		scraper.FieldTitle:        "Dvosoban stan 58m2, Hrasno",
		scraper.FieldPrice:        "165.000 KM",
		scraper.FieldMunicipality: "Novo Sarajevo",
		scraper.FieldDescription:  "Prodaje se dvosoban stan u Hrasnom. Stan je renoviran 2021. godine.",
		scraper.FieldCondition:    "Renovirano",
		scraper.FieldAdType:       "Prodaja",
		scraper.FieldPropertyType: "Stan",
		scraper.FieldRooms:        "Dvosoban",
		scraper.FieldArea:         "58",
		"equipment":               "Namješten",
		scraper.FieldLevel:        "3",
		scraper.FieldHeating:      "Centralno",
		scraper.FieldAddress:      "Azize Šaćirbegović bb",
		scraper.FieldBathrooms:    "1",
		scraper.FieldYearBuilt:    "1982",
		scraper.FieldPubDate:      "15.05.2024",
	}
	if diff := cmp.Diff(wantFields, bag.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	wantFlags := map[string]bool{"balkon": true, "lift": true, "garaža": false}
	if diff := cmp.Diff(wantFlags, bag.Flags); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}

	wantImages := []string{"https://img.olx.ba/1.jpg", "https://img.olx.ba/2.jpg"}
	if diff := cmp.Diff(wantImages, bag.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFallbackImages(t *testing.T) {
	bag := Source().Extract(parseDoc(t, `
		<h1>Stan bez carousela</h1>
		<img class="article-img" src="https://img.olx.ba/solo.jpg">`))

	if len(bag.Images) != 1 || bag.Images[0] != "https://img.olx.ba/solo.jpg" {
		t.Errorf("expected article-img fallback, got %v", bag.Images)
	}
}

func TestExternalID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://olx.ba/artikal/58231945-dvosoban-stan", "olx_58231945"},
		{"https://olx.ba/artikal/12", "olx_12"},
	}
	for _, tt := range tests {
		if got := externalID(tt.url); got != tt.want {
			t.Errorf("externalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	// URLs without a numeric id must still map to a stable id.
	a := externalID("https://olx.ba/artikal/bez-broja")
	b := externalID("https://olx.ba/artikal/bez-broja")
	if a != b {
		t.Errorf("fallback id not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "olx_") {
		t.Errorf("fallback id missing source prefix: %q", a)
	}
}

func TestSearchURLPaging(t *testing.T) {
	s := Source()
	if !strings.Contains(s.SearchURL(3), "page=3") {
		t.Errorf("search URL missing page number: %s", s.SearchURL(3))
	}
	if !s.LinkPattern.MatchString("/artikal/100-stan") {
		t.Error("link pattern must match artikal paths")
	}
	if s.LinkPattern.MatchString("/pretraga?page=2") {
		t.Error("link pattern must not match search pages")
	}
}
