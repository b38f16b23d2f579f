package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func TestChainFirstMatchWins(t *testing.T) {
	doc := parseDoc(t, `<div><h1 class="new-title">New markup</h1><h1 class="old-title">Old markup</h1></div>`)

	chain := Chain{
		Text("h1.missing"),
		Text("h1.new-title"),
		Text("h1.old-title"),
	}

	if got := chain.First(doc); got != "New markup" {
		t.Errorf("chain.First = %q; want %q", got, "New markup")
	}
}

func TestChainAllMissYieldsEmpty(t *testing.T) {
	doc := parseDoc(t, `<p>nothing useful</p>`)

	chain := Chain{Text(".a"), Text(".b"), Attr(".c", "href")}
	if got := chain.First(doc); got != "" {
		t.Errorf("chain.First on unmatched doc = %q; want empty", got)
	}
}

func TestRuleSetNeverPanicsOnBrokenMarkup(t *testing.T) {
	// Truncated, unbalanced markup must produce an empty bag, not a panic.
	doc := parseDoc(t, `<div class="grid"><h4>Cij`)

	rs := RuleSet{
		"title": {Text("h1"), Text(".main-title-listing")},
		"price": {Text(".price-heading")},
	}

	bag := rs.Apply(doc)
	if bag.Has("title") || bag.Has("price") {
		t.Errorf("expected empty bag, got %+v", bag.Fields)
	}
}

func TestTextExcludingDropsIcons(t *testing.T) {
	doc := parseDoc(t, `<div class="btn-pill city"><svg><path d="m0"/></svg> Ilidža </div>`)

	rule := TextExcluding("div.btn-pill.city", "svg")
	if got := rule(doc); got != "Ilidža" {
		t.Errorf("TextExcluding = %q; want %q", got, "Ilidža")
	}
}

func TestLabelValue(t *testing.T) {
	doc := parseDoc(t, `
		<li><b>TIP</b><div>Stan</div></li>
		<li><b>SUBJEKT</b><div>Prodaja</div></li>
		<li><b>BROJ SOBA</b><div>Trosoban</div></li>`)

	if got := LabelValue("SUBJEKT")(doc); got != "Prodaja" {
		t.Errorf("LabelValue(SUBJEKT) = %q; want Prodaja", got)
	}
	if got := LabelValue("POVRŠINA")(doc); got != "" {
		t.Errorf("LabelValue(POVRŠINA) on absent label = %q; want empty", got)
	}
}

func TestFlexibleRows(t *testing.T) {
	doc := parseDoc(t, `
		<div class="tbody">
			<div class="grid"><h4>Adresa</h4><h4>Trg solidarnosti 5</h4></div>
			<div class="grid"><h4>Broj kupatila</h4><h4>2</h4></div>
			<div class="grid"><h4>Lift</h4><svg data-testid="input-success-suffix"></svg></div>
			<div class="grid"><h4>Garaža</h4></div>
		</div>`)

	fields, flags := FlexibleRows(doc, "div.tbody div.grid")

	wantFields := map[string]string{
		"adresa":        "Trg solidarnosti 5",
		"broj_kupatila": "2",
	}
	wantFlags := map[string]bool{
		"lift":   true,
		"garaža": false,
	}

	if diff := cmp.Diff(wantFields, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantFlags, flags); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestImageURLsOrderedAndDeduplicated(t *testing.T) {
	doc := parseDoc(t, `
		<div class="swiper-slide"><img src="https://img.example/1.jpg"></div>
		<div class="swiper-slide"><img data-src="https://img.example/2.jpg"></div>
		<div class="swiper-slide swiper-slide-duplicate"><img src="https://img.example/1.jpg"></div>
		<div class="swiper-slide"><img src="https://img.example/1.jpg"></div>`)

	got := ImageURLs(doc, "div.swiper-slide:not(.swiper-slide-duplicate) img")
	want := []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImageURLs mismatch (-want +got):\n%s", diff)
	}
}
