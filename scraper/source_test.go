package scraper

import (
	"regexp"
	"strings"
	"testing"
	"time"

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

func testSource() *Source {
	return &Source{
		Name:        "olx_ba",
		BaseURL:     "https://olx.ba",
		SearchURL:   func(page int) string { return "https://olx.ba/pretraga?page=1" },
		LinkPattern: regexp.MustCompile(`/artikal/`),
		ExternalID:  func(u string) string { return "olx_" + u[strings.LastIndex(u, "/")+1:] },
		PageWait:    time.Millisecond,
		DetailWait:  time.Millisecond,
	}
}

func TestDiscoverLinks(t *testing.T) {
	doc := parseDoc(t, `
		<main class="articles">
			<a href="/artikal/101-stan-centar">Stan Centar</a>
			<a href="/artikal/102-stan-ilidza">Stan Ilidža</a>
			<a href="/artikal/101-stan-centar">Stan Centar (slika)</a>
			<a href="/pretraga?page=2">Sljedeća</a>
			<a href="/profil/555">Prodavač</a>
		</main>`)

	got := testSource().DiscoverLinks(doc)
	want := []string{
		"https://olx.ba/artikal/101-stan-centar",
		"https://olx.ba/artikal/102-stan-ilidza",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DiscoverLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverLinksResolvesRelativeAndAbsolute(t *testing.T) {
	doc := parseDoc(t, `
		<a href="https://olx.ba/artikal/7">apsolutni</a>
		<a href="/artikal/8#galerija">relativni s fragmentom</a>`)

	got := testSource().DiscoverLinks(doc)
	want := []string{"https://olx.ba/artikal/7", "https://olx.ba/artikal/8"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DiscoverLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverLinksEmptyPage(t *testing.T) {
	doc := parseDoc(t, `<nav><a href="/pretraga?page=3">3</a></nav>`)

	if got := testSource().DiscoverLinks(doc); len(got) != 0 {
		t.Errorf("expected no listing links on a chrome-only page, got %v", got)
	}
}
