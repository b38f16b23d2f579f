package geo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/utils"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func newResolver(g Geocoder) *Resolver {
	return NewResolver(utils.NewLogger(), g)
}

const leafletWidget = `
	<div class="leaflet-pane">
		<img class="leaflet-marker-icon" style="transform: translate3d(371px, 200px, 0px)">
		<img class="leaflet-tile" src="https://tile.openstreetmap.org/16/36121/23865.png">
	</div>`

func TestTileCenter(t *testing.T) {
	// Tile (16, 36121, 23865) sits over central Sarajevo.
	p := TileCenter(16, 36121, 23865)

	if math.Abs(p.Lat-43.8603) > 0.01 || math.Abs(p.Lon-18.4406) > 0.01 {
		t.Errorf("TileCenter = (%.4f, %.4f); want approx (43.8603, 18.4406)", p.Lat, p.Lon)
	}
	if !p.InBounds() {
		t.Errorf("Sarajevo tile center should be inside the national box")
	}
}

func TestResolveMapWidget(t *testing.T) {
	doc := parseDoc(t, leafletWidget)

	p, ok := newResolver(nil).Resolve(context.Background(), doc, "", "")
	if !ok {
		t.Fatal("expected map-widget resolution")
	}
	if math.Abs(p.Lat-43.8603) > 0.01 {
		t.Errorf("resolved lat = %.4f; want approx 43.8603", p.Lat)
	}
}

func TestResolveStrategyOrder(t *testing.T) {
	// Both the widget and an inline script are present with conflicting
	// values; the widget must win.
	doc := parseDoc(t, leafletWidget+`
		<script>var map = L.map('m').setView([43.500000, 18.000000], 13);</script>`)

	p, ok := newResolver(nil).Resolve(context.Background(), doc, "", "")
	if !ok {
		t.Fatal("expected resolution")
	}
	if math.Abs(p.Lat-43.5) < 0.001 {
		t.Errorf("script strategy won over map widget: lat = %.4f", p.Lat)
	}
}

func TestResolveEmbeddedScript(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"setView", `<script>map.setView([43.856430, 18.413029], 15);</script>`},
		{"L.marker", `<script>L.marker([43.856430, 18.413029]).addTo(map);</script>`},
		{"literal pair", `<script>var cfg = {"latitude": 43.856430, "longitude": 18.413029};</script>`},
		{"google maps link", `<a href="https://maps.google.com/maps?ll=43.856430,18.413029&z=16">mapa</a>`},
		{"google maps iframe", `<iframe src="https://www.google.com/maps?ll=43.856430,18.413029&output=embed"></iframe>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := newResolver(nil).Resolve(context.Background(), parseDoc(t, tt.html), "", "")
			if !ok {
				t.Fatal("expected embedded resolution")
			}
			if p.Lat != 43.856430 || p.Lon != 18.413029 {
				t.Errorf("resolved (%.6f, %.6f); want (43.856430, 18.413029)", p.Lat, p.Lon)
			}
		})
	}
}

func TestResolveDiscardsOutOfBounds(t *testing.T) {
	// lat=50 is outside [42,46]; the resolver must return not-found
	// rather than the raw candidate.
	doc := parseDoc(t, `<script>map.setView([50.000000, 18.400000], 15);</script>`)

	if _, ok := newResolver(nil).Resolve(context.Background(), doc, "", ""); ok {
		t.Error("out-of-box coordinate must resolve to not-found")
	}
}

func TestResolveNothingFound(t *testing.T) {
	doc := parseDoc(t, `<p>nema mape</p>`)
	if _, ok := newResolver(nil).Resolve(context.Background(), doc, "", ""); ok {
		t.Error("expected not-found on a document with no geo signal")
	}
}

type fakeGeocoder struct {
	point  Point
	ok     bool
	called bool
	query  string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address, municipality string) (Point, bool) {
	f.called = true
	f.query = address + "|" + municipality
	return f.point, f.ok
}

func TestResolveGeocodingFallback(t *testing.T) {
	doc := parseDoc(t, `<p>nema mape</p>`)
	fake := &fakeGeocoder{point: Point{Lat: 43.82, Lon: 18.33}, ok: true}

	p, ok := newResolver(fake).Resolve(context.Background(), doc, "Trg solidarnosti 5", "Sarajevo - Novi Grad")
	if !ok || p != fake.point {
		t.Fatalf("expected geocoder fallback result, got (%v, %v)", p, ok)
	}
	if fake.query != "Trg solidarnosti 5|Sarajevo - Novi Grad" {
		t.Errorf("geocoder received %q", fake.query)
	}
}

func TestResolveGeocoderSkippedWithoutAddress(t *testing.T) {
	fake := &fakeGeocoder{point: Point{Lat: 43.82, Lon: 18.33}, ok: true}

	if _, ok := newResolver(fake).Resolve(context.Background(), parseDoc(t, `<p></p>`), "", ""); ok {
		t.Error("fallback must not run without a free-text address")
	}
	if fake.called {
		t.Error("geocoder called despite empty address")
	}
}

func TestResolveGeocoderOutOfBoundsDiscarded(t *testing.T) {
	fake := &fakeGeocoder{point: Point{Lat: 48.2, Lon: 16.4}, ok: true}

	if _, ok := newResolver(fake).Resolve(context.Background(), parseDoc(t, `<p></p>`), "Beč", ""); ok {
		t.Error("geocoded point outside the national box must be discarded")
	}
}

func TestHTTPGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); !strings.Contains(q, "Bosnia and Herzegovina") {
			t.Errorf("query missing country context: %q", q)
		}
		w.Write([]byte(`[{"lat":"43.8563","lon":"18.4131"}]`))
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, 2*time.Second, utils.NewLogger())
	p, ok := g.Geocode(context.Background(), "Ferhadija 12", "Sarajevo - Centar")
	if !ok || p.Lat != 43.8563 || p.Lon != 18.4131 {
		t.Errorf("Geocode = (%v, %v); want (43.8563, 18.4131)", p, ok)
	}
}

func TestHTTPGeocoderDegradesSilently(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty result", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[]`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"garbage payload", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{nope`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewHTTPGeocoder(srv.URL, time.Second, utils.NewLogger())
			if _, ok := g.Geocode(context.Background(), "Ferhadija 12", ""); ok {
				t.Error("expected not-found on degraded geocoder")
			}
		})
	}
}
