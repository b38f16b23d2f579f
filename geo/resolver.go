// Package geo resolves listing coordinates from rendered detail pages.
//
// Strategies run in a fixed order and the first success wins: the
// rendered map widget (Leaflet marker + tile index), coordinate
// literals embedded in markup and inline scripts, and finally an
// optional external geocoder. Every candidate is validated against the
// national bounding box; an out-of-box point is treated as not found.
package geo

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/utils"
)

// National bounding box; anything outside is a resolution artifact.
const (
	LatMin = 42.0
	LatMax = 46.0
	LonMin = 15.0
	LonMax = 20.0
)

var (
	tileURLRegexp   = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)\.png`)
	setViewRegexp   = regexp.MustCompile(`setView\(\[(-?\d+\.\d+),\s*(-?\d+\.\d+)\]`)
	markerRegexp    = regexp.MustCompile(`L\.marker\(\[(-?\d+\.\d+),\s*(-?\d+\.\d+)\]`)
	latLonRegexp    = regexp.MustCompile(`(?i)(?:lat|latitude)["\s:]+(-?\d+\.\d+).*?(?:lng|longitude)["\s:]+(-?\d+\.\d+)`)
	mapsLinkRegexp  = regexp.MustCompile(`(?:ll=|@)(-?\d+\.\d+),(-?\d+\.\d+)`)
	googleMapsHref  = regexp.MustCompile(`google\.[a-z.]+/maps`)
)

// Point is a resolved WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// InBounds reports whether p lies inside the national bounding box.
func (p Point) InBounds() bool {
	return p.Lat >= LatMin && p.Lat <= LatMax && p.Lon >= LonMin && p.Lon <= LonMax
}

// Geocoder turns a free-text address into at most one coordinate pair.
// Implementations carry their own timeout; failure is never fatal.
type Geocoder interface {
	Geocode(ctx context.Context, address, municipality string) (Point, bool)
}

// Resolver applies the strategy chain to a parsed detail document.
type Resolver struct {
	logger   *utils.Logger
	geocoder Geocoder // nil disables the fallback
}

// NewResolver creates a Resolver. geocoder may be nil.
func NewResolver(logger *utils.Logger, geocoder Geocoder) *Resolver {
	return &Resolver{logger: logger.WithPrefix("geo"), geocoder: geocoder}
}

// Resolve returns the listing coordinates or ok=false. address and
// municipality feed only the geocoding fallback and may be empty.
func (r *Resolver) Resolve(ctx context.Context, doc *goquery.Document, address, municipality string) (Point, bool) {
	if p, ok := fromMapWidget(doc); ok {
		if p.InBounds() {
			return p, true
		}
		r.logger.Debug("map-widget candidate (%.4f, %.4f) outside bounding box, discarded", p.Lat, p.Lon)
	}

	if p, ok := fromEmbeddedMarkup(doc); ok {
		if p.InBounds() {
			return p, true
		}
		r.logger.Debug("embedded candidate (%.4f, %.4f) outside bounding box, discarded", p.Lat, p.Lon)
	}

	if r.geocoder != nil && address != "" {
		if p, ok := r.geocoder.Geocode(ctx, address, municipality); ok {
			if p.InBounds() {
				return p, true
			}
			r.logger.Debug("geocoded candidate (%.4f, %.4f) outside bounding box, discarded", p.Lat, p.Lon)
		}
	}

	return Point{}, false
}

// fromMapWidget reads the Leaflet widget: a positioned marker icon
// proves the map shows a real location, and the tile index gives the
// position. The result is the tile center, not the marker's sub-tile
// pixel offset (~150 m at zoom 16); the offset is intentionally unused.
func fromMapWidget(doc *goquery.Document) (Point, bool) {
	if doc.Find("img.leaflet-marker-icon").Length() == 0 {
		return Point{}, false
	}

	var point Point
	found := false
	doc.Find("img.leaflet-tile").EachWithBreak(func(_ int, tile *goquery.Selection) bool {
		src, _ := tile.Attr("src")
		m := tileURLRegexp.FindStringSubmatch(src)
		if m == nil {
			return true
		}
		zoom, _ := strconv.Atoi(m[1])
		x, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		point = TileCenter(zoom, x, y)
		found = true
		return false
	})

	return point, found
}

// TileCenter converts a slippy-map tile index to degrees using the
// standard OpenStreetMap transform.
func TileCenter(zoom, x, y int) Point {
	n := math.Exp2(float64(zoom))
	lon := float64(x)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	lat := latRad * 180.0 / math.Pi
	return Point{Lat: round6(lat), Lon: round6(lon)}
}

// fromEmbeddedMarkup pattern-matches coordinate literals: Google-Maps
// links and iframes first, then map-initialization and marker calls in
// inline scripts, then generic lat/lng literal pairs.
func fromEmbeddedMarkup(doc *goquery.Document) (Point, bool) {
	var point Point
	found := false

	doc.Find("a[href], iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		target, ok := s.Attr("href")
		if !ok {
			target, _ = s.Attr("src")
		}
		if !googleMapsHref.MatchString(target) {
			return true
		}
		if m := mapsLinkRegexp.FindStringSubmatch(target); m != nil {
			point, found = parsePair(m[1], m[2])
		}
		return !found
	})
	if found {
		return point, true
	}

	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		body := script.Text()
		if body == "" {
			return true
		}
		for _, re := range []*regexp.Regexp{setViewRegexp, markerRegexp, latLonRegexp} {
			if m := re.FindStringSubmatch(body); m != nil {
				point, found = parsePair(m[1], m[2])
				if found {
					return false
				}
			}
		}
		return true
	})

	return point, found
}

func parsePair(latStr, lonStr string) (Point, bool) {
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
