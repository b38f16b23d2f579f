package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/musss2003/price-predictor-app/utils"
)

const geocodeCountry = "Bosnia and Herzegovina"

// HTTPGeocoder queries a Nominatim-format search endpoint. It is
// best-effort infrastructure: every failure mode (timeout, bad status,
// empty result, malformed payload) degrades to "not found".
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

// NewHTTPGeocoder creates a geocoder against baseURL with its own
// request timeout, independent of page-fetch timeouts.
func NewHTTPGeocoder(baseURL string, timeout time.Duration, logger *utils.Logger) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.WithPrefix("geocoder"),
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves "{address}, {municipality}, {country}" to at most
// one point.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address, municipality string) (Point, bool) {
	query := address
	if municipality != "" {
		query += ", " + municipality
	}
	query += ", " + geocodeCountry

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		g.logger.Warn("build request for %q: %v", query, err)
		return Point{}, false
	}
	req.Header.Set("User-Agent", "price-predictor-app/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("geocode %q: %v", query, err)
		return Point{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocode %q: %s", query, resp.Status)
		return Point{}, false
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return Point{}, false
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Point{}, false
	}

	g.logger.Debug("geocoded %q -> (%.6f, %.6f)", query, lat, lon)
	return Point{Lat: lat, Lon: lon}, true
}

var _ Geocoder = (*HTTPGeocoder)(nil)

// String implements fmt.Stringer for log lines.
func (g *HTTPGeocoder) String() string {
	return fmt.Sprintf("HTTPGeocoder(%s)", g.baseURL)
}
