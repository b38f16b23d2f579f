package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	digitsRegexp = regexp.MustCompile(`[0-9]+`)
	// areaRegexp captures the numeric part of "65,5 m²" style values,
	// accepting comma as the decimal separator.
	areaRegexp = regexp.MustCompile(`[\d]+(?:[.,]\d+)?`)
)

// roomWords resolves word-form room counts used in listing titles and
// detail tables before any digit fallback is attempted.
var roomWords = map[string]int{
	"garsonjera":    1,
	"jednosoban":    1,
	"jednoiposoban": 2,
	"dvosoban":      2,
	"dvoiposoban":   3,
	"trosoban":      3,
	"troiposoban":   4,
	"četverosoban":  4,
	"cetverosoban":  4,
	"petosoban":     5,
}

// trueWords are the value forms that mark a boolean amenity as present.
var trueWords = map[string]struct{}{
	"da": {}, "yes": {}, "true": {}, "✓": {}, "✔": {}, "ima": {},
}

// CleanText collapses all whitespace runs to single spaces and trims.
func CleanText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// ParsePrice extracts an integer price by stripping every non-digit:
// "250.000 KM" → 250000. Returns nil when no digits remain.
func ParsePrice(raw string) *int {
	digits := strings.Join(digitsRegexp.FindAllString(raw, -1), "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParseNumber extracts the first integer in raw, or nil.
func ParseNumber(raw string) *int {
	m := digitsRegexp.FindString(raw)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// ParseArea extracts a floating-point surface from locale text,
// accepting comma as the decimal separator: "65,5 m²" → 65.5.
func ParseArea(raw string) *float64 {
	m := areaRegexp.FindString(raw)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseRooms resolves a room count: the fixed word table first, then
// the first digit in the text.
func ParseRooms(raw string) *int {
	lower := strings.ToLower(raw)
	for word, count := range roomWords {
		if strings.Contains(lower, word) {
			n := count
			return &n
		}
	}
	return ParseNumber(raw)
}

// ParseBool interprets source boolean markers ("Da", checkmarks, "ima").
func ParseBool(raw string) bool {
	_, ok := trueWords[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// dateFormats are the publication-date layouts seen across sources.
var dateFormats = []string{"02.01.2006", "2006-01-02", "02/01/2006"}

// ParseDate normalizes a source date to ISO YYYY-MM-DD, or "" when the
// value matches no known layout.
func ParseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// SnakeLabel folds a human label to a lookup key: lower-cased, spaces
// to underscores, punctuation dropped, letters (including non-ASCII)
// kept: "Kablovska TV" → "kablovska_tv", "Garaža" → "garaža".
func SnakeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
