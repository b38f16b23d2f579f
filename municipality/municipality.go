// Package municipality maps free-text location strings to the fixed
// canonical taxonomy of Sarajevo-canton municipalities.
//
// Normalization is an ordered (pattern, canonical) rule list matched
// against the lower-cased concatenation of location, title and
// description; the first match wins. There is deliberately NO single
// policy for unmapped input: live ingestion keeps the listing with its
// raw municipality (scraper package), while the batch cleanup pass
// deactivates and removes rows it cannot map (services.CleanupService).
// Both call sites document their choice.
package municipality

import (
	"regexp"
	"strings"
)

// Canonical is the closed set of accepted municipality names.
var Canonical = []string{
	"Sarajevo - Centar",
	"Sarajevo - Novi Grad",
	"Sarajevo - Novo Sarajevo",
	"Sarajevo - Stari Grad",
	"Ilidža",
	"Vogošća",
	"Ilijaš",
	"Hadžići",
	"Trnovo",
}

var canonicalByLower = func() map[string]string {
	m := make(map[string]string, len(Canonical))
	for _, c := range Canonical {
		m[strings.ToLower(c)] = c
	}
	return m
}()

type mappingRule struct {
	pattern *regexp.Regexp
	target  string
}

// patternRules is ordered; neighborhood vocabulary folds into its parent
// municipality (Grbavica → Novo Sarajevo, Dobrinja → Novi Grad, ...).
var patternRules = []mappingRule{
	{regexp.MustCompile(`(?i)centar|ohr|trg\s+solidarnosti|kod\s+ohr`), "Sarajevo - Centar"},
	{regexp.MustCompile(`(?i)novo\s*sarajevo|grbavica|h\.?\s?naselje|hrasno|pofali[cć]i|čengić|cengic`), "Sarajevo - Novo Sarajevo"},
	{regexp.MustCompile(`(?i)novi\s*grad|alipaš|alipas|otoka|dobrinja|bu[cć]a|buće`), "Sarajevo - Novi Grad"},
	{regexp.MustCompile(`(?i)stari\s*grad|baš?čaršija|bascarsija|š?trosmajerova`), "Sarajevo - Stari Grad"},
	{regexp.MustCompile(`(?i)ilidž|ilidz|butmir|hrasnica|sokolovi[cć]|osjek|oštek|silve\s+rizvanbegovic`), "Ilidža"},
	{regexp.MustCompile(`(?i)vogoš[cć]a|vogo`), "Vogošća"},
	{regexp.MustCompile(`(?i)ilijaš|ilijas`), "Ilijaš"},
	{regexp.MustCompile(`(?i)hadži[cć]i|hadzici`), "Hadžići"},
	{regexp.MustCompile(`(?i)trnovo`), "Trnovo"},
}

// Normalize maps raw location text (optionally aided by title and
// description) to a canonical municipality. The boolean is false when
// no rule matches; the caller decides what an unmapped value means.
func Normalize(raw, title, description string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" && title == "" && description == "" {
		return "", false
	}

	// Already canonical input keeps its registered casing.
	if c, ok := canonicalByLower[strings.ToLower(raw)]; ok {
		return c, true
	}

	searchText := strings.ToLower(raw + " " + title + " " + description)
	for _, rule := range patternRules {
		if rule.pattern.MatchString(searchText) {
			return rule.target, true
		}
	}

	return "", false
}

// IsCanonical reports whether name is exactly one of the accepted
// municipality names (case-insensitive).
func IsCanonical(name string) bool {
	_, ok := canonicalByLower[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
