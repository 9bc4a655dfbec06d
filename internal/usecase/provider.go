package usecase

import (
	"regexp"
	"strings"
)

// Provider alias tables. Read-only after init - a raw provider spelling maps
// to one canonical key, and each canonical key has one display name.
// "swiggy instamart" and bare "swiggy" are intentionally distinct identities.
var canonicalProviders = map[string]string{
	"swiggy instamart": "instamart",
	"swiggyinstamart":  "instamart",
	"instamart":        "instamart",
	"swiggy":           "swiggy",
	"zepto":            "zepto",
	"blinkit":          "blinkit",
	"bigbasket":        "bigbasket",
	"jiomart":          "jiomart",
	"dmart":            "dmart",
}

var providerDisplayNames = map[string]string{
	"instamart": "Instamart",
	"swiggy":    "Swiggy",
	"zepto":     "Zepto",
	"blinkit":   "Blinkit",
	"bigbasket": "BigBasket",
	"jiomart":   "JioMart",
	"dmart":     "Dmart",
}

// substringProviders is the fallback containment check order. Instamart must
// be checked before swiggy: "swiggy instamart" contains both substrings and
// belongs to instamart.
var substringProviders = []string{
	"instamart", "swiggy", "blinkit", "bigbasket", "jiomart", "dmart", "zepto",
}

var (
	providerQuoteRegex   = regexp.MustCompile("[‘’“”\"]")
	providerNonWordRegex = regexp.MustCompile(`[^a-z0-9 ]+`)
	providerSpacesRegex  = regexp.MustCompile(`\s+`)
)

// normalizeProviderName lowercases, strips quotes and punctuation to spaces,
// collapses whitespace and trims.
func normalizeProviderName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = providerQuoteRegex.ReplaceAllString(n, "")
	n = providerNonWordRegex.ReplaceAllString(n, " ")
	n = providerSpacesRegex.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// CanonicalProviderKey maps an arbitrary provider name spelling to its
// canonical key. Unrecognized providers fall back to the compacted
// normalized input so downstream grouping still works.
func CanonicalProviderKey(name string) string {
	n := normalizeProviderName(name)
	if key, ok := canonicalProviders[n]; ok {
		return key
	}
	compact := strings.ReplaceAll(n, " ", "")
	if key, ok := canonicalProviders[compact]; ok {
		return key
	}
	for _, candidate := range substringProviders {
		if strings.Contains(n, candidate) {
			return candidate
		}
		if candidate == "bigbasket" && strings.HasPrefix(n, "bb") {
			return "bigbasket"
		}
	}
	if compact != "" {
		return compact
	}
	return "unknown"
}

// ProviderDisplayName returns the friendly display string for a provider.
// Unrecognized providers keep their original spelling.
func ProviderDisplayName(name string) string {
	key := CanonicalProviderKey(name)
	if display, ok := providerDisplayNames[key]; ok {
		return display
	}
	if name != "" {
		return name
	}
	return key
}
