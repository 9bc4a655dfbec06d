package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cartcompare/backend/internal/domain"
)

const productKeySeparator = "||"

// Package-level compiled regex patterns for performance
var (
	bracketedTextRegex = regexp.MustCompile(`\((.*?)\)|\[(.*?)\]`)

	// packaging/marketing words that fragment grouping keys without adding identity
	nameStopwordRegex = regexp.MustCompile(`(?i)\b(pack of|pack|combo of|combo|packet|pouch|fresh|new|extra|refill|family pack|economy pack|value pack|by|from|brand)\b`)

	// embedded quantity+unit tokens ("5 kg", "400g", "2 pcs") inside names
	embeddedQuantityRegex = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(kg|kgs|gram(?:s)?|gm|g|ml|ltr|litre(?:s)?|l|piece(?:s)?|pcs|pc)\b`)

	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
	smartQuoteRegex      = regexp.MustCompile("[‘’“”\"]")

	// quantity + unit anywhere in unit/name text, for the canonical unit label
	unitLabelRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|kgs|kilogram(?:s)?|gram(?:s)?|gm|g|ml|ltr|litre(?:s)?|l|piece(?:s)?|pcs|pc)\b`)

	// multiplicative "2 x 400 g" label form
	multiUnitLabelRegex = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+(?:[.,]\d+)?)\s*(kg|gm|g|ml|l)\b`)
)

// normalizeText lowercases, strips quote characters and collapses whitespace.
func normalizeText(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	n = smartQuoteRegex.ReplaceAllString(n, "")
	n = multipleSpacesRegex.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// NormalizeProductName reduces a raw product name to the tokens that carry
// product identity: bracketed text, the brand itself, packaging stopwords
// and embedded quantities are all stripped, the rest is lowercased and
// truncated to the first 10 tokens.
func NormalizeProductName(name, brand string) string {
	if name == "" {
		return ""
	}
	n := bracketedTextRegex.ReplaceAllString(name, " ")
	n = removeBrandFromName(n, brand)
	n = nameStopwordRegex.ReplaceAllString(n, " ")
	n = embeddedQuantityRegex.ReplaceAllString(n, " ")
	n = nonAlphanumericRegex.ReplaceAllString(n, " ")
	n = strings.ToLower(multipleSpacesRegex.ReplaceAllString(n, " "))
	n = strings.TrimSpace(n)

	parts := strings.Fields(n)
	if len(parts) > 10 {
		parts = parts[:10]
	}
	return strings.Join(parts, " ")
}

// removeBrandFromName strips an exact, word-boundary-safe occurrence of the
// brand string from the name.
func removeBrandFromName(name, brand string) string {
	b := strings.TrimSpace(brand)
	if b == "" {
		return name
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(b) + `\b`)
	if err != nil {
		return name
	}
	return re.ReplaceAllString(name, " ")
}

// NormalizeUnitLabel derives a canonical quantity label like "5000g" or
// "1000ml" by scanning the unit string and the product name for the first
// quantity+unit token. Returns "" when neither contains one; callers treat
// empty-vs-empty as compatible, not as a mismatch.
func NormalizeUnitLabel(unit, name string) string {
	combined := strings.ToLower(unit + " " + name)

	if m := unitLabelRegex.FindStringSubmatch(combined); m != nil {
		num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			switch token := m[2]; {
			case strings.HasPrefix(token, "kg") || strings.HasPrefix(token, "kilogram"):
				return formatUnitLabel(num*1000, "g")
			case token == "g" || token == "gm" || strings.HasPrefix(token, "gram"):
				return formatUnitLabel(num, "g")
			case token == "ml":
				return formatUnitLabel(num, "ml")
			case token == "l" || token == "ltr" || strings.HasPrefix(token, "litre"):
				return formatUnitLabel(num*1000, "ml")
			default:
				return formatUnitLabel(num, token)
			}
		}
	}

	if m := multiUnitLabelRegex.FindStringSubmatch(combined); m != nil {
		count, err1 := strconv.ParseFloat(m[1], 64)
		size, err2 := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err1 == nil && err2 == nil {
			switch m[3] {
			case "kg":
				return formatUnitLabel(count*size*1000, "g")
			case "g", "gm":
				return formatUnitLabel(count*size, "g")
			case "l":
				return formatUnitLabel(count*size*1000, "ml")
			case "ml":
				return formatUnitLabel(count*size, "ml")
			}
		}
	}

	return ""
}

func formatUnitLabel(amount float64, suffix string) string {
	return fmt.Sprintf("%s%s", strconv.FormatFloat(amount, 'f', -1, 64), suffix)
}

// BuildProductKey derives the grouping key for a listing. An explicit
// product id is the strong-identity path and always wins; otherwise the key
// is synthesized from normalized brand, name and unit label.
func BuildProductKey(l domain.Listing) string {
	if l.ProductID != "" {
		return l.ProductID
	}
	brand := normalizeText(l.Brand)
	name := NormalizeProductName(l.Name, brand)
	unit := NormalizeUnitLabel(l.Unit, l.Name)
	key := brand + productKeySeparator + name + productKeySeparator + unit
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(key, " "))
}
