package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartcompare/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	// "2 x 400", "2×400", "3 * 250" - count times pack size
	multiplicativeRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[x×*]\s*(\d+(?:\.\d+)?)`)

	// first number followed by an optional known unit token.
	// Longer tokens come first so "gm" is not consumed as "g" plus noise.
	directRegex = regexp.MustCompile(`([\d.]+)\s*(kg|grams|gram|gm|g|ml|litres|litre|ltr|l|pieces|piece|pcs|pc)?`)

	firstNumberRegex = regexp.MustCompile(`[\d.]+`)

	unitSpaceRegex = regexp.MustCompile(`\s+`)
)

// ParseUnit parses a free-text unit string ("5 kg", "2 x 400 g", "250gm",
// "1 L") into a base quantity in grams or milliliters.
//
// Two shapes are recognized, in order: a multiplicative form
// "<count> x <size> <unit>" and a direct form "<number> <unit>". Piece-based
// tokens (pcs, pc, piece) are deliberately unparseable - a piece count has
// no weight/volume basis. A bare number with no unit token is assumed to be
// grams; that heuristic matches how providers label loose solids.
//
// Returns ok=false for empty, malformed, or piece-based input.
func ParseUnit(unitStr string) (domain.BaseQuantity, bool) {
	s := strings.ToLower(strings.TrimSpace(unitStr))
	if s == "" {
		return domain.BaseQuantity{}, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = unitSpaceRegex.ReplaceAllString(s, " ")

	// multiplicative form: "2 x 400 g" -> 2 * 400g
	if m := multiplicativeRegex.FindStringSubmatch(s); m != nil {
		qty, err1 := strconv.ParseFloat(m[1], 64)
		size, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return domain.BaseQuantity{}, false
		}
		token := "g"
		if rest := strings.Fields(strings.TrimPrefix(s, m[0])); len(rest) > 0 {
			token = rest[0]
		}
		base, phase, ok := tokenToBase(size, token)
		if !ok {
			return domain.BaseQuantity{}, false
		}
		amount := qty * base
		if amount <= 0 {
			return domain.BaseQuantity{}, false
		}
		return domain.BaseQuantity{Amount: amount, Phase: phase}, true
	}

	// direct form: first number plus the token immediately following it
	if m := directRegex.FindStringSubmatch(s); m != nil && m[1] != "" {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return domain.BaseQuantity{}, false
		}
		token := m[2]
		if token == "" {
			token = "g"
		}
		amount, phase, ok := tokenToBase(num, token)
		if !ok || amount <= 0 {
			return domain.BaseQuantity{}, false
		}
		return domain.BaseQuantity{Amount: amount, Phase: phase}, true
	}

	// fallback: any number at all, assume grams
	if m := firstNumberRegex.FindString(s); m != "" {
		num, err := strconv.ParseFloat(m, 64)
		if err != nil || num <= 0 {
			return domain.BaseQuantity{}, false
		}
		return domain.BaseQuantity{Amount: num, Phase: domain.PhaseSolid}, true
	}

	return domain.BaseQuantity{}, false
}

// tokenToBase converts a value with a known unit token to grams or
// milliliters. Unknown and piece-based tokens are unparseable.
func tokenToBase(value float64, token string) (float64, domain.Phase, bool) {
	switch token {
	case "kg":
		return value * 1000, domain.PhaseSolid, true
	case "g", "gm", "gram", "grams":
		return value, domain.PhaseSolid, true
	case "l", "ltr", "litre", "litres":
		return value * 1000, domain.PhaseLiquid, true
	case "ml":
		return value, domain.PhaseLiquid, true
	}
	return 0, domain.PhaseSolid, false
}
