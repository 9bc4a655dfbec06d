package usecase

import (
	"math"

	"github.com/cartcompare/backend/internal/domain"
)

// NormalizePrice converts (price, unit string) into a per-100g or per-100ml
// price, rounded to 2 decimals. Returns ok=false when the unit string cannot
// be parsed - such listings stay unnormalized and are surfaced to the admin
// mapping workflow instead of being dropped.
//
// Calling convention: a listing that already carries a normalized price (a
// manual admin override) must not be passed back through NormalizePrice; the
// caller checks for a pre-set value first. Keeping that rule outside this
// function keeps it pure and independently testable.
func NormalizePrice(price float64, unitStr string) (domain.NormalizedPrice, bool) {
	base, ok := ParseUnit(unitStr)
	if !ok {
		return domain.NormalizedPrice{}, false
	}

	// base.Amount > 0 is guaranteed by the ParseUnit contract
	per100 := (price / base.Amount) * 100
	value := math.Round(per100*100) / 100

	unit := domain.UnitPer100g
	if base.Phase == domain.PhaseLiquid {
		unit = domain.UnitPer100ml
	}
	return domain.NormalizedPrice{Value: value, Unit: unit}, true
}
