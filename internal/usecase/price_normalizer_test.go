package usecase

import (
	"testing"

	"github.com/cartcompare/backend/internal/domain"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		unit      string
		wantValue float64
		wantUnit  string
		wantOK    bool
	}{
		{"per 100g from kg", 500, "5 kg", 10.00, domain.UnitPer100g, true},
		{"per 100g from grams", 48, "400 g", 12.00, domain.UnitPer100g, true},
		{"per 100ml from liter", 60, "1 l", 6.00, domain.UnitPer100ml, true},
		{"per 100ml from ml", 25, "200 ml", 12.50, domain.UnitPer100ml, true},
		{"rounding to 2 decimals", 399, "5 kg", 7.98, domain.UnitPer100g, true},
		{"repeating decimal rounds", 10, "3 kg", 0.33, domain.UnitPer100g, true},
		{"multiplicative unit", 96, "2 x 400 g", 12.00, domain.UnitPer100g, true},
		{"zero price is not an error", 0, "1 kg", 0.00, domain.UnitPer100g, true},
		{"piece unit unparseable", 100, "1 pc", 0, "", false},
		{"empty unit unparseable", 100, "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePrice(tt.price, tt.unit)
			if ok != tt.wantOK {
				t.Fatalf("NormalizePrice(%v, %q) ok = %v, want %v", tt.price, tt.unit, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Value != tt.wantValue {
				t.Errorf("NormalizePrice(%v, %q) value = %v, want %v", tt.price, tt.unit, got.Value, tt.wantValue)
			}
			if got.Unit != tt.wantUnit {
				t.Errorf("NormalizePrice(%v, %q) unit = %q, want %q", tt.price, tt.unit, got.Unit, tt.wantUnit)
			}
		})
	}
}
