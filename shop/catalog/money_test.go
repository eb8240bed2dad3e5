package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinorUnitsFollowTheCurrency(t *testing.T) {
	tests := []struct {
		code  string
		units int64
		want  string
	}{
		{"UAH", 129950, "1299.5"},
		{"JPY", 4999, "4999"},
		{"KWD", 12345, "12.345"},
		{"ZZZ", 150, "1.5"},
	}
	for _, tt := range tests {
		got := FromMinor(tt.units, tt.code)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("FromMinor(%d, %s) = %s, want %s", tt.units, tt.code, got, tt.want)
		}
		if back := ToMinor(got, tt.code); back != tt.units {
			t.Fatalf("ToMinor(%s, %s) = %d, want %d", got, tt.code, back, tt.units)
		}
	}

	p := Product{Price: decimal.RequireFromString("4999"), PriceCurrency: "JPY"}
	if got := p.MinorUnits(); got != 4999 {
		t.Fatalf("JPY minor units = %d", got)
	}
}
