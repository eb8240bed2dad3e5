package i18n

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLocalizerFallsBackToEnglish(t *testing.T) {
	b, err := New("en")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	uk := b.Localizer("uk")
	if uk.Lang() != "uk" {
		t.Fatalf("lang = %q", uk.Lang())
	}
	if got := uk.T("menu.browse", nil); got != "🛍 Каталог" {
		t.Fatalf("uk menu = %q", got)
	}
	// Present in English only.
	if got := uk.T("orders.empty", nil); got != "No orders yet." {
		t.Fatalf("fallback = %q", got)
	}

	de := b.Localizer("de-DE")
	if got := de.T("start.welcome", map[string]any{"Name": "Ann"}); !strings.HasPrefix(got, "Hello, Ann!") {
		t.Fatalf("unknown language = %q", got)
	}
	if got := de.T("no.such.message", nil); got != "no.such.message" {
		t.Fatalf("missing id = %q", got)
	}
}

func TestPrice(t *testing.T) {
	b, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := b.Localizer("en").Price(decimal.RequireFromString("1299.5"), "UAH")
	if !strings.Contains(got, "1,299.50") || !strings.HasSuffix(got, "UAH") {
		t.Fatalf("price = %q", got)
	}
	if got := b.Localizer("en").Price(decimal.NewFromInt(5), "XX"); got != "5.00 XX" {
		t.Fatalf("unknown currency = %q", got)
	}
}
