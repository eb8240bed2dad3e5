// Package i18n renders user-facing texts in the user's language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed locales/*.toml
var locales embed.FS

// Bundle holds the messages of every supported language.
type Bundle struct {
	bundle   *goi18n.Bundle
	fallback language.Tag
	matcher  language.Matcher
}

// New loads the embedded locales. Messages missing from a language are
// served in English; fallback selects the language used when the user's
// language is unknown.
func New(fallback string) (*Bundle, error) {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("i18n: list locales: %w", err)
	}
	for _, f := range files {
		if _, err := b.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", path.Base(f), err)
		}
	}

	tag := language.English
	if strings.TrimSpace(fallback) != "" {
		parsed, err := language.Parse(fallback)
		if err != nil {
			return nil, fmt.Errorf("i18n: bad default language %q: %w", fallback, err)
		}
		tag = parsed
	}
	return &Bundle{
		bundle:   b,
		fallback: tag,
		matcher:  language.NewMatcher(b.LanguageTags()),
	}, nil
}

// Languages lists the loaded languages.
func (b *Bundle) Languages() []language.Tag {
	return b.bundle.LanguageTags()
}

// Localizer returns a localizer for a Telegram language code such as "uk" or
// "en-US". An empty code selects the fallback language.
func (b *Bundle) Localizer(lang string) *Localizer {
	tag := b.fallback
	if strings.TrimSpace(lang) != "" {
		if parsed, err := language.Parse(lang); err == nil {
			tag = parsed
		}
	}
	matched, _, _ := b.matcher.Match(tag)
	base, _ := matched.Base()
	return &Localizer{
		loc:     goi18n.NewLocalizer(b.bundle, base.String(), b.fallback.String()),
		lang:    base.String(),
		printer: message.NewPrinter(matched),
	}
}

// Localizer renders messages for one language.
type Localizer struct {
	loc     *goi18n.Localizer
	lang    string
	printer *message.Printer
}

// Lang returns the base language code, e.g. "uk".
func (l *Localizer) Lang() string { return l.lang }

// T renders message id with optional template data. Unknown ids render as
// the id itself so a missing translation never breaks a reply.
func (l *Localizer) T(id string, data map[string]any) string {
	out, err := l.loc.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil && out == "" {
		return id
	}
	return out
}

// Price formats an amount in an ISO 4217 currency with the currency's
// standard number of decimals, e.g. "1,299.50 UAH".
func (l *Localizer) Price(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(2) + " " + code
	}
	scale, _ := currency.Standard.Rounding(unit)
	f, _ := amount.Round(int32(scale)).Float64()
	return l.printer.Sprintf("%v %s", number.Decimal(f, number.Scale(scale)), unit.String())
}
