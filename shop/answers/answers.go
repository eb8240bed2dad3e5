// Package answers renders shop replies as transport-neutral values. The bot
// layer turns an Answer into Telegram markup; nothing here knows about it.
package answers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shoebot/core/telegram/format"
	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/wizard"
)

const (
	sizesPerRow   = 4
	choicesPerRow = 2
)

// Localizer renders message ids and prices for one user.
type Localizer interface {
	T(id string, data map[string]any) string
	Price(amount decimal.Decimal, currency string) string
}

// Button carries either callback data or a URL.
type Button struct {
	Text string
	Data string
	URL  string
}

// Answer is a reply: a caption in legacy Markdown, an optional photo and an
// inline keyboard.
type Answer struct {
	Caption string
	Photo   string
	Rows    [][]Button
}

// Kind is the closed set of product reply variants.
type Kind int

const (
	KindSlide Kind = iota
	KindBookmark
)

// Field is one caption line of a product.
type Field string

const (
	FieldBrand         Field = "brand"
	FieldCode          Field = "code"
	FieldPrice         Field = "price"
	FieldCategory      Field = "category"
	FieldSeason        Field = "season"
	FieldColor         Field = "color"
	FieldInnerMaterial Field = "inner_material"
	FieldOuterMaterial Field = "outer_material"
	FieldSole          Field = "sole"
	FieldSizes         Field = "sizes"
)

// Format describes a variant as data: its kind and the caption fields in
// display order.
type Format struct {
	Kind   Kind
	Fields []Field
}

var (
	SlideFormat = Format{Kind: KindSlide, Fields: []Field{
		FieldBrand, FieldCode, FieldPrice, FieldCategory, FieldSeason,
		FieldColor, FieldInnerMaterial, FieldOuterMaterial, FieldSole, FieldSizes,
	}}
	BookmarkFormat = Format{Kind: KindBookmark, Fields: []Field{
		FieldBrand, FieldCode, FieldPrice, FieldSizes,
	}}
)

// Caption renders the product caption. Empty fields are left out.
func (f Format) Caption(l Localizer, p catalog.Product) string {
	var b strings.Builder
	if f.Kind == KindBookmark {
		b.WriteString(format.MD(l.T("bookmark.title", nil)))
		b.WriteString("\n")
	}
	b.WriteString(format.Bold(p.Name))
	if p.IsNew {
		b.WriteString("\n" + format.MD(l.T("caption.new", nil)))
	}
	for _, field := range f.Fields {
		v := fieldValue(l, field, p)
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", format.MD(l.T("caption."+string(field), nil)), format.MD(v))
	}
	return b.String()
}

func fieldValue(l Localizer, field Field, p catalog.Product) string {
	switch field {
	case FieldBrand:
		return p.Brand
	case FieldCode:
		return p.Code
	case FieldPrice:
		return l.Price(p.Price, p.PriceCurrency)
	case FieldCategory:
		return p.Category
	case FieldSeason:
		return p.Season
	case FieldColor:
		return p.Color
	case FieldInnerMaterial:
		return p.InnerMaterial
	case FieldOuterMaterial:
		return p.OuterMaterial
	case FieldSole:
		if p.Sole == nil {
			return ""
		}
		return *p.Sole
	case FieldSizes:
		items := p.AvailableStockItems()
		sizes := make([]string, len(items))
		for i, item := range items {
			sizes[i] = strconv.Itoa(item.Size.Size)
		}
		return strings.Join(sizes, ", ")
	}
	return ""
}

// Slide renders the product on s with navigation controls. The counter
// between the arrows links to the product page.
func Slide(l Localizer, s browse.Slide) (Answer, error) {
	p, err := s.Product()
	if err != nil {
		return Answer{}, err
	}
	ordinal, err := s.Ordinal()
	if err != nil {
		return Answer{}, err
	}

	nav := make([]Button, 0, 3)
	if prev, ok, err := s.Previous(); err != nil {
		return Answer{}, err
	} else if ok {
		btn, err := action("⬅️", prev.Controls(callback.Previous))
		if err != nil {
			return Answer{}, err
		}
		nav = append(nav, btn)
	}
	nav = append(nav, Button{Text: fmt.Sprintf("%d / %d", ordinal, s.Page.Count), URL: p.URL})
	if next, ok, err := s.Next(); err != nil {
		return Answer{}, err
	} else if ok {
		btn, err := action("➡️", next.Controls(callback.Next))
		if err != nil {
			return Answer{}, err
		}
		nav = append(nav, btn)
	}

	pics, err := action(l.T("slide.all_pictures", nil), callback.AllPictures{Index: s.Index, Filters: s.Filters})
	if err != nil {
		return Answer{}, err
	}
	mark, err := action(l.T("slide.bookmark", nil), callback.BookmarkAdd{Index: s.Index, Filters: s.Filters})
	if err != nil {
		return Answer{}, err
	}
	buy, err := action(l.T("slide.buy", nil), callback.ListSizes{Index: s.Index, Filters: s.Filters})
	if err != nil {
		return Answer{}, err
	}

	return Answer{
		Caption: SlideFormat.Caption(l, p),
		Photo:   p.MainPicture.Pic,
		Rows:    keep(nav, []Button{pics, mark}, []Button{buy}),
	}, nil
}

// Bookmark renders a card the user keeps in the chat after moving on.
func Bookmark(l Localizer, p catalog.Product, index int, fs filters.Set) (Answer, error) {
	del, err := action(l.T("bookmark.delete", nil), callback.BookmarkDelete{})
	if err != nil {
		return Answer{}, err
	}
	buy, err := action(l.T("slide.buy", nil), callback.ListSizes{Index: index, Filters: fs})
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Caption: BookmarkFormat.Caption(l, p),
		Photo:   p.MainPicture.Pic,
		Rows: keep(
			[]Button{{Text: l.T("slide.details", nil), URL: p.URL}, del},
			[]Button{buy},
		),
	}, nil
}

// Sizes lists the sizes in stock as buy buttons.
func Sizes(l Localizer, p catalog.Product, index int, fs filters.Set) (Answer, error) {
	items := p.AvailableStockItems()
	if len(items) == 0 {
		return Answer{Caption: format.MD(l.T("sizes.none", map[string]any{"Name": p.Name}))}, nil
	}
	buttons := make([]Button, 0, len(items))
	for _, item := range items {
		btn, err := action(strconv.Itoa(item.Size.Size), callback.Buy{SizeID: item.Size.ID, Index: index, Filters: fs})
		if err != nil {
			return Answer{}, err
		}
		if btn != (Button{}) {
			buttons = append(buttons, btn)
		}
	}
	return Answer{
		Caption: format.MD(l.T("sizes.prompt", map[string]any{"Name": p.Name})),
		Rows:    chunk(buttons, sizesPerRow),
	}, nil
}

// Prompt renders a wizard step: its choices followed by the skip controls.
func Prompt(l Localizer, def filters.Definition, choices []wizard.Choice) (Answer, error) {
	name := l.T("filter."+def.Name, nil)
	caption := l.T("wizard.prompt", map[string]any{"Filter": name})
	if len(choices) == 0 {
		caption = l.T("wizard.empty", map[string]any{"Filter": name})
	}
	buttons := make([]Button, 0, len(choices))
	for _, c := range choices {
		btn, err := action(c.Label, callback.FilterChoice{Filter: def.Name, Value: c.Value})
		if err != nil {
			return Answer{}, err
		}
		buttons = append(buttons, btn)
	}
	skip, err := action(l.T("wizard.skip", nil), callback.FilterSkip{})
	if err != nil {
		return Answer{}, err
	}
	skipAll, err := action(l.T("wizard.skip_all", nil), callback.FilterSkipAll{})
	if err != nil {
		return Answer{}, err
	}
	cols := def.Columns
	if cols <= 0 {
		cols = choicesPerRow
	}
	rows := chunk(buttons, cols)
	rows = append(rows, []Button{skip, skipAll})
	return Answer{Caption: format.MD(caption), Rows: rows}, nil
}

// Chosen summarizes the recorded filters, e.g. "Filters: Boots, Ecco".
func Chosen(l Localizer, sel []wizard.Selection) string {
	if len(sel) == 0 {
		return ""
	}
	labels := make([]string, len(sel))
	for i, s := range sel {
		labels[i] = s.Label
	}
	return format.MD(l.T("wizard.chosen", map[string]any{"Filters": strings.Join(labels, ", ")}))
}

// action builds the button for a. A button whose data Telegram would refuse
// as too long comes back as the zero Button and is dropped by keep.
func action(text string, a callback.Action) (Button, error) {
	data, err := callback.Data(a)
	if errors.Is(err, callback.ErrTooLong) {
		return Button{}, nil
	}
	if err != nil {
		return Button{}, fmt.Errorf("answers: %s button: %w", a.Token().Namespace(), err)
	}
	return Button{Text: text, Data: data}, nil
}

// keep drops zero buttons and the rows left empty.
func keep(rows ...[]Button) [][]Button {
	out := make([][]Button, 0, len(rows))
	for _, row := range rows {
		kept := make([]Button, 0, len(row))
		for _, b := range row {
			if b != (Button{}) {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

func chunk(buttons []Button, n int) [][]Button {
	rows := make([][]Button, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}
