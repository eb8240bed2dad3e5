package answers

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/wizard"
)

type ids struct{}

func (ids) T(id string, _ map[string]any) string { return id }
func (ids) Price(amount decimal.Decimal, cur string) string {
	return amount.StringFixed(2) + " " + cur
}

func shoe() catalog.Product {
	return catalog.Product{
		URL:           "https://shop.example/shoes/7/",
		ID:            7,
		Code:          "DM-1460",
		Name:          "Dr_Martens 1460",
		Brand:         "Dr. Martens",
		Price:         decimal.RequireFromString("4999.5"),
		PriceCurrency: "UAH",
		IsNew:         true,
		MainPicture:   catalog.Picture{ID: 1, Pic: "https://shop.example/1.jpg"},
		StockItems: []catalog.StockItem{
			{ID: 1, Size: catalog.Size{ID: 40, Size: 40}, Stock: 1},
			{ID: 2, Size: catalog.Size{ID: 41, Size: 41}, Stock: 0},
			{ID: 3, Size: catalog.Size{ID: 42, Size: 42}, Stock: 2},
			{ID: 4, Size: catalog.Size{ID: 43, Size: 43}, Stock: 1},
			{ID: 5, Size: catalog.Size{ID: 44, Size: 44}, Stock: 1},
			{ID: 6, Size: catalog.Size{ID: 45, Size: 45}, Stock: 3},
		},
	}
}

func page(number, size, count int, hasNext bool) *catalog.Page {
	p := &catalog.Page{Count: count, Number: number, NumPages: (count + 9) / 10, HasPrevious: number > 1, HasNext: hasNext}
	for i := 0; i < size; i++ {
		p.Results = append(p.Results, shoe())
	}
	return p
}

func TestCaptionSkipsEmptyFields(t *testing.T) {
	got := SlideFormat.Caption(ids{}, shoe())
	if !strings.HasPrefix(got, `*Dr\_Martens 1460*`+"\ncaption.new") {
		t.Fatalf("caption = %q", got)
	}
	if strings.Contains(got, "caption.sole") || strings.Contains(got, "caption.color") {
		t.Fatalf("empty fields rendered: %q", got)
	}
	if !strings.Contains(got, "caption.price: 4999.50 UAH") || !strings.Contains(got, "caption.sizes: 40, 42, 43, 44, 45") {
		t.Fatalf("caption = %q", got)
	}

	mark := BookmarkFormat.Caption(ids{}, shoe())
	if !strings.HasPrefix(mark, "bookmark.title\n") || strings.Contains(mark, "caption.category") {
		t.Fatalf("bookmark caption = %q", mark)
	}
}

func TestSlideControls(t *testing.T) {
	fs := filters.MustParse("brand=5")

	first := browse.Slide{Page: page(1, 10, 15, true), Index: 0, Filters: fs, PageSize: 10}
	a, err := Slide(ids{}, first)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}
	nav := a.Rows[0]
	if len(nav) != 2 || nav[0].Text != "1 / 15" || nav[0].URL != shoe().URL {
		t.Fatalf("nav = %+v", nav)
	}
	if nav[1].Data != "controls:next:1:brand=5" {
		t.Fatalf("next = %q", nav[1].Data)
	}
	if a.Rows[1][0].Data != "all_pics:0:brand=5" || a.Rows[1][1].Data != "bookmark:add:0:brand=5" {
		t.Fatalf("row 2 = %+v", a.Rows[1])
	}
	if a.Rows[2][0].Data != "list_sizes:0:brand=5" {
		t.Fatalf("buy = %+v", a.Rows[2])
	}
	if a.Photo != "https://shop.example/1.jpg" {
		t.Fatalf("photo = %q", a.Photo)
	}

	last := browse.Slide{Page: page(1, 10, 15, true), Index: 9, Filters: fs, PageSize: 10}
	a, err = Slide(ids{}, last)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}
	nav = a.Rows[0]
	if len(nav) != 3 || nav[2].Data != "controls:next:0:brand=5&page=2" {
		t.Fatalf("nav = %+v", nav)
	}

	only := browse.Slide{Page: page(1, 1, 1, false), Index: 0, Filters: fs, PageSize: 10}
	a, err = Slide(ids{}, only)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}
	if len(a.Rows[0]) != 1 {
		t.Fatalf("single product has arrows: %+v", a.Rows[0])
	}
}

func TestSlideOnEmptyPage(t *testing.T) {
	empty := browse.Slide{Page: &catalog.Page{Number: 1}, Filters: filters.Set{}, PageSize: 10}
	if _, err := Slide(ids{}, empty); !errors.Is(err, browse.ErrNoResults) {
		t.Fatalf("err = %v", err)
	}
}

func TestSizesListsStockOnly(t *testing.T) {
	a, err := Sizes(ids{}, shoe(), 3, filters.MustParse("brand=5"))
	if err != nil {
		t.Fatalf("sizes: %v", err)
	}
	if len(a.Rows) != 2 || len(a.Rows[0]) != 4 || len(a.Rows[1]) != 1 {
		t.Fatalf("rows = %+v", a.Rows)
	}
	if a.Rows[0][0].Text != "40" || a.Rows[0][0].Data != "buy:40:3:brand=5" {
		t.Fatalf("first = %+v", a.Rows[0][0])
	}

	soldOut := shoe()
	soldOut.StockItems = nil
	a, err = Sizes(ids{}, soldOut, 3, filters.Set{})
	if err != nil || len(a.Rows) != 0 || a.Caption != "sizes.none" {
		t.Fatalf("sold out = %+v, %v", a, err)
	}
}

func TestBookmarkRows(t *testing.T) {
	a, err := Bookmark(ids{}, shoe(), 2, filters.MustParse("season=winter"))
	if err != nil {
		t.Fatalf("bookmark: %v", err)
	}
	if a.Rows[0][0].URL != shoe().URL || a.Rows[0][1].Data != "bookmark:delete" {
		t.Fatalf("row 1 = %+v", a.Rows[0])
	}
	if a.Rows[1][0].Data != "list_sizes:2:season=winter" {
		t.Fatalf("row 2 = %+v", a.Rows[1])
	}
}

func TestPromptEndsWithSkipControls(t *testing.T) {
	def, _ := filters.DefaultCatalog().Lookup("season")
	a, err := Prompt(ids{}, def, []wizard.Choice{{Value: "winter", Label: "Winter"}, {Value: "summer", Label: "Summer"}, {Value: "demi", Label: "Demi"}})
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if len(a.Rows) != 2 || len(a.Rows[0]) != def.Columns {
		t.Fatalf("rows = %+v", a.Rows)
	}
	if a.Rows[0][0].Data != "filter:choice:season:winter" {
		t.Fatalf("choice = %+v", a.Rows[0][0])
	}
	last := a.Rows[1]
	if last[0].Data != "filter:skip" || last[1].Data != "filter:skip_all" {
		t.Fatalf("controls = %+v", last)
	}
	if a.Caption != "wizard.prompt" {
		t.Fatalf("caption = %q", a.Caption)
	}

	def.Columns = 0
	a, err = Prompt(ids{}, def, []wizard.Choice{{Value: "winter", Label: "Winter"}, {Value: "summer", Label: "Summer"}, {Value: "demi", Label: "Demi"}})
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if len(a.Rows) != 3 || len(a.Rows[0]) != choicesPerRow {
		t.Fatalf("rows without columns = %+v", a.Rows)
	}
}

func TestSlideDropsOverlongButtons(t *testing.T) {
	fs := filters.MustParse("category=12&season=winter&brand=34&color=5&outer_material=7&page=2")
	s := browse.Slide{Page: page(2, 10, 25, true), Index: 3, Filters: fs, PageSize: 10}
	a, err := Slide(ids{}, s)
	if err != nil {
		t.Fatalf("slide: %v", err)
	}
	if len(a.Rows) != 1 || len(a.Rows[0]) != 1 || a.Rows[0][0].URL != shoe().URL {
		t.Fatalf("rows = %+v", a.Rows)
	}

	sizes, err := Sizes(ids{}, shoe(), 3, fs)
	if err != nil {
		t.Fatalf("sizes: %v", err)
	}
	for _, row := range sizes.Rows {
		for _, b := range row {
			if len(b.Data) > callback.MaxData {
				t.Fatalf("button %q carries %d bytes", b.Text, len(b.Data))
			}
		}
	}
}
