package callback

import (
	"fmt"
	"strings"

	"github.com/m3rciful/shoebot/shop/filters"
)

// Namespaces.
const (
	NSFilter    = "filter"
	NSControls  = "controls"
	NSAllPics   = "all_pics"
	NSBookmark  = "bookmark"
	NSListSizes = "list_sizes"
	NSBuy       = "buy"
	NSInvoice   = "invoice"
)

// Direction of a controls action.
type Direction string

const (
	Previous Direction = "previous"
	Next     Direction = "next"
)

// Action is the closed set of decoded callback actions.
type Action interface {
	Token() Token
	action()
}

// FilterChoice records Value for the wizard step Filter.
type FilterChoice struct {
	Filter string
	Value  string
}

// FilterSkip skips the current wizard step.
type FilterSkip struct{}

// FilterSkipAll jumps to the results.
type FilterSkipAll struct{}

// Controls moves to the slide at Index within the page selected by Filters.
type Controls struct {
	Direction Direction
	Index     int
	Filters   filters.Set
}

// AllPictures posts every picture of a product.
type AllPictures struct {
	Index   int
	Filters filters.Set
}

// BookmarkAdd replies with a bookmark card for a product.
type BookmarkAdd struct {
	Index   int
	Filters filters.Set
}

// BookmarkDelete removes a bookmark card.
type BookmarkDelete struct{}

// ListSizes lists the sizes in stock for a product.
type ListSizes struct {
	Index   int
	Filters filters.Set
}

// Buy issues an invoice for a product in a size.
type Buy struct {
	SizeID  int
	Index   int
	Filters filters.Set
}

// InvoiceLink is the deep link form of Buy.
type InvoiceLink struct {
	SizeID  int
	Index   int
	Filters filters.Set
}

func (a FilterChoice) Token() Token { return New(NSFilter, "choice", a.Filter, a.Value) }
func (FilterSkip) Token() Token     { return New(NSFilter, "skip") }
func (FilterSkipAll) Token() Token  { return New(NSFilter, "skip_all") }
func (a Controls) Token() Token {
	return New(NSControls, string(a.Direction)).AppendInt(a.Index).AppendFilters(a.Filters)
}
func (a AllPictures) Token() Token { return New(NSAllPics).AppendInt(a.Index).AppendFilters(a.Filters) }
func (a BookmarkAdd) Token() Token {
	return New(NSBookmark, "add").AppendInt(a.Index).AppendFilters(a.Filters)
}
func (BookmarkDelete) Token() Token { return New(NSBookmark, "delete") }
func (a ListSizes) Token() Token {
	return New(NSListSizes).AppendInt(a.Index).AppendFilters(a.Filters)
}
func (a Buy) Token() Token {
	return New(NSBuy).AppendInt(a.SizeID).AppendInt(a.Index).AppendFilters(a.Filters)
}
func (a InvoiceLink) Token() Token {
	return New(NSInvoice).AppendInt(a.SizeID).AppendInt(a.Index).AppendFilters(a.Filters)
}

func (FilterChoice) action()   {}
func (FilterSkip) action()     {}
func (FilterSkipAll) action()  {}
func (Controls) action()       {}
func (AllPictures) action()    {}
func (BookmarkAdd) action()    {}
func (BookmarkDelete) action() {}
func (ListSizes) action()      {}
func (Buy) action()            {}
func (InvoiceLink) action()    {}

// Data encodes an action for an inline button. Data longer than MaxData
// fails with ErrTooLong.
func Data(a Action) (string, error) {
	raw, err := a.Token().Encode()
	if err != nil {
		return "", err
	}
	if len(raw) > MaxData {
		return "", malformed(raw, fmt.Sprintf("%d bytes", len(raw)), ErrTooLong)
	}
	return raw, nil
}

// NamespaceOf returns the namespace of raw callback data.
func NamespaceOf(raw string) string {
	ns, _, _ := strings.Cut(raw, Delimiter)
	return ns
}

// ParseAction decodes raw callback data into its typed action.
func ParseAction(raw string) (Action, error) {
	switch NamespaceOf(raw) {
	case NSFilter:
		return parseFilter(raw)
	case NSControls:
		var a Controls
		var dir string
		if err := Scan(raw, Literal(NSControls), String(&dir), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		switch Direction(dir) {
		case Previous, Next:
			a.Direction = Direction(dir)
		default:
			return nil, malformed(raw, "unknown direction "+dir, nil)
		}
		return a, nil
	case NSAllPics:
		var a AllPictures
		if err := Scan(raw, Literal(NSAllPics), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		return a, nil
	case NSBookmark:
		if raw == NSBookmark+Delimiter+"delete" {
			return BookmarkDelete{}, nil
		}
		var a BookmarkAdd
		if err := Scan(raw, Literal(NSBookmark), Literal("add"), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		return a, nil
	case NSListSizes:
		var a ListSizes
		if err := Scan(raw, Literal(NSListSizes), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		return a, nil
	case NSBuy:
		var a Buy
		if err := Scan(raw, Literal(NSBuy), Int(&a.SizeID), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		return a, nil
	case NSInvoice:
		var a InvoiceLink
		if err := Scan(raw, Literal(NSInvoice), Int(&a.SizeID), Int(&a.Index), Filters(&a.Filters)); err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, malformed(raw, "unknown namespace", nil)
}

func parseFilter(raw string) (Action, error) {
	switch raw {
	case NSFilter + Delimiter + "skip":
		return FilterSkip{}, nil
	case NSFilter + Delimiter + "skip_all":
		return FilterSkipAll{}, nil
	}
	var a FilterChoice
	if err := Scan(raw, Literal(NSFilter), Literal("choice"), String(&a.Filter), String(&a.Value)); err != nil {
		return nil, err
	}
	if strings.Contains(a.Value, Delimiter) {
		return nil, malformed(raw, "choice value contains delimiter", nil)
	}
	return a, nil
}
