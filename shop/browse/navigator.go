package browse

import (
	"context"

	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/session"
)

// Slide is one product of a page. It holds no state beyond its inputs.
type Slide struct {
	Page     *catalog.Page
	Index    int
	Filters  filters.Set
	PageSize int
}

// Target is where a navigation control leads.
type Target struct {
	Index   int
	Filters filters.Set
}

// Controls encodes the target as a controls action.
func (t Target) Controls(dir callback.Direction) callback.Controls {
	return callback.Controls{Direction: dir, Index: t.Index, Filters: t.Filters}
}

func (s Slide) check() error {
	if s.Page.Empty() {
		return ErrNoResults
	}
	if s.Index < 0 || s.Index >= len(s.Page.Results) {
		return ErrIndexOutOfRange
	}
	return nil
}

// Product returns the product on the slide.
func (s Slide) Product() (catalog.Product, error) {
	if err := s.check(); err != nil {
		return catalog.Product{}, err
	}
	return s.Page.Results[s.Index], nil
}

// HasPrevious reports whether a slide precedes this one on the same page.
func (s Slide) HasPrevious() (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.Index > 0, nil
}

// HasNext reports whether a slide follows this one on the same page.
func (s Slide) HasNext() (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.Index < len(s.Page.Results)-1, nil
}

// Ordinal is the 1-based position across all pages. Every page before the
// current one is full, so the formula also holds on a partial last page.
func (s Slide) Ordinal() (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return (s.Page.Number-1)*s.PageSize + s.Index + 1, nil
}

// Previous returns the preceding slide, crossing into the previous page from
// the first slide. ok is false on the very first product.
func (s Slide) Previous() (Target, bool, error) {
	has, err := s.HasPrevious()
	if err != nil {
		return Target{}, false, err
	}
	switch {
	case has:
		return Target{Index: s.Index - 1, Filters: s.Filters}, true, nil
	case s.Page.HasPrevious && s.Page.Number > 1:
		return Target{Index: s.PageSize - 1, Filters: s.Filters.WithPage(s.Page.Number - 1)}, true, nil
	}
	return Target{}, false, nil
}

// Next returns the following slide, crossing into the next page from the last
// slide. ok is false on the very last product.
func (s Slide) Next() (Target, bool, error) {
	has, err := s.HasNext()
	if err != nil {
		return Target{}, false, err
	}
	switch {
	case has:
		return Target{Index: s.Index + 1, Filters: s.Filters}, true, nil
	case s.Page.HasNext:
		return Target{Index: 0, Filters: s.Filters.WithPage(s.Page.Number + 1)}, true, nil
	}
	return Target{}, false, nil
}

// Resolver combines the page cache with slide navigation.
type Resolver struct {
	cache    *Cache
	pageSize int
}

// NewResolver uses defaultPageSize unless the filters carry their own.
func NewResolver(cache *Cache, defaultPageSize int) *Resolver {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &Resolver{cache: cache, pageSize: defaultPageSize}
}

// PageSize returns the page size in effect for fs.
func (r *Resolver) PageSize(fs filters.Set) int {
	if n, ok := fs.PageSize(); ok {
		return n
	}
	return r.pageSize
}

// Slide resolves the slide at index of the page selected by fs.
func (r *Resolver) Slide(ctx context.Context, s session.Session, index int, fs filters.Set) (Slide, session.Session, error) {
	page, s, err := r.cache.Page(ctx, s, fs)
	if err != nil {
		return Slide{}, s, err
	}
	slide := Slide{Page: page, Index: index, Filters: fs, PageSize: r.PageSize(fs)}
	if err := slide.check(); err != nil {
		return Slide{}, s, err
	}
	return slide, s, nil
}

// Product resolves the product at index of the page selected by fs.
func (r *Resolver) Product(ctx context.Context, s session.Session, index int, fs filters.Set) (catalog.Product, session.Session, error) {
	slide, s, err := r.Slide(ctx, s, index, fs)
	if err != nil {
		return catalog.Product{}, s, err
	}
	p, err := slide.Product()
	return p, s, err
}
