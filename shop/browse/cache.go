// Package browse turns listing pages into slide by slide navigation.
package browse

import (
	"context"
	"log/slog"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/session"
)

const component = "shop.browse"

type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

var (
	// ErrNoResults is returned by every index query on an empty page.
	ErrNoResults error = &codedError{msg: "browse: no results", code: "no_results"}
	// ErrIndexOutOfRange is returned for a slide index outside the page.
	ErrIndexOutOfRange error = &codedError{msg: "browse: slide index out of range", code: "index_out_of_range"}
)

// PageSource fetches a raw listing page.
type PageSource interface {
	FetchPage(ctx context.Context, fs filters.Set) ([]byte, error)
}

// Cache is a read-through, single entry page cache stored in the session.
type Cache struct {
	source PageSource
}

// NewCache wraps a page source.
func NewCache(source PageSource) *Cache {
	return &Cache{source: source}
}

// Page returns the page for fs. A session whose cached filters equal fs is
// served from the cache; otherwise the page is fetched, validated and stored
// in the returned session. Failed fetches leave the session untouched.
func (c *Cache) Page(ctx context.Context, s session.Session, fs filters.Set) (*catalog.Page, session.Session, error) {
	if s.Cached != nil && s.Cached.Filters.Equal(fs) {
		page, err := catalog.DecodePage(s.Cached.Page)
		if err == nil {
			logger.Debug(ctx, component, "page.resolve",
				slog.String("cache", "hit"),
				slog.String("filters", fs.Encode()),
				slog.Int("page", page.Number),
			)
			return page, s, nil
		}
		logger.Warn(ctx, component, "page.resolve",
			slog.String("cache", "refresh"),
			slog.String("filters", fs.Encode()),
			slog.String("err", err.Error()),
		)
	}

	raw, err := c.source.FetchPage(ctx, fs)
	if err != nil {
		return nil, s, err
	}
	page, err := catalog.DecodePage(raw)
	if err != nil {
		logger.Error(ctx, component, "page.resolve",
			slog.String("status", "fail"),
			slog.String("filters", fs.Encode()),
			slog.String("err", err.Error()),
		)
		return nil, s, err
	}
	logger.Debug(ctx, component, "page.resolve",
		slog.String("cache", "miss"),
		slog.String("filters", fs.Encode()),
		slog.Int("page", page.Number),
		slog.Int("count", page.Count),
	)
	return page, s.WithCached(fs, raw), nil
}
