package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/shoebot/core/httpclient"
	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/shop/filters"
)

const (
	component         = "shop.api"
	defaultPageSize   = 10
	defaultChoicesTTL = 10 * time.Minute
	maxBodySnippet    = 512
	maxResponseBytes  = 8 << 20
)

type ctxKey struct{}

// WithLanguage sets the Accept-Language used for requests made with ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LanguageFrom returns the language stored by WithLanguage.
func LanguageFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(ctxKey{}).(string)
	return lang
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	Token      string
	PageSize   int
	ChoicesTTL time.Duration
	// HTTPClient overrides the read client; order submission never retries.
	HTTPClient *http.Client
	Now        func() time.Time
}

type choicesEntry struct {
	choices   []filters.RawChoice
	fetchedAt time.Time
}

// Client talks to the shop API.
type Client struct {
	base     *url.URL
	token    string
	pageSize int
	reads    *http.Client
	writes   *http.Client

	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	choices map[string]choicesEntry
}

// New validates options and builds a client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog: invalid base url %q", opts.BaseURL)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.ChoicesTTL <= 0 {
		opts.ChoicesTTL = defaultChoicesTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	reads := opts.HTTPClient
	writes := opts.HTTPClient
	if reads == nil {
		reads = httpclient.New(httpclient.Options{})
		writes = httpclient.New(httpclient.Options{Retries: -1})
	}
	return &Client{
		base:     base,
		token:    opts.Token,
		pageSize: opts.PageSize,
		reads:    reads,
		writes:   writes,
		ttl:      opts.ChoicesTTL,
		now:      opts.Now,
		choices:  make(map[string]choicesEntry),
	}, nil
}

// PageSize returns the default page size sent with listing requests.
func (c *Client) PageSize() int { return c.pageSize }

// FetchPage returns the raw listing page for fs. The body is not validated here.
func (c *Client) FetchPage(ctx context.Context, fs filters.Set) ([]byte, error) {
	q := fs.Query()
	if !q.Has(filters.PageSizeKey) {
		q.Set(filters.PageSizeKey, strconv.Itoa(c.pageSize))
	}
	endpoint := c.endpoint("/shoes/", q)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		logger.Error(ctx, component, "page.fetch",
			slog.String("status", "fail"),
			slog.String("endpoint", endpoint),
			slog.String("filters", fs.Encode()),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	return body, nil
}

// FetchChoices returns the records of a catalog endpoint, memoized per
// endpoint and language for the configured TTL.
func (c *Client) FetchChoices(ctx context.Context, path string) ([]filters.RawChoice, error) {
	key := LanguageFrom(ctx) + "|" + path
	c.mu.RLock()
	entry, ok := c.choices[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		logger.Debug(ctx, component, "choices.fetch",
			slog.String("cache", "hit"),
			slog.String("endpoint", path),
			slog.Int("count", len(entry.choices)),
		)
		return entry.choices, nil
	}

	endpoint := c.endpoint(path, nil)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		logger.Error(ctx, component, "choices.fetch",
			slog.String("status", "fail"),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	var choices []filters.RawChoice
	if err := json.Unmarshal(body, &choices); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Err: err}
	}
	for i, ch := range choices {
		if ch.ID() == "" {
			return nil, &SchemaError{Endpoint: endpoint, Err: fmt.Errorf("choice %d has no id", i)}
		}
	}

	c.mu.Lock()
	c.choices[key] = choicesEntry{choices: choices, fetchedAt: c.now()}
	c.mu.Unlock()

	logger.Debug(ctx, component, "choices.fetch",
		slog.String("cache", "miss"),
		slog.String("endpoint", path),
		slog.Int("count", len(choices)),
	)
	return choices, nil
}

// SubmitOrder posts an order. A non-201 answer is an OrderRejectedError,
// a transport failure a FetchError.
func (c *Client) SubmitOrder(ctx context.Context, order Order) (*Receipt, error) {
	endpoint := c.endpoint("/order/", nil)
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(ctx, req)

	start := time.Now()
	resp, err := c.writes.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, &OrderRejectedError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		logger.Warn(ctx, component, "order.submit",
			slog.String("status", "ok"),
			slog.String("cause", "unreadable receipt"),
			slog.String("err", err.Error()),
		)
	}
	logger.Info(ctx, component, "order.submit",
		slog.String("status", "ok"),
		slog.Int("order_id", receipt.ID),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)
	return &receipt, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	c.decorate(ctx, req)

	start := time.Now()
	resp, err := c.reads.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("%s", snippet(body))}
	}
	logger.Debug(ctx, component, "http.get",
		slog.String("status", "ok"),
		slog.String("endpoint", endpoint),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)
	return body, nil
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if lang := LanguageFrom(ctx); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet]
	}
	return logger.Sanitize(s)
}
