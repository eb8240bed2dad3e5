package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const statsKey = "reply_stats"

// ReplyStats counts what a handler sent back for the summary log line.
type ReplyStats struct {
	Messages int
	Albums   int
	Invoices int
	Keyboard bool
}

// countingContext wraps tele.Context and records successful replies.
type countingContext struct {
	tele.Context
	stats *ReplyStats
}

func (m countingContext) count(what any, opts []any, err error) error {
	if err != nil {
		return err
	}
	m.stats.Messages++
	if _, ok := what.(*tele.Invoice); ok {
		m.stats.Invoices++
	}
	if withKeyboard(opts) {
		m.stats.Keyboard = true
	}
	return nil
}

func withKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.count(what, opts, m.Context.Send(what, opts...))
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.count(what, opts, m.Context.Reply(what, opts...))
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.count(what, opts, m.Context.Edit(what, opts...))
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.count(what, opts, m.Context.EditOrSend(what, opts...))
}

func (m countingContext) SendAlbum(a tele.Album, opts ...any) error {
	if err := m.Context.SendAlbum(a, opts...); err != nil {
		return err
	}
	m.stats.Albums++
	m.stats.Messages += len(a)
	return nil
}

// MessageMetricsMiddleware counts the replies sent by the handler.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &ReplyStats{}
		c.Set(statsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// Stats returns the counters of the current update. Zero when the metrics
// middleware did not run.
func Stats(c tele.Context) ReplyStats {
	if s, ok := c.Get(statsKey).(*ReplyStats); ok && s != nil {
		return *s
	}
	return ReplyStats{}
}
