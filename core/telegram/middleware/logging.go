package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers recently logged update ids. The middleware is applied
// on several route branches and must log each update once.
type seenUpdates struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

var received = &seenUpdates{ttl: 10 * time.Second, seen: make(map[int]time.Time)}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

// LoggerMiddleware stores the update's log context and writes one sampled
// update.received line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", updateAttrs(c)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		key, _ := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 64)),
			slog.String("payload", logger.SanitizeLimit(callbacks.CallbackData(c), 128)),
		)
	case upd.PreCheckoutQuery != nil:
		q := upd.PreCheckoutQuery
		attrs = append(attrs,
			slog.String("kind", "pre_checkout"),
			slog.String("payload", logger.SanitizeLimit(q.Payload, 128)),
			slog.Int("total", q.Total),
			slog.String("currency", q.Currency),
		)
	case upd.ShippingQuery != nil:
		attrs = append(attrs,
			slog.String("kind", "shipping"),
			slog.String("payload", logger.SanitizeLimit(upd.ShippingQuery.Payload, 128)),
		)
	case upd.Message != nil && upd.Message.Payment != nil:
		p := upd.Message.Payment
		attrs = append(attrs,
			slog.String("kind", "payment"),
			slog.String("payload", logger.SanitizeLimit(p.Payload, 128)),
			slog.Int("total", p.Total),
			slog.String("currency", p.Currency),
		)
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
