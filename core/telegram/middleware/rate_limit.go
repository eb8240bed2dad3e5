package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"
	"github.com/m3rciful/shoebot/core/throttle"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Registry defaults to a private registry when nil.
	Registry *throttle.Registry
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	reg := opts.Registry
	if reg == nil {
		reg = throttle.New()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			upd := c.Update()
			// Payment updates must always be answered.
			if upd.ShippingQuery != nil || upd.PreCheckoutQuery != nil ||
				(upd.Message != nil && upd.Message.Payment != nil) {
				return next(c)
			}
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = "callback"
			case upd.Message != nil:
				kind = "message"
			case upd.Query != nil:
				kind = "inline_query"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if reg.Allow("user:"+strconv.FormatInt(user.ID, 10), opts.Interval) {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
