package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/shoebot/core/config"
	"github.com/m3rciful/shoebot/core/telegram/middleware"
	"github.com/m3rciful/shoebot/core/throttle"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain shared by the bots: panic
// recovery, the per-user rate limit when cfg enables it, update logging and
// reply counting. reg may be shared with other throttled features; nil gets a
// private one.
func DefaultMiddlewares(cfg *coreconfig.Config, reg *throttle.Registry, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if mw, ok := rateLimit(cfg, reg, onLimited); ok {
		mws = append(mws, mw)
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

func rateLimit(cfg *coreconfig.Config, reg *throttle.Registry, onLimited tele.HandlerFunc) (Middleware, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return Middleware{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}
	return Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:   exclude,
			OnLimited: onLimited,
			Registry:  reg,
		}),
	}, true
}
