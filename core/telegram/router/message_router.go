package router

import (
	"time"

	tg "github.com/m3rciful/shoebot/core/telegram"
	"github.com/m3rciful/shoebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions handle text that matches no command.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes resolves plain text against command aliases, such as reply
// keyboard labels. Admin-only commands are reachable by their slash name
// only, where the admin check applies.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}
		if opts.UnknownText == nil {
			logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "unknown_text", start, "", "", func() error {
			return opts.UnknownText(c)
		})
	}
	return []tg.Route{wrap(tele.OnText, handler)}
}

// EventRoute wraps the handler of a non-text update, such as a payment,
// with the recovery and summary logging of commands.
func EventRoute(endpoint, name string, h tele.HandlerFunc) tg.Route {
	return wrap(endpoint, func(c tele.Context) error {
		return handleWithSummary(c, name, time.Now(), "", "", func() error {
			return h(c)
		})
	})
}

func wrap(endpoint any, h tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
	}
}
