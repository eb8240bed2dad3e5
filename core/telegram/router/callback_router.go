package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/shoebot/core/telegram"
	"github.com/m3rciful/shoebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions handle callbacks of an unknown namespace.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches button presses on the namespace in front of the
// first ':' of their data. A callback the handler did not answer through
// helpers.Respond gets an empty answer, so the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return wrap(tele.OnCallback, func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		start := time.Now()
		defer func() {
			if !tghelpers.Responded(c) {
				_ = c.Respond()
			}
		}()

		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		attrs := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.Callback(key)
		if !ok {
			attrs = append(attrs, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "skip", "", func() error {
				if opts.NotFound == nil {
					return nil
				}
				return opts.NotFound(c)
			}, attrs...)
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		}, attrs...)
	})
}
