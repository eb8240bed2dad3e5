package middleware

import (
	"log/slog"
	"slices"

	"github.com/m3rciful/shoebot/core/logger"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions list the admins and what non-admins get instead.
type AdminOptions struct {
	Admins   []int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only the listed admins through. With no admins
// configured everybody is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); u != nil && slices.Contains(opts.Admins, u.ID) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.admin_reject",
				slog.String("status", "skip"),
				slog.String("reason", "not_admin"),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
