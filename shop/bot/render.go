package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"
	"github.com/m3rciful/shoebot/core/telegram/keyboard"
	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/core/throttle"
	"github.com/m3rciful/shoebot/shop/answers"
	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/checkout"
	"github.com/m3rciful/shoebot/shop/i18n"
	"github.com/m3rciful/shoebot/shop/session"
	"github.com/m3rciful/shoebot/shop/wizard"

	tele "gopkg.in/telebot.v4"
)

// turn bundles what a handler needs for one update.
type turn struct {
	ctx  context.Context
	l    *i18n.Localizer
	sess session.Session
}

func (a *App) begin(c tele.Context) turn {
	lang := ""
	if u := c.Sender(); u != nil {
		lang = u.LanguageCode
	}
	l := a.texts.Localizer(lang)
	ctx := catalog.WithLanguage(tghelpers.BuildContext(c), l.Lang())
	return turn{ctx: ctx, l: l, sess: state.Load[session.Session](c)}
}

func markup(rows [][]answers.Button) *tele.ReplyMarkup {
	out := make([][]keyboard.Button, len(rows))
	for i, row := range rows {
		out[i] = make([]keyboard.Button, len(row))
		for j, b := range row {
			out[i][j] = keyboard.Button(b)
		}
	}
	return keyboard.Inline(out...)
}

func sendOptions(ans answers.Answer) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		ReplyMarkup:           markup(ans.Rows),
		DisableWebPagePreview: true,
	}
}

func photo(ans answers.Answer) *tele.Photo {
	return &tele.Photo{File: tele.FromURL(ans.Photo), Caption: ans.Caption}
}

// send posts ans as a new message, with its photo when it has one.
func send(c tele.Context, ans answers.Answer) error {
	if ans.Photo != "" {
		return c.Send(photo(ans), sendOptions(ans))
	}
	return c.Send(ans.Caption, sendOptions(ans))
}

// edit replaces the message the callback came from.
func edit(c tele.Context, ans answers.Answer) error {
	if ans.Photo != "" {
		return c.Edit(photo(ans), sendOptions(ans))
	}
	return c.Edit(ans.Caption, sendOptions(ans))
}

// reply maps an error to the message id shown to the user.
func reply(err error) string {
	var rejected *catalog.OrderRejectedError
	switch {
	case errors.Is(err, callback.ErrMalformed), errors.Is(err, checkout.ErrBadPayload):
		return "error.invalid_link"
	case errors.Is(err, wizard.ErrStaleStep), errors.Is(err, browse.ErrIndexOutOfRange):
		return "error.stale"
	case errors.Is(err, browse.ErrNoResults):
		return "error.no_results"
	case errors.Is(err, throttle.ErrThrottled):
		return "error.throttled"
	case errors.Is(err, checkout.ErrSizeUnavailable):
		return "error.size_unavailable"
	case errors.As(err, &rejected):
		return "error.order_rejected"
	}
	return "error.generic"
}

// expected reports errors caused by the user's input or timing rather than
// by the bot or its backends.
func expected(err error) bool {
	switch reply(err) {
	case "error.invalid_link", "error.stale", "error.no_results", "error.throttled", "error.size_unavailable":
		return true
	}
	return false
}

// fail answers the user for err. Expected errors are swallowed so the
// summary log stays clean; the rest are returned for it.
func (a *App) fail(c tele.Context, t turn, err error) error {
	text := t.l.T(reply(err), nil)
	var sendErr error
	if c.Callback() != nil {
		sendErr = tghelpers.Respond(c, &tele.CallbackResponse{
			Text:      text,
			ShowAlert: !errors.Is(err, throttle.ErrThrottled),
		})
	} else {
		sendErr = tghelpers.SendText(c, text)
	}
	if sendErr != nil {
		logger.Warn(t.ctx, component, "reply.error",
			slog.String("status", "fail"),
			slog.String("err", sendErr.Error()),
		)
	}

	if errors.Is(err, throttle.ErrThrottled) {
		logger.Debug(t.ctx, component, "throttle.reject",
			slog.String("status", "rate_limited"),
			slog.String("data", logger.Sanitize(callbacks.CallbackData(c))),
		)
		return nil
	}
	if expected(err) {
		logger.Info(t.ctx, component, "reply.error",
			slog.String("status", "skip"),
			slog.String("reason", reply(err)),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return err
}
