package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the text helpers through d. nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver queues run on the dispatcher. A full or closed queue falls back to
// sending inline so the reply is not lost.
func deliver(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, sender.Job{
		Action:   action,
		Endpoint: "sendMessage",
		Run:      func(context.Context) error { return run() },
	})
	if errors.Is(err, sender.ErrFull) || errors.Is(err, sender.ErrClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text to the chat of c.
func SendText(c tele.Context, text string, opts ...any) error {
	return deliver(c, "send.text", func() error { return c.Send(text, opts...) })
}

// SendMD sends Markdown text with an optional keyboard.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return deliver(c, "send.md", func() error { return c.Send(text, opts) })
}

const respondedKey = "cb_responded"

// Respond answers the callback query of c and marks it answered, so the
// callback router does not send a second empty answer.
func Respond(c tele.Context, resp ...*tele.CallbackResponse) error {
	c.Set(respondedKey, true)
	return c.Respond(resp...)
}

// Responded reports whether Respond was called for the update.
func Responded(c tele.Context) bool {
	v, _ := c.Get(respondedKey).(bool)
	return v
}
