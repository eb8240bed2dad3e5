package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"
	"github.com/m3rciful/shoebot/core/telegram/middleware"
	"github.com/m3rciful/shoebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// handleWithSummary runs fn under handler name and logs one handler.handled
// line for it.
func handleWithSummary(c tele.Context, name string, start time.Time, status, outcome string, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	logHandlerSummary(c, name, start, status, outcome, err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, name string, start time.Time, status, outcome string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	result := "ok"
	if err != nil {
		result = "fail"
	}
	if status == "" {
		status = result
	}
	if outcome == "" {
		outcome = result
	}

	stats := middleware.Stats(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.Took(start)),
		slog.Int("messages", stats.Messages),
		slog.Bool("kb", stats.Keyboard),
	}
	if stats.Albums > 0 {
		attrs = append(attrs, slog.Int("albums", stats.Albums))
	}
	if stats.Invoices > 0 {
		attrs = append(attrs, slog.Int("invoices", stats.Invoices))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(netutil.Redact(err.Error()), 256)),
			slog.String("err_code", errCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", append(attrs, extras...)...)
}

// normalizeHandlerName turns a command or callback key into a handler name.
func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errCode names err for err_code: the error's own code when it has one, the
// class of a Telegram API failure, or else its Go type.
func errCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(code)
		}
	}
	if errors.Is(err, middleware.ErrPanic) {
		return "PANIC"
	}
	if kind := netutil.Kind(err); kind != "unknown" {
		return strings.ToUpper(kind)
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		err = inner
	}
	name := fmt.Sprintf("%T", err)
	return strings.ToUpper(name[strings.LastIndexByte(name, '.')+1:])
}
