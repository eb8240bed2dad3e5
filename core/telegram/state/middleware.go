package state

import (
	"log/slog"

	"github.com/m3rciful/shoebot/core/logger"
	tghelpers "github.com/m3rciful/shoebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const sessionKey = "fsm_session"

type slot[T any] struct {
	value   T
	dirty   bool
	cleared bool
}

// WithSession loads the sender's state before the handler runs and writes it
// back once afterwards if the handler changed it. Each update is therefore a
// single read-modify-write against the store.
func WithSession[T any](store Store[T]) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)

			value, err := store.Get(ctx, user.ID)
			if err != nil {
				logger.Error(ctx, "session", "session.load",
					slog.String("status", "fail"),
					slog.Int64("user_id", user.ID),
					slog.String("err", err.Error()),
				)
				return err
			}
			s := &slot[T]{value: value}
			c.Set(sessionKey, s)

			handlerErr := next(c)

			switch {
			case s.cleared:
				err = store.Clear(ctx, user.ID)
			case s.dirty:
				err = store.Set(ctx, user.ID, s.value)
			default:
				return handlerErr
			}
			if err != nil {
				logger.Error(ctx, "session", "session.save",
					slog.String("status", "fail"),
					slog.Int64("user_id", user.ID),
					slog.String("err", err.Error()),
				)
				if handlerErr == nil {
					handlerErr = err
				}
			}
			return handlerErr
		}
	}
}

// Load returns the state loaded by WithSession, or the zero value.
func Load[T any](c tele.Context) T {
	if s, ok := c.Get(sessionKey).(*slot[T]); ok {
		return s.value
	}
	var zero T
	return zero
}

// Save replaces the state written back after the handler returns.
func Save[T any](c tele.Context, value T) {
	if s, ok := c.Get(sessionKey).(*slot[T]); ok {
		s.value = value
		s.dirty = true
		s.cleared = false
	}
}

// Reset drops the state of the sender once the handler returns.
func Reset[T any](c tele.Context) {
	if s, ok := c.Get(sessionKey).(*slot[T]); ok {
		var zero T
		s.value = zero
		s.cleared = true
	}
}

// Attached reports whether WithSession ran for this update.
func Attached[T any](c tele.Context) bool {
	_, ok := c.Get(sessionKey).(*slot[T])
	return ok
}
