// Package callbacks reads routing keys out of raw inline button data of the
// form "<namespace>:<payload>".
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator divides the routing key from the payload.
const Separator = ":"

// Split returns the routing key and the payload of raw callback data.
// Telebot's own "\f<unique>|<payload>" encoding is understood as well.
func Split(data string) (string, string) {
	if rest, ok := strings.CutPrefix(data, "\f"); ok {
		key, payload, _ := strings.Cut(rest, "|")
		return strings.TrimSpace(key), payload
	}
	key, payload, _ := strings.Cut(data, Separator)
	return strings.TrimSpace(key), payload
}

// ParseCallbackData splits cb, preferring Unique when telebot already set it.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return Split(cb.Data)
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackData returns the full raw data of the current callback.
func CallbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique + Separator + cb.Data
	}
	return strings.TrimPrefix(cb.Data, "\f")
}
