package callback

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodeDeepLink turns a token into a start parameter. Telegram only accepts
// A-Z, a-z, 0-9, _ and - there, so padding is dropped.
func EncodeDeepLink(token string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}

// DecodeDeepLink reverses EncodeDeepLink. Padded input is accepted as well.
func DecodeDeepLink(param string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(param), "=")
	if trimmed == "" {
		return "", malformed(param, "empty deep link", nil)
	}
	raw, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", malformed(param, "bad base64", err)
	}
	if !utf8.Valid(raw) {
		return "", malformed(param, "not utf-8", nil)
	}
	return string(raw), nil
}

// ParseDeepLink decodes a start parameter into an invoice link.
func ParseDeepLink(param string) (InvoiceLink, error) {
	raw, err := DecodeDeepLink(param)
	if err != nil {
		return InvoiceLink{}, err
	}
	a, err := ParseAction(raw)
	if err != nil {
		return InvoiceLink{}, err
	}
	link, ok := a.(InvoiceLink)
	if !ok {
		return InvoiceLink{}, malformed(raw, "not an invoice link", nil)
	}
	return link, nil
}

// DeepLink encodes an invoice link as a start parameter. A parameter longer
// than MaxData fails with ErrTooLong.
func DeepLink(link InvoiceLink) (string, error) {
	raw, err := link.Token().Encode()
	if err != nil {
		return "", err
	}
	param := EncodeDeepLink(raw)
	if len(param) > MaxData {
		return "", malformed(raw, fmt.Sprintf("start parameter of %d bytes", len(param)), ErrTooLong)
	}
	return param, nil
}
