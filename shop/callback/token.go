// Package callback encodes conversation actions into the compact strings carried
// by inline buttons and deep links, and decodes them back into typed actions.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/shoebot/shop/filters"
)

// Delimiter separates token parts on the wire.
const Delimiter = ":"

// MaxData is Telegram's limit for inline button data and start parameters.
const MaxData = 64

var (
	// ErrMalformed matches every decoding failure of this package.
	ErrMalformed = errors.New("callback: malformed token")
	// ErrTooLong is wrapped by the MalformedError of data over MaxData bytes.
	ErrTooLong = errors.New("callback: data exceeds 64 bytes")
)

// MalformedError describes why raw callback data could not be decoded.
type MalformedError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("callback: malformed token %q: %s", e.Raw, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformed) match.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// Code is used by the router summary log.
func (e *MalformedError) Code() string { return "malformed_token" }

func malformed(raw, reason string, err error) error {
	return &MalformedError{Raw: raw, Reason: reason, Err: err}
}

// Token is an immutable ordered list of parts; the first part is the namespace.
type Token struct {
	parts []string
}

// New creates a token from a namespace and optional leading arguments.
func New(namespace string, parts ...string) Token {
	out := make([]string, 0, 1+len(parts))
	out = append(out, namespace)
	out = append(out, parts...)
	return Token{parts: out}
}

// Append returns a new token with parts added at the end.
func (t Token) Append(parts ...string) Token {
	out := make([]string, 0, len(t.parts)+len(parts))
	out = append(out, t.parts...)
	out = append(out, parts...)
	return Token{parts: out}
}

// AppendInt appends a decimal integer part.
func (t Token) AppendInt(n int) Token {
	return t.Append(strconv.Itoa(n))
}

// AppendFilters appends a serialized filter set. It must be the last part.
func (t Token) AppendFilters(fs filters.Set) Token {
	return t.Append(fs.Encode())
}

// Namespace returns the first part.
func (t Token) Namespace() string {
	if len(t.parts) == 0 {
		return ""
	}
	return t.parts[0]
}

// Parts returns a copy of the parts.
func (t Token) Parts() []string {
	return append([]string(nil), t.parts...)
}

// String joins the parts without validation.
func (t Token) String() string {
	return strings.Join(t.parts, Delimiter)
}

// Encode joins the parts, rejecting a delimiter inside any part but the last.
// The last part may hold a filter query string, which parsing never splits.
func (t Token) Encode() (string, error) {
	if len(t.parts) == 0 || t.parts[0] == "" {
		return "", malformed(t.String(), "empty namespace", nil)
	}
	for i, p := range t.parts[:len(t.parts)-1] {
		if strings.Contains(p, Delimiter) {
			return "", malformed(t.String(), fmt.Sprintf("part %d contains delimiter", i), nil)
		}
	}
	return t.String(), nil
}

// Build stringifies args and encodes the resulting token.
func Build(namespace string, args ...any) (string, error) {
	t := New(namespace)
	for _, a := range args {
		switch v := a.(type) {
		case string:
			t = t.Append(v)
		case int:
			t = t.AppendInt(v)
		case filters.Set:
			t = t.AppendFilters(v)
		case fmt.Stringer:
			t = t.Append(v.String())
		default:
			t = t.Append(fmt.Sprint(v))
		}
	}
	return t.Encode()
}

// Parse splits raw into exactly arity parts. The final part receives the rest
// of the string, delimiters included.
func Parse(raw string, arity int) ([]string, error) {
	if arity < 1 {
		return nil, malformed(raw, "bad arity", nil)
	}
	parts := strings.SplitN(raw, Delimiter, arity)
	if len(parts) != arity {
		return nil, malformed(raw, fmt.Sprintf("want %d parts, got %d", arity, len(parts)), nil)
	}
	return parts, nil
}

// Field decodes one positional part.
type Field func(part string) error

// Scan parses raw with one part per field and applies the decoders in order.
func Scan(raw string, fields ...Field) error {
	parts, err := Parse(raw, len(fields))
	if err != nil {
		return err
	}
	for i, f := range fields {
		if f == nil {
			continue
		}
		if err := f(parts[i]); err != nil {
			return malformed(raw, fmt.Sprintf("part %d", i), err)
		}
	}
	return nil
}

// Literal requires the part to equal want.
func Literal(want string) Field {
	return func(part string) error {
		if part != want {
			return fmt.Errorf("want %q, got %q", want, part)
		}
		return nil
	}
}

// String stores the part as is.
func String(dst *string) Field {
	return func(part string) error {
		if part == "" {
			return errors.New("empty")
		}
		*dst = part
		return nil
	}
}

// Int decodes a non-negative decimal integer.
func Int(dst *int) Field {
	return func(part string) error {
		n, err := strconv.Atoi(part)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("negative value %d", n)
		}
		*dst = n
		return nil
	}
}

// Filters decodes a filter query string.
func Filters(dst *filters.Set) Field {
	return func(part string) error {
		fs, err := filters.Parse(part)
		if err != nil {
			return err
		}
		*dst = fs
		return nil
	}
}
