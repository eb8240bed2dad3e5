package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/filters"
)

// ErrBadPayload is returned for an invoice payload this bot did not issue.
var ErrBadPayload error = &codedError{msg: "checkout: malformed invoice payload", code: "bad_payload"}

type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

// Payload identifies a purchase on its own: the product is re-resolved from
// these filters, never from the session.
type Payload struct {
	Index   int
	Filters filters.Set
	SizeID  int
}

// Encode renders the payload as [index, "filters", sizeID].
func (p Payload) Encode() (string, error) {
	raw, err := json.Marshal([]any{p.Index, p.Filters.Encode(), p.SizeID})
	if err != nil {
		return "", fmt.Errorf("checkout: encode payload: %w", err)
	}
	return string(raw), nil
}

// DecodePayload parses a payload produced by Encode.
func DecodePayload(raw string) (Payload, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parts); err != nil || len(parts) != 3 {
		return Payload{}, fmt.Errorf("%w: %q", ErrBadPayload, raw)
	}
	var (
		p  Payload
		qs string
	)
	if err := json.Unmarshal(parts[0], &p.Index); err != nil || p.Index < 0 {
		return Payload{}, fmt.Errorf("%w: index %s", ErrBadPayload, parts[0])
	}
	if err := json.Unmarshal(parts[1], &qs); err != nil {
		return Payload{}, fmt.Errorf("%w: filters %s", ErrBadPayload, parts[1])
	}
	fs, err := filters.Parse(qs)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	p.Filters = fs
	if err := json.Unmarshal(parts[2], &p.SizeID); err != nil || p.SizeID <= 0 {
		return Payload{}, fmt.Errorf("%w: size %s", ErrBadPayload, parts[2])
	}
	return p, nil
}

// Link is the deep link form of the payload.
func (p Payload) Link() callback.InvoiceLink {
	return callback.InvoiceLink{SizeID: p.SizeID, Index: p.Index, Filters: p.Filters}
}

// FromLink converts a decoded deep link or buy button.
func FromLink(l callback.InvoiceLink) Payload {
	return Payload{Index: l.Index, Filters: l.Filters, SizeID: l.SizeID}
}
