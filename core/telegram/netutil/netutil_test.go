package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestTransient(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial", fmt.Errorf("send: %w", dial), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"bad gateway", errors.New("telegram: Bad Gateway (502)"), true},
		{"blocked", tele.ErrBlockedByUser, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := Transient(tt.err); got != tt.want {
			t.Fatalf("%s: Transient = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	base, max := 100*time.Millisecond, time.Second
	for attempt, want := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 4: 800 * time.Millisecond, 5: time.Second, 9: time.Second} {
		if got := Backoff(nil, attempt, base, max); got != want {
			t.Fatalf("attempt %d: backoff = %v, want %v", attempt, got, want)
		}
	}
	if got := Backoff(tele.FloodError{RetryAfter: 3}, 1, base, max); got != 3*time.Second {
		t.Fatalf("flood backoff = %v", got)
	}
}

func TestKindAndStatus(t *testing.T) {
	if got := StatusCode(tele.ErrBlockedByUser); got != 403 {
		t.Fatalf("status = %d", got)
	}
	if got := Kind(tele.ErrBlockedByUser); got != "http_4xx" {
		t.Fatalf("kind = %s", got)
	}
	if got := Kind(&net.DNSError{Err: "no such host", Name: "api.telegram.org"}); got != "dns" {
		t.Fatalf("kind = %s", got)
	}
	if got := StatusCode(errors.New("bad (request)")); got != 0 {
		t.Fatalf("status = %d", got)
	}
}

func TestRedact(t *testing.T) {
	msg := `Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`
	if got := Redact(msg); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("redact = %s", got)
	}
}
