package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/m3rciful/shoebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "stale_step" }

func TestErrCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wizard: %w", codedErr{}), "STALE_STEP"},
		{fmt.Errorf("%w: boom", middleware.ErrPanic), "PANIC"},
		{tele.ErrBlockedByUser, "HTTP_4XX"},
		{fmt.Errorf("wrap: %w", errors.New("x")), "ERRORSTRING"},
	}
	for _, tt := range tests {
		if got := errCode(tt.err); got != tt.want {
			t.Fatalf("errCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	for in, want := range map[string]string{"/Browse": "browse", "": "unknown", " list sizes ": "list_sizes"} {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
