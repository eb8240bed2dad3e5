package httpclient

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func ok() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}
}

func TestRetriesTransientErrors(t *testing.T) {
	var calls int
	c := New(Options{Backoff: time.Millisecond, Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}
		return ok(), nil
	})})
	resp, err := c.Get("https://shop.example/api/shoes/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestNoRetriesWhenDisabled(t *testing.T) {
	var calls int
	c := New(Options{Retries: -1, Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	})})
	if _, err := c.Post("https://shop.example/api/orders/", "application/json", strings.NewReader("{}")); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}
