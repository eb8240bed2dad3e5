package throttle

import (
	"errors"
	"testing"
	"time"
)

func TestSecondActivationWithinWindowIsRejected(t *testing.T) {
	r := New()
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	key := "all_pics:3:brand=5"
	effects := 0
	rejected := 0
	for i := 0; i < 2; i++ {
		if err := r.Check(key, time.Minute); err != nil {
			if !errors.Is(err, ErrThrottled) {
				t.Fatalf("err = %v", err)
			}
			rejected++
			continue
		}
		effects++
	}
	if effects != 1 || rejected != 1 {
		t.Fatalf("effects = %d, rejected = %d", effects, rejected)
	}

	if !r.Allow("all_pics:4:brand=5", time.Minute) {
		t.Fatal("a different token was throttled")
	}

	now = now.Add(time.Minute)
	if !r.Allow(key, time.Minute) {
		t.Fatal("key still throttled after the window")
	}
}

func TestSweepDropsExpiredKeys(t *testing.T) {
	r := New()
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	r.Allow("a", time.Second)
	r.Allow("b", time.Hour)
	now = now.Add(2 * time.Minute)
	r.Allow("c", time.Second)
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
}

func TestZeroWindowAlwaysAllows(t *testing.T) {
	r := New()
	if !r.Allow("x", 0) || !r.Allow("x", 0) {
		t.Fatal("zero window throttled")
	}
}
