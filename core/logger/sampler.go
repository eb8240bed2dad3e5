package logger

import (
	"strconv"
	"strings"
	"sync"
)

// sampler lets through n events out of every d.
type sampler struct {
	mu   sync.Mutex
	n, d int
	seen int
}

func (s *sampler) set(n, d int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || d <= 0 {
		n, d = 0, 0
	}
	s.n, s.d, s.seen = min(n, d), d, 0
}

func (s *sampler) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == 0 {
		return true
	}
	s.seen = s.seen%s.d + 1
	return s.seen <= s.n
}

// parseRatio reads "n/d" or "d" (meaning 1/d). ok is false for anything else.
func parseRatio(raw string) (n, d int, ok bool) {
	raw = strings.TrimSpace(raw)
	num, den, found := strings.Cut(raw, "/")
	if !found {
		num, den = "1", raw
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, d, true
}
