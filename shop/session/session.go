// Package session defines the per-user conversation state of the shop bot.
package session

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/shop/filters"
)

// StepResults is the terminal wizard step.
const StepResults = "results"

// CachedPage is the last fetched listing page and the filters that produced it.
type CachedPage struct {
	Filters filters.Set     `json:"filters"`
	Page    json.RawMessage `json:"page"`
}

// Session is passed into and returned from every transition; nothing mutates
// it in place.
type Session struct {
	Step    string      `json:"step,omitempty"`
	Filters filters.Set `json:"filters"`
	Cached  *CachedPage `json:"cached_page,omitempty"`
}

// InWizard reports whether a filter step is active.
func (s Session) InWizard() bool {
	return s.Step != "" && s.Step != StepResults
}

// WithStep returns a copy on the given step.
func (s Session) WithStep(step string) Session {
	s.Step = step
	return s
}

// WithFilters returns a copy holding fs.
func (s Session) WithFilters(fs filters.Set) Session {
	s.Filters = fs
	return s
}

// WithCached returns a copy caching raw as the page produced by fs.
func (s Session) WithCached(fs filters.Set, raw json.RawMessage) Session {
	s.Cached = &CachedPage{Filters: fs, Page: append(json.RawMessage(nil), raw...)}
	return s
}

// Restart clears the step and the working filters for a new browse session.
// The page cache stays: it is keyed by filters and cannot be served stale.
func (s Session) Restart() Session {
	s.Step = ""
	s.Filters = filters.Set{}
	return s
}

// Store persists sessions by user id.
type Store = state.Store[Session]

// NewMemoryStore keeps sessions in process memory.
func NewMemoryStore(ttl time.Duration) Store {
	return state.NewMemoryStore[Session](ttl)
}

// NewRedisStore keeps sessions in Redis under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) Store {
	return state.NewRedisStore[Session](client, prefix, ttl)
}
