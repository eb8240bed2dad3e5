// Package filters models the ordered product filter selection carried between
// conversation turns and the catalog of filters the wizard walks through.
package filters

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved keys hold pagination metadata rather than semantic filters.
const (
	PageKey     = "page"
	PageSizeKey = "page_size"
)

// Reserved reports whether key is pagination metadata.
func Reserved(key string) bool {
	return key == PageKey || key == PageSizeKey
}

// Set is an ordered mapping of filter store keys to selected values.
// The zero value is an empty set. Sets are values: every mutator returns a copy.
type Set struct {
	keys   []string
	values map[string]string
}

// Pair is a single key/value entry of a Set.
type Pair struct {
	Key   string
	Value string
}

// New builds a set from pairs, keeping their order. Repeated keys keep the
// first position and the last value.
func New(pairs ...Pair) Set {
	var s Set
	for _, p := range pairs {
		s = s.With(p.Key, p.Value)
	}
	return s
}

// Parse decodes a URL query string preserving key order.
func Parse(qs string) (Set, error) {
	var s Set
	if qs == "" {
		return s, nil
	}
	for _, part := range strings.Split(qs, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return Set{}, fmt.Errorf("filters: bad key %q: %w", rawKey, err)
		}
		if key == "" {
			return Set{}, fmt.Errorf("filters: empty key in %q", qs)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Set{}, fmt.Errorf("filters: bad value for %q: %w", key, err)
		}
		s = s.With(key, value)
	}
	return s, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(qs string) Set {
	s, err := Parse(qs)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of entries.
func (s Set) Len() int { return len(s.keys) }

// Get returns the value stored under key.
func (s Set) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s Set) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Pairs returns the entries in insertion order.
func (s Set) Pairs() []Pair {
	out := make([]Pair, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Pair{Key: k, Value: s.values[k]})
	}
	return out
}

// Semantic returns the entries that are real filters, skipping pagination keys.
func (s Set) Semantic() []Pair {
	out := make([]Pair, 0, len(s.keys))
	for _, k := range s.keys {
		if Reserved(k) {
			continue
		}
		out = append(out, Pair{Key: k, Value: s.values[k]})
	}
	return out
}

// With returns a copy where key holds value. An existing key keeps its position.
func (s Set) With(key, value string) Set {
	out := s.clone()
	if _, ok := out.values[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.values[key] = value
	return out
}

// Without returns a copy with key removed.
func (s Set) Without(key string) Set {
	if !s.Has(key) {
		return s
	}
	out := Set{
		keys:   make([]string, 0, len(s.keys)-1),
		values: make(map[string]string, len(s.values)-1),
	}
	for _, k := range s.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.values[k] = s.values[k]
	}
	return out
}

// Page returns the requested page number, 1 when absent or unparsable.
func (s Set) Page() int {
	raw, ok := s.values[PageKey]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// WithPage returns a copy whose page key is overwritten with n.
func (s Set) WithPage(n int) Set {
	return s.With(PageKey, strconv.Itoa(n))
}

// PageSize returns the page size carried by the set, if any.
func (s Set) PageSize() (int, bool) {
	raw, ok := s.values[PageSizeKey]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Encode serializes the set as a query string in insertion order.
func (s Set) Encode() string {
	return encode(s.keys, s.values)
}

// Canonical serializes the set with keys sorted, so equal sets encode equally.
func (s Set) Canonical() string {
	keys := append([]string(nil), s.keys...)
	sort.Strings(keys)
	return encode(keys, s.values)
}

// String implements fmt.Stringer.
func (s Set) String() string { return s.Encode() }

// Equal compares content only; key order is ignored.
func (s Set) Equal(other Set) bool {
	if len(s.keys) != len(other.keys) {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Query exposes the set as url.Values for request building.
func (s Set) Query() url.Values {
	q := make(url.Values, len(s.keys))
	for _, k := range s.keys {
		q.Set(k, s.values[k])
	}
	return q
}

// MarshalJSON stores the set as its query string.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Encode())
}

// UnmarshalJSON restores a set stored by MarshalJSON.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Set) clone() Set {
	out := Set{
		keys:   make([]string, len(s.keys), len(s.keys)+1),
		values: make(map[string]string, len(s.values)+1),
	}
	copy(out.keys, s.keys)
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

func encode(keys []string, values map[string]string) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[k]))
	}
	return b.String()
}
