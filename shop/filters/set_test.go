package filters

import (
	"encoding/json"
	"testing"
)

func TestParseEncodeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"brand=5",
		"category=3&season=winter&page=2",
		"color=light+blue&brand=a%26b",
		"outer_material=&brand=7",
	}
	for _, qs := range cases {
		s, err := Parse(qs)
		if err != nil {
			t.Fatalf("parse %q: %v", qs, err)
		}
		if got := s.Encode(); got != qs {
			t.Fatalf("encode(parse(%q)) = %q", qs, got)
		}
		again, err := Parse(s.Encode())
		if err != nil {
			t.Fatalf("reparse %q: %v", qs, err)
		}
		if !again.Equal(s) {
			t.Fatalf("round trip lost data for %q", qs)
		}
	}
}

func TestParsePreservesOrder(t *testing.T) {
	s := MustParse("season=summer&category=1&brand=2")
	pairs := s.Pairs()
	want := []string{"season", "category", "brand"}
	for i, p := range pairs {
		if p.Key != want[i] {
			t.Fatalf("key %d = %s, want %s", i, p.Key, want[i])
		}
	}
}

func TestEqualityIgnoresOrder(t *testing.T) {
	a := MustParse("brand=5&color=2")
	b := MustParse("color=2&brand=5")
	if !a.Equal(b) {
		t.Fatal("expected sets to be equal")
	}
	if a.Canonical() != b.Canonical() {
		t.Fatalf("canonical forms differ: %q vs %q", a.Canonical(), b.Canonical())
	}
	c := b.WithPage(2)
	if a.Equal(c) {
		t.Fatal("page key must take part in equality")
	}
	if a.Canonical() == c.Canonical() {
		t.Fatal("canonical forms must differ when content differs")
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := MustParse("brand=5")
	next := base.With("color", "3").WithPage(4)
	if base.Len() != 1 {
		t.Fatalf("base mutated: %s", base)
	}
	if next.Encode() != "brand=5&color=3&page=4" {
		t.Fatalf("unexpected encoding %q", next.Encode())
	}
	if got := next.WithPage(5).Encode(); got != "brand=5&color=3&page=5" {
		t.Fatalf("page overwrite moved the key: %q", got)
	}
	if got := next.Without("color").Encode(); got != "brand=5&page=4" {
		t.Fatalf("without: %q", got)
	}
}

func TestPageDefaults(t *testing.T) {
	var empty Set
	if empty.Page() != 1 {
		t.Fatalf("page of empty set = %d", empty.Page())
	}
	if _, ok := empty.PageSize(); ok {
		t.Fatal("empty set must not carry a page size")
	}
	s := MustParse("page=3&page_size=5&brand=1")
	if s.Page() != 3 {
		t.Fatalf("page = %d", s.Page())
	}
	if n, ok := s.PageSize(); !ok || n != 5 {
		t.Fatalf("page size = %d, %v", n, ok)
	}
	sem := s.Semantic()
	if len(sem) != 1 || sem[0].Key != "brand" {
		t.Fatalf("semantic pairs = %+v", sem)
	}
}

func TestJSONKeepsOrder(t *testing.T) {
	s := MustParse("season=winter&category=2")
	raw, err := json.Marshal(struct{ F Set }{s})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back struct{ F Set }
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.F.Encode() != s.Encode() {
		t.Fatalf("json lost order: %q", back.F.Encode())
	}
}

func TestParseRejectsBrokenEscapes(t *testing.T) {
	if _, err := Parse("brand=%zz"); err == nil {
		t.Fatal("expected error for bad escape")
	}
	if _, err := Parse("=5"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
