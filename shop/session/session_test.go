package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/shoebot/shop/filters"
)

func TestSessionSurvivesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "shoebot:", 24*time.Hour)
	ctx := context.Background()

	fs := filters.MustParse("season=winter&category=2&page=2")
	in := Session{Step: "brand", Filters: fs}.WithCached(fs, []byte(`{"count":0}`))
	if err := store.Set(ctx, 42, in); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Step != "brand" || out.Filters.Encode() != fs.Encode() {
		t.Fatalf("session = %+v", out)
	}
	if out.Cached == nil || !out.Cached.Filters.Equal(fs) || string(out.Cached.Page) != `{"count":0}` {
		t.Fatalf("cached = %+v", out.Cached)
	}
}

func TestRestartKeepsCache(t *testing.T) {
	fs := filters.MustParse("brand=1")
	s := Session{Step: StepResults, Filters: fs}.WithCached(fs, []byte(`{}`))
	r := s.Restart()
	if r.Step != "" || r.Filters.Len() != 0 {
		t.Fatalf("restart kept wizard state: %+v", r)
	}
	if r.Cached == nil {
		t.Fatal("restart dropped the page cache")
	}
	if s.Step != StepResults || s.Filters.Len() != 1 {
		t.Fatal("restart mutated the original session")
	}
}

func TestInWizard(t *testing.T) {
	if (Session{}).InWizard() {
		t.Fatal("idle session reported as in wizard")
	}
	if (Session{Step: StepResults}).InWizard() {
		t.Fatal("terminal step reported as in wizard")
	}
	if !(Session{Step: "color"}).InWizard() {
		t.Fatal("filter step not reported as in wizard")
	}
}
