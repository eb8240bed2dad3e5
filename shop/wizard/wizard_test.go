package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/session"
)

type stubSource map[string][]filters.RawChoice

func (s stubSource) FetchChoices(_ context.Context, path string) ([]filters.RawChoice, error) {
	return s[path], nil
}

var categories = []filters.RawChoice{
	{"id": float64(1), "title": "Men"},
	{"id": float64(2), "title": "Women"},
	{"id": float64(3), "title": "Boots", "parent": float64(1)},
	{"id": float64(4), "title": "Heels", "parent": float64(2)},
}

func TestSkipAllRecordsNothing(t *testing.T) {
	m := NewMachine(filters.DefaultCatalog())
	s, err := m.Start(session.Session{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Step != "gender" {
		t.Fatalf("first step = %q", s.Step)
	}
	if s, err = m.Skip(s); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if s, err = m.Skip(s); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if s.Step != "season" {
		t.Fatalf("step = %q, want season", s.Step)
	}
	if s, err = m.SkipAll(s); err != nil {
		t.Fatalf("skip all: %v", err)
	}
	if !m.Done(s) {
		t.Fatalf("step = %q, want results", s.Step)
	}
	if s.Filters.Len() != 0 {
		t.Fatalf("skipped steps recorded values: %s", s.Filters)
	}
}

func TestWalkAllSteps(t *testing.T) {
	m := NewMachine(filters.DefaultCatalog())
	s, _ := m.Start(session.Session{})
	steps := []string{}
	for s.InWizard() {
		steps = append(steps, s.Step)
		var err error
		if s, err = m.Choose(s, s.Step, "7"); err != nil {
			t.Fatalf("choose %s: %v", s.Step, err)
		}
	}
	want := []string{"gender", "category", "season", "brand", "color", "outer_material"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v", steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v", steps)
		}
	}
	if got := s.Filters.Encode(); got != "category=7&season=7&brand=7&color=7&outer_material=7" {
		t.Fatalf("filters = %s", got)
	}
}

func TestMissingDependency(t *testing.T) {
	m := NewMachine(filters.DefaultCatalog())
	p := NewChoiceProvider(stubSource{"/categories/": categories})
	ctx := context.Background()

	s, _ := m.Start(session.Session{})
	skipped, err := m.Skip(s)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	_, err = m.Enter(skipped)
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingDependencyError", err)
	}
	if missing.Filter != "category" || missing.DependsOn != "gender" {
		t.Fatalf("missing = %+v", missing)
	}

	chosen, err := m.Choose(s, "gender", "1")
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if v, _ := chosen.Filters.Get("category"); v != "1" {
		t.Fatalf("gender stored as %s", chosen.Filters)
	}
	prompt, err := m.Enter(chosen)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if prompt.Relation != "1" {
		t.Fatalf("relation = %q", prompt.Relation)
	}
	choices, err := p.Choices(ctx, prompt.Definition, prompt.Relation)
	if err != nil {
		t.Fatalf("choices: %v", err)
	}
	if len(choices) != 1 || choices[0].Value != "3" || choices[0].Label != "Boots" {
		t.Fatalf("choices = %+v", choices)
	}
}

func TestGenderChoicesAreTopLevel(t *testing.T) {
	p := NewChoiceProvider(stubSource{"/categories/": categories})
	def, _ := filters.DefaultCatalog().Lookup("gender")
	choices, err := p.Choices(context.Background(), def, "")
	if err != nil {
		t.Fatalf("choices: %v", err)
	}
	if len(choices) != 2 || choices[0].Label != "Men" || choices[1].Label != "Women" {
		t.Fatalf("choices = %+v", choices)
	}
}

func TestStaleStep(t *testing.T) {
	m := NewMachine(filters.DefaultCatalog())
	if _, err := m.Skip(session.Session{}); !errors.Is(err, ErrStaleStep) {
		t.Fatalf("skip outside wizard: %v", err)
	}
	s, _ := m.Start(session.Session{})
	if _, err := m.Choose(s, "brand", "3"); !errors.Is(err, ErrStaleStep) {
		t.Fatalf("choice for another step: %v", err)
	}
}

func TestFinish(t *testing.T) {
	m := NewMachine(filters.DefaultCatalog())
	fs := filters.MustParse("brand=5")
	s := session.Session{Step: session.StepResults, Filters: fs}

	empty := m.Finish(s, true)
	if empty.Step != session.StepResults || !empty.Filters.Equal(fs) {
		t.Fatalf("empty results = %+v", empty)
	}
	found := m.Finish(s, false)
	if found.Step != "" || !found.Filters.Equal(fs) {
		t.Fatalf("results = %+v", found)
	}
}

func TestDescribe(t *testing.T) {
	cat := filters.DefaultCatalog()
	p := NewChoiceProvider(stubSource{"/categories/": categories, "/brands/": {{"id": float64(5), "name": "Ecco"}}})
	sel, err := p.Describe(context.Background(), cat, filters.MustParse("category=3&season=winter&brand=5&page=2"))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(sel) != 3 {
		t.Fatalf("selections = %+v", sel)
	}
	if sel[0].Label != "Boots" || sel[1].Label != "Winter" || sel[2].Label != "Ecco" {
		t.Fatalf("labels = %q %q %q", sel[0].Label, sel[1].Label, sel[2].Label)
	}
}
