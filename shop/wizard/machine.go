// Package wizard walks a user through the filter catalog one step at a time.
//
// Transitions are pure: they take a session value and return the next one.
// Choice lookup, which talks to the remote API, lives in ChoiceProvider.
package wizard

import (
	"errors"
	"fmt"

	"github.com/m3rciful/shoebot/shop/filters"
	"github.com/m3rciful/shoebot/shop/session"
)

// ErrStaleStep is returned for a wizard action that does not match the
// session's current step, e.g. a button tapped on an old menu.
var ErrStaleStep error = &staleStepError{}

type staleStepError struct{}

func (*staleStepError) Error() string { return "wizard: action does not match the current step" }
func (*staleStepError) Code() string  { return "stale_step" }

// MissingDependencyError is returned when entering a step whose dependency
// has no recorded value.
type MissingDependencyError struct {
	Filter    string
	DependsOn string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("wizard: step %q needs a value for %q", e.Filter, e.DependsOn)
}

// Code implements the router's error code contract.
func (e *MissingDependencyError) Code() string { return "missing_dependency" }

// Prompt is what a step needs to be shown.
type Prompt struct {
	Definition filters.Definition
	// Relation is the dependency's recorded value, empty for independent steps.
	Relation string
}

// Machine drives a session through the steps of a catalog.
type Machine struct {
	catalog *filters.Catalog
}

// NewMachine returns a machine over cat.
func NewMachine(cat *filters.Catalog) *Machine {
	return &Machine{catalog: cat}
}

// Catalog returns the steps the machine walks.
func (m *Machine) Catalog() *filters.Catalog { return m.catalog }

// Start begins a new browse session on the first step with no filters.
func (m *Machine) Start(s session.Session) (session.Session, error) {
	first, ok := m.catalog.First()
	if !ok {
		return s, errors.New("wizard: empty filter catalog")
	}
	return s.Restart().WithStep(first.Name), nil
}

// Advance moves to the step after the current one, or to the results.
func (m *Machine) Advance(s session.Session) (session.Session, error) {
	if !s.InWizard() {
		return s, ErrStaleStep
	}
	if next, ok := m.catalog.Next(s.Step); ok {
		return s.WithStep(next.Name), nil
	}
	return s.WithStep(session.StepResults), nil
}

// Skip leaves the current step without recording a value.
func (m *Machine) Skip(s session.Session) (session.Session, error) {
	return m.Advance(s)
}

// SkipAll jumps to the results from any step.
func (m *Machine) SkipAll(s session.Session) (session.Session, error) {
	if !s.InWizard() {
		return s, ErrStaleStep
	}
	return s.WithStep(session.StepResults), nil
}

// Choose records value for filter and advances. filter must be the current step.
func (m *Machine) Choose(s session.Session, filter, value string) (session.Session, error) {
	if !s.InWizard() || s.Step != filter {
		return s, ErrStaleStep
	}
	def, ok := m.catalog.Lookup(filter)
	if !ok {
		return s, ErrStaleStep
	}
	return m.Advance(s.WithFilters(s.Filters.With(def.Key(), value)))
}

// Enter prepares the prompt of the current step.
func (m *Machine) Enter(s session.Session) (Prompt, error) {
	if !s.InWizard() {
		return Prompt{}, ErrStaleStep
	}
	def, ok := m.catalog.Lookup(s.Step)
	if !ok {
		return Prompt{}, ErrStaleStep
	}
	p := Prompt{Definition: def}
	if def.DependsOn == "" {
		return p, nil
	}
	dep, _ := m.catalog.Lookup(def.DependsOn)
	v, ok := s.Filters.Get(dep.Key())
	if !ok || v == "" {
		return Prompt{}, &MissingDependencyError{Filter: def.Name, DependsOn: def.DependsOn}
	}
	p.Relation = v
	return p, nil
}

// Done reports whether the session reached the results.
func (m *Machine) Done(s session.Session) bool {
	return s.Step == session.StepResults
}

// Finish settles a session that reached the results. An empty listing keeps
// the results step and filters so the user can be told to start over; any
// other outcome leaves the wizard and keeps the filters for navigation.
func (m *Machine) Finish(s session.Session, empty bool) session.Session {
	if empty {
		return s.WithStep(session.StepResults)
	}
	return s.WithStep("")
}
