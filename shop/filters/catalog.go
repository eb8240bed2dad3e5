package filters

import (
	"fmt"
	"strconv"
	"strings"
)

// RawChoice is one choice record as returned by a catalog endpoint or
// declared as a constant list.
type RawChoice map[string]any

// ID returns the record id as a string.
func (r RawChoice) ID() string {
	return scalar(r["id"])
}

// Label joins the configured label fields with a single space.
func (r RawChoice) Label(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := scalar(r[f]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Parent returns the parent id of a hierarchical record.
func (r RawChoice) Parent() (string, bool) {
	v, ok := r["parent"]
	if !ok || v == nil {
		return "", false
	}
	return scalar(v), true
}

// NarrowFunc restricts raw choices using the value of the step's dependency.
type NarrowFunc func(choices []RawChoice, relation string) []RawChoice

// Definition configures one wizard step.
type Definition struct {
	Name        string
	LabelFields []string
	// Endpoint is the catalog path choices are fetched from; empty means Constant.
	Endpoint  string
	Constant  []RawChoice
	DependsOn string
	// StoreKey overrides the key the selection is recorded under.
	StoreKey string
	Narrow   NarrowFunc
	// Columns is the number of choice buttons per keyboard row.
	Columns int
}

// Key returns the key the selection is stored under in a Set.
func (d Definition) Key() string {
	if d.StoreKey != "" {
		return d.StoreKey
	}
	return d.Name
}

// Catalog is the ordered list of wizard steps.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog validates the definitions and keeps their order.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("filters: definition without name")
		}
		if Reserved(d.Name) || Reserved(d.Key()) {
			return nil, fmt.Errorf("filters: %q uses a reserved key", d.Name)
		}
		if _, dup := c.index[d.Name]; dup {
			return nil, fmt.Errorf("filters: duplicate definition %q", d.Name)
		}
		if d.DependsOn != "" {
			if _, ok := c.index[d.DependsOn]; !ok {
				return nil, fmt.Errorf("filters: %q depends on unknown or later step %q", d.Name, d.DependsOn)
			}
		}
		if d.Endpoint == "" && d.Constant == nil {
			return nil, fmt.Errorf("filters: %q has neither endpoint nor constant choices", d.Name)
		}
		if d.Columns <= 0 {
			d.Columns = 2
		}
		c.index[d.Name] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Definitions returns the steps in order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// First returns the first step.
func (c *Catalog) First() (Definition, bool) {
	if len(c.defs) == 0 {
		return Definition{}, false
	}
	return c.defs[0], true
}

// Next returns the step after name; false means the terminal state follows.
func (c *Catalog) Next(name string) (Definition, bool) {
	i, ok := c.index[name]
	if !ok || i+1 >= len(c.defs) {
		return Definition{}, false
	}
	return c.defs[i+1], true
}

// Lookup returns the step called name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.index[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// ByKey resolves a stored key back to a definition. A step named after the
// key wins over a step that merely stores under it.
func (c *Catalog) ByKey(key string) (Definition, bool) {
	if d, ok := c.Lookup(key); ok {
		return d, true
	}
	for _, d := range c.defs {
		if d.Key() == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Admits checks that every key of s is a known store key or reserved.
func (c *Catalog) Admits(s Set) error {
	for _, p := range s.Pairs() {
		if Reserved(p.Key) {
			continue
		}
		if _, ok := c.ByKey(p.Key); !ok {
			return fmt.Errorf("filters: unknown filter %q", p.Key)
		}
	}
	return nil
}

// Genders keeps top level categories.
func Genders(choices []RawChoice, _ string) []RawChoice {
	out := make([]RawChoice, 0, len(choices))
	for _, ch := range choices {
		if _, ok := ch.Parent(); !ok {
			out = append(out, ch)
		}
	}
	return out
}

// Subcategories keeps categories whose parent is relation. An empty relation
// keeps everything.
func Subcategories(choices []RawChoice, relation string) []RawChoice {
	if relation == "" {
		return choices
	}
	out := make([]RawChoice, 0, len(choices))
	for _, ch := range choices {
		if parent, ok := ch.Parent(); ok && parent == relation {
			out = append(out, ch)
		}
	}
	return out
}

// Seasons is the constant list for the season step.
var Seasons = []RawChoice{
	{"id": "winter", "name": "Winter"},
	{"id": "spring", "name": "Spring"},
	{"id": "summer", "name": "Summer"},
	{"id": "autumn", "name": "Autumn"},
	{"id": "demi", "name": "Demi-season"},
}

// DefaultDefinitions mirrors the shop API layout: gender is a top level
// category, so it is stored under "category".
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "gender", LabelFields: []string{"title"}, Endpoint: "/categories/", StoreKey: "category", Narrow: Genders, Columns: 2},
		{Name: "category", LabelFields: []string{"title"}, Endpoint: "/categories/", DependsOn: "gender", Narrow: Subcategories, Columns: 2},
		{Name: "season", LabelFields: []string{"name"}, Constant: Seasons, Columns: 3},
		{Name: "brand", LabelFields: []string{"name"}, Endpoint: "/brands/", Columns: 3},
		{Name: "color", LabelFields: []string{"name"}, Endpoint: "/colors/", Columns: 3},
		{Name: "outer_material", LabelFields: []string{"name"}, Endpoint: "/outer_materials/", Columns: 2},
	}
}

// DefaultCatalog builds the catalog of DefaultDefinitions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions()...)
	if err != nil {
		panic(err)
	}
	return c
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
