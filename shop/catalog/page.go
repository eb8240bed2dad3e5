package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Page is one page of the product listing.
type Page struct {
	Count       int       `json:"count"`
	Number      int       `json:"page"`
	NumPages    int       `json:"numPages"`
	HasPrevious bool      `json:"hasPrevious"`
	HasNext     bool      `json:"hasNext"`
	Results     []Product `json:"results"`
}

// Empty reports whether the page carries no products.
func (p *Page) Empty() bool {
	return p == nil || len(p.Results) == 0
}

// wirePage uses pointers so absent required fields can be told from zeros.
type wirePage struct {
	Count       *int       `json:"count"`
	Number      *int       `json:"page"`
	NumPages    *int       `json:"numPages"`
	HasPrevious *bool      `json:"hasPrevious"`
	HasNext     *bool      `json:"hasNext"`
	Results     *[]Product `json:"results"`
}

// DecodePage decodes and validates a raw page. Any violation is a SchemaError.
func DecodePage(raw []byte) (*Page, error) {
	var w wirePage
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &SchemaError{Err: err}
	}
	var missing []error
	if w.Count == nil {
		missing = append(missing, errors.New("count is required"))
	}
	if w.Number == nil {
		missing = append(missing, errors.New("page is required"))
	}
	if w.NumPages == nil {
		missing = append(missing, errors.New("numPages is required"))
	}
	if w.HasPrevious == nil {
		missing = append(missing, errors.New("hasPrevious is required"))
	}
	if w.HasNext == nil {
		missing = append(missing, errors.New("hasNext is required"))
	}
	if w.Results == nil {
		missing = append(missing, errors.New("results is required"))
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Err: errors.Join(missing...)}
	}

	p := &Page{
		Count:       *w.Count,
		Number:      *w.Number,
		NumPages:    *w.NumPages,
		HasPrevious: *w.HasPrevious,
		HasNext:     *w.HasNext,
		Results:     *w.Results,
	}
	if err := p.Validate(); err != nil {
		return nil, &SchemaError{Err: err}
	}
	return p, nil
}

// Validate checks the invariants of a decoded page.
func (p *Page) Validate() error {
	if p.Number < 1 {
		return fmt.Errorf("page number must be >= 1, got %d", p.Number)
	}
	if p.Count < len(p.Results) {
		return fmt.Errorf("count %d below result size %d", p.Count, len(p.Results))
	}
	if p.NumPages < 0 || (len(p.Results) > 0 && p.Number > p.NumPages) {
		return fmt.Errorf("page %d out of %d pages", p.Number, p.NumPages)
	}
	for _, prod := range p.Results {
		if err := prod.Validate(); err != nil {
			return err
		}
	}
	return nil
}
