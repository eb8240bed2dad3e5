package wizard

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/filters"
)

const component = "shop.wizard"

// ChoiceSource fetches choice records from a catalog endpoint.
type ChoiceSource interface {
	FetchChoices(ctx context.Context, path string) ([]filters.RawChoice, error)
}

// Choice is one selectable value of a step.
type Choice struct {
	Value string
	Label string
}

// Selection is a recorded filter value with its display label.
type Selection struct {
	Definition filters.Definition
	Value      string
	Label      string
}

// ChoiceProvider loads the choices of a step lazily.
type ChoiceProvider struct {
	source ChoiceSource
}

// NewChoiceProvider returns a provider backed by source.
func NewChoiceProvider(source ChoiceSource) *ChoiceProvider {
	return &ChoiceProvider{source: source}
}

// Choices returns the choices of def narrowed by relation. Values that
// cannot travel in callback data are dropped.
func (p *ChoiceProvider) Choices(ctx context.Context, def filters.Definition, relation string) ([]Choice, error) {
	raw, err := p.raw(ctx, def)
	if err != nil {
		return nil, err
	}
	if def.Narrow != nil {
		raw = def.Narrow(raw, relation)
	}
	out := make([]Choice, 0, len(raw))
	for _, rc := range raw {
		id := rc.ID()
		if !encodable(def.Name, id) {
			logger.Warn(ctx, component, "choice.drop",
				slog.String("filter", def.Name),
				slog.String("value", logger.Sanitize(id)),
			)
			continue
		}
		out = append(out, Choice{Value: id, Label: rc.Label(def.LabelFields)})
	}
	logger.Debug(ctx, component, "choices.load",
		slog.String("filter", def.Name),
		slog.String("relation", relation),
		slog.Int("count", len(out)),
	)
	return out, nil
}

// Describe resolves the semantic entries of fs to labelled selections.
// Pagination keys and keys unknown to cat are skipped; a value missing from
// the choice list falls back to the raw value.
func (p *ChoiceProvider) Describe(ctx context.Context, cat *filters.Catalog, fs filters.Set) ([]Selection, error) {
	out := make([]Selection, 0, fs.Len())
	for _, pair := range fs.Semantic() {
		def, ok := cat.ByKey(pair.Key)
		if !ok {
			continue
		}
		raw, err := p.raw(ctx, def)
		if err != nil {
			return nil, err
		}
		sel := Selection{Definition: def, Value: pair.Value, Label: pair.Value}
		for _, rc := range raw {
			if rc.ID() == pair.Value {
				sel.Label = rc.Label(def.LabelFields)
				break
			}
		}
		out = append(out, sel)
	}
	return out, nil
}

func (p *ChoiceProvider) raw(ctx context.Context, def filters.Definition) ([]filters.RawChoice, error) {
	if def.Endpoint == "" {
		return def.Constant, nil
	}
	return p.source.FetchChoices(ctx, def.Endpoint)
}

func encodable(filter, value string) bool {
	if value == "" || strings.Contains(value, callback.Delimiter) {
		return false
	}
	_, err := callback.Data(callback.FilterChoice{Filter: filter, Value: value})
	return err == nil
}
