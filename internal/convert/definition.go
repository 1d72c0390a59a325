package convert

import (
	"fmt"

	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/legacy"
)

// DefinitionConverter turns legacy yield curve definitions into interpolated
// curve definitions. Any strip that cannot be converted fails the whole
// definition.
type DefinitionConverter struct {
	nodes NodeConverters
}

// NewDefinitionConverter returns a converter over the given node table.
func NewDefinitionConverter(nodes NodeConverters) *DefinitionConverter {
	return &DefinitionConverter{nodes: nodes}
}

// Convert builds the definition named curveName. sources maps a strip's
// convention name to its identifier source; a strip whose convention has no
// source fails with a missing identifier error. Returned errors wrap a
// *ConversionError.
func (c *DefinitionConverter) Convert(curveName, currency string, ycd legacy.YieldCurveDefinition, sources map[string]*legacy.IdentifierSource) (curve.InterpolatedCurveDefinition, error) {
	set := curve.NewNodeSet()
	for i, strip := range ycd.Strips {
		source, ok := sources[strip.Convention]
		if !ok || source == nil {
			return curve.InterpolatedCurveDefinition{}, fmt.Errorf("curve %q strip %d: %w", curveName, i,
				missingIdentifier(strip, currency, fmt.Sprintf("no identifier source for convention %q", strip.Convention)))
		}
		node, err := c.nodes.Convert(strip, currency, source)
		if err != nil {
			return curve.InterpolatedCurveDefinition{}, fmt.Errorf("curve %q strip %d: %w", curveName, i, err)
		}
		set.Add(node)
	}

	return curve.InterpolatedCurveDefinition{
		Name:              curveName,
		Nodes:             set.Nodes(),
		Interpolator:      ycd.Interpolator,
		LeftExtrapolator:  ycd.LeftExtrapolator,
		RightExtrapolator: ycd.RightExtrapolator,
	}, nil
}
