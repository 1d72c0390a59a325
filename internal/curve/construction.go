package curve

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// TypeConfiguration is the role a curve plays in a construction
// configuration: Discounting, Ibor or Overnight.
type TypeConfiguration interface {
	Role() string
	typeConfiguration()
}

// Discounting marks a curve used to discount cash flows in Reference
// (a currency code).
type Discounting struct {
	Reference string `json:"reference"`
}

// Ibor marks a curve that projects the ibor index identified by Convention
// at Tenor.
type Ibor struct {
	Convention ident.ExternalID `json:"convention"`
	Tenor      tenor.Tenor      `json:"tenor"`
}

// Overnight marks a curve that projects the overnight index Convention.
type Overnight struct {
	Convention ident.ExternalID `json:"convention"`
}

func (Discounting) Role() string { return "discounting" }
func (Ibor) Role() string        { return "ibor" }
func (Overnight) Role() string   { return "overnight" }

func (Discounting) typeConfiguration() {}
func (Ibor) typeConfiguration()        {}
func (Overnight) typeConfiguration()   {}

// CurveGroupConfiguration assigns roles to the curves built together at one
// stage of the construction.
type CurveGroupConfiguration struct {
	Order  int
	Curves map[string][]TypeConfiguration
}

// CurveNames returns the curve names in sorted order.
func (g CurveGroupConfiguration) CurveNames() []string {
	return slices.Sorted(maps.Keys(g.Curves))
}

type roleJSON struct {
	Role       string           `json:"role"`
	Reference  string           `json:"reference,omitempty"`
	Convention ident.ExternalID `json:"convention,omitzero"`
	Tenor      *tenor.Tenor     `json:"tenor,omitempty"`
}

type groupJSON struct {
	Order  int                   `json:"order"`
	Curves map[string][]roleJSON `json:"curves"`
}

// MarshalJSON encodes each role with a "role" discriminator.
func (g CurveGroupConfiguration) MarshalJSON() ([]byte, error) {
	out := groupJSON{Order: g.Order, Curves: make(map[string][]roleJSON, len(g.Curves))}
	for name, roles := range g.Curves {
		encoded := make([]roleJSON, 0, len(roles))
		for _, r := range roles {
			rj := roleJSON{Role: r.Role()}
			switch v := r.(type) {
			case Discounting:
				rj.Reference = v.Reference
			case Ibor:
				t := v.Tenor
				rj.Convention, rj.Tenor = v.Convention, &t
			case Overnight:
				rj.Convention = v.Convention
			}
			encoded = append(encoded, rj)
		}
		out.Curves[name] = encoded
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *CurveGroupConfiguration) UnmarshalJSON(data []byte) error {
	var in groupJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	curves := make(map[string][]TypeConfiguration, len(in.Curves))
	for name, roles := range in.Curves {
		decoded := make([]TypeConfiguration, 0, len(roles))
		for _, rj := range roles {
			switch rj.Role {
			case "discounting":
				decoded = append(decoded, Discounting{Reference: rj.Reference})
			case "ibor":
				if rj.Tenor == nil {
					return fmt.Errorf("curve %q: ibor role without tenor", name)
				}
				decoded = append(decoded, Ibor{Convention: rj.Convention, Tenor: *rj.Tenor})
			case "overnight":
				decoded = append(decoded, Overnight{Convention: rj.Convention})
			default:
				return fmt.Errorf("curve %q: unknown role %q", name, rj.Role)
			}
		}
		curves[name] = decoded
	}
	*g = CurveGroupConfiguration{Order: in.Order, Curves: curves}
	return nil
}

// CurveConstructionConfiguration is the migrated form of a multi-curve
// calculation config.
type CurveConstructionConfiguration struct {
	Name      string                    `json:"name"`
	Groups    []CurveGroupConfiguration `json:"groups"`
	Exogenous []string                  `json:"exogenous,omitempty"`
}
