// Package legacy holds the read-only records of the pre-migration curve
// configuration schema: yield curve definitions, instrument identifier
// sources, multi-curve calculation configs and FX forward curve definitions.
package legacy

import (
	"fmt"
	"strings"

	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// Record kinds as stored in the config repository.
const (
	KindYieldCurveDefinition = "YieldCurveDefinition"
	KindIdentifierSource     = "CurveSpecificationBuilderConfiguration"
	KindCalculationConfig    = "MultiCurveCalculationConfig"
	KindFXForwardDefinition  = "FXForwardCurveDefinition"
)

// YieldCurveDefinition is a legacy single-curve definition, named
// "{name}_{currency}" in the repository.
type YieldCurveDefinition struct {
	Name              string  `json:"name"`
	Currency          string  `json:"currency"`
	Strips            []Strip `json:"strips"`
	Interpolator      string  `json:"interpolator"`
	LeftExtrapolator  string  `json:"left_extrapolator"`
	RightExtrapolator string  `json:"right_extrapolator"`
}

// BaseName is the name without its "_{currency}" suffix.
func (d YieldCurveDefinition) BaseName() string {
	return BaseName(d.Name)
}

// BaseName returns the part of a repository name before the first "_".
func BaseName(name string) string {
	base, _, _ := strings.Cut(name, "_")
	return base
}

// IdentifierSource is a legacy curve specification builder configuration: up
// to nineteen tenor-to-provider maps, one per instrument family. A nil map and
// an empty map both mean "no data".
type IdentifierSource struct {
	Name           string            `json:"name"`
	Cash           ident.ProviderMap `json:"cash,omitempty"`
	Fra3m          ident.ProviderMap `json:"fra_3m,omitempty"`
	Fra6m          ident.ProviderMap `json:"fra_6m,omitempty"`
	Libor          ident.ProviderMap `json:"libor,omitempty"`
	Euribor        ident.ProviderMap `json:"euribor,omitempty"`
	Cdor           ident.ProviderMap `json:"cdor,omitempty"`
	Cibor          ident.ProviderMap `json:"cibor,omitempty"`
	Stibor         ident.ProviderMap `json:"stibor,omitempty"`
	Future         ident.ProviderMap `json:"future,omitempty"`
	Swap6m         ident.ProviderMap `json:"swap_6m,omitempty"`
	Swap3m         ident.ProviderMap `json:"swap_3m,omitempty"`
	BasisSwap      ident.ProviderMap `json:"basis_swap,omitempty"`
	TenorSwap      ident.ProviderMap `json:"tenor_swap,omitempty"`
	OisSwap        ident.ProviderMap `json:"ois_swap,omitempty"`
	SimpleZero     ident.ProviderMap `json:"simple_zero_deposit,omitempty"`
	PeriodicZero   ident.ProviderMap `json:"periodic_zero_deposit,omitempty"`
	ContinuousZero ident.ProviderMap `json:"continuous_zero_deposit,omitempty"`
	Swap12m        ident.ProviderMap `json:"swap_12m,omitempty"`
	Swap28d        ident.ProviderMap `json:"swap_28d,omitempty"`
}

// SourceField describes one of the nineteen provider slots.
type SourceField struct {
	Key string
	Get func(*IdentifierSource) *ident.ProviderMap
}

// SourceFields lists the provider slots in their canonical order. Keys match
// the JSON and CUE field names.
var SourceFields = []SourceField{
	{"cash", func(s *IdentifierSource) *ident.ProviderMap { return &s.Cash }},
	{"fra_3m", func(s *IdentifierSource) *ident.ProviderMap { return &s.Fra3m }},
	{"fra_6m", func(s *IdentifierSource) *ident.ProviderMap { return &s.Fra6m }},
	{"libor", func(s *IdentifierSource) *ident.ProviderMap { return &s.Libor }},
	{"euribor", func(s *IdentifierSource) *ident.ProviderMap { return &s.Euribor }},
	{"cdor", func(s *IdentifierSource) *ident.ProviderMap { return &s.Cdor }},
	{"cibor", func(s *IdentifierSource) *ident.ProviderMap { return &s.Cibor }},
	{"stibor", func(s *IdentifierSource) *ident.ProviderMap { return &s.Stibor }},
	{"future", func(s *IdentifierSource) *ident.ProviderMap { return &s.Future }},
	{"swap_6m", func(s *IdentifierSource) *ident.ProviderMap { return &s.Swap6m }},
	{"swap_3m", func(s *IdentifierSource) *ident.ProviderMap { return &s.Swap3m }},
	{"basis_swap", func(s *IdentifierSource) *ident.ProviderMap { return &s.BasisSwap }},
	{"tenor_swap", func(s *IdentifierSource) *ident.ProviderMap { return &s.TenorSwap }},
	{"ois_swap", func(s *IdentifierSource) *ident.ProviderMap { return &s.OisSwap }},
	{"simple_zero_deposit", func(s *IdentifierSource) *ident.ProviderMap { return &s.SimpleZero }},
	{"periodic_zero_deposit", func(s *IdentifierSource) *ident.ProviderMap { return &s.PeriodicZero }},
	{"continuous_zero_deposit", func(s *IdentifierSource) *ident.ProviderMap { return &s.ContinuousZero }},
	{"swap_12m", func(s *IdentifierSource) *ident.ProviderMap { return &s.Swap12m }},
	{"swap_28d", func(s *IdentifierSource) *ident.ProviderMap { return &s.Swap28d }},
}

// IsEmpty reports whether every slot is absent or empty.
func (s *IdentifierSource) IsEmpty() bool {
	for _, f := range SourceFields {
		if len(*f.Get(s)) > 0 {
			return false
		}
	}
	return true
}

// LiborID resolves the libor provider at t.
func (s *IdentifierSource) LiborID(t tenor.Tenor) (ident.ExternalID, bool) {
	return s.Libor.Lookup(t)
}

// EuriborID resolves the euribor provider at t.
func (s *IdentifierSource) EuriborID(t tenor.Tenor) (ident.ExternalID, bool) {
	return s.Euribor.Lookup(t)
}

// CdorID resolves the CDOR provider at t.
func (s *IdentifierSource) CdorID(t tenor.Tenor) (ident.ExternalID, bool) {
	return s.Cdor.Lookup(t)
}

// CiborID resolves the Cibor provider at t.
func (s *IdentifierSource) CiborID(t tenor.Tenor) (ident.ExternalID, bool) {
	return s.Cibor.Lookup(t)
}

// StiborID resolves the Stibor provider at t.
func (s *IdentifierSource) StiborID(t tenor.Tenor) (ident.ExternalID, bool) {
	return s.Stibor.Lookup(t)
}

// IborID resolves the ibor index of currency at t: CDOR for CAD, Cibor for
// DKK, Stibor for SEK, Euribor for EUR and Libor otherwise.
func (s *IdentifierSource) IborID(currency string, t tenor.Tenor) (ident.ExternalID, bool) {
	switch currency {
	case "CAD":
		return s.CdorID(t)
	case "DKK":
		return s.CiborID(t)
	case "SEK":
		return s.StiborID(t)
	case "EUR":
		return s.EuriborID(t)
	default:
		return s.LiborID(t)
	}
}

// CalculationMethod selects how a calculation config builds its curves.
type CalculationMethod string

const (
	MethodPresentValue CalculationMethod = "PresentValue"
	MethodParRate      CalculationMethod = "ParRate"
	MethodFXImplied    CalculationMethod = "FXImplied"
)

// ParseCalculationMethod accepts the method names case-insensitively,
// including the upper-snake forms PRESENT_VALUE, PAR_RATE and FX_IMPLIED.
func ParseCalculationMethod(s string) (CalculationMethod, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, "_", ""))
	for _, m := range []CalculationMethod{MethodPresentValue, MethodParRate, MethodFXImplied} {
		if strings.ToLower(string(m)) == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown calculation method %q", s)
}

// CalculationConfig is a legacy multi-curve calculation config.
type CalculationConfig struct {
	Name       string            `json:"name"`
	Target     string            `json:"target"`
	CurveNames []string          `json:"curve_names"`
	Method     CalculationMethod `json:"method"`
	Exogenous  []string          `json:"exogenous,omitempty"`
}

// FXForwardCurveDefinition is read so FX-implied configs can be reported; it
// has no target counterpart.
type FXForwardCurveDefinition struct {
	Name   string        `json:"name"`
	Tenors []tenor.Tenor `json:"tenors"`
}
