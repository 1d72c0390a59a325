// Package ident holds external identifiers and the identifier providers that
// resolve a curve tenor to a market instrument.
package ident

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/curvemigrate/internal/tenor"
)

// Well-known identifier schemes.
const (
	SchemeSyntheticTicker = "OG_SYNTHETIC_TICKER"
	SchemeConvention      = "CONVENTION"
)

// ExternalID is a scheme-qualified identifier.
type ExternalID struct {
	Scheme string `json:"scheme,omitempty"`
	Value  string `json:"value,omitempty"`
}

// NewExternalID creates an ExternalID.
func NewExternalID(scheme, value string) ExternalID {
	return ExternalID{Scheme: scheme, Value: value}
}

// Convention returns the per-currency convention identifier for name,
// e.g. Convention("USD Deposit").
func Convention(name string) ExternalID {
	return ExternalID{Scheme: SchemeConvention, Value: name}
}

// IsZero reports whether the identifier is unset.
func (id ExternalID) IsZero() bool {
	return id.Scheme == "" && id.Value == ""
}

func (id ExternalID) String() string {
	return id.Scheme + "~" + id.Value
}

// ParseExternalID parses the "Scheme~Value" form produced by String.
func ParseExternalID(s string) (ExternalID, error) {
	scheme, value, ok := strings.Cut(s, "~")
	if !ok || scheme == "" || value == "" {
		return ExternalID{}, fmt.Errorf("invalid external id %q: expected Scheme~Value", s)
	}
	return ExternalID{Scheme: scheme, Value: value}, nil
}

// Kind discriminates Provider variants.
type Kind string

const (
	KindSynthetic       Kind = "synthetic"
	KindSyntheticFuture Kind = "synthetic_future"
	KindStatic          Kind = "static"
)

// Provider resolves a tenor to an external identifier. It is a closed tagged
// union: construct values with SyntheticIdentifier, SyntheticFuture or Static.
// Providers are comparable, so maps of them compare structurally.
type Provider struct {
	Kind           Kind       `json:"kind"`
	Currency       string     `json:"currency,omitempty"`
	InstrumentType string     `json:"instrument_type,omitempty"`
	Scheme         string     `json:"scheme,omitempty"`
	FutureCode     string     `json:"future_code,omitempty"`
	Identifier     ExternalID `json:"identifier,omitzero"`
	DataField      string     `json:"data_field,omitempty"`
	DataFieldType  string     `json:"data_field_type,omitempty"`
}

// SyntheticIdentifier generates tickers of the form <CCY><TYPE><TENOR>.
func SyntheticIdentifier(currency, instrumentType, scheme string) Provider {
	return Provider{Kind: KindSynthetic, Currency: currency, InstrumentType: instrumentType, Scheme: scheme}
}

// SyntheticFuture generates future tickers from a contract code.
func SyntheticFuture(code string) Provider {
	return Provider{Kind: KindSyntheticFuture, FutureCode: code}
}

// Static always resolves to the same identifier.
func Static(id ExternalID, dataField, dataFieldType string) Provider {
	return Provider{Kind: KindStatic, Identifier: id, DataField: dataField, DataFieldType: dataFieldType}
}

// Validate checks that the fields required by the variant are present.
func (p Provider) Validate() error {
	switch p.Kind {
	case KindSynthetic:
		if p.Currency == "" || p.InstrumentType == "" || p.Scheme == "" {
			return fmt.Errorf("synthetic provider requires currency, instrument_type and scheme")
		}
	case KindSyntheticFuture:
		if p.FutureCode == "" {
			return fmt.Errorf("synthetic future provider requires future_code")
		}
	case KindStatic:
		if p.Identifier.Scheme == "" || p.Identifier.Value == "" {
			return fmt.Errorf("static provider requires identifier")
		}
	default:
		return fmt.Errorf("unknown provider kind %q", p.Kind)
	}
	return nil
}

// Resolve returns the identifier for t. Resolution is local and
// deterministic; market-date rolling of futures is not modelled.
func (p Provider) Resolve(t tenor.Tenor) ExternalID {
	switch p.Kind {
	case KindSynthetic:
		return ExternalID{Scheme: p.Scheme, Value: p.Currency + p.InstrumentType + t.String()}
	case KindSyntheticFuture:
		return ExternalID{Scheme: SchemeSyntheticTicker, Value: p.FutureCode + t.String()}
	default:
		return p.Identifier
	}
}

func (p Provider) String() string {
	switch p.Kind {
	case KindSynthetic:
		return fmt.Sprintf("synthetic(%s,%s,%s)", p.Currency, p.InstrumentType, p.Scheme)
	case KindSyntheticFuture:
		return fmt.Sprintf("future(%s)", p.FutureCode)
	default:
		return fmt.Sprintf("static(%s)", p.Identifier)
	}
}

// ProviderMap maps tenors to providers. A nil map means "no data".
type ProviderMap map[tenor.Tenor]Provider

// UnmarshalJSON decodes tenor keys and rejects two keys naming the same
// period ("12M" and "1Y").
func (m *ProviderMap) UnmarshalJSON(b []byte) error {
	var raw map[string]Provider
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	out := make(ProviderMap, len(raw))
	seen := make(map[tenor.Tenor]string, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		t, err := tenor.Parse(key)
		if err != nil {
			return err
		}
		if prev, dup := seen[t]; dup {
			return fmt.Errorf("duplicate tenor %s: keys %q and %q", t, prev, key)
		}
		seen[t] = key
		out[t] = raw[key]
	}
	*m = out
	return nil
}

// SortedTenors returns the keys in tenor order.
func (m ProviderMap) SortedTenors() []tenor.Tenor {
	return slices.SortedFunc(maps.Keys(m), tenor.Compare)
}

// Clone returns an independent copy; nil stays nil.
func (m ProviderMap) Clone() ProviderMap {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Equal reports structural equality. Nil and empty maps are equal.
func (m ProviderMap) Equal(other ProviderMap) bool {
	return maps.Equal(m, other)
}

// Lookup resolves the provider at t.
func (m ProviderMap) Lookup(t tenor.Tenor) (ExternalID, bool) {
	p, ok := m[t]
	if !ok {
		return ExternalID{}, false
	}
	return p.Resolve(t), true
}
