package legacy

import (
	"fmt"
	"strings"

	"github.com/roach88/curvemigrate/internal/tenor"
)

// StripType tags the instrument a strip is built from.
type StripType string

const (
	Cash                  StripType = "Cash"
	Libor                 StripType = "Libor"
	Euribor               StripType = "Euribor"
	Cdor                  StripType = "Cdor"
	Cibor                 StripType = "Cibor"
	Stibor                StripType = "Stibor"
	Fra3m                 StripType = "Fra3m"
	Fra6m                 StripType = "Fra6m"
	Future                StripType = "Future"
	BankersAcceptance     StripType = "BankersAcceptance"
	OisSwap               StripType = "OisSwap"
	Swap3m                StripType = "Swap3m"
	Swap6m                StripType = "Swap6m"
	Swap12m               StripType = "Swap12m"
	Swap28d               StripType = "Swap28d"
	TenorSwap             StripType = "TenorSwap"
	BasisSwap             StripType = "BasisSwap"
	ContinuousZeroDeposit StripType = "ContinuousZeroDeposit"
	PeriodicZeroDeposit   StripType = "PeriodicZeroDeposit"
	SimpleZeroDeposit     StripType = "SimpleZeroDeposit"
	Spread                StripType = "Spread"
	Fra                   StripType = "Fra"
	Swap                  StripType = "Swap"
)

// StripTypes lists every tag in declaration order.
var StripTypes = []StripType{
	Cash, Libor, Euribor, Cdor, Cibor, Stibor, Fra3m, Fra6m, Future,
	BankersAcceptance, OisSwap, Swap3m, Swap6m, Swap12m, Swap28d, TenorSwap,
	BasisSwap, ContinuousZeroDeposit, PeriodicZeroDeposit, SimpleZeroDeposit,
	Spread, Fra, Swap,
}

// legacyStripNames maps the upper-snake spelling used by older exports.
var legacyStripNames = map[string]StripType{
	"CASH":                    Cash,
	"LIBOR":                   Libor,
	"EURIBOR":                 Euribor,
	"CDOR":                    Cdor,
	"CIBOR":                   Cibor,
	"STIBOR":                  Stibor,
	"FRA_3M":                  Fra3m,
	"FRA_6M":                  Fra6m,
	"FUTURE":                  Future,
	"BANKERS_ACCEPTANCE":      BankersAcceptance,
	"OIS_SWAP":                OisSwap,
	"SWAP_3M":                 Swap3m,
	"SWAP_6M":                 Swap6m,
	"SWAP_12M":                Swap12m,
	"SWAP_28D":                Swap28d,
	"TENOR_SWAP":              TenorSwap,
	"BASIS_SWAP":              BasisSwap,
	"CONTINUOUS_ZERO_DEPOSIT": ContinuousZeroDeposit,
	"PERIODIC_ZERO_DEPOSIT":   PeriodicZeroDeposit,
	"SIMPLE_ZERO_DEPOSIT":     SimpleZeroDeposit,
	"SPREAD":                  Spread,
	"FRA":                     Fra,
	"SWAP":                    Swap,
}

// ParseStripType accepts either the tag ("Fra3m") or the upper-snake
// spelling ("FRA_3M").
func ParseStripType(s string) (StripType, error) {
	for _, st := range StripTypes {
		if string(st) == s {
			return st, nil
		}
	}
	if st, ok := legacyStripNames[strings.ToUpper(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown strip instrument type %q", s)
}

// IsFutureStyle reports whether the strip carries a future count.
func (t StripType) IsFutureStyle() bool {
	return t == Future || t == BankersAcceptance
}

// IsBasisStyle reports whether the strip carries pay/receive legs.
func (t StripType) IsBasisStyle() bool {
	return t == BasisSwap || t == TenorSwap
}

// IndexType names the floating index of a basis swap leg.
type IndexType string

const (
	IndexLibor   IndexType = "Libor"
	IndexEuribor IndexType = "Euribor"
	IndexTibor   IndexType = "Tibor"
	IndexBBSW    IndexType = "BBSW"
	IndexSwap    IndexType = "Swap"
)

// ParseIndexType is case-insensitive.
func ParseIndexType(s string) (IndexType, error) {
	for _, it := range []IndexType{IndexLibor, IndexEuribor, IndexTibor, IndexBBSW, IndexSwap} {
		if strings.EqualFold(string(it), s) {
			return it, nil
		}
	}
	return "", fmt.Errorf("unknown index type %q", s)
}

// LegName is the token used in leg convention names: ibor-style indices share
// the "Ibor" leg, others use their own name.
func (i IndexType) LegName() string {
	switch i {
	case IndexLibor, IndexEuribor, IndexTibor:
		return "Ibor"
	default:
		return string(i)
	}
}

// Strip is one market-quote point of a legacy yield curve definition.
type Strip struct {
	Type         StripType   `json:"type"`
	Tenor        tenor.Tenor `json:"tenor"`
	Convention   string      `json:"convention"`
	PayTenor     tenor.Tenor `json:"pay_tenor,omitzero"`
	ReceiveTenor tenor.Tenor `json:"receive_tenor,omitzero"`
	PayIndex     IndexType   `json:"pay_index,omitempty"`
	ReceiveIndex IndexType   `json:"receive_index,omitempty"`
	FutureCount  int         `json:"future_count,omitempty"`
}

// Validate checks the fields that only some strip types carry.
func (s Strip) Validate() error {
	if s.Convention == "" {
		return fmt.Errorf("%s strip at %s: convention name is required", s.Type, s.Tenor)
	}
	if s.Type.IsBasisStyle() {
		if s.PayTenor == tenor.Zero || s.ReceiveTenor == tenor.Zero {
			return fmt.Errorf("%s strip at %s: pay and receive tenors are required", s.Type, s.Tenor)
		}
		if s.PayIndex == "" || s.ReceiveIndex == "" {
			return fmt.Errorf("%s strip at %s: pay and receive index types are required", s.Type, s.Tenor)
		}
	}
	if s.Type.IsFutureStyle() && s.FutureCount <= 0 {
		return fmt.Errorf("%s strip at %s: future count must be positive", s.Type, s.Tenor)
	}
	return nil
}

func (s Strip) String() string {
	return fmt.Sprintf("%s %s (%s)", s.Type, s.Tenor, s.Convention)
}
