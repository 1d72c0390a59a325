package curve

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// Slot names one of the six node-kind maps of a NodeIDMapper.
type Slot int

const (
	SlotCash Slot = iota
	SlotContinuouslyCompounded
	SlotFRA
	SlotPeriodicallyCompounded
	SlotRateFuture
	SlotSwap
)

// Slots lists every slot in declaration order.
var Slots = []Slot{SlotCash, SlotContinuouslyCompounded, SlotFRA, SlotPeriodicallyCompounded, SlotRateFuture, SlotSwap}

var slotNames = map[Slot]string{
	SlotCash:                   "cash",
	SlotContinuouslyCompounded: "continuously_compounded_rate",
	SlotFRA:                    "fra",
	SlotPeriodicallyCompounded: "periodically_compounded_rate",
	SlotRateFuture:             "rate_future",
	SlotSwap:                   "swap",
}

func (s Slot) String() string {
	if name, ok := slotNames[s]; ok {
		return name
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// NodeIDMapper maps tenors to identifier providers, one map per node kind.
// Values are immutable: WithSlot and Renamed return updated copies and never
// share maps with the receiver.
type NodeIDMapper struct {
	Name                   string            `json:"name"`
	Cash                   ident.ProviderMap `json:"cash,omitempty"`
	ContinuouslyCompounded ident.ProviderMap `json:"continuously_compounded_rate,omitempty"`
	FRA                    ident.ProviderMap `json:"fra,omitempty"`
	PeriodicallyCompounded ident.ProviderMap `json:"periodically_compounded_rate,omitempty"`
	RateFuture             ident.ProviderMap `json:"rate_future,omitempty"`
	Swap                   ident.ProviderMap `json:"swap,omitempty"`
}

func (m *NodeIDMapper) slot(s Slot) *ident.ProviderMap {
	switch s {
	case SlotCash:
		return &m.Cash
	case SlotContinuouslyCompounded:
		return &m.ContinuouslyCompounded
	case SlotFRA:
		return &m.FRA
	case SlotPeriodicallyCompounded:
		return &m.PeriodicallyCompounded
	case SlotRateFuture:
		return &m.RateFuture
	case SlotSwap:
		return &m.Swap
	}
	panic(fmt.Sprintf("unknown mapper slot %d", int(s)))
}

// Slot returns the map held in s; nil when the slot is unset.
func (m NodeIDMapper) Slot(s Slot) ident.ProviderMap {
	return *m.slot(s)
}

// HasSlot reports whether s holds any tenor.
func (m NodeIDMapper) HasSlot(s Slot) bool {
	return len(m.Slot(s)) > 0
}

// clone deep-copies every slot.
func (m NodeIDMapper) clone() NodeIDMapper {
	out := NodeIDMapper{Name: m.Name}
	for _, s := range Slots {
		if src := m.Slot(s); len(src) > 0 {
			*out.slot(s) = src.Clone()
		}
	}
	return out
}

// WithSlot returns a copy with s replaced in full by providers. The previous
// content of s is discarded, never merged.
func (m NodeIDMapper) WithSlot(s Slot, providers ident.ProviderMap) NodeIDMapper {
	out := m.clone()
	*out.slot(s) = providers.Clone()
	return out
}

// Renamed returns a copy carrying name.
func (m NodeIDMapper) Renamed(name string) NodeIDMapper {
	out := m.clone()
	out.Name = name
	return out
}

// AllTenors returns the union of tenors across every slot, sorted.
func (m NodeIDMapper) AllTenors() []tenor.Tenor {
	set := make(map[tenor.Tenor]struct{})
	for _, s := range Slots {
		for t := range m.Slot(s) {
			set[t] = struct{}{}
		}
	}
	return slices.SortedFunc(maps.Keys(set), tenor.Compare)
}

// IsEmpty reports whether no slot holds a tenor.
func (m NodeIDMapper) IsEmpty() bool {
	for _, s := range Slots {
		if m.HasSlot(s) {
			return false
		}
	}
	return true
}

// Equal compares names and every slot structurally.
func (m NodeIDMapper) Equal(other NodeIDMapper) bool {
	if m.Name != other.Name {
		return false
	}
	for _, s := range Slots {
		if !m.Slot(s).Equal(other.Slot(s)) {
			return false
		}
	}
	return true
}
