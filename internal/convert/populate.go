package convert

import (
	"log/slog"

	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/legacy"
)

// Outcome records what one populator did to one mapper.
type Outcome string

const (
	// OutcomeCopied: no source data, the mapper was copied forward.
	OutcomeCopied Outcome = "copied"
	// OutcomeSet: the slot was empty and is now populated.
	OutcomeSet Outcome = "set"
	// OutcomeOverwrote: the slot already held data and was replaced in full.
	OutcomeOverwrote Outcome = "overwrote"
	// OutcomeUnsupported: the strip type has no target slot.
	OutcomeUnsupported Outcome = "unsupported"
)

// SlotAccess reads and writes one mapper slot.
type SlotAccess struct {
	Slot curve.Slot
	Has  func(curve.NodeIDMapper) bool
	Set  func(curve.NodeIDMapper, ident.ProviderMap) curve.NodeIDMapper
}

func slotAccess(s curve.Slot) *SlotAccess {
	return &SlotAccess{
		Slot: s,
		Has:  func(m curve.NodeIDMapper) bool { return m.HasSlot(s) },
		Set:  func(m curve.NodeIDMapper, p ident.ProviderMap) curve.NodeIDMapper { return m.WithSlot(s, p) },
	}
}

// Populator moves one instrument family of an identifier source into one
// mapper slot. Target is nil for strip types that have no slot.
type Populator struct {
	Type    legacy.StripType
	Source  func(*legacy.IdentifierSource) ident.ProviderMap
	Target  *SlotAccess
	Renamer Renamer
}

// Rename computes the target name for name under currency.
func (p Populator) Rename(name, currency string) string {
	return p.Renamer.Rename(name, currency)
}

// Apply folds src into existing. The result is named
// Rename(existing.Name, currency). An absent or empty source map copies
// existing forward; otherwise the populator's slot is replaced in full and
// every other slot is carried over.
func (p Populator) Apply(existing curve.NodeIDMapper, src *legacy.IdentifierSource, currency string, logger *slog.Logger) (string, curve.NodeIDMapper, Outcome) {
	name := p.Rename(existing.Name, currency)
	if p.Target == nil {
		logger.Error("cannot convert strips of type", "type", p.Type, "mapper", name)
		return name, existing.Renamed(name), OutcomeUnsupported
	}

	var providers ident.ProviderMap
	if p.Source != nil && src != nil {
		providers = p.Source(src)
	}
	if len(providers) == 0 {
		return name, existing.Renamed(name), OutcomeCopied
	}

	outcome := OutcomeSet
	if p.Target.Has(existing) {
		logger.Warn("mapper slot already populated, overwriting",
			"mapper", name, "slot", p.Target.Slot, "type", p.Type)
		outcome = OutcomeOverwrote
	}
	return name, p.Target.Set(existing, providers).Renamed(name), outcome
}

// Populators is the registry applied by the aggregation driver, in order.
type Populators []Populator

// DefaultPopulators returns the registry for every strip type. Cdor, Cibor
// and Stibor are bound to their home currency; the other ibor and bucketed
// families are qualified by name.
func DefaultPopulators() Populators {
	cash := slotAccess(curve.SlotCash)
	fra := slotAccess(curve.SlotFRA)
	swap := slotAccess(curve.SlotSwap)
	future := slotAccess(curve.SlotRateFuture)
	cc := slotAccess(curve.SlotContinuouslyCompounded)
	pc := slotAccess(curve.SlotPeriodicallyCompounded)

	return Populators{
		{Type: legacy.BankersAcceptance, Renamer: Default()},
		{Type: legacy.BasisSwap, Target: swap, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.BasisSwap }},
		{Type: legacy.Cash, Target: cash, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Cash }},
		{Type: legacy.Cdor, Target: cash, Renamer: FixedCurrency("CAD", "CDOR"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Cdor }},
		{Type: legacy.Cibor, Target: cash, Renamer: FixedCurrency("DKK", "Cibor"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Cibor }},
		{Type: legacy.ContinuousZeroDeposit, Target: cc, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.ContinuousZero }},
		{Type: legacy.Euribor, Target: cash, Renamer: Default("Euribor"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Euribor }},
		{Type: legacy.Fra, Renamer: Default()},
		{Type: legacy.Fra3m, Target: fra, Renamer: Default("3m"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Fra3m }},
		{Type: legacy.Fra6m, Target: fra, Renamer: Default("6m"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Fra6m }},
		{Type: legacy.Future, Target: future, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Future }},
		{Type: legacy.Libor, Target: cash, Renamer: Default("Libor"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Libor }},
		{Type: legacy.OisSwap, Target: swap, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.OisSwap }},
		{Type: legacy.PeriodicZeroDeposit, Target: pc, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.PeriodicZero }},
		{Type: legacy.SimpleZeroDeposit, Renamer: Default()},
		{Type: legacy.Spread, Renamer: Default()},
		{Type: legacy.Stibor, Target: cash, Renamer: FixedCurrency("SEK", "Stibor"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Stibor }},
		{Type: legacy.Swap, Renamer: Default()},
		{Type: legacy.Swap28d, Target: swap, Renamer: Default("28d"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Swap28d }},
		{Type: legacy.Swap3m, Target: swap, Renamer: Default("3m"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Swap3m }},
		{Type: legacy.Swap6m, Target: swap, Renamer: Default("6m"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Swap6m }},
		{Type: legacy.Swap12m, Target: swap, Renamer: Default("12m"),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.Swap12m }},
		{Type: legacy.TenorSwap, Target: swap, Renamer: Default(),
			Source: func(s *legacy.IdentifierSource) ident.ProviderMap { return s.TenorSwap }},
	}
}

// Lookup returns the populator registered for t.
func (ps Populators) Lookup(t legacy.StripType) (Populator, bool) {
	for _, p := range ps {
		if p.Type == t {
			return p, true
		}
	}
	return Populator{}, false
}
