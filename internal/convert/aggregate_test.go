package convert

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/tenor"
)

var discard = slog.New(slog.DiscardHandler)

func newTestAggregator() *Aggregator {
	return NewAggregator(DefaultPopulators(), discard)
}

func providers(ccy, typ string, tenors ...tenor.Tenor) ident.ProviderMap {
	m := ident.ProviderMap{}
	for _, t := range tenors {
		m[t] = synthetic(ccy, typ)
	}
	return m
}

func TestSingleSlotPopulation(t *testing.T) {
	cash := providers("USD", "CASH", tenor.OneMonth, tenor.ThreeMonths)

	got, _ := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD", Cash: cash},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "DEFAULT USD", got[0].Name)
	assert.True(t, got[0].Cash.Equal(cash))
	for _, s := range curve.Slots {
		if s != curve.SlotCash {
			assert.Empty(t, got[0].Slot(s), "slot %s", s)
		}
	}
}

func TestFixedCurrencyIndependentOfCallCurrency(t *testing.T) {
	cdor := providers("CAD", "CDOR", tenor.OneMonth, tenor.ThreeMonths)
	sources := map[string]legacy.IdentifierSource{"DEFAULT": {Name: "DEFAULT_CAD", Cdor: cdor}}

	asCAD, _ := newTestAggregator().ConvertAll("CAD", sources)
	asUSD, _ := newTestAggregator().ConvertAll("USD", sources)

	require.Len(t, asCAD, 1)
	require.Len(t, asUSD, 1)
	assert.Equal(t, "DEFAULT CDOR CAD", asCAD[0].Name)
	assert.Equal(t, "DEFAULT CDOR CAD", asUSD[0].Name)
	assert.True(t, asCAD[0].Equal(asUSD[0]))
	assert.True(t, asCAD[0].Cash.Equal(cdor))
}

func TestOverwriteIsWholeSlot(t *testing.T) {
	pops := DefaultPopulators()
	libor, ok := pops.Lookup(legacy.Libor)
	require.True(t, ok)
	cdor, ok := pops.Lookup(legacy.Cdor)
	require.True(t, ok)

	a := providers("CAD", "LIBOR", tenor.OneMonth, tenor.ThreeMonths)
	b := providers("CAD", "CDOR", tenor.SixMonths)
	swaps := providers("CAD", "SWAP", tenor.OneYear)

	start := curve.NodeIDMapper{Name: "DEFAULT"}.WithSlot(curve.SlotSwap, swaps)
	name, withA, outcome := libor.Apply(start, &legacy.IdentifierSource{Libor: a}, "CAD", discard)
	assert.Equal(t, "DEFAULT Libor CAD", name)
	assert.Equal(t, OutcomeSet, outcome)
	require.True(t, withA.Cash.Equal(a))

	// Same base name fed back in, now through the Cdor populator.
	name, withB, outcome := cdor.Apply(withA.Renamed("DEFAULT"), &legacy.IdentifierSource{Cdor: b}, "CAD", discard)
	assert.Equal(t, "DEFAULT CDOR CAD", name)
	assert.Equal(t, OutcomeOverwrote, outcome)
	assert.True(t, withB.Cash.Equal(b), "cash must equal B exactly, not A merged with B")
	assert.True(t, withB.Swap.Equal(swaps), "other slots are carried forward")
	assert.True(t, withA.Cash.Equal(a), "prior mapper is not aliased")
}

func TestApplyEmptySourceCopiesForward(t *testing.T) {
	p, ok := DefaultPopulators().Lookup(legacy.Cash)
	require.True(t, ok)

	existing := curve.NodeIDMapper{Name: "DEFAULT"}.WithSlot(curve.SlotFRA, providers("USD", "FRA", tenor.SixMonths))
	for _, src := range []*legacy.IdentifierSource{nil, {}, {Cash: ident.ProviderMap{}}} {
		name, m, outcome := p.Apply(existing, src, "USD", discard)
		assert.Equal(t, "DEFAULT USD", name)
		assert.Equal(t, OutcomeCopied, outcome)
		assert.True(t, m.Equal(existing.Renamed("DEFAULT USD")))
	}
}

func TestApplyNoOpPopulator(t *testing.T) {
	p, ok := DefaultPopulators().Lookup(legacy.BankersAcceptance)
	require.True(t, ok)

	existing := curve.NodeIDMapper{Name: "Name"}.
		WithSlot(curve.SlotCash, providers("USD", "CASH", tenor.OneDay)).
		WithSlot(curve.SlotFRA, providers("USD", "FRA_3M", tenor.OneDay))
	_, m, outcome := p.Apply(existing, &legacy.IdentifierSource{Swap3m: providers("USD", "SWAP_3M", tenor.OneDay)}, "USD", discard)
	assert.Equal(t, OutcomeUnsupported, outcome)
	assert.True(t, m.Cash.Equal(existing.Cash))
	assert.True(t, m.FRA.Equal(existing.FRA))
	assert.Empty(t, m.Swap)
}

func TestIdempotence(t *testing.T) {
	sources := map[string]legacy.IdentifierSource{
		"DEFAULT": {
			Name:    "DEFAULT_USD",
			Cash:    providers("USD", "CASH", tenor.OneMonth),
			Libor:   providers("USD", "LIBOR", tenor.ThreeMonths),
			Swap3m:  providers("USD", "SWAP", tenor.OneYear, tenor.OfYears(2)),
			Fra6m:   providers("USD", "FRA", tenor.OneYear),
			OisSwap: providers("USD", "OIS", tenor.OneYear),
		},
		"FUNDING": {Name: "FUNDING_USD", Cash: providers("USD", "CASH", tenor.Overnight)},
	}

	first, r1 := newTestAggregator().ConvertAll("USD", sources)
	second, r2 := newTestAggregator().ConvertAll("USD", sources)
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]), first[i].Name)
	}
	assert.Equal(t, r1, r2)
}

func TestAllSlotsAbsentIsPruned(t *testing.T) {
	got, report := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD"},
	})
	assert.Empty(t, got)
	assert.Contains(t, report.Pruned, "DEFAULT USD")
}

func TestForkOnDistinctRename(t *testing.T) {
	euribor := providers("EUR", "EURIBOR", tenor.ThreeMonths, tenor.SixMonths)
	libor := providers("EUR", "LIBOR", tenor.ThreeMonths)

	got, _ := newTestAggregator().ConvertAll("EUR", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_EUR", Euribor: euribor, Libor: libor},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "DEFAULT Euribor EUR", got[0].Name)
	assert.True(t, got[0].Cash.Equal(euribor))
	assert.Equal(t, "DEFAULT Libor EUR", got[1].Name)
	assert.True(t, got[1].Cash.Equal(libor))
}

func TestMergeOnIdenticalRename(t *testing.T) {
	cash := providers("USD", "CASH", tenor.OneMonth)
	ois := providers("USD", "OIS", tenor.OneYear, tenor.OfYears(2))

	got, report := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD", Cash: cash, OisSwap: ois},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "DEFAULT USD", got[0].Name)
	assert.True(t, got[0].Cash.Equal(cash))
	assert.True(t, got[0].Swap.Equal(ois))
	assert.Zero(t, report.Count(OutcomeOverwrote))
}

func TestSwapBucketsFork(t *testing.T) {
	got, _ := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {
			Name:    "DEFAULT_USD",
			Swap28d: providers("USD", "SWAP28D", tenor.OneYear),
			Swap3m:  providers("USD", "SWAP3M", tenor.OneYear),
			Swap6m:  providers("USD", "SWAP6M", tenor.OneYear),
			Swap12m: providers("USD", "SWAP12M", tenor.OneYear),
		},
	})

	names := make([]string, len(got))
	for i, m := range got {
		names[i] = m.Name
		assert.Len(t, m.Swap, 1)
	}
	assert.Equal(t, []string{"DEFAULT 12m USD", "DEFAULT 28d USD", "DEFAULT 3m USD", "DEFAULT 6m USD"}, names)
}

func TestBasisAndTenorSwapOverwriteInRegistryOrder(t *testing.T) {
	basis := providers("USD", "BASIS", tenor.OneYear)
	tenorSwap := providers("USD", "TENOR", tenor.OfYears(2))

	got, report := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD", BasisSwap: basis, TenorSwap: tenorSwap},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].Swap.Equal(tenorSwap), "TenorSwap runs after BasisSwap and replaces the slot")
	assert.Equal(t, 1, report.Count(OutcomeOverwrote))
}

func TestIborFamiliesFilteredSilently(t *testing.T) {
	// Cibor data under a USD run still lands in the DKK mapper, no error.
	cibor := providers("DKK", "CIBOR", tenor.ThreeMonths)
	got, report := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD", Cibor: cibor},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "DEFAULT Cibor DKK", got[0].Name)
	assert.Positive(t, report.Count(OutcomeUnsupported))
}

func TestUnsupportedTypesAreNonFatal(t *testing.T) {
	got, report := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {
			Name:       "DEFAULT_USD",
			SimpleZero: providers("USD", "ZERO", tenor.OneYear),
			Cash:       providers("USD", "CASH", tenor.OneMonth),
		},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "DEFAULT USD", got[0].Name)
	assert.Empty(t, got[0].ContinuouslyCompounded)
	// BankersAcceptance, Fra, SimpleZeroDeposit, Spread and Swap are no-ops.
	assert.Equal(t, 5, report.Count(OutcomeUnsupported))
}

func TestZeroDepositSlots(t *testing.T) {
	cc := providers("USD", "CC", tenor.OneYear)
	pc := providers("USD", "PC", tenor.OfYears(2))
	got, _ := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"DEFAULT": {Name: "DEFAULT_USD", ContinuousZero: cc, PeriodicZero: pc, Future: providers("USD", "FUT", tenor.ThreeMonths)},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].ContinuouslyCompounded.Equal(cc))
	assert.True(t, got[0].PeriodicallyCompounded.Equal(pc))
	assert.Len(t, got[0].RateFuture, 1)
}

func TestOutputSortedAcrossSources(t *testing.T) {
	got, _ := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{
		"ZED":     {Name: "ZED_USD", Cash: providers("USD", "CASH", tenor.OneMonth)},
		"ALPHA":   {Name: "ALPHA_USD", Cash: providers("USD", "CASH", tenor.OneMonth)},
		"DEFAULT": {Name: "DEFAULT_USD", Fra3m: providers("USD", "FRA", tenor.SixMonths)},
	})

	names := make([]string, len(got))
	for i, m := range got {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"ALPHA USD", "DEFAULT 3m USD", "ZED USD"}, names)
}

func TestDefaultPopulatorsCoverEveryStripType(t *testing.T) {
	pops := DefaultPopulators()
	assert.Len(t, pops, len(legacy.StripTypes))
	for _, typ := range legacy.StripTypes {
		_, ok := pops.Lookup(typ)
		assert.True(t, ok, "missing populator for %s", typ)
	}
}

// Ibor cash nodes name the tenor-bucket mapper ("DEFAULT 3m USD") while the
// populators put the same providers under the index mapper ("DEFAULT Libor
// USD"). The node's mapper carries no cash slot.
func TestIborCashNodeMapperHasNoCashSlot(t *testing.T) {
	src := iborSource("USD")
	n, err := DefaultNodeConverters().Convert(
		legacy.Strip{Type: legacy.Libor, Tenor: tenor.ThreeMonths, Convention: "DEFAULT"}, "USD", src)
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT 3m USD", n.MapperName())

	mappers, _ := newTestAggregator().ConvertAll("USD", map[string]legacy.IdentifierSource{"DEFAULT": *src})
	byName := map[string]curve.NodeIDMapper{}
	for _, m := range mappers {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "DEFAULT Libor USD")
	assert.True(t, byName["DEFAULT Libor USD"].Slot(curve.SlotCash).Equal(src.Libor))
	assert.False(t, byName[n.MapperName()].HasSlot(curve.SlotCash))
}
