package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/curvemigrate/internal/config"
	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/store"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// fakeRepo is an in-memory Lookup and Store. Target writes keep the Go value
// so tests can type-assert them.
type fakeRepo struct {
	records  map[string]map[string]any
	written  map[string]map[string]any
	order    []string
	findErr  map[string]error
	storeErr map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records:  map[string]map[string]any{},
		written:  map[string]map[string]any{},
		findErr:  map[string]error{},
		storeErr: map[string]error{},
	}
}

func (f *fakeRepo) put(kind, name string, v any) {
	if f.records[kind] == nil {
		f.records[kind] = map[string]any{}
	}
	f.records[kind][name] = v
}

func (f *fakeRepo) Find(_ context.Context, kind, pattern string, _ store.VersionSelector) ([]store.Record, error) {
	if err := f.findErr[kind+"/"+pattern]; err != nil {
		return nil, err
	}
	var names []string
	for name := range f.records[kind] {
		if pattern == "*" || pattern == name {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := []store.Record{}
	for _, name := range names {
		payload, err := json.Marshal(f.records[kind][name])
		if err != nil {
			return nil, err
		}
		out = append(out, store.Record{Kind: kind, Name: name, Version: 1, Payload: payload})
	}
	return out, nil
}

func (f *fakeRepo) StoreByName(_ context.Context, kind, name string, value any) (store.WriteResult, error) {
	if err := f.storeErr[kind+"/"+name]; err != nil {
		return store.WriteResult{}, err
	}
	if f.written[kind] == nil {
		f.written[kind] = map[string]any{}
	}
	f.written[kind][name] = value
	f.order = append(f.order, kind+"/"+name)
	return store.WriteResult{Kind: kind, Name: name, Version: 1, Status: store.StatusCreated}, nil
}

// recordingRepo also keeps a run log.
type recordingRepo struct {
	*fakeRepo
	summaries []any
	err       error
}

func (r *recordingRepo) RecordRun(_ context.Context, kind string, summary any) (store.Run, error) {
	if r.err != nil {
		return store.Run{}, r.err
	}
	r.summaries = append(r.summaries, summary)
	return store.Run{ID: "run-1", Kind: kind}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func usdSource() legacy.IdentifierSource {
	synth := func(typ string) ident.Provider {
		return ident.SyntheticIdentifier("USD", typ, ident.SchemeSyntheticTicker)
	}
	return legacy.IdentifierSource{
		Name:    "DEFAULT_USD",
		Cash:    ident.ProviderMap{tenor.Overnight: synth("CASH")},
		Libor:   ident.ProviderMap{tenor.ThreeMonths: synth("LIBOR")},
		OisSwap: ident.ProviderMap{tenor.OneYear: synth("OIS_SWAP")},
		Swap3m:  ident.ProviderMap{tenor.OfYears(2): synth("SWAP")},
	}
}

func ycd(name, ccy string, strips ...legacy.Strip) legacy.YieldCurveDefinition {
	return legacy.YieldCurveDefinition{
		Name:              name,
		Currency:          ccy,
		Strips:            strips,
		Interpolator:      "DoubleQuadratic",
		LeftExtrapolator:  "LinearExtrapolator",
		RightExtrapolator: "FlatExtrapolator",
	}
}

// usdRepo holds a two-curve USD setup: FUNDING (cash and OIS) and
// FORWARD_3M (libor and 3m swaps).
func usdRepo() *fakeRepo {
	f := newFakeRepo()
	f.put(legacy.KindIdentifierSource, "DEFAULT_USD", usdSource())
	f.put(legacy.KindYieldCurveDefinition, "FUNDING_USD", ycd("FUNDING_USD", "USD",
		legacy.Strip{Type: legacy.Cash, Tenor: tenor.Overnight, Convention: "DEFAULT"},
		legacy.Strip{Type: legacy.OisSwap, Tenor: tenor.OneYear, Convention: "DEFAULT"},
	))
	f.put(legacy.KindYieldCurveDefinition, "FORWARD_3M_USD", ycd("FORWARD_3M_USD", "USD",
		legacy.Strip{Type: legacy.Libor, Tenor: tenor.ThreeMonths, Convention: "DEFAULT"},
		legacy.Strip{Type: legacy.Swap3m, Tenor: tenor.OfYears(2), Convention: "DEFAULT"},
	))
	return f
}

func calc(name, target string, method legacy.CalculationMethod, curves ...string) legacy.CalculationConfig {
	return legacy.CalculationConfig{Name: name, Target: target, CurveNames: curves, Method: method}
}

func run(t *testing.T, f Lookup, st Store) *Report {
	t.Helper()
	report, err := New(f, st, config.Defaults(), discard()).Run(context.Background())
	require.NoError(t, err)
	return report
}

func construction(t *testing.T, f *fakeRepo, name string) curve.CurveConstructionConfiguration {
	t.Helper()
	v, ok := f.written[KindCurveConstructionConfiguration][name]
	require.True(t, ok, "construction %q not written", name)
	return v.(curve.CurveConstructionConfiguration)
}

func TestConstructionName(t *testing.T) {
	assert.Equal(t, "DefaultTwoCurveUSD", ConstructionName("DefaultTwoCurveUSDConfig"))
	assert.Equal(t, "Default", ConstructionName("DefaultConfigConfig"))
	assert.Equal(t, "Plain", ConstructionName("Plain"))
}

func TestIborTenor(t *testing.T) {
	tests := []struct {
		curve, ccy string
		want       tenor.Tenor
	}{
		{"FORWARD_3M", "USD", tenor.ThreeMonths},
		{"FORWARD_6M", "USD", tenor.SixMonths},
		{"FORWARD_12M", "EUR", tenor.OfMonths(12)},
		{"FORWARD", "USD", tenor.ThreeMonths},
		{"FORWARD", "CAD", tenor.ThreeMonths},
		{"FORWARD", "EUR", tenor.SixMonths},
		{"SINGLE", "GBP", tenor.SixMonths},
		{"FORWARD_0M", "USD", tenor.ThreeMonths},
		{"FORWARD_0M", "EUR", tenor.SixMonths},
	}
	for _, tt := range tests {
		t.Run(tt.curve+"_"+tt.ccy, func(t *testing.T) {
			assert.Equal(t, tt.want, IborTenor(tt.curve, tt.ccy))
		})
	}
}

func TestCurveNameRemaps(t *testing.T) {
	m := New(newFakeRepo(), newFakeRepo(), config.Defaults(), discard())
	assert.Equal(t, "Single EUR", m.CurveName("SECONDARY", "EUR"))
	assert.Equal(t, "FUNDING USD", m.CurveName("FUNDING", "USD"))
}

func TestRun_TwoCurves(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))

	report := run(t, f, f)
	assert.True(t, report.OK(), "%+v", report)
	assert.Equal(t, 1, report.Configs)
	assert.Empty(t, report.Missing)

	c := construction(t, f, "DefaultTwoCurveUSD")
	require.Len(t, c.Groups, 1)
	assert.Equal(t, 0, c.Groups[0].Order)
	assert.Equal(t, []string{"FORWARD_3M USD", "FUNDING USD"}, c.Groups[0].CurveNames())

	usdff, _ := config.Defaults().OvernightReference("USD")
	assert.Equal(t, []curve.TypeConfiguration{
		curve.Discounting{Reference: "USD"},
		curve.Overnight{Convention: usdff},
	}, c.Groups[0].Curves["FUNDING USD"], "only the forward curve gets the ibor role")
	assert.Equal(t, []curve.TypeConfiguration{
		curve.Ibor{Convention: ident.NewExternalID(ident.SchemeSyntheticTicker, "USDLIBOR3M"), Tenor: tenor.ThreeMonths},
	}, c.Groups[0].Curves["FORWARD_3M USD"])

	assert.ElementsMatch(t, []string{"FUNDING USD", "FORWARD_3M USD"},
		report.WrittenNames(KindInterpolatedCurveDefinition))
	def := f.written[KindInterpolatedCurveDefinition]["FUNDING USD"].(curve.InterpolatedCurveDefinition)
	assert.Len(t, def.Nodes, 2)
	assert.Equal(t, "DoubleQuadratic", def.Interpolator)

	assert.ElementsMatch(t, []string{"DEFAULT USD", "DEFAULT 3m USD", "DEFAULT Libor USD"},
		report.WrittenNames(KindNodeIDMapper))
	require.Len(t, report.Mappers, 1)
	assert.Equal(t, "USD", report.Mappers[0].Currency)
	assert.Equal(t, 1, report.Mappers[0].Sources)

	// Mappers are written after every construction and definition.
	assert.Equal(t, KindCurveConstructionConfiguration+"/DefaultTwoCurveUSD", f.order[0])
	assert.Contains(t, f.order[len(f.order)-1], KindNodeIDMapper+"/")
}

func TestRun_SingleCurve(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindCalculationConfig, "SingleUSDConfig",
		calc("SingleUSDConfig", "USD", legacy.MethodParRate, "FORWARD_3M"))

	report := run(t, f, f)
	assert.True(t, report.OK())

	c := construction(t, f, "SingleUSD")
	roles := c.Groups[0].Curves["FORWARD_3M USD"]
	require.Len(t, roles, 3)
	assert.Equal(t, "discounting", roles[0].Role())
	assert.Equal(t, "overnight", roles[1].Role())
	assert.Equal(t, "ibor", roles[2].Role())
}

func TestRun_NoIborMatch(t *testing.T) {
	f := usdRepo()
	// FUNDING has no strip at the 3M default tenor.
	f.put(legacy.KindCalculationConfig, "FundingOnlyConfig",
		calc("FundingOnlyConfig", "USD", legacy.MethodPresentValue, "FUNDING"))

	run(t, f, f)
	roles := construction(t, f, "FundingOnly").Groups[0].Curves["FUNDING USD"]
	require.Len(t, roles, 2)
	assert.Equal(t, "overnight", roles[1].Role())
}

func TestRun_NoOvernightReference(t *testing.T) {
	f := newFakeRepo()
	f.put(legacy.KindCalculationConfig, "CADConfig", calc("CADConfig", "CAD", legacy.MethodPresentValue, "FUNDING"))

	report := run(t, f, f)
	roles := construction(t, f, "CAD").Groups[0].Curves["FUNDING CAD"]
	assert.Equal(t, []curve.TypeConfiguration{curve.Discounting{Reference: "CAD"}}, roles)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "FUNDING_CAD", report.Missing[0].Name)
}

func TestRun_ThreeCurvesSkippedBatchContinues(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindCalculationConfig, "ATripleConfig",
		calc("ATripleConfig", "USD", legacy.MethodPresentValue, "A", "B", "C"))
	f.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))

	report := run(t, f, f)
	assert.False(t, report.OK())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "ATripleConfig", report.Skipped[0].Name)
	assert.Contains(t, report.Skipped[0].Reason, "3 curves")

	assert.NotContains(t, f.written[KindCurveConstructionConfiguration], "ATriple")
	construction(t, f, "DefaultTwoCurveUSD")
}

func TestRun_FXImpliedProducesNoCurves(t *testing.T) {
	f := newFakeRepo()
	f.put(legacy.KindCalculationConfig, "DefaultFXConfig",
		calc("DefaultFXConfig", "EURUSD", legacy.MethodFXImplied, "FX"))
	f.put(legacy.KindFXForwardDefinition, "FX_EURUSD",
		legacy.FXForwardCurveDefinition{Name: "FX_EURUSD", Tenors: []tenor.Tenor{tenor.OneMonth}})

	report := run(t, f, f)
	assert.Equal(t, []Gap{{Config: "DefaultFXConfig", Name: "FX_EURUSD"}}, report.Gaps)
	assert.Empty(t, f.written[KindInterpolatedCurveDefinition])
	assert.Empty(t, f.written[KindNodeIDMapper])
	construction(t, f, "DefaultFX")
}

func TestRun_MissingCompanions(t *testing.T) {
	f := newFakeRepo()
	f.put(legacy.KindCalculationConfig, "LonelyConfig", calc("LonelyConfig", "USD", legacy.MethodPresentValue, "FUNDING"))
	f.put(legacy.KindYieldCurveDefinition, "FUNDING_USD", ycd("FUNDING_USD", "USD",
		legacy.Strip{Type: legacy.Cash, Tenor: tenor.Overnight, Convention: "ABSENT"},
	))

	report := run(t, f, f)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, Problem{
		Kind:   legacy.KindIdentifierSource,
		Name:   "ABSENT_USD",
		Config: "LonelyConfig",
		Reason: "not found",
	}, report.Missing[0])

	require.Len(t, report.Failures, 1, "the strict driver fails without a source")
	assert.Equal(t, "FUNDING_USD", report.Failures[0].Name)
	assert.Empty(t, f.written[KindInterpolatedCurveDefinition])
}

func TestRun_ConversionFailureRecorded(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindYieldCurveDefinition, "FUNDING_USD", ycd("FUNDING_USD", "USD",
		legacy.Strip{Type: legacy.Cash, Tenor: tenor.Overnight, Convention: "DEFAULT"},
		legacy.Strip{Type: legacy.Spread, Tenor: tenor.OneYear, Convention: "DEFAULT"},
	))
	f.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))

	report := run(t, f, f)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, legacy.KindYieldCurveDefinition, report.Failures[0].Kind)
	assert.Contains(t, report.Failures[0].Reason, "UNSUPPORTED")

	assert.Equal(t, []string{"FORWARD_3M USD"}, report.WrittenNames(KindInterpolatedCurveDefinition))
	assert.NotEmpty(t, report.WrittenNames(KindNodeIDMapper), "sources are still aggregated")
}

func TestRun_LookupAndStoreErrorsRecorded(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))
	f.findErr[legacy.KindYieldCurveDefinition+"/FUNDING_USD"] = errors.New("disk on fire")
	f.storeErr[KindCurveConstructionConfiguration+"/DefaultTwoCurveUSD"] = errors.New("read only")

	report := run(t, f, f)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "DefaultTwoCurveUSD", report.Failures[0].Name)
	assert.Equal(t, "read only", report.Failures[0].Reason)
	assert.Equal(t, "FUNDING_USD", report.Failures[1].Name)
	assert.Equal(t, []string{"FORWARD_3M USD"}, report.WrittenNames(KindInterpolatedCurveDefinition))
}

func TestRun_ListError(t *testing.T) {
	f := newFakeRepo()
	f.findErr[legacy.KindCalculationConfig+"/*"] = errors.New("boom")
	_, err := New(f, f, config.Defaults(), discard()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list calculation configs")
}

func TestRun_Cancelled(t *testing.T) {
	f := usdRepo()
	f.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := New(f, f, config.Defaults(), discard()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, f.order)
}

func TestRun_MapperRenames(t *testing.T) {
	f := newFakeRepo()
	src := usdSource()
	src.Name = "SECONDARY_USD"
	f.put(legacy.KindIdentifierSource, "SECONDARY_USD", src)
	f.put(legacy.KindYieldCurveDefinition, "SECONDARY_USD", ycd("SECONDARY_USD", "USD",
		legacy.Strip{Type: legacy.Cash, Tenor: tenor.Overnight, Convention: "SECONDARY"},
	))
	f.put(legacy.KindCalculationConfig, "SecondaryConfig",
		calc("SecondaryConfig", "USD", legacy.MethodPresentValue, "SECONDARY"))

	report := run(t, f, f)
	assert.True(t, report.OK(), "%+v", report.Failures)

	def := f.written[KindInterpolatedCurveDefinition]["Single USD"].(curve.InterpolatedCurveDefinition)
	require.Len(t, def.Nodes, 1)
	assert.Equal(t, "Default USD", def.Nodes[0].(curve.CashNode).Mapper)
	assert.Contains(t, report.WrittenNames(KindNodeIDMapper), "Default USD")
}

func TestRun_RecordsRunSummary(t *testing.T) {
	repo := &recordingRepo{fakeRepo: usdRepo()}
	repo.put(legacy.KindCalculationConfig, "DefaultTwoCurveUSDConfig",
		calc("DefaultTwoCurveUSDConfig", "USD", legacy.MethodPresentValue, "FUNDING", "FORWARD_3M"))

	report := run(t, repo, repo)
	require.Len(t, repo.summaries, 1)
	summary := repo.summaries[0].(Summary)
	assert.Equal(t, report.Summary(), summary)
	assert.Equal(t, 1, summary.Configs)
	assert.Equal(t, len(report.Written), summary.Created)

	repo.err = errors.New("runs table locked")
	_, err := New(repo, repo, config.Defaults(), discard()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record run")
}
