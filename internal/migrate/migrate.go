// Package migrate drives the one-way migration of legacy curve configuration
// into the target model. It reads calculation configs from a repository,
// emits curve construction configurations and interpolated curve
// definitions, and finally folds every identifier source it touched into
// node id mappers.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/curvemigrate/internal/config"
	"github.com/roach88/curvemigrate/internal/convert"
	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/store"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// Target record kinds.
const (
	KindCurveConstructionConfiguration = "CurveConstructionConfiguration"
	KindInterpolatedCurveDefinition    = "InterpolatedCurveDefinition"
	KindNodeIDMapper                   = "CurveNodeIdMapper"
)

// Lookup finds stored records by kind and name pattern.
type Lookup interface {
	Find(ctx context.Context, kind, pattern string, sel store.VersionSelector) ([]store.Record, error)
}

// Store persists target records by name.
type Store interface {
	StoreByName(ctx context.Context, kind, name string, value any) (store.WriteResult, error)
}

// RunRecorder is implemented by stores that keep a run log. When the Store
// passed to New implements it, Run records its summary at the end.
type RunRecorder interface {
	RecordRun(ctx context.Context, kind string, summary any) (store.Run, error)
}

// Migrator converts every calculation config found through its Lookup.
type Migrator struct {
	lookup Lookup
	store  Store
	cfg    config.Config
	logger *slog.Logger

	definitions *convert.DefinitionConverter
	aggregator  *convert.Aggregator
}

// New returns a migrator reading from lookup and writing to st. A nil logger
// uses slog.Default().
func New(lookup Lookup, st Store, cfg config.Config, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	nodes := convert.NewNodeConverters(cfg.Migration.MapperRenames)
	return &Migrator{
		lookup:      lookup,
		store:       st,
		cfg:         cfg,
		logger:      logger,
		definitions: convert.NewDefinitionConverter(nodes),
		aggregator:  convert.NewAggregator(convert.DefaultPopulators(), logger),
	}
}

// run holds the state of one Run call.
type run struct {
	*Migrator
	report *Report
	// sources collected per currency, keyed by remapped base name.
	sources map[string]map[string]legacy.IdentifierSource
}

// Run migrates every calculation config. Per-record problems are collected
// in the report and never stop the batch; Run only returns an error when
// the calculation configs cannot be listed, the context is cancelled or the
// run summary cannot be recorded.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	r := &run{
		Migrator: m,
		report:   &Report{Written: []store.WriteResult{}},
		sources:  make(map[string]map[string]legacy.IdentifierSource),
	}

	records, err := m.lookup.Find(ctx, legacy.KindCalculationConfig, "*", store.Latest)
	if err != nil {
		return nil, fmt.Errorf("list calculation configs: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		var calc legacy.CalculationConfig
		if err := rec.Decode(&calc); err != nil {
			r.fail(legacy.KindCalculationConfig, rec.Name, "", err)
			continue
		}
		r.report.Configs++
		r.migrateCalculation(ctx, calc)
	}

	if err := ctx.Err(); err != nil {
		return r.report, err
	}
	r.aggregate(ctx)

	if rec, ok := m.store.(RunRecorder); ok {
		if _, err := rec.RecordRun(ctx, store.RunMigrate, r.report.Summary()); err != nil {
			return r.report, fmt.Errorf("record run: %w", err)
		}
	}
	return r.report, nil
}

// ConstructionName trims a calculation config name at the first "Config".
func ConstructionName(calcName string) string {
	if i := strings.Index(calcName, "Config"); i >= 0 {
		return calcName[:i]
	}
	return calcName
}

// CurveName is the target name of a legacy curve: its remapped name followed
// by the currency.
func (m *Migrator) CurveName(legacyName, currency string) string {
	if renamed, ok := m.cfg.Migration.CurveRenames[legacyName]; ok {
		legacyName = renamed
	}
	return legacyName + " " + currency
}

var digits = regexp.MustCompile(`\d+`)

// IborTenor is the tenor an ibor curve projects: the first run of digits in
// its name read as months, or 3M for USD and CAD and 6M elsewhere. A digit
// run of zero ("FORWARD_0M") is not a tenor and falls back the same way.
func IborTenor(curveName, currency string) tenor.Tenor {
	if d := digits.FindString(curveName); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			return tenor.OfMonths(n)
		}
	}
	switch currency {
	case "USD", "CAD":
		return tenor.ThreeMonths
	default:
		return tenor.SixMonths
	}
}

func (r *run) migrateCalculation(ctx context.Context, calc legacy.CalculationConfig) {
	name := ConstructionName(calc.Name)
	ccy := calc.Target
	log := r.logger.With("config", calc.Name, "currency", ccy)
	log.Info("migrating calculation config", "curves", len(calc.CurveNames), "method", calc.Method)

	roles, ok := r.assignRoles(ctx, calc, log)
	if !ok {
		return
	}

	construction := curve.CurveConstructionConfiguration{
		Name:      name,
		Groups:    []curve.CurveGroupConfiguration{{Order: 0, Curves: roles}},
		Exogenous: append([]string(nil), calc.Exogenous...),
	}
	r.write(ctx, KindCurveConstructionConfiguration, name, construction, calc.Name)

	switch calc.Method {
	case legacy.MethodPresentValue, legacy.MethodParRate:
		for _, curveName := range calc.CurveNames {
			r.convertCurve(ctx, calc, curveName, log)
		}
	case legacy.MethodFXImplied:
		for _, curveName := range calc.CurveNames {
			r.reportFXForwards(ctx, calc, curveName, log)
		}
	default:
		r.fail(legacy.KindCalculationConfig, calc.Name, calc.Name,
			fmt.Errorf("unknown calculation method %q", calc.Method))
	}
}

// assignRoles builds the role map of the single curve group. Configs with
// more than two curves are skipped.
func (r *run) assignRoles(ctx context.Context, calc legacy.CalculationConfig, log *slog.Logger) (map[string][]curve.TypeConfiguration, bool) {
	ccy := calc.Target
	funding := func() []curve.TypeConfiguration {
		roles := []curve.TypeConfiguration{curve.Discounting{Reference: ccy}}
		if ref, ok := r.cfg.OvernightReference(ccy); ok {
			roles = append(roles, curve.Overnight{Convention: ref})
		} else {
			log.Warn("no overnight reference for currency")
		}
		return roles
	}

	roles := make(map[string][]curve.TypeConfiguration)
	switch len(calc.CurveNames) {
	case 1:
		only := calc.CurveNames[0]
		list := funding()
		if ibor, ok := r.iborRole(ctx, calc, only, log); ok {
			list = append(list, ibor)
		}
		roles[r.CurveName(only, ccy)] = list
	case 2:
		first, second := calc.CurveNames[0], calc.CurveNames[1]
		roles[r.CurveName(first, ccy)] = funding()
		list := []curve.TypeConfiguration{}
		if ibor, ok := r.iborRole(ctx, calc, second, log); ok {
			list = append(list, ibor)
		}
		roles[r.CurveName(second, ccy)] = list
	default:
		reason := fmt.Sprintf("cannot assign roles to %d curves", len(calc.CurveNames))
		log.Error("skipping calculation config", "reason", reason)
		r.report.Skipped = append(r.report.Skipped, Problem{
			Kind:   legacy.KindCalculationConfig,
			Name:   calc.Name,
			Config: calc.Name,
			Reason: reason,
		})
		return nil, false
	}
	return roles, true
}

// iborRole finds the ibor index a curve projects by locating the strip of
// its yield curve definition at the ibor tenor and resolving that strip's
// identifier source.
func (r *run) iborRole(ctx context.Context, calc legacy.CalculationConfig, curveName string, log *slog.Logger) (curve.Ibor, bool) {
	ccy := calc.Target
	at := IborTenor(curveName, ccy)
	log = log.With("curve", curveName, "tenor", at.String())

	ycds, err := r.find(ctx, legacy.KindYieldCurveDefinition, curveName+"_"+ccy)
	if err != nil {
		log.Error("ibor lookup failed", "error", err)
		return curve.Ibor{}, false
	}
	for _, rec := range ycds {
		var ycd legacy.YieldCurveDefinition
		if err := rec.Decode(&ycd); err != nil {
			log.Error("ibor lookup failed", "error", err)
			continue
		}
		for _, strip := range ycd.Strips {
			if strip.Tenor != at {
				continue
			}
			srcs, err := r.find(ctx, legacy.KindIdentifierSource, strip.Convention+"_"+ccy)
			if err != nil {
				log.Error("ibor lookup failed", "error", err)
				continue
			}
			for _, srec := range srcs {
				var src legacy.IdentifierSource
				if err := srec.Decode(&src); err != nil {
					log.Error("ibor lookup failed", "error", err)
					continue
				}
				if id, ok := src.IborID(ccy, at); ok {
					return curve.Ibor{Convention: id, Tenor: at}, true
				}
			}
		}
	}
	log.Warn("no ibor index found, curve gets no ibor role")
	return curve.Ibor{}, false
}

// convertCurve converts the yield curve definitions of one curve and
// collects the identifier sources their strips reference.
func (r *run) convertCurve(ctx context.Context, calc legacy.CalculationConfig, curveName string, log *slog.Logger) {
	ccy := calc.Target
	ycdName := curveName + "_" + ccy
	records, err := r.find(ctx, legacy.KindYieldCurveDefinition, ycdName)
	if err != nil {
		r.fail(legacy.KindYieldCurveDefinition, ycdName, calc.Name, err)
		return
	}
	if len(records) == 0 {
		r.missing(legacy.KindYieldCurveDefinition, ycdName, calc.Name, log)
		return
	}

	for _, rec := range records {
		var ycd legacy.YieldCurveDefinition
		if err := rec.Decode(&ycd); err != nil {
			r.fail(legacy.KindYieldCurveDefinition, rec.Name, calc.Name, err)
			continue
		}
		sources := r.collectSources(ctx, calc, ycd, log)

		target := r.CurveName(curveName, ccy)
		def, err := r.definitions.Convert(target, ccy, ycd, sources)
		if err != nil {
			log.Error("curve definition not converted", "curve", rec.Name, "error", err)
			r.fail(legacy.KindYieldCurveDefinition, rec.Name, calc.Name, err)
			continue
		}
		r.write(ctx, KindInterpolatedCurveDefinition, def.Name, def, calc.Name)
	}
}

// collectSources resolves the identifier source of every convention used by
// ycd and remembers it for the currency's mapper aggregation.
func (r *run) collectSources(ctx context.Context, calc legacy.CalculationConfig, ycd legacy.YieldCurveDefinition, log *slog.Logger) map[string]*legacy.IdentifierSource {
	ccy := calc.Target
	sources := make(map[string]*legacy.IdentifierSource)
	for _, strip := range ycd.Strips {
		conv := strip.Convention
		if _, seen := sources[conv]; seen {
			continue
		}
		sources[conv] = nil

		name := conv + "_" + ccy
		records, err := r.find(ctx, legacy.KindIdentifierSource, name)
		if err != nil {
			r.fail(legacy.KindIdentifierSource, name, calc.Name, err)
			continue
		}
		if len(records) == 0 {
			r.missing(legacy.KindIdentifierSource, name, calc.Name, log)
			continue
		}
		for _, rec := range records {
			var src legacy.IdentifierSource
			if err := rec.Decode(&src); err != nil {
				r.fail(legacy.KindIdentifierSource, rec.Name, calc.Name, err)
				continue
			}
			sources[conv] = &src
			r.collect(ccy, rec.Name, src)
		}
	}
	for conv, src := range sources {
		if src == nil {
			delete(sources, conv)
		}
	}
	return sources
}

func (r *run) collect(ccy, recordName string, src legacy.IdentifierSource) {
	original := legacy.BaseName(recordName)
	if renamed, ok := r.cfg.Migration.MapperRenames[original]; ok {
		original = renamed
	}
	bucket, ok := r.sources[ccy]
	if !ok {
		bucket = make(map[string]legacy.IdentifierSource)
		r.sources[ccy] = bucket
	}
	bucket[original] = src
}

// reportFXForwards logs the FX forward definitions an FX-implied config
// references. They have no target counterpart.
func (r *run) reportFXForwards(ctx context.Context, calc legacy.CalculationConfig, curveName string, log *slog.Logger) {
	name := curveName + "_" + calc.Target
	records, err := r.find(ctx, legacy.KindFXForwardDefinition, name)
	if err != nil {
		r.fail(legacy.KindFXForwardDefinition, name, calc.Name, err)
		return
	}
	if len(records) == 0 {
		r.missing(legacy.KindFXForwardDefinition, name, calc.Name, log)
		return
	}
	for _, rec := range records {
		log.Error("FX forward curve definition not converted", "definition", rec.Name)
		r.report.Gaps = append(r.report.Gaps, Gap{Config: calc.Name, Name: rec.Name})
	}
}

// aggregate folds the collected sources of every currency into mappers.
func (r *run) aggregate(ctx context.Context) {
	currencies := make([]string, 0, len(r.sources))
	for ccy := range r.sources {
		currencies = append(currencies, ccy)
	}
	sort.Strings(currencies)

	for _, ccy := range currencies {
		sources := r.sources[ccy]
		mappers, agg := r.aggregator.ConvertAll(ccy, sources)
		r.logger.Info("aggregated identifier sources", "currency", ccy, "sources", len(sources), "mappers", len(mappers))
		r.report.Mappers = append(r.report.Mappers, mapperStats(ccy, len(sources), len(mappers), agg))
		for _, m := range mappers {
			r.write(ctx, KindNodeIDMapper, m.Name, m, "")
		}
	}
}

func (r *run) find(ctx context.Context, kind, name string) ([]store.Record, error) {
	return r.lookup.Find(ctx, kind, name, store.Latest)
}

func (r *run) write(ctx context.Context, kind, name string, value any, calcName string) {
	res, err := r.store.StoreByName(ctx, kind, name, value)
	if err != nil {
		r.logger.Error("store failed", "kind", kind, "name", name, "error", err)
		r.fail(kind, name, calcName, err)
		return
	}
	r.logger.Debug("stored", "kind", kind, "name", name, "version", res.Version, "status", res.Status)
	r.report.Written = append(r.report.Written, res)
}

func (r *run) fail(kind, name, calcName string, err error) {
	r.report.Failures = append(r.report.Failures, Problem{Kind: kind, Name: name, Config: calcName, Reason: err.Error()})
}

func (r *run) missing(kind, name, calcName string, log *slog.Logger) {
	log.Warn("companion record not found", "kind", kind, "name", name)
	r.report.Missing = append(r.report.Missing, Problem{
		Kind:   kind,
		Name:   name,
		Config: calcName,
		Reason: "not found",
	})
}
