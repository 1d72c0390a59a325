package convert

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/legacy"
)

// Step is one populator applied to one source record.
type Step struct {
	Source  string
	Type    legacy.StripType
	Mapper  string
	Outcome Outcome
}

// AggregateReport records every step that did more than copy a mapper
// forward, plus the names of mappers pruned for being empty.
type AggregateReport struct {
	Steps  []Step
	Pruned []string
}

// Count returns how many steps ended with outcome o.
func (r *AggregateReport) Count(o Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// Aggregator folds identifier sources into node id mappers.
type Aggregator struct {
	populators Populators
	logger     *slog.Logger
}

// NewAggregator returns an aggregator over populators. A nil logger uses
// slog.Default().
func NewAggregator(populators Populators, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{populators: slices.Clone(populators), logger: logger}
}

// ConvertAll converts every source for currency. sources is keyed by the
// original (already remapped) source name.
//
// The accumulator is keyed by the renamed target name, so populators whose
// renamers agree merge into one mapper and populators whose renamers differ
// fork. Records are visited in name order, populators in registry order.
// Mappers with no tenors in any slot are dropped. The result is sorted by name.
func (a *Aggregator) ConvertAll(currency string, sources map[string]legacy.IdentifierSource) ([]curve.NodeIDMapper, *AggregateReport) {
	report := &AggregateReport{}
	acc := make(map[string]curve.NodeIDMapper)

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, original := range names {
		src := sources[original]
		for _, p := range a.populators {
			target := p.Rename(original, currency)
			base := curve.NodeIDMapper{Name: original}
			if existing, ok := acc[target]; ok {
				// Reset to the original name so the renamer runs once.
				base = existing.Renamed(original)
			}
			name, mapper, outcome := p.Apply(base, &src, currency, a.logger)
			acc[name] = mapper
			if outcome != OutcomeCopied {
				report.Steps = append(report.Steps, Step{Source: original, Type: p.Type, Mapper: name, Outcome: outcome})
			}
		}
	}

	result := make([]curve.NodeIDMapper, 0, len(acc))
	for name, m := range acc {
		if m.IsEmpty() {
			report.Pruned = append(report.Pruned, name)
			continue
		}
		result = append(result, m)
	}
	sort.Strings(report.Pruned)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	a.logger.Debug("aggregated identifier sources",
		"currency", currency, "sources", len(sources), "mappers", len(result), "pruned", len(report.Pruned))
	return result, report
}
