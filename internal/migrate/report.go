package migrate

import (
	"github.com/roach88/curvemigrate/internal/convert"
	"github.com/roach88/curvemigrate/internal/store"
)

// Problem is one record the migration could not fully convert.
type Problem struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Config string `json:"config,omitempty"` // calculation config being processed
	Reason string `json:"reason"`
}

// Gap is an FX forward curve definition that was found and deliberately
// left unconverted.
type Gap struct {
	Config string `json:"config"`
	Name   string `json:"name"`
}

// MapperStats summarises the aggregation of one currency.
type MapperStats struct {
	Currency    string   `json:"currency"`
	Sources     int      `json:"sources"`
	Mappers     int      `json:"mappers"`
	Overwrites  int      `json:"overwrites"`
	Unsupported int      `json:"unsupported"`
	Pruned      []string `json:"pruned,omitempty"`
}

// Report is the outcome of one migration run. Failures, Skipped, Missing and
// Gaps never stop the batch; they are collected here instead.
type Report struct {
	Configs  int                 `json:"configs"`
	Written  []store.WriteResult `json:"written"`
	Failures []Problem           `json:"failures,omitempty"`
	Skipped  []Problem           `json:"skipped,omitempty"`
	Missing  []Problem           `json:"missing,omitempty"`
	Gaps     []Gap               `json:"gaps,omitempty"`
	Mappers  []MapperStats       `json:"mappers,omitempty"`
}

// OK reports whether every calculation config and curve converted.
func (r *Report) OK() bool {
	return len(r.Failures) == 0 && len(r.Skipped) == 0
}

// Count returns how many writes ended with status s.
func (r *Report) Count(s store.WriteStatus) int {
	n := 0
	for _, w := range r.Written {
		if w.Status == s {
			n++
		}
	}
	return n
}

// WrittenNames returns the names written under kind, in write order.
func (r *Report) WrittenNames(kind string) []string {
	var out []string
	for _, w := range r.Written {
		if w.Kind == kind {
			out = append(out, w.Name)
		}
	}
	return out
}

// Summary is the persisted form of a report.
type Summary struct {
	Configs   int `json:"configs"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failures  int `json:"failures"`
	Skipped   int `json:"skipped"`
	Missing   int `json:"missing"`
	Gaps      int `json:"gaps"`
}

// Summary condenses the report into counts.
func (r *Report) Summary() Summary {
	return Summary{
		Configs:   r.Configs,
		Created:   r.Count(store.StatusCreated),
		Updated:   r.Count(store.StatusUpdated),
		Unchanged: r.Count(store.StatusUnchanged),
		Failures:  len(r.Failures),
		Skipped:   len(r.Skipped),
		Missing:   len(r.Missing),
		Gaps:      len(r.Gaps),
	}
}

func mapperStats(currency string, sources, mappers int, agg *convert.AggregateReport) MapperStats {
	return MapperStats{
		Currency:    currency,
		Sources:     sources,
		Mappers:     mappers,
		Overwrites:  agg.Count(convert.OutcomeOverwrote),
		Unsupported: agg.Count(convert.OutcomeUnsupported),
		Pruned:      agg.Pruned,
	}
}
