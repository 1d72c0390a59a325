package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/roach88/curvemigrate/internal/migrate"
)

// ExpectationError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type ExpectationError struct {
	Field    string // expectation that failed
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s", spew.Sdump(e.Expected))
	fmt.Fprintf(&buf, "  Actual: %s", spew.Sdump(e.Actual))
	return buf.String()
}

// EvaluateExpect checks report against expect and returns one message per
// mismatch.
func EvaluateExpect(report *migrate.Report, expect Expect) []string {
	var errs []string
	check := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	check(expectNames("constructions", expect.Constructions, report.WrittenNames(migrate.KindCurveConstructionConfiguration)))
	check(expectNames("curves", expect.Curves, report.WrittenNames(migrate.KindInterpolatedCurveDefinition)))
	check(expectNames("mappers", expect.Mappers, report.WrittenNames(migrate.KindNodeIDMapper)))

	check(expectCount("failures", expect.Failures, len(report.Failures)))
	check(expectCount("skipped", expect.Skipped, len(report.Skipped)))
	check(expectCount("missing", expect.Missing, len(report.Missing)))
	check(expectCount("gaps", expect.Gaps, len(report.Gaps)))
	return errs
}

// expectNames compares names as sets. A nil expectation is not checked.
func expectNames(field string, want, got []string) error {
	if want == nil {
		return nil
	}
	w := sortedUnique(want)
	g := sortedUnique(got)
	if slices.Equal(w, g) {
		return nil
	}
	return &ExpectationError{Field: field, Expected: w, Actual: g}
}

func expectCount(field string, want *int, got int) error {
	if want == nil || *want == got {
		return nil
	}
	return &ExpectationError{Field: field, Expected: *want, Actual: got}
}

func sortedUnique(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}
