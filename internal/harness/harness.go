package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/curvemigrate/internal/config"
	"github.com/roach88/curvemigrate/internal/importer"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/migrate"
	"github.com/roach88/curvemigrate/internal/runid"
	"github.com/roach88/curvemigrate/internal/store"
)

// TargetKinds are the record kinds a migration writes, in snapshot order.
var TargetKinds = []string{
	migrate.KindCurveConstructionConfiguration,
	migrate.KindNodeIDMapper,
	migrate.KindInterpolatedCurveDefinition,
}

// Harness runs scenarios against a repository.
type Harness struct {
	store  *store.Store
	runID  string
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary database for isolation. Execution
// flow:
// 1. Import every input directory
// 2. Migrate with the scenario's run id and config overrides
// 3. Snapshot the target records
// 4. Evaluate the expectations
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "curvemigrate-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runID:  runid.Constant(scenario.RunID).Generate(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}

	ctx := context.Background()
	if err := h.importInputs(ctx, scenario.Inputs); err != nil {
		return nil, fmt.Errorf("failed to import inputs: %w", err)
	}

	cfg := config.Defaults()
	scenario.Config.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario config: %w", err)
	}

	repo := store.NewRepository(st, h.runID, scenario.DryRun)
	report, err := migrate.New(repo, repo, cfg, h.logger).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	snapshot, err := h.snapshot(ctx, scenario.Name, report)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot: %w", err)
	}

	result := NewResult()
	result.Report = report
	result.Snapshot = snapshot
	for _, msg := range EvaluateExpect(report, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

// importInputs loads and stores every input directory. Imports are not
// recorded as runs so the migration run id stays unique.
func (h *Harness) importInputs(ctx context.Context, inputs []string) error {
	writer := store.NewRepository(h.store, h.runID, false)
	for _, input := range inputs {
		res, errs := importer.Load(input, importer.LoadModeCollectAll)
		if len(errs) > 0 {
			return fmt.Errorf("%s: %w", input, errors.Join(errs...))
		}
		if _, err := res.Store(ctx, writer); err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
	}
	return nil
}

func (h *Harness) snapshot(ctx context.Context, name string, report *migrate.Report) (*Snapshot, error) {
	snap := &Snapshot{
		Scenario: name,
		RunID:    h.runID,
		Records:  make(map[string][]SnapshotRecord),
		Summary:  report.Summary(),
		Problems: problems(report),
	}
	for _, kind := range TargetKinds {
		records, err := h.store.Find(ctx, kind, "*", store.Latest)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			snap.Records[kind] = append(snap.Records[kind], SnapshotRecord{Name: r.Name, Version: r.Version, Payload: r.Payload})
		}
	}
	return snap, nil
}

// problems lists every report entry as "<category> <kind> <name>".
func problems(report *migrate.Report) []string {
	var out []string
	add := func(category string, ps []migrate.Problem) {
		for _, p := range ps {
			out = append(out, fmt.Sprintf("%s %s %s", category, p.Kind, p.Name))
		}
	}
	add("failure", report.Failures)
	add("skipped", report.Skipped)
	add("missing", report.Missing)
	for _, g := range report.Gaps {
		out = append(out, fmt.Sprintf("gap %s %s", legacy.KindFXForwardDefinition, g.Name))
	}
	return out
}
