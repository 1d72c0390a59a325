package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/curvemigrate/internal/migrate"
	"github.com/roach88/curvemigrate/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	DatabasePath string
	DryRun       bool
}

// MigrateResult is the JSON payload of a migration.
type MigrateResult struct {
	DryRun  bool            `json:"dry_run"`
	Summary migrate.Summary `json:"summary"`
	Report  *migrate.Report `json:"report"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate calculation configs to the new curve model",
		Long: `Convert every legacy multi-curve calculation config in the repository into
a curve construction configuration, its interpolated curve definitions and
the per-currency node id mappers.

A config that cannot be converted is reported and the batch continues.

Exit codes:
  0 - Every config migrated
  1 - One or more configs failed or were skipped
  2 - Command error (bad config, database error, interrupted)

Examples:
  curvemigrate migrate --db curves.db
  curvemigrate migrate --db curves.db --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "path to SQLite database (defaults to the configured path)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report planned writes without storing anything")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := opts.logger(cmd, cfg)
	dryRun := opts.DryRun || cfg.Migration.DryRun

	st, dbPath, err := openStore(opts.DatabasePath, cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer closeStore(st)
	formatter.VerboseLog("Migrating %s (dry run: %t)", dbPath, dryRun)

	ctx, stop := signalContext(cmd)
	defer stop()

	runID := opts.runIDs().Generate()
	repo := store.NewRepository(st, runID, dryRun)
	report, err := migrate.New(repo, repo, *cfg, logger).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return formatter.Fail(ExitCommandError, ErrCodeMigration, "migration interrupted", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeMigration, "migration aborted", err)
	}
	logger.Info("migration complete", "run_id", runID, "configs", report.Configs, "dry_run", dryRun)

	if formatter.Format == "json" {
		if err := formatter.SuccessRun(runID, MigrateResult{
			DryRun:  dryRun,
			Summary: report.Summary(),
			Report:  report,
		}); err != nil {
			return err
		}
	} else {
		writeReportText(formatter.Writer, report, runID, dryRun)
	}

	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d failure(s), %d skipped config(s)",
			ErrCodeMigration, len(report.Failures), len(report.Skipped)))
	}
	return nil
}

func writeReportText(w io.Writer, report *migrate.Report, runID string, dryRun bool) {
	s := report.Summary()
	mark := "✓"
	if !report.OK() {
		mark = "✗"
	}
	verb := "Migrated"
	if dryRun {
		verb = "Planned"
	}
	fmt.Fprintf(w, "%s %s %d calculation config(s)\n", mark, verb, s.Configs)
	fmt.Fprintf(w, "  created: %d, updated: %d, unchanged: %d\n", s.Created, s.Updated, s.Unchanged)
	if !dryRun {
		fmt.Fprintf(w, "  run: %s\n", runID)
	}

	for _, m := range report.Mappers {
		fmt.Fprintf(w, "  %s: %d mapper(s) from %d source(s), %d overwrite(s), %d unsupported\n",
			m.Currency, m.Mappers, m.Sources, m.Overwrites, m.Unsupported)
	}
	problems := func(label string, ps []migrate.Problem) {
		for _, p := range ps {
			fmt.Fprintf(w, "  %s %s %q: %s\n", label, p.Kind, p.Name, p.Reason)
		}
	}
	problems("failed", report.Failures)
	problems("skipped", report.Skipped)
	problems("missing", report.Missing)
	for _, g := range report.Gaps {
		fmt.Fprintf(w, "  gap %q in %s: FX implied curves are not converted\n", g.Name, g.Config)
	}
}
