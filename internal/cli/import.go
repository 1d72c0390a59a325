package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/curvemigrate/internal/importer"
	"github.com/roach88/curvemigrate/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DatabasePath string
}

// ImportResult is the JSON payload of a successful import.
type ImportResult struct {
	Directory string              `json:"directory"`
	Database  string              `json:"database"`
	Files     int                 `json:"files"`
	Records   int                 `json:"records"`
	Created   int                 `json:"created"`
	Updated   int                 `json:"updated"`
	Unchanged int                 `json:"unchanged"`
	Written   []store.WriteResult `json:"written"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <legacy-dir>",
		Short: "Import legacy records into the repository",
		Long: `Load every legacy record in a CUE directory and store it in the
repository. Records whose content is unchanged keep their version; changed
records get a new version.

Exit codes:
  0 - All records imported
  1 - One or more legacy records are invalid (nothing is stored)
  2 - Command error (missing directory, bad config, database error)

Examples:
  curvemigrate import ./legacy --db curves.db
  curvemigrate import ./legacy --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "path to SQLite database (defaults to the configured path)")

	return cmd
}

func runImport(opts *ImportOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := opts.logger(cmd, cfg)

	result, loadErrors := importer.Load(dir, importer.LoadModeCollectAll)
	if result == nil {
		code, message := importer.ErrCodeGeneric, "failed to load legacy records"
		var loadErr *importer.LoadError
		if len(loadErrors) > 0 && errors.As(loadErrors[0], &loadErr) {
			code, message = loadErr.Code, loadErr.Message
		}
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	if len(loadErrors) > 0 {
		err := outputValidationErrors(formatter, toValidationErrors(loadErrors))
		return WrapExitError(ExitFailure, ErrCodeInvalid+": invalid legacy records, nothing imported", err)
	}
	formatter.VerboseLog("Loaded %d record(s) from %d CUE file(s) in %s", result.Count(), result.FileCount, dir)

	st, dbPath, err := openStore(opts.DatabasePath, cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer closeStore(st)

	ctx, stop := signalContext(cmd)
	defer stop()

	runID := opts.runIDs().Generate()
	repo := store.NewRepository(st, runID, false)
	written, err := result.Store(ctx, repo)
	if err != nil {
		return formatter.Fail(ExitCommandError, importer.ErrCodeWriteFailed, "failed to store legacy records", err)
	}

	out := ImportResult{
		Directory: dir,
		Database:  dbPath,
		Files:     result.FileCount,
		Records:   len(written),
		Written:   written,
	}
	for _, w := range written {
		switch w.Status {
		case store.StatusCreated:
			out.Created++
		case store.StatusUpdated:
			out.Updated++
		case store.StatusUnchanged:
			out.Unchanged++
		}
	}

	if _, err := repo.RecordRun(ctx, store.RunImport, importSummary(out)); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to record run", err)
	}
	logger.Info("import complete", "run_id", runID, "records", out.Records, "created", out.Created, "updated", out.Updated)

	if formatter.Format == "json" {
		return formatter.SuccessRun(runID, out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Imported %d record(s) from %s\n", out.Records, dir)
	fmt.Fprintf(w, "  created: %d, updated: %d, unchanged: %d\n", out.Created, out.Updated, out.Unchanged)
	fmt.Fprintf(w, "  run: %s\n", runID)
	return nil
}

// importSummary is the run summary stored for an import.
func importSummary(r ImportResult) map[string]any {
	return map[string]any{
		"directory": r.Directory,
		"records":   r.Records,
		"created":   r.Created,
		"updated":   r.Updated,
		"unchanged": r.Unchanged,
	}
}
