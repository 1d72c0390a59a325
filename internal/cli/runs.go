package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	DatabasePath string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded import and migration runs",
		Long: `List every recorded import and migration run in order, with its
summary and run hash. Two runs over the same inputs have the same hash.

Examples:
  curvemigrate runs --db curves.db
  curvemigrate runs --db curves.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "path to SQLite database (defaults to the configured path)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	opts.logger(cmd, cfg)

	st, _, err := openStore(opts.DatabasePath, cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer closeStore(st)

	ctx, stop := signalContext(cmd)
	defer stop()

	runs, err := st.Runs(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"runs": runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%d %s %s hash=%s\n", r.Seq, r.Kind, r.ID, shortHash(r.Hash))
		fmt.Fprintf(formatter.Writer, "  %s\n", r.Summary)
	}
	return nil
}
