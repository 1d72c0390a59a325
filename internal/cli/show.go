package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/curvemigrate/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	DatabasePath string
	Version      int
	History      bool
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Kind    string         `json:"kind"`
	Pattern string         `json:"pattern"`
	Records []store.Record `json:"records"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [kind] [name-pattern]",
		Short: "Show stored records",
		Long: `Show records stored in the repository.

Without arguments, lists the stored kinds. With a kind, lists the latest
version of every record of that kind. A name pattern may contain '*'
wildcards. --version pins a version, --history lists every version of one
record.

Examples:
  curvemigrate show --db curves.db
  curvemigrate show CurveNodeIdMapper --db curves.db
  curvemigrate show InterpolatedCurveDefinition "FUNDING USD" --version 1
  curvemigrate show YieldCurveDefinition FUNDING_USD --history --format json`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", "", "path to SQLite database (defaults to the configured path)")
	cmd.Flags().IntVar(&opts.Version, "version", 0, "record version (0 = latest)")
	cmd.Flags().BoolVar(&opts.History, "history", false, "list every version of one record")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Version < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("invalid version %d", opts.Version), nil)
	}
	if opts.History && (len(args) != 2 || opts.Version != 0) {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "--history needs a kind and an exact name, without --version", nil)
	}

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

	if len(args) == 0 {
		kinds, err := st.Kinds(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list kinds", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]any{"kinds": kinds})
		}
		if len(kinds) == 0 {
			fmt.Fprintln(formatter.Writer, "No records stored.")
			return nil
		}
		for _, k := range kinds {
			fmt.Fprintln(formatter.Writer, k)
		}
		return nil
	}

	kind, pattern := args[0], "*"
	if len(args) == 2 {
		pattern = args[1]
	}

	var records []store.Record
	if opts.History {
		records, err = st.History(ctx, kind, pattern)
	} else {
		records, err = st.Find(ctx, kind, pattern, store.AtVersion(opts.Version))
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to query records", err)
	}
	if len(records) == 0 {
		sel := store.AtVersion(opts.Version).String()
		return formatter.Fail(ExitFailure, ErrCodeNotFound,
			fmt.Sprintf("no %s record matches %q (%s)", kind, pattern, sel), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(ShowResult{Kind: kind, Pattern: pattern, Records: records})
	}
	return writeRecordsText(formatter.Writer, records, opts.Verbose)
}

// writeRecordsText prints one line per record. The payload follows when a
// single record matched or withPayload is set.
func writeRecordsText(w io.Writer, records []store.Record, withPayload bool) error {
	for _, r := range records {
		fmt.Fprintf(w, "%s %q v%d run=%s hash=%s\n", r.Kind, r.Name, r.Version, r.RunID, shortHash(r.ContentHash))
		if !withPayload && len(records) > 1 {
			continue
		}
		pretty, err := json.MarshalIndent(r.Payload, "  ", "  ")
		if err != nil {
			return fmt.Errorf("format %s %q: %w", r.Kind, r.Name, err)
		}
		fmt.Fprintf(w, "  %s\n", pretty)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
