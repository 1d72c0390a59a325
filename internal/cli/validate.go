package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/curvemigrate/internal/importer"
)

// ValidationError describes one invalid legacy record.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Files   int               `json:"files,omitempty"`
	Records int               `json:"records,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <legacy-dir>",
		Short: "Validate legacy records without importing them",
		Long: `Validate the legacy CUE records in a directory without touching the
repository.

Performs syntax checking and compiles every yield curve definition,
identifier source, calculation config and FX forward definition, reporting
every invalid record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, loadErrors := importer.Load(dir, importer.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if result == nil {
		var loadErr *importer.LoadError
		if len(loadErrors) > 0 && errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, importer.ErrCodeGeneric, "failed to load legacy records", nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	validationErrors := toValidationErrors(loadErrors)
	if len(validationErrors) == 0 && result.Count() == 0 {
		validationErrors = append(validationErrors, ValidationError{
			Code:    importer.ErrCodeGeneric,
			Message: "no legacy records found",
		})
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, ValidationResult{
		Valid:   true,
		Files:   result.FileCount,
		Records: result.Count(),
	})
}

// toValidationErrors converts importer errors, keeping CUE positions.
func toValidationErrors(errs []error) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, err := range errs {
		var loadErr *importer.LoadError
		if !errors.As(err, &loadErr) {
			out = append(out, ValidationError{Code: importer.ErrCodeGeneric, Message: err.Error()})
			continue
		}
		out = append(out, ValidationError{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			File:    fileFromCuePos(loadErr.Pos),
			Line:    lineFromCuePos(loadErr.Pos),
		})
	}
	return out
}

// lineFromCuePos extracts line number from a token.Pos.
func lineFromCuePos(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

func fileFromCuePos(pos token.Pos) string {
	if pos.IsValid() {
		return pos.Filename()
	}
	return ""
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All legacy records valid (%d record(s) in %d file(s))\n", result.Records, result.Files)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Invalid records = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", err.File, err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Invalid records = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
