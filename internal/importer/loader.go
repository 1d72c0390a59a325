// Package importer loads legacy curve configuration written in CUE and
// compiles it into the legacy record types.
//
// A legacy directory holds any number of .cue files in one package. Records
// are grouped under four top-level structs keyed by repository name:
//
//	yield_curve_definition: "FUNDING_USD": {...}
//	identifier_source: "DEFAULT_USD": {...}
//	calculation_config: "DefaultTwoCurveUSDConfig": {...}
//	fx_forward_curve_definition: "FX_EURUSD": {...}
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/curvemigrate/internal/legacy"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Top-level CUE sections.
const (
	SectionYieldCurveDefinition = "yield_curve_definition"
	SectionIdentifierSource     = "identifier_source"
	SectionCalculationConfig    = "calculation_config"
	SectionFXForwardDefinition  = "fx_forward_curve_definition"
)

// Result contains the legacy records loaded from a directory, each slice
// sorted by name.
type Result struct {
	Definitions  []legacy.YieldCurveDefinition
	Sources      []legacy.IdentifierSource
	Calculations []legacy.CalculationConfig
	FXForwards   []legacy.FXForwardCurveDefinition
	Value        cue.Value // The raw CUE value for additional processing
	FileCount    int       // Number of CUE files found
}

// Count returns the total number of records.
func (r *Result) Count() int {
	return len(r.Definitions) + len(r.Sources) + len(r.Calculations) + len(r.FXForwards)
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load loads and compiles the legacy records in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
//
// A nil Result means the directory could not be loaded at all.
func Load(dir string, mode LoadMode) (*Result, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("legacy directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing legacy directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result, errs := Compile(value, mode)
	result.FileCount = len(cueFiles)
	return result, errs
}

// Compile extracts every legacy record from an already built CUE value.
// The returned Result is never nil.
func Compile(value cue.Value, mode LoadMode) (*Result, []error) {
	result := &Result{Value: value}
	var errs []error

	sections := []struct {
		path    string
		compile func(name string, v cue.Value) error
	}{
		{SectionYieldCurveDefinition, func(name string, v cue.Value) error {
			d, err := CompileYieldCurveDefinition(name, v)
			if err == nil {
				result.Definitions = append(result.Definitions, d)
			}
			return err
		}},
		{SectionIdentifierSource, func(name string, v cue.Value) error {
			s, err := CompileIdentifierSource(name, v)
			if err == nil {
				result.Sources = append(result.Sources, s)
			}
			return err
		}},
		{SectionCalculationConfig, func(name string, v cue.Value) error {
			c, err := CompileCalculationConfig(name, v)
			if err == nil {
				result.Calculations = append(result.Calculations, c)
			}
			return err
		}},
		{SectionFXForwardDefinition, func(name string, v cue.Value) error {
			f, err := CompileFXForwardDefinition(name, v)
			if err == nil {
				result.FXForwards = append(result.FXForwards, f)
			}
			return err
		}},
	}

	for _, sec := range sections {
		val := value.LookupPath(cue.ParsePath(sec.path))
		if !val.Exists() {
			continue
		}
		iter, iterErr := val.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", sec.path, iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		for iter.Next() {
			name := selectorName(iter.Selector())
			if err := sec.compile(name, iter.Value()); err != nil {
				errs = append(errs, convertCompileError(err, sec.path+"."+name))
				if mode == LoadModeFailFast {
					return result, errs
				}
			}
		}
	}

	sortResult(result)

	if result.Count() == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no legacy records found"})
	}
	return result, errs
}

func selectorName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func sortResult(r *Result) {
	sort.Slice(r.Definitions, func(i, j int) bool { return r.Definitions[i].Name < r.Definitions[j].Name })
	sort.Slice(r.Sources, func(i, j int) bool { return r.Sources[i].Name < r.Sources[j].Name })
	sort.Slice(r.Calculations, func(i, j int) bool { return r.Calculations[i].Name < r.Calculations[j].Name })
	sort.Slice(r.FXForwards, func(i, j int) bool { return r.FXForwards[i].Name < r.FXForwards[j].Name })
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    compileErr.Code,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Repository write error

	// Record errors
	ErrCodeMissingField     = "E201" // Required field absent
	ErrCodeInvalidTenor     = "E202" // Unparseable tenor
	ErrCodeInvalidStripType = "E203" // Unknown strip type or index type
	ErrCodeInvalidProvider  = "E204" // Malformed identifier provider or unknown source field
	ErrCodeInvalidMethod    = "E205" // Unknown calculation method
	ErrCodeNameMismatch     = "E206" // Record name does not end in its currency
	ErrCodeInvalidStrip     = "E207" // Strip missing type-specific data
	ErrCodeInvalidType      = "E208" // Wrong CUE kind for a field
	ErrCodeDuplicateTenor   = "E209" // Two keys of one provider map name the same tenor
)
