package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/curvemigrate/internal/config"
)

// Scenario defines a migration conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Inputs lists directories of legacy CUE records to import, in order.
	// Paths are relative to the scenario file location.
	Inputs []string `yaml:"inputs"`

	// RunID tags every write. Empty means runid.DefaultConstant.
	RunID string `yaml:"run_id,omitempty"`

	// DryRun plans the migration writes without storing them.
	DryRun bool `yaml:"dry_run,omitempty"`

	// Config is merged over config.Defaults().
	Config *ConfigOverrides `yaml:"config,omitempty"`

	// Expect holds the checks applied to the migration report.
	Expect Expect `yaml:"expect"`
}

// ConfigOverrides are the migration settings a scenario may change.
type ConfigOverrides struct {
	OvernightReferences map[string]config.Reference `yaml:"overnight_references,omitempty"`
	CurveRenames        map[string]string           `yaml:"curve_renames,omitempty"`
	MapperRenames       map[string]string           `yaml:"mapper_renames,omitempty"`
}

// Apply merges the overrides into cfg.
func (o *ConfigOverrides) Apply(cfg *config.Config) {
	if o == nil {
		return
	}
	for k, v := range o.OvernightReferences {
		cfg.Migration.OvernightReferences[k] = v
	}
	for k, v := range o.CurveRenames {
		cfg.Migration.CurveRenames[k] = v
	}
	for k, v := range o.MapperRenames {
		cfg.Migration.MapperRenames[k] = v
	}
}

// Expect lists the expected outcome. Nil fields are not checked.
type Expect struct {
	Constructions []string `yaml:"constructions,omitempty"`
	Curves        []string `yaml:"curves,omitempty"`
	Mappers       []string `yaml:"mappers,omitempty"`

	Failures *int `yaml:"failures,omitempty"`
	Skipped  *int `yaml:"skipped,omitempty"`
	Missing  *int `yaml:"missing,omitempty"`
	Gaps     *int `yaml:"gaps,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file and resolves its input
// paths relative to the file. Returns an error if the file doesn't exist, is
// malformed, contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "input:" vs "inputs:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, input := range scenario.Inputs {
		if !filepath.IsAbs(input) {
			scenario.Inputs[i] = filepath.Join(base, input)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Inputs) == 0 {
		return fmt.Errorf("inputs list is required and must be non-empty")
	}
	for _, input := range s.Inputs {
		info, err := os.Stat(input)
		if err != nil {
			return fmt.Errorf("input directory not found: %s", input)
		}
		if !info.IsDir() {
			return fmt.Errorf("input is not a directory: %s", input)
		}
	}

	counts := []struct {
		name string
		v    *int
	}{
		{"failures", s.Expect.Failures},
		{"skipped", s.Expect.Skipped},
		{"missing", s.Expect.Missing},
		{"gaps", s.Expect.Gaps},
	}
	for _, c := range counts {
		if c.v != nil && *c.v < 0 {
			return fmt.Errorf("expect.%s must be non-negative", c.name)
		}
	}
	return nil
}
