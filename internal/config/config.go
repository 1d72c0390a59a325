// Package config defines the settings of a migration run: the overnight
// index reference per currency, the curve and mapper name remappers, the
// repository path and the log level.
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/curvemigrate/internal/ident"
)

// Config is the root configuration structure. Fields are populated from a
// TOML or YAML file and then optionally overridden by CURVEMIGRATE_*
// environment variables.
type Config struct {
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Migration MigrationConfig `toml:"migration" yaml:"migration"`
	LogLevel  string          `toml:"log_level" yaml:"log_level"`
}

// DatabaseConfig locates the SQLite config repository.
type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// MigrationConfig holds the tables the orchestrator consults.
type MigrationConfig struct {
	// OvernightReferences maps a currency to the identifier of its overnight
	// index. Currencies without an entry get no overnight role.
	OvernightReferences map[string]Reference `toml:"overnight_references" yaml:"overnight_references"`
	// CurveRenames renames legacy curve base names (SECONDARY to Single).
	CurveRenames map[string]string `toml:"curve_renames" yaml:"curve_renames"`
	// MapperRenames renames convention names used for mapper names
	// (SECONDARY to Default).
	MapperRenames map[string]string `toml:"mapper_renames" yaml:"mapper_renames"`
	DryRun        bool              `toml:"dry_run" yaml:"dry_run"`
}

// Reference is an external identifier in configuration form.
type Reference struct {
	Scheme string `toml:"scheme" yaml:"scheme"`
	Value  string `toml:"value" yaml:"value"`
}

// ExternalID converts the reference.
func (r Reference) ExternalID() ident.ExternalID {
	return ident.NewExternalID(r.Scheme, r.Value)
}

// Defaults returns a Config populated with the values the migration has
// always used.
func Defaults() Config {
	ticker := func(v string) Reference {
		return Reference{Scheme: ident.SchemeSyntheticTicker, Value: v}
	}
	return Config{
		Database: DatabaseConfig{
			Path: "curvemigrate.db",
		},
		Migration: MigrationConfig{
			OvernightReferences: map[string]Reference{
				"USD": ticker("USDFF"),
				"EUR": ticker("EONIA"),
				"GBP": ticker("SONIO"),
				"JPY": ticker("TONAR"),
				"CHF": ticker("TOISTOIS"),
			},
			CurveRenames:  map[string]string{"SECONDARY": "Single"},
			MapperRenames: map[string]string{"SECONDARY": "Default"},
		},
		LogLevel: "info",
	}
}

// OvernightReference returns the overnight index identifier of currency.
func (c *Config) OvernightReference(currency string) (ident.ExternalID, bool) {
	ref, ok := c.Migration.OvernightReferences[currency]
	if !ok {
		return ident.ExternalID{}, false
	}
	return ref.ExternalID(), true
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level, Info when unrecognised.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := validLogLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if _, ok := validLogLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, "database: path must not be empty")
	}

	currencies := make([]string, 0, len(c.Migration.OvernightReferences))
	for ccy := range c.Migration.OvernightReferences {
		currencies = append(currencies, ccy)
	}
	sort.Strings(currencies)
	for _, ccy := range currencies {
		ref := c.Migration.OvernightReferences[ccy]
		if !currencyCode.MatchString(ccy) {
			errs = append(errs, fmt.Sprintf("migration: overnight reference key %q is not a currency code", ccy))
		}
		if ref.Scheme == "" || ref.Value == "" {
			errs = append(errs, fmt.Sprintf("migration: overnight reference %s needs both scheme and value", ccy))
		}
	}

	errs = append(errs, checkRenames("curve_renames", c.Migration.CurveRenames)...)
	errs = append(errs, checkRenames("mapper_renames", c.Migration.MapperRenames)...)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func checkRenames(field string, m map[string]string) []string {
	var errs []string
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" || m[k] == "" {
			errs = append(errs, fmt.Sprintf("migration: %s entry %q -> %q must not be empty", field, k, m[k]))
		}
	}
	return errs
}
