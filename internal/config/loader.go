package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/curvemigrate/internal/ident"
)

// Load reads a TOML (.toml) or YAML (.yaml, .yml) configuration file at
// path, merges it on top of the built-in defaults, applies CURVEMIGRATE_*
// environment variable overrides and returns the final Config. An empty path
// skips the file. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("decode %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return nil
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config file extension %q (use .toml, .yaml or .yml)", ext)
	}
}

// applyEnvOverrides reads the CURVEMIGRATE_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Database.Path, "CURVEMIGRATE_DB_PATH")
	setStr(&cfg.LogLevel, "CURVEMIGRATE_LOG_LEVEL")
	setBool(&cfg.Migration.DryRun, "CURVEMIGRATE_DRY_RUN")
	setReferences(&cfg.Migration.OvernightReferences, "CURVEMIGRATE_OVERNIGHT_REFERENCES")
	setRenames(&cfg.Migration.CurveRenames, "CURVEMIGRATE_CURVE_RENAMES")
	setRenames(&cfg.Migration.MapperRenames, "CURVEMIGRATE_MAPPER_RENAMES")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// pairs splits "k1=v1,k2=v2" and skips malformed entries.
func pairs(v string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			continue
		}
		out = append(out, [2]string{strings.TrimSpace(k), strings.TrimSpace(val)})
	}
	return out
}

// setReferences merges "USD=OG_SYNTHETIC_TICKER~USDFF,..." into dst.
func setReferences(dst *map[string]Reference, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	for _, kv := range pairs(v) {
		id, err := ident.ParseExternalID(kv[1])
		if err != nil {
			continue
		}
		if *dst == nil {
			*dst = map[string]Reference{}
		}
		(*dst)[kv[0]] = Reference{Scheme: id.Scheme, Value: id.Value}
	}
}

// setRenames merges "FROM=TO,..." into dst.
func setRenames(dst *map[string]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	for _, kv := range pairs(v) {
		if *dst == nil {
			*dst = map[string]string{}
		}
		(*dst)[kv[0]] = kv[1]
	}
}
