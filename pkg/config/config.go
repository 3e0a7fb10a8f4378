// Package config loads and validates docdrift configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Config holds all configuration options for docdrift.
type Config struct {
	// Docs maps a documentation file to the code path globs it documents.
	Docs map[string][]string `koanf:"docs" toml:"docs" yaml:"docs"`

	// Thresholds for scoring and alerting
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds" yaml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Baseline storage settings
	Baseline BaselineConfig `koanf:"baseline" toml:"baseline" yaml:"baseline"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// ThresholdConfig defines scoring thresholds.
type ThresholdConfig struct {
	// Substantial is the per-function score at which a single change is
	// considered substantial on its own.
	Substantial int `koanf:"substantial" toml:"substantial" yaml:"substantial"`
	// DocAlert is the cumulative score at which a documentation file is
	// flagged for review.
	DocAlert int `koanf:"doc_alert" toml:"doc_alert" yaml:"doc_alert"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// BaselineConfig controls where fingerprint baselines are stored.
type BaselineConfig struct {
	Dir string `koanf:"dir" toml:"dir" yaml:"dir"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color" yaml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose" yaml:"verbose"`
}

// ShapeError reports a config file whose structure does not match the
// expected shape. The loader falls back to defaults when it sees one.
type ShapeError struct {
	Path string
	Err  error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid config shape in %s: %v", e.Path, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Docs: map[string][]string{},
		Thresholds: ThresholdConfig{
			Substantial: 4,
			DocAlert:    8,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"test_*.py",
				"*_test.py",
				"conftest.py",
			},
			Dirs: []string{
				".git",
				".docdrift",
				"__pycache__",
				".venv",
				"venv",
				"node_modules",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Baseline: BaselineConfig{
			Dir: ".docdrift",
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// configSchema constrains the top-level shape of a config file. Values
// inside each section are left to the unmarshaler; the schema only rejects
// files that are structurally not a docdrift config.
const configSchema = `{
	"type": "object",
	"properties": {
		"docs": {
			"type": "object",
			"additionalProperties": {
				"type": "array",
				"items": {"type": "string"}
			}
		},
		"thresholds": {"type": "object"},
		"exclude": {"type": "object"},
		"baseline": {"type": "object"},
		"output": {"type": "object"}
	},
	"additionalProperties": false
}`

func validateShape(path string, raw map[string]any) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config-schema.json", doc); err != nil {
		return err
	}
	schema, err := compiler.Compile("config-schema.json")
	if err != nil {
		return err
	}
	if err := schema.Validate(normalizeJSON(raw)); err != nil {
		return &ShapeError{Path: path, Err: err}
	}
	return nil
}

// normalizeJSON rewrites parser-specific value types (e.g. TOML integers)
// into the JSON data model the schema validator expects.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeJSON(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

// Load loads configuration from a file. A structurally invalid file
// returns a ShapeError; the caller decides whether to fall back.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := validateShape(path, k.Raw()); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &ShapeError{Path: path, Err: err}
	}

	return cfg, nil
}

// SearchNames lists the config file names probed by LoadOrDefault, in
// order.
func SearchNames() []string {
	return []string{
		"docdrift.toml",
		"docdrift.yaml",
		"docdrift.yml",
		"docdrift.json",
		".docdrift.toml",
		".docdrift.yaml",
		".docdrift.yml",
		".docdrift.json",
	}
}

// LoadOrDefault tries to load config from standard locations or returns
// defaults. A malformed file does not abort the run: it is reported as a
// warning and defaults are used instead.
func LoadOrDefault() (*Config, []string) {
	var warnings []string

	for _, dir := range []string{".", ".docdrift"} {
		for _, name := range SearchNames() {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("ignoring config %s: %v", path, err))
				continue
			}
			return cfg, warnings
		}
	}

	return DefaultConfig(), warnings
}

// SortedDocs returns the documented file paths in deterministic order.
func (c *Config) SortedDocs() []string {
	docs := make([]string, 0, len(c.Docs))
	for doc := range c.Docs {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
