// Package config loads and validates the generator configuration document.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Builtin exclusions: bookkeeping tables of the migration, queue and sync
// infrastructure. Config exclusions are merged on top.
var builtinExcludes = []string{
	"schema_migrations",
	"ar_internal_metadata",
	"sync_cursors",
	"sync_push_log",
	"queue_jobs",
	"queue_failed_jobs",
}

// OutputConfig holds output paths, all relative to Dir.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	SchemaFile    string `yaml:"schema_file"`
	DiscoveryFile string `yaml:"discovery_file"`
	ManifestFile  string `yaml:"manifest_file"`
	ScaffoldFile  string `yaml:"scaffold_file"`
}

// Config is the generator configuration document.
type Config struct {
	ExcludeTables []string     `yaml:"exclude_tables"`
	Output        OutputConfig `yaml:"output"`

	// TypeOverrides maps "table.column" to a type expression and wins over
	// every other mapping rule. NameOverrides maps a bare column name to a
	// type expression for all tables.
	TypeOverrides map[string]string `yaml:"type_overrides"`
	NameOverrides map[string]string `yaml:"name_overrides"`

	STISeparator string `yaml:"sti_separator"`

	// PolymorphicFallbacks maps an association name to its well-known target
	// tables, used only when no declared or inferred targets exist.
	PolymorphicFallbacks map[string][]string `yaml:"polymorphic_fallbacks"`
}

// LoadFile loads YAML config from path and applies defaults.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a config with defaults applied and output under dir.
func Default(dir string) *Config {
	cfg := &Config{Output: OutputConfig{Dir: dir}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Output.Dir == "" {
		c.Output.Dir = "generated"
	}
	if c.Output.SchemaFile == "" {
		c.Output.SchemaFile = "schema.gen.ts"
	}
	if c.Output.DiscoveryFile == "" {
		c.Output.DiscoveryFile = "polymorphics.yml"
	}
	if c.Output.ManifestFile == "" {
		c.Output.ManifestFile = ".syncgen-manifest.yml"
	}
	if c.Output.ScaffoldFile == "" {
		c.Output.ScaffoldFile = "custom.ts"
	}
	if c.STISeparator == "" {
		c.STISeparator = "::"
	}
}

// Validate checks the config before any generation runs. An unwritable output
// directory or a malformed exclusion list aborts the run here.
func (c *Config) Validate() error {
	for _, name := range c.ExcludeTables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("exclude_tables contains an empty table name")
		}
		if strings.ContainsAny(name, " \t") {
			return fmt.Errorf("exclude_tables entry %q contains whitespace", name)
		}
	}
	for key := range c.TypeOverrides {
		if strings.Count(key, ".") != 1 {
			return fmt.Errorf("type_overrides key %q must be table.column", key)
		}
	}
	if err := os.MkdirAll(c.Output.Dir, 0755); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	probe := filepath.Join(c.Output.Dir, ".syncgen-probe")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	_ = os.Remove(probe)
	return nil
}

// Excluded reports whether table is excluded, either builtin or by config.
func (c *Config) Excluded(table string) bool {
	for _, name := range builtinExcludes {
		if name == table {
			return true
		}
	}
	for _, name := range c.ExcludeTables {
		if name == table {
			return true
		}
	}
	return false
}

// SchemaPath returns the absolute path of the schema artifact.
func (c *Config) SchemaPath() string {
	return filepath.Join(c.Output.Dir, c.Output.SchemaFile)
}

// DiscoveryPath returns the absolute path of the discovery report.
func (c *Config) DiscoveryPath() string {
	return filepath.Join(c.Output.Dir, c.Output.DiscoveryFile)
}

// ManifestPath returns the absolute path of the incremental-run manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ManifestFile)
}

// ScaffoldPath returns the absolute path of the hand-edit scaffold.
func (c *Config) ScaffoldPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ScaffoldFile)
}

// ModulePath returns the absolute path of a per-table mutation module.
func (c *Config) ModulePath(table string) string {
	return filepath.Join(c.Output.Dir, table+".gen.ts")
}
