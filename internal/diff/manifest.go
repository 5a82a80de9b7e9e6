package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest records per-table pattern hashes and per-artifact output hashes
// between runs, enabling incremental regeneration. It is read once at the
// start of a run and written once at the end; concurrent generator runs
// against the same output directory are not supported.
type Manifest struct {
	PatternHashes map[string]string `yaml:"pattern_hashes"`
	OutputHashes  map[string]string `yaml:"output_hashes"`
	SchemaHash    string            `yaml:"schema_hash"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		PatternHashes: make(map[string]string),
		OutputHashes:  make(map[string]string),
	}
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest (first run).
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := NewManifest()
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.PatternHashes == nil {
		m.PatternHashes = make(map[string]string)
	}
	if m.OutputHashes == nil {
		m.OutputHashes = make(map[string]string)
	}
	return m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Unchanged reports whether a table's pattern hash matches the stored one, in
// which case its module regeneration may be skipped unless forced.
func (m *Manifest) Unchanged(table, patternHash string) bool {
	stored, ok := m.PatternHashes[table]
	return ok && stored == patternHash
}

// TextHash returns the content hash used for output hashes.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
