package gen

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syncfold/syncgen/internal/schema"
)

// ErrValidation marks post-generation validation failures. Any such failure
// aborts the run before a single file is written.
var ErrValidation = errors.New("generated output validation failed")

// Scaffold returns the once-only hand-edit module. It is written on first run
// and never overwritten afterwards.
func (g *Generator) Scaffold() string {
	var b strings.Builder
	b.WriteString("// Hand-written extensions for generated modules.\n")
	b.WriteString("// This file is scaffolded once and never overwritten by the generator.\n\n")
	b.WriteString(`export { mutation, query, v } from "./sync";` + "\n")
	return b.String()
}

type discoverySTI struct {
	BaseClass  string   `yaml:"base_class"`
	Table      string   `yaml:"table"`
	Subclasses []string `yaml:"subclasses"`
}

type discoveryAssoc struct {
	Owner      string         `yaml:"owner"`
	Name       string         `yaml:"name"`
	TypeColumn string         `yaml:"type_column"`
	IDColumn   string         `yaml:"id_column"`
	Source     string         `yaml:"source"`
	Targets    []string       `yaml:"targets"`
	Observed   []string       `yaml:"observed,omitempty"`
	STIGroups  []discoverySTI `yaml:"sti_groups,omitempty"`
	OwnerRows  int64          `yaml:"owner_row_count"`
}

type discoveryDoc struct {
	Associations []discoveryAssoc `yaml:"polymorphic_associations"`
}

// Discovery emits the polymorphic discovery report: every association, its
// resolved targets and provenance, and the usage statistics observed in live
// data. The document is deterministic so unchanged schemas produce identical
// bytes.
func (g *Generator) Discovery(s *schema.Schema) (string, error) {
	rowCounts := make(map[string]int64, len(s.Tables))
	for i := range s.Tables {
		rowCounts[s.Tables[i].Name] = s.Tables[i].Stats.RowCount
	}

	doc := discoveryDoc{}
	for _, assoc := range s.Polymorphics {
		entry := discoveryAssoc{
			Owner:      assoc.OwnerTable,
			Name:       assoc.Name,
			TypeColumn: assoc.TypeColumn,
			IDColumn:   assoc.IDColumn,
			Source:     string(assoc.Source),
			Targets:    assoc.Targets,
			Observed:   assoc.Observed,
			OwnerRows:  rowCounts[assoc.OwnerTable],
		}
		for _, group := range assoc.STIGroups {
			entry.STIGroups = append(entry.STIGroups, discoverySTI{
				BaseClass:  group.BaseClass,
				Table:      group.Table,
				Subclasses: group.Subclasses,
			})
		}
		doc.Associations = append(doc.Associations, entry)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal discovery report: %w", err)
	}
	return string(out), nil
}

// Known-invalid output patterns. Seeing one means a mapper or emitter bug, so
// generation must not write anything.
var invalidPatterns = []string{
	"v.optional(v.optional(",
	"v.union()",
	`("", `,
	`, "")`,
}

// Validate checks freshly generated text in memory before any file write.
// Missing required exports, an empty schema or a known-invalid pattern aborts
// the entire run with no partial output.
func Validate(s *schema.Schema, schemaText string, modules map[string]string) error {
	if !strings.HasPrefix(schemaText, Header) {
		return fmt.Errorf("%w: schema artifact missing generated header", ErrValidation)
	}
	if !strings.Contains(schemaText, "defineTable({") {
		return fmt.Errorf("%w: no table definitions found", ErrValidation)
	}
	if !strings.Contains(schemaText, "export default defineSchema(") {
		return fmt.Errorf("%w: missing aggregate schema export", ErrValidation)
	}

	for i := range s.Tables {
		name := s.Tables[i].Name
		if !strings.Contains(schemaText, fmt.Sprintf("export const %s = defineTable(", name)) {
			return fmt.Errorf("%w: missing table definition for %s", ErrValidation, name)
		}
		module, ok := modules[name]
		if !ok {
			continue
		}
		if !strings.HasPrefix(module, Header) {
			return fmt.Errorf("%w: module for %s missing generated header", ErrValidation, name)
		}
		if !strings.Contains(module, "export const create = mutation(") {
			return fmt.Errorf("%w: module for %s missing create mutation", ErrValidation, name)
		}
	}

	for _, text := range append([]string{schemaText}, mapValues(modules)...) {
		for _, pattern := range invalidPatterns {
			if strings.Contains(text, pattern) {
				return fmt.Errorf("%w: output contains invalid pattern %q", ErrValidation, pattern)
			}
		}
	}

	return nil
}

func mapValues(m map[string]string) []string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return values
}
