// Package pattern detects structural conventions on tables by column name
// and type heuristics. Detections are derived annotations only; they never
// mutate the underlying schema model, and false positives are possible since
// nothing here is semantically verified.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/syncfold/syncgen/internal/schema"
)

// Detect runs every pattern heuristic against a table and returns the
// detected patterns in a stable order.
func Detect(table *schema.Table) []schema.Pattern {
	var patterns []schema.Pattern

	if p := detectSoftDelete(table); p != nil {
		patterns = append(patterns, *p)
	}
	if p := detectPosition(table); p != nil {
		patterns = append(patterns, *p)
	}
	patterns = append(patterns, detectNormalized(table)...)
	patterns = append(patterns, detectTimePairs(table)...)
	patterns = append(patterns, detectEnums(table)...)
	patterns = append(patterns, detectPolymorphic(table)...)

	return patterns
}

// detectSoftDelete prefers the discard convention (discarded_at) over the
// legacy deleted_at convention when both columns exist.
func detectSoftDelete(table *schema.Table) *schema.Pattern {
	if col := table.Column("discarded_at"); col != nil && col.Nullable && col.Kind == schema.KindTimestamp {
		return &schema.Pattern{
			Kind:         schema.PatternSoftDelete,
			MarkerColumn: "discarded_at",
			Style:        schema.StyleDiscard,
		}
	}
	if col := table.Column("deleted_at"); col != nil && col.Nullable && col.Kind == schema.KindTimestamp {
		return &schema.Pattern{
			Kind:         schema.PatternSoftDelete,
			MarkerColumn: "deleted_at",
			Style:        schema.StyleTimestampDelete,
		}
	}
	return nil
}

// detectPosition looks for a position column; every other foreign-key-shaped
// column is recorded as a candidate ordering scope.
func detectPosition(table *schema.Table) *schema.Pattern {
	col := table.Column("position")
	if col == nil || (col.Kind != schema.KindInteger && col.Kind != schema.KindBigInt) {
		return nil
	}

	var scopes []string
	for _, c := range table.Columns {
		if c.Name == table.PrimaryKey {
			continue
		}
		if strings.HasSuffix(c.Name, "_id") {
			scopes = append(scopes, c.Name)
		}
	}

	return &schema.Pattern{
		Kind:         schema.PatternPosition,
		ScopeColumns: scopes,
	}
}

func detectNormalized(table *schema.Table) []schema.Pattern {
	var patterns []schema.Pattern
	for _, col := range table.Columns {
		base, ok := strings.CutSuffix(col.Name, "_normalized")
		if !ok || base == "" {
			continue
		}
		if table.Column(base) == nil {
			continue
		}
		patterns = append(patterns, schema.Pattern{
			Kind:       schema.PatternNormalized,
			BaseColumn: base,
			PairColumn: col.Name,
		})
	}
	return patterns
}

func detectTimePairs(table *schema.Table) []schema.Pattern {
	var patterns []schema.Pattern
	for _, col := range table.Columns {
		if col.Kind != schema.KindBoolean {
			continue
		}
		base, ok := strings.CutSuffix(col.Name, "_time_set")
		if !ok || base == "" {
			continue
		}
		ts := table.Column(base + "_at")
		if ts == nil || ts.Kind != schema.KindTimestamp {
			continue
		}
		patterns = append(patterns, schema.Pattern{
			Kind:       schema.PatternTimePair,
			BaseColumn: base + "_at",
			PairColumn: col.Name,
		})
	}
	return patterns
}

// detectEnums carries through columns already flagged by the introspector.
func detectEnums(table *schema.Table) []schema.Pattern {
	var patterns []schema.Pattern
	for _, col := range table.Columns {
		if !col.IsEnum {
			continue
		}
		patterns = append(patterns, schema.Pattern{
			Kind:       schema.PatternEnum,
			EnumColumn: col.Name,
			EnumValues: col.EnumValues,
		})
	}
	return patterns
}

// detectPolymorphic pairs any <base>_type column with its <base>_id sibling.
func detectPolymorphic(table *schema.Table) []schema.Pattern {
	var patterns []schema.Pattern
	for _, col := range table.Columns {
		base, ok := strings.CutSuffix(col.Name, "_type")
		if !ok || base == "" {
			continue
		}
		idCol := table.Column(base + "_id")
		if idCol == nil {
			continue
		}
		patterns = append(patterns, schema.Pattern{
			Kind:       schema.PatternPoly,
			TypeColumn: col.Name,
			IDColumn:   idCol.Name,
		})
	}
	return patterns
}

// Hash computes the manifest hash for a table: its detected patterns plus the
// column and relationship shape that generation depends on. When the hash is
// unchanged between runs, regeneration of the table's module can be skipped.
func Hash(table *schema.Table) string {
	var parts []string

	for _, p := range table.Patterns {
		parts = append(parts, fmt.Sprintf(
			"pattern:%s:%s:%s:%s:%s:%s:%s:%s",
			p.Kind, p.MarkerColumn, p.Style,
			strings.Join(p.ScopeColumns, "+"),
			p.BaseColumn, p.PairColumn,
			p.EnumColumn+"="+strings.Join(p.EnumValues, "|"),
			p.TypeColumn+"/"+p.IDColumn,
		))
	}
	for _, c := range table.Columns {
		parts = append(parts, fmt.Sprintf(
			"column:%s:%s:%t:%s:%s",
			c.Name, c.Kind, c.Nullable, c.DefaultKind, strings.Join(c.EnumValues, "|"),
		))
	}
	for _, r := range table.Relationships {
		parts = append(parts, fmt.Sprintf(
			"rel:%s:%s:%s:%s:%s:%t:%s",
			r.Name, r.Kind, r.ForeignKey, r.TargetTable, r.Through, r.Polymorphic, r.SkipReason,
		))
	}
	parts = append(parts, "pk:"+table.PrimaryKey)

	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
