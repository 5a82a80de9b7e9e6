// Package introspect builds the raw schema model from the database catalog
// and the entity-descriptor registry.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/db"
	"github.com/syncfold/syncgen/internal/logger"
	"github.com/syncfold/syncgen/internal/registry"
	"github.com/syncfold/syncgen/internal/schema"
)

// ErrIntegerEnum is returned when a declared enum column is backed by an
// integer storage type. This is fatal: mapping it silently would leave a
// permanent type-safety gap in generated code.
var ErrIntegerEnum = errors.New("integer-backed enum column")

// Max distinct polymorphic type values recorded per column.
const distinctValueLimit = 25

// Introspector extracts the schema model from a live database.
type Introspector struct {
	catalog db.Catalog
	reg     *registry.Registry
	cfg     *config.Config

	warnings []string
}

// New creates an introspector over catalog with the given registry and
// config. The registry may be nil, in which case no relationships or declared
// enums are extracted.
func New(catalog db.Catalog, reg *registry.Registry, cfg *config.Config) *Introspector {
	return &Introspector{catalog: catalog, reg: reg, cfg: cfg}
}

// Warnings returns the recoverable issues accumulated during extraction.
func (in *Introspector) Warnings() []string {
	return in.warnings
}

func (in *Introspector) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	in.warnings = append(in.warnings, msg)
}

// Extract builds the complete schema model. If only is non-empty, extraction
// is limited to those tables. Exclusions always apply.
func (in *Introspector) Extract(ctx context.Context, only []string) (*schema.Schema, error) {
	names, err := in.tableNames(ctx, only)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	enumLabels, err := in.catalog.EnumLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read enum types: %w", err)
	}

	s := &schema.Schema{}
	for _, name := range names {
		table, err := in.extractTable(ctx, name, enumLabels)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		s.Tables = append(s.Tables, *table)
	}

	in.extractRelationships(s)

	for i := range s.Tables {
		in.collectStats(ctx, &s.Tables[i])
	}

	return s, nil
}

func (in *Introspector) tableNames(ctx context.Context, only []string) ([]string, error) {
	all, err := in.catalog.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(only))
	for _, name := range only {
		requested[name] = true
	}

	var names []string
	for _, name := range all {
		if in.cfg.Excluded(name) {
			continue
		}
		if len(only) > 0 && !requested[name] {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (in *Introspector) extractTable(ctx context.Context, name string, enumLabels map[string][]string) (*schema.Table, error) {
	table := &schema.Table{Name: name}

	raw, err := in.catalog.Columns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	for _, rc := range raw {
		col := schema.Column{
			Name:     rc.Name,
			Kind:     in.catalog.Kind(rc.RawType),
			RawType:  rc.RawType,
			Nullable: rc.Nullable,
			Default:  rc.Default,
			Comment:  rc.Comment,
		}
		col.DefaultKind = classifyDefault(rc.Default)

		if labels, ok := enumLabels[rc.RawType]; ok {
			col.IsEnum = true
			col.EnumValues = labels
			col.Kind = schema.KindString
		}
		if declared := in.declaredEnum(name, rc.Name); declared != nil {
			if isIntegerKind(col.Kind) {
				return nil, fmt.Errorf(
					"%w: %s.%s is declared as an enum but stored as %s; migrate the column to string values before generating",
					ErrIntegerEnum, name, rc.Name, rc.RawType,
				)
			}
			col.IsEnum = true
			col.EnumValues = declared
		}

		table.Columns = append(table.Columns, col)
	}

	pk, err := in.catalog.PrimaryKey(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	table.PrimaryKey = pk

	fks, err := in.catalog.ForeignKeys(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := in.catalog.Indexes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

func (in *Introspector) declaredEnum(table, column string) []string {
	if in.reg == nil {
		return nil
	}
	return in.reg.DeclaredEnum(table, column)
}

// extractRelationships walks the registry descriptor of every table and
// produces relationship records. A table without a descriptor skips
// relationship extraction with a warning; a relationship whose target table
// is missing from the introspected schema is downgraded to a comment.
func (in *Introspector) extractRelationships(s *schema.Schema) {
	if in.reg == nil {
		return
	}

	known := make(map[string]*schema.Table, len(s.Tables))
	for i := range s.Tables {
		known[s.Tables[i].Name] = &s.Tables[i]
	}

	for i := range s.Tables {
		table := &s.Tables[i]
		entity := in.reg.ByTable(table.Name)
		if entity == nil {
			in.warnf("no entity descriptor for table %s, skipping relationship extraction", table.Name)
			continue
		}

		for _, decl := range entity.Relationships {
			rel, ok := in.buildRelationship(table, decl, known)
			if !ok {
				continue
			}
			table.Relationships = append(table.Relationships, rel)
		}
	}
}

func (in *Introspector) buildRelationship(table *schema.Table, decl registry.RelationshipDecl, known map[string]*schema.Table) (schema.Relationship, bool) {
	rel := schema.Relationship{
		OwnerTable:  table.Name,
		Name:        decl.Name,
		ForeignKey:  decl.ForeignKeyColumn(table.Name),
		Through:     decl.Through,
		Polymorphic: decl.Polymorphic,
	}

	switch decl.Kind {
	case "belongs_to":
		rel.Kind = schema.BelongsTo
	case "has_many":
		rel.Kind = schema.HasMany
	case "has_one":
		rel.Kind = schema.HasOne
	default:
		in.warnf("table %s: unknown relationship kind %q for %s, skipping", table.Name, decl.Kind, decl.Name)
		return rel, false
	}

	// A reverse polymorphic declaration (has_many ..., as: ...) keys the
	// collection by the association's id column on the target table.
	if decl.As != "" && decl.ForeignKey == "" {
		rel.ForeignKey = decl.As + "_id"
	}

	if decl.Polymorphic {
		return rel, true
	}

	rel.TargetTable = decl.TargetTable()
	target, exists := known[rel.TargetTable]
	if !exists {
		rel.SkipReason = fmt.Sprintf("target table %s not found in schema", rel.TargetTable)
		return rel, true
	}

	// A has-many is only usable when its foreign key actually exists on the
	// target table.
	if rel.Kind == schema.HasMany && decl.Through == "" && target.Column(rel.ForeignKey) == nil {
		rel.SkipReason = fmt.Sprintf("foreign key %s missing on %s", rel.ForeignKey, rel.TargetTable)
		return rel, true
	}

	return rel, true
}

// collectStats gathers best-effort usage statistics. Every failure degrades
// to empty data with a warning; this is the one tolerated partial failure.
func (in *Introspector) collectStats(ctx context.Context, table *schema.Table) {
	stats := in.catalog.Stats()

	count, err := stats.RowCount(ctx, table.Name)
	if err != nil {
		in.warnf("stats: row count failed for %s: %v", table.Name, err)
	} else {
		table.Stats.RowCount = count
	}

	if table.Column("created_at") != nil {
		oldest, newest, err := stats.TimeRange(ctx, table.Name, "created_at")
		if err != nil {
			in.warnf("stats: created_at range failed for %s: %v", table.Name, err)
		} else {
			table.Stats.OldestCreated = oldest
			table.Stats.NewestCreated = newest
		}
	}

	for _, col := range table.Columns {
		if !strings.HasSuffix(col.Name, "_type") {
			continue
		}
		values, err := stats.DistinctValues(ctx, table.Name, col.Name, distinctValueLimit)
		if err != nil {
			in.warnf("stats: distinct values failed for %s.%s: %v", table.Name, col.Name, err)
			continue
		}
		if table.Stats.TypeValues == nil {
			table.Stats.TypeValues = make(map[string][]string)
		}
		table.Stats.TypeValues[col.Name] = values
	}

	if table.PrimaryKey != "" {
		sample, err := stats.SampleValue(ctx, table.Name, table.PrimaryKey)
		if err != nil {
			in.warnf("stats: primary key sample failed for %s: %v", table.Name, err)
		} else if sample != "" {
			if _, err := uuid.Parse(sample); err == nil {
				table.Stats.UUIDPrimary = true
			}
		}
		if pk := table.Column(table.PrimaryKey); pk != nil && pk.Kind == schema.KindUUID {
			table.Stats.UUIDPrimary = true
		}
	}
}

func classifyDefault(value string) schema.DefaultKind {
	if value == "" {
		return schema.DefaultNone
	}
	upper := strings.ToUpper(value)
	if strings.Contains(value, "(") || strings.HasPrefix(upper, "CURRENT_") {
		return schema.DefaultFunction
	}
	return schema.DefaultLiteral
}

func isIntegerKind(kind schema.ColumnKind) bool {
	return kind == schema.KindInteger || kind == schema.KindBigInt
}
