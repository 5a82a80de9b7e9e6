// Package gen emits the generated sync-platform artifacts: the schema
// definition module, one mutation/query module per table, the once-only
// hand-edit scaffold and the polymorphic discovery report.
package gen

import (
	"fmt"
	"strings"

	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/schema"
	"github.com/syncfold/syncgen/internal/typemap"
)

// Generator emits artifact text from the annotated schema model.
type Generator struct {
	cfg    *config.Config
	mapper *typemap.Mapper
}

// New creates a generator.
func New(cfg *config.Config, mapper *typemap.Mapper) *Generator {
	return &Generator{cfg: cfg, mapper: mapper}
}

// SchemaArtifact emits the schema definition module: one defineTable export
// per table, one relationship-accessor map per table that has relationships,
// and an aggregate default export listing everything.
func (g *Generator) SchemaArtifact(s *schema.Schema) string {
	var b strings.Builder

	b.WriteString(Header + "\n\n")
	b.WriteString(`import { defineSchema, defineTable, v, belongsTo, hasMany, hasOne, polyRef } from "./sync";` + "\n")

	for i := range s.Tables {
		g.writeTable(&b, &s.Tables[i])
		g.writeRelations(&b, &s.Tables[i], s.Polymorphics)
	}

	g.writeAggregate(&b, s)

	return b.String()
}

func (g *Generator) writeTable(b *strings.Builder, table *schema.Table) {
	fmt.Fprintf(b, "\nexport const %s = defineTable({\n", table.Name)

	for i := range table.Columns {
		col := &table.Columns[i]
		if col.Comment != "" {
			fmt.Fprintf(b, "  /** %s */\n", strings.ReplaceAll(col.Comment, "*/", ""))
		}
		expr := g.mapper.Map(table.Name, col, col.Name == table.PrimaryKey)
		fmt.Fprintf(b, "  %s: %s,\n", col.Name, expr)
	}

	b.WriteString("})")
	if table.PrimaryKey != "" {
		fmt.Fprintf(b, ".primaryKey(%q)", table.PrimaryKey)
	}
	for _, idx := range table.Indexes {
		fmt.Fprintf(b, "\n  .index(%q, [%s])", idx.Name, quoteList(idx.Columns))
	}
	b.WriteString(";\n")
}

// writeRelations emits the relationship-accessor map for a table. Skipped
// relationships and has-many-through become comments; a polymorphic
// belongs-to expands into one polyRef accessor per resolved target. A table
// whose relationships all reduce to comments gets the commentary without an
// export wrapper, so a relations export exists exactly when the aggregate
// references one.
func (g *Generator) writeRelations(b *strings.Builder, table *schema.Table, polys []schema.PolymorphicAssociation) {
	var lines []string
	accessors := 0

	for _, rel := range table.Relationships {
		switch {
		case rel.SkipReason != "":
			lines = append(lines, fmt.Sprintf("// skipped %s %s: %s", rel.Kind, rel.Name, rel.SkipReason))
		case rel.Through != "":
			lines = append(lines, fmt.Sprintf("// through: %s via %s (see %s)", hasManyAccessor(rel.Name), rel.Through, relationsExport(rel.Through)))
		case rel.Polymorphic:
			// Expanded below from the resolved association.
		case rel.Kind == schema.BelongsTo:
			lines = append(lines, fmt.Sprintf("%s: belongsTo(%q, %q),", belongsToAccessor(rel.Name), rel.TargetTable, rel.ForeignKey))
			accessors++
		case rel.Kind == schema.HasMany:
			lines = append(lines, fmt.Sprintf("%s: hasMany(%q, %q),", hasManyAccessor(rel.Name), rel.TargetTable, rel.ForeignKey))
			accessors++
		case rel.Kind == schema.HasOne:
			lines = append(lines, fmt.Sprintf("%s: hasOne(%q, %q),", belongsToAccessor(rel.Name), rel.TargetTable, rel.ForeignKey))
			accessors++
		}
	}

	for _, assoc := range polys {
		if assoc.OwnerTable != table.Name {
			continue
		}
		for _, target := range assoc.Targets {
			lines = append(lines, fmt.Sprintf("%s: polyRef(%q, %q, %q),", polyAccessor(assoc.Name, target), assoc.Name, target, assoc.IDColumn))
			accessors++
		}
	}

	if len(lines) == 0 {
		return
	}

	if accessors == 0 {
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
		return
	}

	fmt.Fprintf(b, "\nexport const %s = {\n", relationsExport(table.Name))
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("};\n")
}

func (g *Generator) writeAggregate(b *strings.Builder, s *schema.Schema) {
	b.WriteString("\nexport default defineSchema({\n")
	for i := range s.Tables {
		table := &s.Tables[i]
		if g.hasRelations(table, s.Polymorphics) {
			fmt.Fprintf(b, "  %s: { table: %s, relations: %s },\n", table.Name, table.Name, relationsExport(table.Name))
		} else {
			fmt.Fprintf(b, "  %s: { table: %s },\n", table.Name, table.Name)
		}
	}
	b.WriteString("});\n")
}

func (g *Generator) hasRelations(table *schema.Table, polys []schema.PolymorphicAssociation) bool {
	for _, rel := range table.Relationships {
		if rel.SkipReason == "" && rel.Through == "" && !rel.Polymorphic {
			return true
		}
	}
	for _, assoc := range polys {
		if assoc.OwnerTable == table.Name && len(assoc.Targets) > 0 {
			return true
		}
	}
	return false
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}
