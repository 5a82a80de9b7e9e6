package gen

import (
	"fmt"
	"strings"

	"github.com/syncfold/syncgen/internal/schema"
)

// ModuleArtifact emits the mutation/query module for one table: typed create
// and update inputs, the core mutations, pattern-driven extras and the query
// facade.
func (g *Generator) ModuleArtifact(table *schema.Table) string {
	m := &moduleWriter{gen: g, table: table}
	return m.emit()
}

type moduleWriter struct {
	gen   *Generator
	table *schema.Table
	b     strings.Builder
}

func (m *moduleWriter) emit() string {
	softDelete := m.table.Pattern(schema.PatternSoftDelete)
	position := m.table.Pattern(schema.PatternPosition)

	m.b.WriteString(Header + "\n\n")
	m.b.WriteString(`import { mutation, query, v, requireFields, validateId, validateEnum, poll } from "./sync";` + "\n\n")
	fmt.Fprintf(&m.b, "const table = %q;\n", m.table.Name)

	m.writeInputs(softDelete)
	m.writeCreate(softDelete)
	m.writeUpdate()
	m.writeDestroy()
	m.writeUpsert()

	if softDelete != nil {
		m.writeSoftDelete(softDelete)
	}
	if position != nil {
		m.writePositioning(position)
	}
	if status := m.statusColumn(); status != nil {
		m.writeSetStatus(status)
	}

	m.writeQueries(softDelete)

	return m.b.String()
}

// inputColumns are the columns exposed on create/update inputs: everything
// except the primary key, the bookkeeping timestamps and the soft-deletion
// marker.
func (m *moduleWriter) inputColumns(softDelete *schema.Pattern) []*schema.Column {
	var cols []*schema.Column
	for i := range m.table.Columns {
		col := &m.table.Columns[i]
		if col.Name == m.table.PrimaryKey || col.Name == "created_at" || col.Name == "updated_at" {
			continue
		}
		if softDelete != nil && col.Name == softDelete.MarkerColumn {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

// requiredColumns are input columns the create mutation validates as present:
// non-nullable columns without a database default.
func (m *moduleWriter) requiredColumns(softDelete *schema.Pattern) []string {
	var required []string
	for _, col := range m.inputColumns(softDelete) {
		if !col.Nullable && col.DefaultKind == schema.DefaultNone {
			required = append(required, col.Name)
		}
	}
	return required
}

func (m *moduleWriter) writeInputs(softDelete *schema.Pattern) {
	cols := m.inputColumns(softDelete)
	required := make(map[string]bool)
	for _, name := range m.requiredColumns(softDelete) {
		required[name] = true
	}

	m.b.WriteString("\nexport const createInput = {\n")
	for _, col := range cols {
		expr := m.gen.mapper.Map(m.table.Name, col, false)
		if !required[col.Name] && !strings.HasPrefix(expr, "v.optional(") {
			expr = fmt.Sprintf("v.optional(%s)", expr)
		}
		fmt.Fprintf(&m.b, "  %s: %s,\n", col.Name, expr)
	}
	m.b.WriteString("};\n")

	m.b.WriteString("\nexport const updateInput = {\n")
	for _, col := range cols {
		expr := m.gen.mapper.Map(m.table.Name, col, true)
		fmt.Fprintf(&m.b, "  %s: v.optional(%s),\n", col.Name, expr)
	}
	m.b.WriteString("};\n")
}

// idCheck picks the identifier-format validation call. Tables with uuid
// primary keys get the strict format check.
func (m *moduleWriter) idCheck(arg string) string {
	if m.table.Stats.UUIDPrimary {
		return fmt.Sprintf("validateId(%s, \"uuid\");", arg)
	}
	return fmt.Sprintf("validateId(%s);", arg)
}

// stamped adds the updated_at bookkeeping field to a patch expression when
// the table carries one.
func (m *moduleWriter) stamped(fields string) string {
	if m.table.Column("updated_at") == nil {
		return "{ " + fields + " }"
	}
	if fields == "" {
		return "{ updated_at: now }"
	}
	return "{ " + fields + ", updated_at: now }"
}

func (m *moduleWriter) writeCreate(softDelete *schema.Pattern) {
	required := m.requiredColumns(softDelete)

	m.b.WriteString("\nexport const create = mutation({\n")
	m.b.WriteString("  args: createInput,\n")
	m.b.WriteString("  handler: async (ctx, args) => {\n")
	if len(required) > 0 {
		fmt.Fprintf(&m.b, "    requireFields(args, [%s]);\n", quoteList(required))
	}
	m.b.WriteString("    const now = Date.now();\n")
	row := "{ ...args"
	if m.table.Column("created_at") != nil {
		row += ", created_at: now"
	}
	if m.table.Column("updated_at") != nil {
		row += ", updated_at: now"
	}
	row += " }"
	fmt.Fprintf(&m.b, "    return await ctx.db.insert(table, %s);\n", row)
	m.b.WriteString("  },\n})\n")
}

func (m *moduleWriter) writeUpdate() {
	m.b.WriteString("\nexport const update = mutation({\n")
	m.b.WriteString("  args: { id: v.string(), patch: updateInput },\n")
	m.b.WriteString("  handler: async (ctx, { id, patch }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped("...patch"))
	m.b.WriteString("  },\n})\n")
}

func (m *moduleWriter) writeDestroy() {
	m.b.WriteString("\nexport const destroy = mutation({\n")
	m.b.WriteString("  args: { id: v.string() },\n")
	m.b.WriteString("  handler: async (ctx, { id }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	m.b.WriteString("    return await ctx.db.delete(table, id);\n")
	m.b.WriteString("  },\n})\n")
}

func (m *moduleWriter) writeUpsert() {
	m.b.WriteString("\nexport const upsert = mutation({\n")
	m.b.WriteString("  args: { id: v.optional(v.string()), patch: updateInput },\n")
	m.b.WriteString("  handler: async (ctx, { id, patch }) => {\n")
	m.b.WriteString("    const now = Date.now();\n")
	m.b.WriteString("    if (id !== undefined) {\n")
	fmt.Fprintf(&m.b, "      %s\n", m.idCheck("id"))
	m.b.WriteString("      const existing = await ctx.db.get(table, id);\n")
	m.b.WriteString("      if (existing !== null) {\n")
	fmt.Fprintf(&m.b, "        return await ctx.db.patch(table, id, %s);\n", m.stamped("...patch"))
	m.b.WriteString("      }\n")
	m.b.WriteString("    }\n")
	row := "{ ...patch"
	if m.table.Column("created_at") != nil {
		row += ", created_at: now"
	}
	if m.table.Column("updated_at") != nil {
		row += ", updated_at: now"
	}
	row += " }"
	fmt.Fprintf(&m.b, "    return await ctx.db.insert(table, %s);\n", row)
	m.b.WriteString("  },\n})\n")
}

// writeSoftDelete emits discard/undiscard for the discard convention and
// softDelete/restore for the legacy deleted_at convention.
func (m *moduleWriter) writeSoftDelete(p *schema.Pattern) {
	set, clear := "discard", "undiscard"
	if p.Style == schema.StyleTimestampDelete {
		set, clear = "softDelete", "restore"
	}

	fmt.Fprintf(&m.b, "\nexport const %s = mutation({\n", set)
	m.b.WriteString("  args: { id: v.string() },\n")
	m.b.WriteString("  handler: async (ctx, { id }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped(p.MarkerColumn+": now"))
	m.b.WriteString("  },\n})\n")

	fmt.Fprintf(&m.b, "\nexport const %s = mutation({\n", clear)
	m.b.WriteString("  args: { id: v.string() },\n")
	m.b.WriteString("  handler: async (ctx, { id }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped(p.MarkerColumn+": null"))
	m.b.WriteString("  },\n})\n")
}

// writePositioning emits the four list-positioning mutations. Sibling rows
// are read to compute the new order key; scope columns restrict siblings to
// the same list.
func (m *moduleWriter) writePositioning(p *schema.Pattern) {
	m.b.WriteString("\nasync function siblingsOf(ctx, row) {\n")
	m.b.WriteString("  let rows = await ctx.db.query(table).collect();\n")
	for _, scope := range p.ScopeColumns {
		fmt.Fprintf(&m.b, "  rows = rows.filter((r) => r.%s === row.%s);\n", scope, scope)
	}
	m.b.WriteString("  return rows.sort((a, b) => a.position - b.position);\n")
	m.b.WriteString("}\n")

	m.writeMoveRelative("moveBefore", true)
	m.writeMoveRelative("moveAfter", false)
	m.writeMoveToEnd("moveToTop", true)
	m.writeMoveToEnd("moveToBottom", false)
}

func (m *moduleWriter) writeMoveRelative(name string, before bool) {
	fmt.Fprintf(&m.b, "\nexport const %s = mutation({\n", name)
	m.b.WriteString("  args: { id: v.string(), anchorId: v.string() },\n")
	m.b.WriteString("  handler: async (ctx, { id, anchorId }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("anchorId"))
	m.b.WriteString("    const row = await ctx.db.get(table, id);\n")
	m.b.WriteString("    const siblings = await siblingsOf(ctx, row);\n")
	m.b.WriteString("    const at = siblings.findIndex((r) => r.id === anchorId);\n")
	m.b.WriteString("    const anchor = siblings[at];\n")
	if before {
		m.b.WriteString("    const neighbor = siblings[at - 1];\n")
		m.b.WriteString("    const position = neighbor ? (neighbor.position + anchor.position) / 2 : anchor.position - 1;\n")
	} else {
		m.b.WriteString("    const neighbor = siblings[at + 1];\n")
		m.b.WriteString("    const position = neighbor ? (anchor.position + neighbor.position) / 2 : anchor.position + 1;\n")
	}
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped("position"))
	m.b.WriteString("  },\n})\n")
}

func (m *moduleWriter) writeMoveToEnd(name string, top bool) {
	fmt.Fprintf(&m.b, "\nexport const %s = mutation({\n", name)
	m.b.WriteString("  args: { id: v.string() },\n")
	m.b.WriteString("  handler: async (ctx, { id }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	m.b.WriteString("    const row = await ctx.db.get(table, id);\n")
	m.b.WriteString("    const siblings = await siblingsOf(ctx, row);\n")
	if top {
		m.b.WriteString("    const first = siblings[0];\n")
		m.b.WriteString("    const position = first ? first.position - 1 : 0;\n")
	} else {
		m.b.WriteString("    const last = siblings[siblings.length - 1];\n")
		m.b.WriteString("    const position = last ? last.position + 1 : 0;\n")
	}
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped("position"))
	m.b.WriteString("  },\n})\n")
}

// statusColumn returns the enum column named status, if any.
func (m *moduleWriter) statusColumn() *schema.Column {
	col := m.table.Column("status")
	if col != nil && col.IsEnum && len(col.EnumValues) > 0 {
		return col
	}
	return nil
}

func (m *moduleWriter) writeSetStatus(status *schema.Column) {
	m.b.WriteString("\nexport const setStatus = mutation({\n")
	fmt.Fprintf(&m.b, "  args: { id: v.string(), status: %s },\n", enumUnion(status.EnumValues))
	m.b.WriteString("  handler: async (ctx, { id, status }) => {\n")
	fmt.Fprintf(&m.b, "    %s\n", m.idCheck("id"))
	fmt.Fprintf(&m.b, "    validateEnum(status, [%s]);\n", quoteList(status.EnumValues))
	m.b.WriteString("    const now = Date.now();\n")
	fmt.Fprintf(&m.b, "    return await ctx.db.patch(table, id, %s);\n", m.stamped("status"))
	m.b.WriteString("  },\n})\n")
}

// writeQueries emits the query facade: find-by-id, list-all, filter and the
// pattern scopes. Each read goes through the bounded-retry poll wrapper over
// the live-query primitive.
func (m *moduleWriter) writeQueries(softDelete *schema.Pattern) {
	m.b.WriteString("\nexport const find = query({\n")
	m.b.WriteString("  args: { id: v.string() },\n")
	m.b.WriteString("  handler: (ctx, { id }) => poll(() => ctx.db.get(table, id)),\n")
	m.b.WriteString("})\n")

	m.b.WriteString("\nexport const list = query({\n")
	m.b.WriteString("  handler: (ctx) => poll(() => ctx.db.query(table).collect()),\n")
	m.b.WriteString("})\n")

	m.b.WriteString("\nexport const where = query({\n")
	m.b.WriteString("  args: { conditions: v.any() },\n")
	m.b.WriteString("  handler: (ctx, { conditions }) => poll(() => ctx.db.query(table).filter(conditions).collect()),\n")
	m.b.WriteString("})\n")

	if softDelete == nil {
		return
	}

	marker := softDelete.MarkerColumn
	if softDelete.Style == schema.StyleDiscard {
		fmt.Fprintf(&m.b, "\nexport const kept = query({\n")
		fmt.Fprintf(&m.b, "  handler: (ctx) => poll(() => ctx.db.query(table).filter((r) => r.%s === null).collect()),\n", marker)
		m.b.WriteString("})\n")

		fmt.Fprintf(&m.b, "\nexport const discarded = query({\n")
		fmt.Fprintf(&m.b, "  handler: (ctx) => poll(() => ctx.db.query(table).filter((r) => r.%s !== null).collect()),\n", marker)
		m.b.WriteString("})\n")
		return
	}

	fmt.Fprintf(&m.b, "\nexport const active = query({\n")
	fmt.Fprintf(&m.b, "  handler: (ctx) => poll(() => ctx.db.query(table).filter((r) => r.%s === null).collect()),\n", marker)
	m.b.WriteString("})\n")
}

func enumUnion(values []string) string {
	literals := make([]string, len(values))
	for i, v := range values {
		literals[i] = fmt.Sprintf("v.literal(%q)", v)
	}
	return fmt.Sprintf("v.union(%s)", strings.Join(literals, ", "))
}
