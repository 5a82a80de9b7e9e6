package gen

import (
	"strings"
	"testing"

	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/schema"
	"github.com/syncfold/syncgen/internal/typemap"
)

func testGenerator() *Generator {
	cfg := config.Default("out")
	return New(cfg, typemap.New(cfg))
}

func tasksTable() schema.Table {
	return schema.Table{
		Name:       "tasks",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Kind: schema.KindUUID},
			{Name: "title", Kind: schema.KindString},
			{Name: "body", Kind: schema.KindText, Nullable: true, Comment: "markdown source"},
			{Name: "status", Kind: schema.KindString, IsEnum: true, EnumValues: []string{"open", "done"}, DefaultKind: schema.DefaultLiteral},
			{Name: "position", Kind: schema.KindInteger, DefaultKind: schema.DefaultLiteral},
			{Name: "project_id", Kind: schema.KindUUID},
			{Name: "discarded_at", Kind: schema.KindTimestamp, Nullable: true},
			{Name: "created_at", Kind: schema.KindTimestamp},
			{Name: "updated_at", Kind: schema.KindTimestamp},
		},
		Indexes: []schema.Index{
			{Name: "index_tasks_on_project_id", Columns: []string{"project_id"}},
		},
		Relationships: []schema.Relationship{
			{OwnerTable: "tasks", Name: "project", Kind: schema.BelongsTo, ForeignKey: "project_id", TargetTable: "projects"},
			{OwnerTable: "tasks", Name: "tags", Kind: schema.HasMany, Through: "taggings"},
			{OwnerTable: "tasks", Name: "assignee", Kind: schema.BelongsTo, ForeignKey: "assignee_id", TargetTable: "users", SkipReason: "foreign key column assignee_id not found"},
		},
		Patterns: []schema.Pattern{
			{Kind: schema.PatternSoftDelete, MarkerColumn: "discarded_at", Style: schema.StyleDiscard},
			{Kind: schema.PatternPosition, ScopeColumns: []string{"project_id"}},
			{Kind: schema.PatternEnum, EnumColumn: "status", EnumValues: []string{"open", "done"}},
		},
		Stats: schema.TableStats{UUIDPrimary: true},
	}
}

func notesSchema() *schema.Schema {
	return &schema.Schema{
		Tables: []schema.Table{
			tasksTable(),
			{
				Name:       "notes",
				PrimaryKey: "id",
				Columns: []schema.Column{
					{Name: "id", Kind: schema.KindUUID},
					{Name: "body", Kind: schema.KindText},
					{Name: "notable_type", Kind: schema.KindString},
					{Name: "notable_id", Kind: schema.KindUUID},
				},
				Relationships: []schema.Relationship{
					{OwnerTable: "notes", Name: "notable", Kind: schema.BelongsTo, Polymorphic: true},
				},
				Stats: schema.TableStats{},
			},
		},
		Polymorphics: []schema.PolymorphicAssociation{
			{
				OwnerTable: "notes",
				Name:       "notable",
				TypeColumn: "notable_type",
				IDColumn:   "notable_id",
				Targets:    []string{"projects", "tasks"},
				Source:     schema.SourceInferred,
			},
		},
	}
}

func TestSchemaArtifact(t *testing.T) {
	g := testGenerator()
	got := g.SchemaArtifact(notesSchema())

	wantFragments := []string{
		Header,
		"export const tasks = defineTable({",
		"  title: v.string(),",
		"  /** markdown source */",
		"  body: v.optional(v.string()),",
		`  status: v.union(v.literal("open"), v.literal("done")),`,
		"  position: v.number(),",
		"  created_at: v.number(),",
		`}).primaryKey("id")`,
		`.index("index_tasks_on_project_id", ["project_id"])`,
		"export const tasksRelations = {",
		`  project: belongsTo("projects", "project_id"),`,
		"  // through: tags via taggings (see taggingsRelations)",
		"  // skipped belongs_to assignee: foreign key column assignee_id not found",
		"export const notesRelations = {",
		`  notableProject: polyRef("notable", "projects", "notable_id"),`,
		`  notableTask: polyRef("notable", "tasks", "notable_id"),`,
		"export default defineSchema({",
		"  tasks: { table: tasks, relations: tasksRelations },",
		"  notes: { table: notes, relations: notesRelations },",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected schema artifact to contain %q", fragment)
		}
	}
}

func TestSchemaArtifactSingleDeclaredTarget(t *testing.T) {
	g := testGenerator()
	s := notesSchema()
	s.Polymorphics[0].Targets = []string{"tasks"}
	s.Polymorphics[0].Source = schema.SourceDeclared
	got := g.SchemaArtifact(s)

	if !strings.Contains(got, `  notableTask: polyRef("notable", "tasks", "notable_id"),`) {
		t.Error("Expected the declared target accessor")
	}
	if strings.Count(got, "polyRef(") != 1 {
		t.Errorf("Expected exactly one polyRef accessor, got:\n%s", got)
	}
}

func TestSchemaArtifactDeterministic(t *testing.T) {
	g := testGenerator()
	if g.SchemaArtifact(notesSchema()) != g.SchemaArtifact(notesSchema()) {
		t.Error("Expected identical schema input to emit identical text")
	}
}

func TestSchemaArtifactNoRelations(t *testing.T) {
	g := testGenerator()
	s := &schema.Schema{Tables: []schema.Table{{
		Name:       "settings",
		PrimaryKey: "id",
		Columns:    []schema.Column{{Name: "id", Kind: schema.KindUUID}},
		Stats:      schema.TableStats{},
	}}}
	got := g.SchemaArtifact(s)

	if strings.Contains(got, "settingsRelations") {
		t.Error("Expected no relations export for a table with no relationships")
	}
	if !strings.Contains(got, "  settings: { table: settings },") {
		t.Error("Expected aggregate entry without relations")
	}
}

func TestSchemaArtifactCommentOnlyRelations(t *testing.T) {
	g := testGenerator()
	s := &schema.Schema{Tables: []schema.Table{{
		Name:       "tasks",
		PrimaryKey: "id",
		Columns:    []schema.Column{{Name: "id", Kind: schema.KindUUID}},
		Relationships: []schema.Relationship{
			{
				OwnerTable: "tasks", Name: "assignee", Kind: schema.BelongsTo,
				TargetTable: "users", ForeignKey: "assignee_id",
				SkipReason: "target table users not found in schema",
			},
		},
		Stats: schema.TableStats{},
	}}}
	got := g.SchemaArtifact(s)

	// All-comment maps get no export wrapper, so the export set stays in
	// step with the aggregate's relations references.
	if strings.Contains(got, "tasksRelations") {
		t.Errorf("Expected no relations export when every relationship is a comment, got:\n%s", got)
	}
	if !strings.Contains(got, "\n// skipped belongs_to assignee: target table users not found in schema\n") {
		t.Error("Expected the skip comment to survive without the export wrapper")
	}
	if !strings.Contains(got, "  tasks: { table: tasks },") {
		t.Error("Expected aggregate entry without relations")
	}
}

func TestModuleArtifactInputs(t *testing.T) {
	g := testGenerator()
	table := tasksTable()
	got := g.ModuleArtifact(&table)

	if !strings.Contains(got, "  title: v.string(),") {
		t.Error("Expected title to be required in createInput")
	}
	// Columns with a database default are accepted but not required.
	if !strings.Contains(got, `  status: v.optional(v.union(v.literal("open"), v.literal("done"))),`) {
		t.Error("Expected defaulted status to be optional in createInput")
	}
	if !strings.Contains(got, `requireFields(args, ["title", "project_id"]);`) {
		t.Error("Expected create to require title and project_id")
	}
	for _, excluded := range []string{"  id:", "  created_at:", "  updated_at:", "  discarded_at:"} {
		if strings.Contains(got, excluded) {
			t.Errorf("Expected %s to be excluded from inputs", strings.TrimSpace(excluded))
		}
	}
	if strings.Contains(got, "v.optional(v.optional(") {
		t.Error("Expected no double-wrapped optional expressions")
	}
}

func TestModuleArtifactMutations(t *testing.T) {
	g := testGenerator()
	table := tasksTable()
	got := g.ModuleArtifact(&table)

	wantFragments := []string{
		Header,
		`const table = "tasks";`,
		"export const create = mutation({",
		"ctx.db.insert(table, { ...args, created_at: now, updated_at: now })",
		"export const update = mutation({",
		`validateId(id, "uuid");`,
		"export const destroy = mutation({",
		"export const upsert = mutation({",
		"export const discard = mutation({",
		"ctx.db.patch(table, id, { discarded_at: now, updated_at: now })",
		"export const undiscard = mutation({",
		"ctx.db.patch(table, id, { discarded_at: null, updated_at: now })",
		"async function siblingsOf(ctx, row) {",
		"rows.filter((r) => r.project_id === row.project_id)",
		"export const moveBefore = mutation({",
		"export const moveAfter = mutation({",
		"export const moveToTop = mutation({",
		"export const moveToBottom = mutation({",
		"export const setStatus = mutation({",
		`validateEnum(status, ["open", "done"]);`,
		"export const find = query({",
		"export const list = query({",
		"export const where = query({",
		"export const kept = query({",
		"export const discarded = query({",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected module artifact to contain %q", fragment)
		}
	}
}

func TestModuleArtifactLegacySoftDelete(t *testing.T) {
	g := testGenerator()
	table := schema.Table{
		Name:       "contacts",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Kind: schema.KindInteger},
			{Name: "name", Kind: schema.KindString},
			{Name: "deleted_at", Kind: schema.KindTimestamp, Nullable: true},
		},
		Patterns: []schema.Pattern{
			{Kind: schema.PatternSoftDelete, MarkerColumn: "deleted_at", Style: schema.StyleTimestampDelete},
		},
		Stats: schema.TableStats{},
	}
	got := g.ModuleArtifact(&table)

	for _, fragment := range []string{
		"export const softDelete = mutation({",
		"export const restore = mutation({",
		"export const active = query({",
		"validateId(id);\n",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected module artifact to contain %q", fragment)
		}
	}
	for _, absent := range []string{"export const discard", "export const kept", `validateId(id, "uuid")`} {
		if strings.Contains(got, absent) {
			t.Errorf("Expected module artifact not to contain %q", absent)
		}
	}
}

func TestModuleArtifactPlainTable(t *testing.T) {
	g := testGenerator()
	table := schema.Table{
		Name:       "projects",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Kind: schema.KindUUID},
			{Name: "name", Kind: schema.KindString},
		},
		Stats: schema.TableStats{},
	}
	got := g.ModuleArtifact(&table)

	for _, absent := range []string{"discard", "softDelete", "moveBefore", "setStatus", "siblingsOf"} {
		if strings.Contains(got, absent) {
			t.Errorf("Expected plain table module not to contain %q", absent)
		}
	}
	if !strings.Contains(got, "ctx.db.insert(table, { ...args })") {
		t.Error("Expected insert without timestamp stamping when the table has no timestamps")
	}
	if !strings.Contains(got, "ctx.db.patch(table, id, { ...patch })") {
		t.Error("Expected patch without updated_at when the table has no updated_at")
	}
}

func TestScaffold(t *testing.T) {
	g := testGenerator()
	got := g.Scaffold()
	if strings.Contains(got, Header) {
		t.Error("Expected scaffold to carry no generated header")
	}
	if !strings.Contains(got, "never overwritten") {
		t.Error("Expected scaffold to explain its lifecycle")
	}
}

func TestDiscovery(t *testing.T) {
	g := testGenerator()
	s := notesSchema()
	s.Polymorphics[0].Observed = []string{"Task"}
	s.Polymorphics[0].STIGroups = []schema.STIGroup{
		{BaseClass: "Billing", Table: "billings", Subclasses: []string{"Billing::Invoice"}},
	}
	s.Tables[1].Stats.RowCount = 42

	got, err := g.Discovery(s)
	if err != nil {
		t.Fatalf("Discovery failed: %v", err)
	}

	for _, fragment := range []string{
		"polymorphic_associations:",
		"owner: notes",
		"name: notable",
		"source: inferred",
		"- projects",
		"- tasks",
		"owner_row_count: 42",
		"base_class: Billing",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected discovery report to contain %q", fragment)
		}
	}

	again, err := g.Discovery(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != again {
		t.Error("Expected discovery report to be deterministic")
	}
}

func TestValidate(t *testing.T) {
	g := testGenerator()
	s := notesSchema()
	schemaText := g.SchemaArtifact(s)
	modules := map[string]string{}
	for i := range s.Tables {
		modules[s.Tables[i].Name] = g.ModuleArtifact(&s.Tables[i])
	}

	if err := Validate(s, schemaText, modules); err != nil {
		t.Fatalf("Expected valid output to pass, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(schemaText string, modules map[string]string) (string, map[string]string)
		wantErr string
	}{
		{
			name: "missing header",
			mutate: func(text string, m map[string]string) (string, map[string]string) {
				return strings.TrimPrefix(text, Header), m
			},
			wantErr: "missing generated header",
		},
		{
			name: "missing table definition",
			mutate: func(text string, m map[string]string) (string, map[string]string) {
				return strings.ReplaceAll(text, "export const notes = defineTable(", "export const gone = defineTable("), m
			},
			wantErr: "missing table definition for notes",
		},
		{
			name: "missing aggregate export",
			mutate: func(text string, m map[string]string) (string, map[string]string) {
				return strings.ReplaceAll(text, "export default defineSchema(", "// nope("), m
			},
			wantErr: "missing aggregate schema export",
		},
		{
			name: "module missing create",
			mutate: func(text string, m map[string]string) (string, map[string]string) {
				broken := strings.ReplaceAll(m["tasks"], "export const create = mutation(", "export const make = mutation(")
				return text, map[string]string{"tasks": broken}
			},
			wantErr: "missing create mutation",
		},
		{
			name: "invalid pattern in module",
			mutate: func(text string, m map[string]string) (string, map[string]string) {
				broken := m["tasks"] + "\nconst bad = v.optional(v.optional(v.string()));\n"
				return text, map[string]string{"tasks": broken}
			},
			wantErr: "invalid pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, m := tt.mutate(schemaText, modules)
			err := Validate(s, text, m)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccessorNaming(t *testing.T) {
	tests := []struct {
		fn   func() string
		want string
	}{
		{func() string { return relationsExport("sync_items") }, "syncItemsRelations"},
		{func() string { return belongsToAccessor("project") }, "project"},
		{func() string { return belongsToAccessor("projects") }, "project"},
		{func() string { return hasManyAccessor("note") }, "notes"},
		{func() string { return hasManyAccessor("notes") }, "notes"},
		{func() string { return polyAccessor("notable", "tasks") }, "notableTask"},
		{func() string { return polyAccessor("attachable", "documents") }, "attachableDocument"},
	}
	for _, tt := range tests {
		if got := tt.fn(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}
