package schema

// Schema represents a complete introspected database schema, annotated with
// detected patterns and resolved polymorphic associations.
type Schema struct {
	Tables       []Table
	Polymorphics []PolymorphicAssociation
}

// Table represents a database table.
type Table struct {
	Name          string
	Columns       []Column
	PrimaryKey    string
	ForeignKeys   []ForeignKey
	Indexes       []Index
	Relationships []Relationship
	Patterns      []Pattern
	Stats         TableStats
}

// Column returns the named column, or nil if the table has no such column.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Pattern returns the first detected pattern of the given kind, or nil.
func (t *Table) Pattern(kind PatternKind) *Pattern {
	for i := range t.Patterns {
		if t.Patterns[i].Kind == kind {
			return &t.Patterns[i]
		}
	}
	return nil
}

// ColumnKind is the primitive storage kind of a column, normalized across
// database drivers.
type ColumnKind string

const (
	KindString    ColumnKind = "string"
	KindText      ColumnKind = "text"
	KindInteger   ColumnKind = "integer"
	KindBigInt    ColumnKind = "bigint"
	KindFloat     ColumnKind = "float"
	KindDecimal   ColumnKind = "decimal"
	KindBoolean   ColumnKind = "boolean"
	KindTimestamp ColumnKind = "timestamp"
	KindDate      ColumnKind = "date"
	KindUUID      ColumnKind = "uuid"
	KindJSON      ColumnKind = "json"
	KindUnknown   ColumnKind = "unknown"
)

// DefaultKind categorizes a column default value.
type DefaultKind string

const (
	DefaultNone     DefaultKind = ""
	DefaultLiteral  DefaultKind = "literal"
	DefaultFunction DefaultKind = "function"
)

// Column represents a table column.
type Column struct {
	Name        string
	Kind        ColumnKind
	RawType     string
	Nullable    bool
	Default     string
	DefaultKind DefaultKind
	Comment     string
	IsEnum      bool
	EnumValues  []string
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// Index represents a secondary index.
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// RelationshipKind distinguishes belongs-to, has-many and has-one
// relationships.
type RelationshipKind string

const (
	BelongsTo RelationshipKind = "belongs_to"
	HasMany   RelationshipKind = "has_many"
	HasOne    RelationshipKind = "has_one"
)

// Relationship represents a declared association on a table. TargetTable is
// empty when the relationship is polymorphic. Skipped relationships are
// rendered as comments instead of accessors, with SkipReason explaining why.
type Relationship struct {
	OwnerTable  string
	Name        string
	Kind        RelationshipKind
	ForeignKey  string
	TargetTable string
	Through     string
	Polymorphic bool
	SkipReason  string
}

// DiscoverySource tags where a polymorphic target list came from.
type DiscoverySource string

const (
	SourceDeclared DiscoverySource = "declared"
	SourceInferred DiscoverySource = "inferred"
	SourceObserved DiscoverySource = "observed"
	SourceFallback DiscoverySource = "fallback"
)

// STIGroup records a single-table-inheritance grouping: subclasses that share
// the base class's table, distinguished by a namespaced type value.
type STIGroup struct {
	BaseClass  string
	Table      string
	Subclasses []string
}

// PolymorphicAssociation represents a resolved <base>_type/<base>_id column
// pair with its allowed target tables.
type PolymorphicAssociation struct {
	OwnerTable string
	Name       string
	TypeColumn string
	IDColumn   string
	Targets    []string
	Source     DiscoverySource
	Observed   []string
	STIGroups  []STIGroup
}

// PatternKind tags a detected structural convention.
type PatternKind string

const (
	PatternSoftDelete PatternKind = "soft_delete"
	PatternPosition   PatternKind = "position"
	PatternNormalized PatternKind = "normalized"
	PatternTimePair   PatternKind = "time_pair"
	PatternEnum       PatternKind = "enum"
	PatternPoly       PatternKind = "polymorphic"
)

// SoftDeleteStyle distinguishes the discard convention (discarded_at) from
// the legacy timestamp-delete convention (deleted_at).
type SoftDeleteStyle string

const (
	StyleDiscard         SoftDeleteStyle = "discard"
	StyleTimestampDelete SoftDeleteStyle = "timestamp_delete"
)

// Pattern is a derived, read-only annotation on a table. Only the fields
// relevant to its Kind are populated.
type Pattern struct {
	Kind PatternKind

	// soft_delete
	MarkerColumn string
	Style        SoftDeleteStyle

	// position
	ScopeColumns []string

	// normalized / time_pair: BaseColumn holds the source column and
	// PairColumn the derived one (<base>_normalized, <base>_time_set).
	BaseColumn string
	PairColumn string

	// enum
	EnumColumn string
	EnumValues []string

	// polymorphic
	TypeColumn string
	IDColumn   string
}

// TableStats holds per-table usage statistics collected during introspection.
// Collection is best effort: failed queries leave zero values.
type TableStats struct {
	RowCount      int64
	OldestCreated string
	NewestCreated string
	TypeValues    map[string][]string // type column -> distinct observed values
	UUIDPrimary   bool
}
