package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/syncfold/syncgen/internal/schema"
)

// PostgresCatalog reads schema structure from information_schema and the
// pg_catalog tables.
type PostgresCatalog struct {
	db     *sql.DB
	schema string
	stats  *Stats
}

// TableNames lists base tables in the configured schema.
func (c *PostgresCatalog) TableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := c.db.QueryContext(ctx, query, c.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// Columns reads column name, type, nullability, default and comment for a
// table, in ordinal position order.
func (c *PostgresCatalog) Columns(ctx context.Context, table string) ([]RawColumn, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			pgd.description
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st
			ON st.schemaname = c.table_schema AND st.relname = c.table_name
		LEFT JOIN pg_catalog.pg_description pgd
			ON pgd.objoid = st.relid AND pgd.objsubid = c.ordinal_position
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, c.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []RawColumn
	for rows.Next() {
		var col RawColumn
		var dataType, udtName, nullable string
		var defaultVal, comment sql.NullString

		if err := rows.Scan(&col.Name, &dataType, &udtName, &nullable, &defaultVal, &comment); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Default = defaultVal.String
		col.Comment = comment.String
		if dataType == "USER-DEFINED" || dataType == "ARRAY" {
			col.RawType = udtName
		} else {
			col.RawType = dataType
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// PrimaryKey returns the first primary key column of a table, or "" when the
// table has no primary key.
func (c *PostgresCatalog) PrimaryKey(ctx context.Context, table string) (string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.table_constraints tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
		LIMIT 1
	`

	var pk string
	err := c.db.QueryRowContext(ctx, query, c.schema, table).Scan(&pk)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pk, nil
}

// ForeignKeys reads foreign key constraints declared on a table.
func (c *PostgresCatalog) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, c.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// Indexes reads non-primary indexes on a table.
func (c *PostgresCatalog) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_to_string(array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)), ',') AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := c.db.QueryContext(ctx, query, c.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var cols string
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &cols); err != nil {
			return nil, err
		}
		idx.Columns = strings.Split(cols, ",")
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// EnumLabels reads every native enum type in the schema with its ordered
// labels.
func (c *PostgresCatalog) EnumLabels(ctx context.Context) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := c.db.QueryContext(ctx, query, c.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make(map[string][]string)
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return nil, err
		}
		labels[typName] = append(labels[typName], label)
	}

	return labels, rows.Err()
}

// Kind normalizes a PostgreSQL type name to a primitive column kind.
func (c *PostgresCatalog) Kind(rawType string) schema.ColumnKind {
	switch strings.ToLower(rawType) {
	case "character varying", "varchar", "character", "char", "citext":
		return schema.KindString
	case "text":
		return schema.KindText
	case "smallint", "integer", "int2", "int4", "serial":
		return schema.KindInteger
	case "bigint", "int8", "bigserial":
		return schema.KindBigInt
	case "real", "double precision", "float4", "float8":
		return schema.KindFloat
	case "numeric", "decimal", "money":
		return schema.KindDecimal
	case "boolean", "bool":
		return schema.KindBoolean
	case "timestamp without time zone", "timestamp with time zone", "timestamp", "timestamptz":
		return schema.KindTimestamp
	case "date":
		return schema.KindDate
	case "uuid":
		return schema.KindUUID
	case "json", "jsonb":
		return schema.KindJSON
	default:
		return schema.KindUnknown
	}
}

// Stats returns the shared statistics reader.
func (c *PostgresCatalog) Stats() *Stats {
	return c.stats
}
