package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/syncfold/syncgen/internal/schema"
)

// SQLiteCatalog reads schema structure through the sqlite PRAGMA interface.
// SQLite has no native enum types or column comments, so enum flagging relies
// entirely on the entity registry.
type SQLiteCatalog struct {
	db    *sql.DB
	stats *Stats
}

// TableNames lists user tables in the database.
func (c *SQLiteCatalog) TableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := c.db.QueryContext(ctx, query)
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

// Columns reads column information via PRAGMA table_info.
func (c *SQLiteCatalog) Columns(ctx context.Context, table string) ([]RawColumn, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []RawColumn
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		columns = append(columns, RawColumn{
			Name:     name,
			RawType:  colType,
			Nullable: notNull == 0 && pk == 0,
			Default:  defaultValue.String,
		})
	}

	return columns, rows.Err()
}

// PrimaryKey returns the first primary key column of a table.
func (c *SQLiteCatalog) PrimaryKey(ctx context.Context, table string) (string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	pk := ""
	pkOrder := 0
	for rows.Next() {
		var cid, notNull, order int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &order); err != nil {
			return "", err
		}
		if order > 0 && (pkOrder == 0 || order < pkOrder) {
			pk = name
			pkOrder = order
		}
	}

	return pk, rows.Err()
}

// ForeignKeys reads foreign key constraints via PRAGMA foreign_key_list.
func (c *SQLiteCatalog) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol string
		var toCol, onUpdate, onDelete, match sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		target := toCol.String
		if target == "" {
			target = "id"
		}
		fks = append(fks, schema.ForeignKey{
			Column:       fromCol,
			TargetTable:  targetTable,
			TargetColumn: target,
		})
	}

	return fks, rows.Err()
}

// Indexes reads named indexes via PRAGMA index_list and index_info, skipping
// the automatic primary key indexes.
func (c *SQLiteCatalog) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type indexHead struct {
		name   string
		unique bool
	}
	var heads []indexHead
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		heads = append(heads, indexHead{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, head := range heads {
		columns, err := c.indexColumns(ctx, head.name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}
		indexes = append(indexes, schema.Index{
			Name:     head.name,
			Columns:  columns,
			IsUnique: head.unique,
		})
	}

	return indexes, nil
}

func (c *SQLiteCatalog) indexColumns(ctx context.Context, index string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

// EnumLabels returns an empty map; SQLite has no native enum types.
func (c *SQLiteCatalog) EnumLabels(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

// Kind normalizes a SQLite declared type to a primitive column kind, using
// the same affinity rules SQLite applies.
func (c *SQLiteCatalog) Kind(rawType string) schema.ColumnKind {
	t := strings.ToLower(rawType)
	switch {
	case t == "uuid":
		return schema.KindUUID
	case t == "boolean" || t == "bool":
		return schema.KindBoolean
	case strings.Contains(t, "bigint"):
		return schema.KindBigInt
	case strings.Contains(t, "int"):
		return schema.KindInteger
	case strings.Contains(t, "char") || t == "string":
		return schema.KindString
	case strings.Contains(t, "clob") || t == "text":
		return schema.KindText
	case strings.Contains(t, "real") || strings.Contains(t, "floa") || strings.Contains(t, "doub"):
		return schema.KindFloat
	case strings.Contains(t, "decimal") || strings.Contains(t, "numeric"):
		return schema.KindDecimal
	case strings.Contains(t, "timestamp") || strings.Contains(t, "datetime"):
		return schema.KindTimestamp
	case t == "date":
		return schema.KindDate
	case strings.Contains(t, "json"):
		return schema.KindJSON
	default:
		return schema.KindUnknown
	}
}

// Stats returns the shared statistics reader.
func (c *SQLiteCatalog) Stats() *Stats {
	return c.stats
}
