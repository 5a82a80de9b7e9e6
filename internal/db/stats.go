package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Stats reads per-table usage statistics. All queries use portable SQL so the
// same reader serves both drivers. Callers treat failures as degradable: a
// broken statistics query must never abort a run.
type Stats struct {
	db *sql.DB
}

// NewStats returns a statistics reader over conn. Exposed for tests; the
// catalogs construct their own.
func NewStats(conn *sql.DB) *Stats {
	return &Stats{db: conn}
}

// RowCount returns the number of rows in a table.
func (s *Stats) RowCount(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DistinctValues returns up to limit distinct non-null values of a column,
// sorted. Used to record observed polymorphic type values.
func (s *Stats) DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT CAST(%s AS TEXT) FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
		quoteIdent(column), quoteIdent(table), quoteIdent(column), limit,
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

// TimeRange returns the oldest and newest values of a timestamp column as
// text, empty when the table has no rows.
func (s *Stats) TimeRange(ctx context.Context, table, column string) (oldest, newest string, err error) {
	query := fmt.Sprintf(
		"SELECT CAST(MIN(%s) AS TEXT), CAST(MAX(%s) AS TEXT) FROM %s",
		quoteIdent(column), quoteIdent(column), quoteIdent(table),
	)

	var minVal, maxVal sql.NullString
	if err := s.db.QueryRowContext(ctx, query).Scan(&minVal, &maxVal); err != nil {
		return "", "", err
	}
	return minVal.String, maxVal.String, nil
}

// SampleValue returns one non-null value of a column as text, or "" for an
// empty table. Used to probe primary key identifier format.
func (s *Stats) SampleValue(ctx context.Context, table, column string) (string, error) {
	query := fmt.Sprintf(
		"SELECT CAST(%s AS TEXT) FROM %s WHERE %s IS NOT NULL LIMIT 1",
		quoteIdent(column), quoteIdent(table), quoteIdent(column),
	)

	var v string
	err := s.db.QueryRowContext(ctx, query).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// quoteIdent double-quotes an identifier, which both drivers accept.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
