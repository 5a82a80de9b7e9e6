// Package db provides database clients and catalog readers for schema
// introspection. PostgreSQL connects through the pgx stdlib driver and SQLite
// through mattn/go-sqlite3, so every reader operates on a plain *sql.DB.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/syncfold/syncgen/internal/schema"
)

// Client manages one read-only database connection.
type Client struct {
	db     *sql.DB
	driver string
}

// NewPostgresClient opens a PostgreSQL connection from a postgres:// URL.
func NewPostgresClient(ctx context.Context, url string) (*Client, error) {
	conn, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Client{db: conn, driver: "postgres"}, nil
}

// NewSQLiteClient opens a SQLite database file.
func NewSQLiteClient(ctx context.Context, path string) (*Client, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Client{db: conn, driver: "sqlite"}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying connection.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Driver returns "postgres" or "sqlite".
func (c *Client) Driver() string {
	return c.driver
}

// RawColumn is one catalog row describing a column, before enum flagging and
// kind normalization.
type RawColumn struct {
	Name     string
	RawType  string
	Nullable bool
	Default  string
	Comment  string
}

// Catalog reads schema structure from a database. Implementations exist per
// driver; statistics reads are shared (see Stats).
type Catalog interface {
	TableNames(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]RawColumn, error)
	PrimaryKey(ctx context.Context, table string) (string, error)
	ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error)
	Indexes(ctx context.Context, table string) ([]schema.Index, error)

	// EnumLabels maps a native enum type name to its ordered labels. Drivers
	// without native enum types return an empty map.
	EnumLabels(ctx context.Context) (map[string][]string, error)

	// Kind normalizes a driver type name to a primitive column kind.
	Kind(rawType string) schema.ColumnKind

	Stats() *Stats
}

// NewCatalog returns the catalog reader for the client's driver.
func NewCatalog(client *Client, schemaName string) (Catalog, error) {
	switch client.driver {
	case "postgres":
		if schemaName == "" {
			schemaName = "public"
		}
		return &PostgresCatalog{db: client.db, schema: schemaName, stats: &Stats{db: client.db}}, nil
	case "sqlite":
		return &SQLiteCatalog{db: client.db, stats: &Stats{db: client.db}}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", client.driver)
	}
}
