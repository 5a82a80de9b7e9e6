//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// newSQLiteFixture creates a SQLite database with the task-tracker layout used
// by every pipeline test and returns its path.
func newSQLiteFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	statements := []string{
		`CREATE TABLE projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			position INTEGER NOT NULL DEFAULT 0,
			project_id TEXT NOT NULL REFERENCES projects(id),
			discarded_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE notes (
			id TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			notable_type TEXT NOT NULL,
			notable_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE schema_migrations (version TEXT PRIMARY KEY)`,
		`CREATE INDEX index_tasks_on_project_id ON tasks(project_id)`,
		`INSERT INTO projects VALUES
			('7c9a6f0e-8d2b-4f1a-9c3d-5e6f7a8b9c0d', 'Launch', '2026-01-02 10:00:00', '2026-01-02 10:00:00')`,
		`INSERT INTO tasks VALUES
			('1b2c3d4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e', 'Write docs', 'open', 1,
			 '7c9a6f0e-8d2b-4f1a-9c3d-5e6f7a8b9c0d', NULL, '2026-01-03 09:00:00', '2026-01-03 09:00:00')`,
		`INSERT INTO notes VALUES
			('2c3d4e5f-6a7b-4c9d-8e0f-2a3b4c5d6e7f', 'remember the demo', 'Task',
			 '1b2c3d4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e', '2026-01-04 08:00:00', '2026-01-04 08:00:00')`,
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("Failed to prepare fixture: %v\n%s", err, stmt)
		}
	}

	return path
}

// writeRegistryFixture writes the entity-descriptor export matching the
// fixture database and returns its path.
func writeRegistryFixture(t *testing.T) string {
	t.Helper()

	doc := `entities:
  - name: Project
    relationships:
      - kind: has_many
        name: tasks
      - kind: has_many
        name: notes
        as: notable
  - name: Task
    enums:
      status: [open, done]
    relationships:
      - kind: belongs_to
        name: project
      - kind: has_many
        name: notes
        as: notable
  - name: Note
    relationships:
      - kind: belongs_to
        name: notable
        polymorphic: true
`
	path := filepath.Join(t.TempDir(), "registry.yml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(raw)
}
