//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/syncfold/syncgen"
	"github.com/syncfold/syncgen/internal/config"
)

func TestSQLitePipeline(t *testing.T) {
	ctx := context.Background()
	dbURL := "sqlite://" + newSQLiteFixture(t)
	outDir := t.TempDir()

	opts := &syncgen.Options{
		Config:       config.Default(outDir),
		RegistryPath: writeRegistryFixture(t),
	}

	report, err := syncgen.Run(ctx, dbURL, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Tables != 3 {
		t.Errorf("Expected 3 tables (migrations excluded), got %d", report.Tables)
	}
	if len(report.AddedTables) != 3 {
		t.Errorf("Expected every table added on first run, got %v", report.AddedTables)
	}

	schemaText := readFile(t, filepath.Join(outDir, "schema.gen.ts"))
	for _, fragment := range []string{
		"export const tasks = defineTable({",
		`status: v.union(v.literal("open"), v.literal("done"))`,
		`project: belongsTo("projects", "project_id")`,
		"export const projectsRelations = {",
		`tasks: hasMany("tasks", "project_id")`,
		`notableTask: polyRef("notable", "tasks", "notable_id")`,
		`notableProject: polyRef("notable", "projects", "notable_id")`,
		"export default defineSchema({",
	} {
		if !strings.Contains(schemaText, fragment) {
			t.Errorf("Expected schema artifact to contain %q", fragment)
		}
	}

	tasksModule := readFile(t, filepath.Join(outDir, "tasks.gen.ts"))
	for _, fragment := range []string{
		"export const create = mutation({",
		"export const discard = mutation({",
		"export const moveBefore = mutation({",
		"export const setStatus = mutation({",
		`validateId(id, "uuid");`,
	} {
		if !strings.Contains(tasksModule, fragment) {
			t.Errorf("Expected tasks module to contain %q", fragment)
		}
	}

	discovery := readFile(t, filepath.Join(outDir, "polymorphics.yml"))
	if !strings.Contains(discovery, "source: inferred") {
		t.Errorf("Expected registry-inferred polymorphic targets, got:\n%s", discovery)
	}
	if !strings.Contains(discovery, "- Task") {
		t.Errorf("Expected observed type values in discovery report, got:\n%s", discovery)
	}

	if _, err := os.Stat(filepath.Join(outDir, "custom.ts")); err != nil {
		t.Errorf("Expected hand-edit scaffold on first run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, ".syncgen-manifest.yml")); err != nil {
		t.Errorf("Expected manifest after run: %v", err)
	}
}

func TestSQLitePipelineIdempotent(t *testing.T) {
	ctx := context.Background()
	dbURL := "sqlite://" + newSQLiteFixture(t)
	outDir := t.TempDir()

	opts := &syncgen.Options{
		Config:       config.Default(outDir),
		RegistryPath: writeRegistryFixture(t),
	}

	if _, err := syncgen.Run(ctx, dbURL, opts); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first := readFile(t, filepath.Join(outDir, "schema.gen.ts"))

	report, err := syncgen.Run(ctx, dbURL, opts)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if got := readFile(t, filepath.Join(outDir, "schema.gen.ts")); got != first {
		t.Error("Expected byte-identical schema artifact on unchanged input")
	}
	if len(report.AddedTables) != 0 || len(report.RemovedTables) != 0 {
		t.Errorf("Expected no structural changes on second run, got %+v", report)
	}
	if len(report.SkippedTables) != 3 {
		t.Errorf("Expected every module skipped via manifest, got %v", report.SkippedTables)
	}

	// The second run recovers its polyRef targets from the first run's output,
	// so its provenance flips to declared and then stays stable.
	secondDiscovery := readFile(t, filepath.Join(outDir, "polymorphics.yml"))
	if !strings.Contains(secondDiscovery, "source: declared") {
		t.Errorf("Expected declared provenance on second run, got:\n%s", secondDiscovery)
	}

	if _, err := syncgen.Run(ctx, dbURL, opts); err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	if got := readFile(t, filepath.Join(outDir, "polymorphics.yml")); got != secondDiscovery {
		t.Error("Expected byte-identical discovery report once provenance settles")
	}
}

func TestSQLitePipelineDetectsCustomizations(t *testing.T) {
	ctx := context.Background()
	dbURL := "sqlite://" + newSQLiteFixture(t)
	outDir := t.TempDir()

	opts := &syncgen.Options{
		Config:       config.Default(outDir),
		RegistryPath: writeRegistryFixture(t),
	}

	if _, err := syncgen.Run(ctx, dbURL, opts); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	modulePath := filepath.Join(outDir, "tasks.gen.ts")
	edited := readFile(t, modulePath) + "\n// keep in sync with mobile\nexport const archiveAll = mutation({})\n"
	if err := os.WriteFile(modulePath, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	report, err := syncgen.Run(ctx, dbURL, &syncgen.Options{
		Config:       config.Default(outDir),
		RegistryPath: opts.RegistryPath,
		Force:        true,
	})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	var foundComment, foundExport bool
	for _, c := range report.Customizations {
		if strings.Contains(c, "non-generated comment") {
			foundComment = true
		}
		if strings.Contains(c, `"archiveAll"`) {
			foundExport = true
		}
	}
	if !foundComment || !foundExport {
		t.Errorf("Expected hand edits to be reported, got %v", report.Customizations)
	}

	// The regenerated module no longer contains the hand edit; the report is
	// the only place it survives.
	if got := readFile(t, modulePath); strings.Contains(got, "archiveAll") {
		t.Error("Expected regeneration to overwrite hand edits")
	}
}

func TestSQLitePipelineDryRun(t *testing.T) {
	ctx := context.Background()
	dbURL := "sqlite://" + newSQLiteFixture(t)
	outDir := t.TempDir()

	report, err := syncgen.Run(ctx, dbURL, &syncgen.Options{
		Config:       config.Default(outDir),
		RegistryPath: writeRegistryFixture(t),
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("Dry run failed: %v", err)
	}
	if report.Tables != 3 {
		t.Errorf("Expected full analysis on dry run, got %d tables", report.Tables)
	}
	if len(report.Written) != 0 {
		t.Errorf("Expected nothing written on dry run, got %v", report.Written)
	}
	if _, err := os.Stat(filepath.Join(outDir, "schema.gen.ts")); !os.IsNotExist(err) {
		t.Error("Expected no schema artifact after dry run")
	}
}
