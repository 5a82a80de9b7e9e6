package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/syncfold/syncgen"
	"github.com/syncfold/syncgen/internal/config"
	"github.com/syncfold/syncgen/internal/logger"
)

var (
	dbURL        string
	sqlitePath   string
	configPath   string
	registryPath string
	outputDir    string
	schemaName   string
	tables       string
	force        bool
	dryRun       bool
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "syncgen",
	Short: "Generate sync-platform schema and mutation modules from a database",
	Long: `Syncgen introspects a PostgreSQL or SQLite database together with an entity
descriptor registry, detects structural conventions, and generates the
client-side sync schema plus per-table mutation/query modules. Repeated runs
report structural changes and suspected hand edits instead of merging them.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Generator config file (YAML)")
	rootCmd.Flags().StringVarP(&registryPath, "registry", "r", "", "Entity descriptor registry file (YAML)")
	rootCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (overrides config)")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "public", "Database schema name (PostgreSQL)")
	rootCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate all modules, ignoring the manifest")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline and print the summary without writing")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational logging")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger.SetQuiet(quiet)

	if dbURL == "" && sqlitePath == "" {
		return fmt.Errorf("one of --db-url or --sqlite must be specified")
	}
	if dbURL != "" && sqlitePath != "" {
		return fmt.Errorf("only one of --db-url or --sqlite can be specified")
	}

	databaseURL := dbURL
	if sqlitePath != "" {
		databaseURL = "sqlite://" + sqlitePath
	}

	opts := &syncgen.Options{
		Tables:       parseTableList(tables),
		ConfigPath:   configPath,
		RegistryPath: registryPath,
		SchemaName:   schemaName,
		Force:        force,
		DryRun:       dryRun,
	}
	if outputDir != "" && configPath == "" {
		opts.Config = defaultConfig(outputDir)
	}

	report, err := syncgen.Run(ctx, databaseURL, opts)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func defaultConfig(dir string) *config.Config {
	return config.Default(dir)
}

// parseTableList splits the --tables flag value, dropping empty entries.
func parseTableList(value string) []string {
	var tables []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

func printReport(r *syncgen.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	_, _ = bold.Printf("syncgen: %d tables, %d relationships, %d polymorphic associations\n",
		r.Tables, r.Relationships, r.Polymorphics)

	for _, name := range r.AddedTables {
		_, _ = green.Printf("  + table %s\n", name)
	}
	for _, name := range r.RemovedTables {
		_, _ = red.Printf("  - table %s\n", name)
	}
	for _, name := range r.AddedAccessors {
		_, _ = green.Printf("  + relation %s\n", name)
	}
	for _, name := range r.RemovedAccessors {
		_, _ = red.Printf("  - relation %s\n", name)
	}

	if len(r.Customizations) > 0 {
		_, _ = yellow.Println("  suspected hand edits (reapply manually after regeneration):")
		for _, c := range r.Customizations {
			_, _ = yellow.Printf("    %s\n", c)
		}
	}

	if len(r.SkippedTables) > 0 {
		fmt.Printf("  skipped (unchanged): %s\n", strings.Join(r.SkippedTables, ", "))
	}
	if len(r.Warnings) > 0 {
		_, _ = yellow.Printf("  %d warnings\n", len(r.Warnings))
	}
	fmt.Printf("  %d files written\n", len(r.Written))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
