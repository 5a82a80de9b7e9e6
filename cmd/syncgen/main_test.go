package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: nil},
		{name: "single", value: "tasks", want: []string{"tasks"}},
		{name: "multiple with spaces", value: "tasks, notes ,projects", want: []string{"tasks", "notes", "projects"}},
		{name: "trailing comma", value: "tasks,", want: []string{"tasks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTableList(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunFlagValidation(t *testing.T) {
	tests := []struct {
		name    string
		dbURL   string
		sqlite  string
		wantErr string
	}{
		{
			name:    "no database flag",
			wantErr: "one of --db-url or --sqlite",
		},
		{
			name:    "both database flags",
			dbURL:   "postgres://localhost/app",
			sqlite:  "app.db",
			wantErr: "only one of --db-url or --sqlite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbURL = tt.dbURL
			sqlitePath = tt.sqlite
			defer func() { dbURL, sqlitePath = "", "" }()

			err := run(&cobra.Command{}, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig("app/sync")
	if cfg.Output.Dir != "app/sync" {
		t.Errorf("Expected output dir app/sync, got %s", cfg.Output.Dir)
	}
	if cfg.Output.SchemaFile != "schema.gen.ts" {
		t.Errorf("Expected default schema file, got %s", cfg.Output.SchemaFile)
	}
}
