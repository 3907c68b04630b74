package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestMigrateUp(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	viper.Set("database.path", dbPath)
	viper.Set("database.verbose", false)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"migrate", "up"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Schema applied") {
		t.Errorf("Expected schema confirmation, got %q", buf.String())
	}
}

func TestMigrateStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	viper.Set("database.path", dbPath)
	viper.Set("database.verbose", false)

	// Before applying the schema every table is missing.
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"migrate", "status"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, table := range []string{"projects", "clips", "jobs"} {
		if !strings.Contains(output, table) {
			t.Errorf("Expected status output to mention %q, got %q", table, output)
		}
	}
	if !strings.Contains(output, "missing") {
		t.Errorf("Expected fresh database tables to be missing, got %q", output)
	}

	// After migrate up they are present.
	cmd = NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "up"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	buf.Reset()
	cmd = NewRootCmd()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"migrate", "status"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if strings.Contains(buf.String(), "missing") {
		t.Errorf("Expected all tables present after migrate up, got %q", buf.String())
	}
}
