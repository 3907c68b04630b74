package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipper-api/internal/database"
	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Manage the database schema for the ClipForge API.

Available subcommands:
  up      - Apply the schema to the configured database
  status  - Show which tables exist`,
}

// migrateUpCmd applies the schema
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the schema",
	Long: `Create or update all tables to match the current models.

Safe to run repeatedly; existing data is preserved.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows which tables exist
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema status",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, err := database.Initialize(config.GetString("database.path"), config.GetBool("database.verbose"))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := database.Initialize(config.GetString("database.path"), config.GetBool("database.verbose"))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n\n", config.GetString("database.path"))

	tables := map[string]interface{}{
		models.Project{}.TableName(): &models.Project{},
		models.Clip{}.TableName():    &models.Clip{},
		models.Job{}.TableName():     &models.Job{},
	}
	for name, model := range tables {
		state := "missing"
		if db.DB.Migrator().HasTable(model) {
			state = "present"
		}
		fmt.Fprintf(out, "  %-10s %s\n", name, state)
	}

	return nil
}
