package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/blameledger/core"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/internal/outwriter"
	"github.com/huangsam/blameledger/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ledgerCmd focused on ledger management.
//
// Note: migrate and clear only validate config and never open the store,
// so they work on a fresh or broken database.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the ownership ledger",
	Long: `Manage the relational ledger that stores projects, authors, commits,
file revisions, contributions and line ownership.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection info
  migrate - Run database schema migrations
  export  - Export a project to Parquet for analytics
  reset   - Delete every fact of one project
  clear   - Remove the whole ledger

Examples:
  # Check ledger status
  blameledger ledger status

  # Export for analysis in pandas/DuckDB
  blameledger ledger export --project api --output-file api`,
}

// ledgerStatusCmd shows ledger status.
var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display ledger row counts and connection details",
	Long: `Show the backend, connection state, project count and the row count of
every ledger table.

Examples:
  blameledger ledger status
  blameledger ledger status --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStatus(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Failed to get ledger status", err)
		}
	},
}

// ledgerMigrateCmd runs database migrations for the ledger.
var ledgerMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the ledger.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  blameledger ledger migrate

  # Rollback to the initial state
  blameledger ledger migrate --target-version 0`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		connStr := cfg.DBConnect
		if cfg.Backend == schema.SQLiteBackend && connStr == "" {
			connStr = contract.GetLedgerDBFilePath()
		}
		targetVersion := viper.GetInt("target-version")
		if err := ledger.Migrate(cfg.Backend, connStr, targetVersion, logger); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// ledgerClearCmd removes the whole ledger.
var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all ledger data",
	Long: `Delete the whole ledger from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the ledger tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  blameledger ledger export --project api --output-file backup
  blameledger ledger clear`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.DBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetLedgerDBFilePath()
		}
		if err := ledger.ClearLedger(cfg.Backend, dbFilePath, cfg.DBConnect); err != nil {
			contract.LogFatal("Failed to clear ledger", err)
		}
		fmt.Println("Ledger cleared successfully.")
	},
}

// ledgerExportCmd exports a project to Parquet files.
var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project to Parquet for BI tools and analytics",
	Long: `Export the ownership rows and the commit size timeline of a project.

Writes two files named after --output-file:
  <output-file>.ownership.parquet
  <output-file>.commits.parquet

Examples:
  blameledger ledger export --project api --output-file api
  duckdb -c "SELECT * FROM read_parquet('api.ownership.parquet') LIMIT 10"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		opts := ledger.ExportOptions{
			Project:     cfg.Project,
			OutputFile:  cfg.OutputFile,
			WithLineMap: viper.GetBool("with-line-map"),
		}
		if err := ledger.ExecuteLedgerExport(rootCtx, ledger.Manager.GetStore(), opts, os.Stdout); err != nil {
			contract.LogFatal("Failed to export ledger", err)
		}
	},
}

// ledgerResetCmd deletes one project.
var ledgerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every fact recorded for one project",
	Long: `Delete the project, its authors, commits, revisions, contributions,
file-states and ownership in one transaction.

Examples:
  blameledger ledger reset --project api`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReset(rootCtx, cfg, ledger.Manager.GetStore(), os.Stdout); err != nil {
			contract.LogFatal("Failed to reset project", err)
		}
	},
}
