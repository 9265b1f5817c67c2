// Package cmd defines the command-line interface for blameledger.
package cmd

import (
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(sharesCmd)
	rootCmd.AddCommand(churnCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the ledger subcommands to the parent ledger command
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerMigrateCmd)
	ledgerCmd.AddCommand(ledgerClearCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)
	ledgerCmd.AddCommand(ledgerResetCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Ledger backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (SQLite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of streams ingested concurrently")
	rootCmd.PersistentFlags().Int("batch-size", contract.DefaultBatchSize, "Revisions and changes written per transaction")
	rootCmd.PersistentFlags().String("max-unit-size", contract.DefaultMaxUnitSize, "Largest accepted stream line (e.g. 16MiB)")
	rootCmd.PersistentFlags().StringP("output", "o", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Name of the project to query")
	rootCmd.PersistentFlags().String("root-path", "", "Root path of the project; its base name is the default project name")
	rootCmd.PersistentFlags().String("prefix", "", "Restrict path-scoped queries to this path prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of ledgerMigrateCmd to Viper
	ledgerMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(ledgerMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ledger migrate flags", err)
	}

	// Bind all flags of ledgerExportCmd to Viper
	ledgerExportCmd.Flags().Bool("with-line-map", false, "Include the encoded line map of every ownership row")
	if err := viper.BindPFlags(ledgerExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ledger export flags", err)
	}

	// Bind all flags of ingestCmd to Viper
	ingestCmd.Flags().String("otlp-endpoint", "", "OTLP gRPC collector (host:port) receiving ingest metrics")
	ingestCmd.Flags().Bool("otlp-insecure", false, "Disable TLS for the OTLP collector connection")
	ingestCmd.Flags().String("otlp-headers", "", "Extra OTLP headers as key=value,key=value")
	if err := viper.BindPFlags(ingestCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ingest flags", err)
	}
}
