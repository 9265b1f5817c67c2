package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute replaces it with
// a context canceled on SIGINT or SIGTERM.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// logger is configured from --log-level during setup.
var logger = logrus.StandardLogger()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "blameledger",
	Short: "Record and query line ownership mined from Git history.",
	Long: `Blameledger ingests mined repository history into a relational ledger
and answers who owns which lines, how project size evolved and who contributed what.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("BLAMELEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("batch-size", contract.DefaultBatchSize)
	viper.SetDefault("max-unit-size", contract.DefaultMaxUnitSize)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".blameledger") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")     // Look in the current directory
		viper.AddConfigPath("$HOME") // Look in the home directory
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// configSetup merges every config source into cfg without touching the ledger.
func configSetup() error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	color.NoColor = !cfg.UseColors
	logger = contract.NewLogger(cfg.LogLevel)
	return nil
}

// sharedSetup validates config and opens the ledger store.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	if err := ledger.InitLedger(cfg.Backend, cfg.DBConnect, logger); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// configSetupWrapper is the PreRunE of commands that manage the ledger without opening it.
func configSetupWrapper(_ *cobra.Command, _ []string) error {
	return configSetup()
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
