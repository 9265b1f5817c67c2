package contract

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
)

// Default values for configuration.
const (
	DefaultBatchSize = 500
	MaxBatchSize     = 10000
	DefaultLogLevel  = "info"

	// DefaultMaxUnitSize bounds one line of a mined-history stream.
	DefaultMaxUnitSize = "16MiB"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for the ledger.
// This struct is the "final, validated" config.
type Config struct {
	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	Workers     int
	BatchSize   int
	MaxUnitSize int // Largest accepted stream line, in bytes

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel logrus.Level

	Project  string
	RootPath string
	Prefix   string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Backend    string `mapstructure:"backend"`
	DBConnect  string `mapstructure:"db-connect"`
	Workers    int    `mapstructure:"workers"`
	BatchSize  int    `mapstructure:"batch-size"`
	MaxUnit    string `mapstructure:"max-unit-size"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
	LogLevel   string `mapstructure:"log-level"`

	// --- Fields from query and ingest flags ---
	Project  string `mapstructure:"project"`
	RootPath string `mapstructure:"root-path"`
	Prefix   string `mapstructure:"prefix"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	return processProjectScope(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the ledger backend and its connection string.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.Backend))
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.Backend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql", input.Backend)
	}
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Prefix = strings.TrimPrefix(filepath.ToSlash(input.Prefix), "./")

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.BatchSize <= 0 || input.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch-size must be greater than 0 and cannot exceed %d (received %d)", MaxBatchSize, input.BatchSize)
	}
	cfg.BatchSize = input.BatchSize

	unitSize := input.MaxUnit
	if strings.TrimSpace(unitSize) == "" {
		unitSize = DefaultMaxUnitSize
	}
	maxUnit, err := humanize.ParseBytes(unitSize)
	if err != nil || maxUnit < 1024 || maxUnit > math.MaxInt32 {
		return fmt.Errorf("invalid max-unit-size '%s': must be a size between 1KiB and 2GiB", input.MaxUnit)
	}
	cfg.MaxUnitSize = int(maxUnit)

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	level := input.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}
	cfg.LogLevel, err = logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log-level '%s': %w", input.LogLevel, err)
	}
	return nil
}

// processProjectScope resolves the project name and root path used by commands.
// When only a root path is given, the project name defaults to its base name.
func processProjectScope(cfg *Config, input *ConfigRawInput) error {
	cfg.Project = strings.TrimSpace(input.Project)
	cfg.RootPath = strings.TrimSpace(input.RootPath)
	if cfg.RootPath != "" {
		abs, err := filepath.Abs(cfg.RootPath)
		if err != nil {
			return fmt.Errorf("failed to resolve root-path %q: %w", cfg.RootPath, err)
		}
		cfg.RootPath = abs
		if cfg.Project == "" {
			cfg.Project = filepath.Base(abs)
		}
	}
	return nil
}
