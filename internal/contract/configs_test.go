package contract

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Backend:   "sqlite",
		Workers:   4,
		BatchSize: 100,
		Output:    "text",
		Color:     "yes",
		LogLevel:  "info",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "empty backend defaults to sqlite", mutate: func(in *ConfigRawInput) { in.Backend = "" }},
		{name: "uppercase output", mutate: func(in *ConfigRawInput) { in.Output = "JSON" }},
		{name: "invalid backend", mutate: func(in *ConfigRawInput) { in.Backend = "oracle" }, expectError: true},
		{name: "none backend is not supported", mutate: func(in *ConfigRawInput) { in.Backend = "none" }, expectError: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "zero batch size", mutate: func(in *ConfigRawInput) { in.BatchSize = 0 }, expectError: true},
		{name: "batch size too large", mutate: func(in *ConfigRawInput) { in.BatchSize = MaxBatchSize + 1 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "human max unit size", mutate: func(in *ConfigRawInput) { in.MaxUnit = "64MB" }},
		{name: "tiny max unit size", mutate: func(in *ConfigRawInput) { in.MaxUnit = "10B" }, expectError: true},
		{name: "garbage max unit size", mutate: func(in *ConfigRawInput) { in.MaxUnit = "lots" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.Backend = "mysql" }, expectError: true},
		{
			name: "mysql with dsn",
			mutate: func(in *ConfigRawInput) {
				in.Backend = "mysql"
				in.DBConnect = "user:pass@tcp(localhost:3306)/ledger"
			},
		},
		{
			name: "postgres missing dbname",
			mutate: func(in *ConfigRawInput) {
				in.Backend = "postgresql"
				in.DBConnect = "host=localhost user=ledger"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, input.Workers, cfg.Workers)
			assert.Equal(t, input.BatchSize, cfg.BatchSize)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput()
	input.Backend = ""
	input.LogLevel = ""
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.SQLiteBackend, cfg.Backend)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, 16*1024*1024, cfg.MaxUnitSize)
}

func TestProcessProjectScope(t *testing.T) {
	t.Run("project name defaults to root base name", func(t *testing.T) {
		dir := t.TempDir()
		input := validInput()
		input.RootPath = dir
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, filepath.Base(dir), cfg.Project)
		assert.True(t, filepath.IsAbs(cfg.RootPath))
	})

	t.Run("explicit project wins", func(t *testing.T) {
		input := validInput()
		input.RootPath = t.TempDir()
		input.Project = "ledger"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, "ledger", cfg.Project)
	})

	t.Run("prefix is normalized", func(t *testing.T) {
		input := validInput()
		input.Prefix = "./src/"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, "src/", cfg.Prefix)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "root:pw@tcp(127.0.0.1:3306)/ledger", false},
		{"mysql no tcp", schema.MySQLBackend, "root:pw@/ledger", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=ledger", false},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=ledger", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
