package cmd

import (
	"runtime"
	"slices"
	"strconv"

	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/schema"
	"github.com/spf13/cobra"
)

// versionCmd prints the build and the ledger backends it can talk to.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the blameledger build and its ledger backends",
	Long: `Display the build of this binary and what its ledger can run on.

Shows the release, commit, build time and Go runtime, followed by every
compiled-in backend with its database/sql driver and the newest embedded
schema migration. Compare that schema version with "blameledger ledger
migrate" output when a database was created by an older build.

Examples:
  blameledger version`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("blameledger %s (commit %s, built %s, %s)\n", version, commit, date, runtime.Version())

		backends := make([]string, 0, len(schema.ValidDatabaseBackends))
		for backend := range schema.ValidDatabaseBackends {
			backends = append(backends, string(backend))
		}
		slices.Sort(backends)

		cmd.Printf("Ledger backends:\n")
		for _, name := range backends {
			backend := schema.DatabaseBackend(name)
			schemaVersion := "unknown"
			if v, err := ledger.LatestSchemaVersion(backend); err == nil {
				schemaVersion = strconv.FormatUint(uint64(v), 10)
			}
			marker := ""
			if backend == schema.SQLiteBackend {
				marker = " (default)"
			}
			cmd.Printf("  %-10s driver=%-6s schema=v%s%s\n", name, ledger.DriverName(backend), schemaVersion, marker)
		}
	},
}
