package cmd

import (
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Blameledger MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query the ledger.

--project, --prefix and --output act as defaults for tool calls that omit them.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, ledger.Manager.GetStore(), version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
