// Package mcp provides the Model Context Protocol (MCP) server implementation.
// Every tool is read-only: agents query the ledger but never ingest or reset.
package mcp

import (
	"context"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the blameledger MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.LedgerStore, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Blameledger Query Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
	}

	projectArg := mcp.WithString("project", mcp.Description("Project name as ingested (defaults to the configured project)."))
	prefixArg := mcp.WithString("prefix", mcp.Description("Path prefix selecting a subtree, e.g. 'internal/' (defaults to the whole project)."))
	limitArg := mcp.WithNumber("limit", mcp.Description("Limit the number of results returned."))

	// --- 1. Tool: get_developer_totals ---
	s.AddTool(mcp.NewTool("get_developer_totals",
		mcp.WithDescription("Lines, byte size and files each author currently owns in a project, largest owner first."),
		projectArg, limitArg,
	), h.handleDeveloperTotals)

	// --- 2. Tool: get_commit_series ---
	s.AddTool(mcp.NewTool("get_commit_series",
		mcp.WithDescription("Project size and stability at every commit touching a subtree, oldest first."),
		projectArg, prefixArg, limitArg,
	), h.handleCommitSeries)

	// --- 3. Tool: get_revision_window ---
	s.AddTool(mcp.NewTool("get_revision_window",
		mcp.WithDescription("First and last recorded revision of one file path."),
		mcp.WithString("path", mcp.Description("The exact file path."), mcp.Required()),
		projectArg,
	), h.handleRevisionWindow)

	// --- 4. Tool: get_ownership_shares ---
	s.AddTool(mcp.NewTool("get_ownership_shares",
		mcp.WithDescription("Split of the owned lines of a subtree between its authors, as fractions of line size."),
		projectArg, prefixArg, limitArg,
	), h.handleOwnershipShares)

	// --- 5. Tool: get_developer_churn ---
	s.AddTool(mcp.NewTool("get_developer_churn",
		mcp.WithDescription("Recorded commits, changed lines and changed files of each author."),
		projectArg, limitArg,
	), h.handleDeveloperChurn)

	// --- 6. Tool: get_project_overview ---
	s.AddTool(mcp.NewTool("get_project_overview",
		mcp.WithDescription("One-shot summary of a project's ledger, including its latest commit."),
		projectArg,
	), h.handleProjectOverview)

	// --- 7. Tool: get_ledger_status ---
	s.AddTool(mcp.NewTool("get_ledger_status",
		mcp.WithDescription("Backend, connectivity and row counts of every ledger table."),
	), h.handleLedgerStatus)

	return s
}

// StartMCPServer starts the blameledger MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.LedgerStore, version string) error {
	s := NewMCPServer(baseCfg, store, version)
	return server.ServeStdio(s)
}
