package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.LedgerStore
}

// resolveProject finds the requested project, falling back to the configured one.
// The error is already phrased for the agent.
func (h *toolHandler) resolveProject(ctx context.Context, request mcp.CallToolRequest) (schema.Project, error) {
	name := request.GetString("project", h.baseCfg.Project)
	if name == "" {
		return schema.Project{}, errors.New("project is required")
	}
	project, err := h.store.FindProject(ctx, name)
	if errors.Is(err, contract.ErrNotFound) {
		return schema.Project{}, fmt.Errorf("project %q has not been ingested", name)
	}
	if err != nil {
		return schema.Project{}, fmt.Errorf("failed to look up project %q: %w", name, err)
	}
	return project, nil
}

// limitResults truncates rows to the requested limit, if any.
func limitResults[T any](request mcp.CallToolRequest, rows []T) []T {
	if l := request.GetInt("limit", 0); l > 0 && l < len(rows) {
		return rows[:l]
	}
	return rows
}

// jsonResult renders data as the indented JSON text of a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleDeveloperTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	totals, err := h.store.DeveloperTotals(ctx, project.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("totals query failed: %v", err)), nil
	}
	return jsonResult(limitResults(request, totals)), nil
}

func (h *toolHandler) handleCommitSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	series, err := h.store.CommitSizeSeries(ctx, project.ID, request.GetString("prefix", h.baseCfg.Prefix))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("series query failed: %v", err)), nil
	}
	return jsonResult(limitResults(request, series)), nil
}

func (h *toolHandler) handleRevisionWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	window, found, err := h.store.QueryRevisionWindow(ctx, project.ID, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("window query failed: %v", err)), nil
	}
	return jsonResult(schema.PathWindow{Path: path, Found: found, RevisionWindow: window}), nil
}

func (h *toolHandler) handleOwnershipShares(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shares, err := h.store.OwnershipShares(ctx, project.ID, request.GetString("prefix", h.baseCfg.Prefix))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("shares query failed: %v", err)), nil
	}
	return jsonResult(limitResults(request, shares)), nil
}

func (h *toolHandler) handleDeveloperChurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	churn, err := h.store.DeveloperChurn(ctx, project.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("churn query failed: %v", err)), nil
	}
	return jsonResult(limitResults(request, churn)), nil
}

func (h *toolHandler) handleProjectOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := h.resolveProject(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	overview, err := h.store.ProjectOverview(ctx, project.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("overview query failed: %v", err)), nil
	}
	return jsonResult(overview), nil
}

func (h *toolHandler) handleLedgerStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.store.GetStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status query failed: %v", err)), nil
	}
	return jsonResult(status), nil
}
