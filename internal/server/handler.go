package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/morozRed/implscope/internal/session"
)

// Locator answers implementation queries for the handler.
type Locator interface {
	Implementations(ctx context.Context, q session.Query) ([]session.Result, bool, error)
}

// Handler adapts MCP tool calls to a Locator.
type Handler struct {
	locator Locator
	logger  *slog.Logger
}

func NewHandler(locator Locator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{locator: locator, logger: logger}
}

type findResponse struct {
	Found           bool             `json:"found"`
	Implementations []session.Result `json:"implementations"`
}

// FindImplementations handles the find_implementations tool.
func (h *Handler) FindImplementations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file is required"), nil
	}
	q := session.Query{File: file}
	if _, ok := req.GetArguments()["offset"]; ok {
		q.Offset = req.GetInt("offset", 0)
		q.HasOffset = true
	} else {
		q.Line = req.GetInt("line", 0)
		q.Column = req.GetInt("column", 1)
		if q.Line <= 0 {
			return mcp.NewToolResultError("line (>= 1) or offset is required"), nil
		}
	}

	results, found, err := h.locator.Implementations(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("find_implementations failed: %v", err)), nil
	}
	if results == nil {
		results = []session.Result{}
	}
	h.logger.Debug("find_implementations", "file", file, "found", found, "count", len(results))

	data, err := json.MarshalIndent(findResponse{Found: found, Implementations: results}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode implementations: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
