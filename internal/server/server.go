package server

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New builds the MCP server and registers the implementation tools.
func New(handler *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"implscope",
		version,
		server.WithToolCapabilities(false),
	)

	findTool := mcp.NewTool("find_implementations",
		mcp.WithDescription("List the subtypes of a type, or the overriding and implementing members of a method, declared at a source position. Results are ordered depth-first and may span many files."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Source file path, absolute or relative to the workspace root"),
		),
		mcp.WithNumber("line",
			mcp.Description("1-based line of the cursor (required unless offset is given)"),
		),
		mcp.WithNumber("column",
			mcp.Description("1-based byte column of the cursor. Default: 1"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Byte offset of the cursor; overrides line and column"),
		),
	)

	s.AddTool(findTool, handler.FindImplementations)

	return s
}
