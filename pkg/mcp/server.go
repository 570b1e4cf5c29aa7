// Package mcp exposes game definition validation as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with the gamedef tools registered.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"gamedef",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("gamedef/validate",
			mcp.WithDescription("Validate a game definition (file path, URL or inline YAML/JSON) and return the report"),
			mcp.WithString("source", mcp.Required(), mcp.Description("File path, http(s) URL or the document text itself")),
			mcp.WithString("fail_on", mcp.Description("Lowest failing severity: 'error' (default) or 'warn'")),
			mcp.WithString("format", mcp.Description("Report format: 'json' (default), 'text' or 'markdown'")),
		),
		h.HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("gamedef/preprocess",
			mcp.WithDescription("Merge a game definition with its includes and return the merged YAML"),
			mcp.WithString("source", mcp.Required(), mcp.Description("File path, http(s) URL or the document text itself")),
		),
		h.HandlePreprocess,
	)

	s.AddTool(
		mcp.NewTool("gamedef/schema",
			mcp.WithDescription("Export a gamedef JSON Schema (document envelope or registry components file)"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'document' or 'registry'")),
		),
		h.HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("gamedef/diagram",
			mcp.WithDescription("Draw the state graph of a game definition"),
			mcp.WithString("source", mcp.Required(), mcp.Description("File path, http(s) URL or the document text itself")),
			mcp.WithString("format", mcp.Description("Diagram format: 'mermaid' (default) or 'ascii'")),
		),
		h.HandleDiagram,
	)

	return s
}
