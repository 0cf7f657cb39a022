// Package mcp exposes the LSP client manager's operations as Model
// Context Protocol tools over stdio, using the official
// modelcontextprotocol/go-sdk.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/YZTangent/lsmcp/pkg/lsp/client"
)

const serverName = "lsmcp"

// Version is the protocol-facing server version string reported to MCP
// clients during initialize.
const Version = "0.1.0"

// Server wraps the SDK server and the six lsp_* tools registered against
// it.
type Server struct {
	sdk     *mcpsdk.Server
	manager *client.Manager
}

// NewServer builds a Server with every tool registered against manager.
func NewServer(manager *client.Manager) *Server {
	sdk := mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: Version}, nil)

	s := &Server{sdk: sdk, manager: manager}
	s.registerTools()
	return s
}

// ServerInfo returns the Implementation this server advertises.
func (s *Server) ServerInfo() *mcpsdk.Implementation {
	return &mcpsdk.Implementation{Name: serverName, Version: Version}
}

// SDK returns the underlying SDK server, mainly for tests that need to
// drive tool calls directly.
func (s *Server) SDK() *mcpsdk.Server {
	return s.sdk
}

// Run serves the MCP protocol over stdio until ctx is canceled or the
// transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_goto_definition",
		Description: "Navigate to the definition of a symbol at a given position in a file. Returns the location(s) where the symbol is defined.",
	}, s.handleGotoDefinition)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_find_references",
		Description: "Find all references to a symbol at a given position. Returns all locations where the symbol is used.",
	}, s.handleFindReferences)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_hover",
		Description: "Get hover information (documentation, type info, signatures) for a symbol at a given position.",
	}, s.handleHover)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_document_symbols",
		Description: "Get the symbol outline for a file (classes, functions, variables, etc.). Returns a hierarchical structure of all symbols in the file, or a flat list when the server reports flat symbols.",
	}, s.handleDocumentSymbols)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_diagnostics",
		Description: "Get the diagnostics (errors, warnings, hints) currently known for a file.",
	}, s.handleDiagnostics)

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "lsp_workspace_symbols",
		Description: "Search for symbols matching a query across the whole workspace for a given language.",
	}, s.handleWorkspaceSymbols)
}
