package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/YZTangent/lsmcp/pkg/lsp"
	"github.com/YZTangent/lsmcp/pkg/lsp/client"
)

var diagnosticFormatter = client.NewDiagnosticFormatter()

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf("Error: %s", err)}},
	}
}

// GotoDefinitionArgs are the arguments of lsp_goto_definition.
type GotoDefinitionArgs struct {
	File      string `json:"file" jsonschema:"Absolute path to the file"`
	Line      int    `json:"line" jsonschema:"Line number (0-indexed)"`
	Character int    `json:"character" jsonschema:"Character offset in line (0-indexed)"`
}

func (s *Server) handleGotoDefinition(ctx context.Context, req *mcpsdk.CallToolRequest, args GotoDefinitionArgs) (*mcpsdk.CallToolResult, any, error) {
	locations, err := s.manager.GotoDefinition(ctx, args.File, args.Line, args.Character)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if len(locations) == 0 {
		return textResult("No definition found"), nil, nil
	}
	return textResult(formatLocations(locations, "")), nil, nil
}

// FindReferencesArgs are the arguments of lsp_find_references.
type FindReferencesArgs struct {
	File               string `json:"file" jsonschema:"Absolute path to the file"`
	Line               int    `json:"line" jsonschema:"Line number (0-indexed)"`
	Character          int    `json:"character" jsonschema:"Character offset in line (0-indexed)"`
	IncludeDeclaration *bool  `json:"includeDeclaration,omitempty" jsonschema:"Include the declaration in results"`
}

func (s *Server) handleFindReferences(ctx context.Context, req *mcpsdk.CallToolRequest, args FindReferencesArgs) (*mcpsdk.CallToolResult, any, error) {
	includeDecl := true
	if args.IncludeDeclaration != nil {
		includeDecl = *args.IncludeDeclaration
	}

	locations, err := s.manager.FindReferences(ctx, args.File, args.Line, args.Character, includeDecl)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if len(locations) == 0 {
		return textResult("No references found"), nil, nil
	}
	return textResult(formatLocations(locations, fmt.Sprintf("Found %d reference(s):\n", len(locations)))), nil, nil
}

// HoverArgs are the arguments of lsp_hover.
type HoverArgs struct {
	File      string `json:"file" jsonschema:"Absolute path to the file"`
	Line      int    `json:"line" jsonschema:"Line number (0-indexed)"`
	Character int    `json:"character" jsonschema:"Character offset in line (0-indexed)"`
}

func (s *Server) handleHover(ctx context.Context, req *mcpsdk.CallToolRequest, args HoverArgs) (*mcpsdk.CallToolResult, any, error) {
	hover, err := s.manager.Hover(ctx, args.File, args.Line, args.Character)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if hover == nil || hover.Contents.Value == "" {
		return textResult("No hover information available"), nil, nil
	}
	return textResult(hover.Contents.Value), nil, nil
}

// DocumentSymbolsArgs are the arguments of lsp_document_symbols.
type DocumentSymbolsArgs struct {
	File string `json:"file" jsonschema:"Absolute path to the file"`
}

func (s *Server) handleDocumentSymbols(ctx context.Context, req *mcpsdk.CallToolRequest, args DocumentSymbolsArgs) (*mcpsdk.CallToolResult, any, error) {
	hierarchical, flat, err := s.manager.DocumentSymbols(ctx, args.File)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if len(hierarchical) == 0 && len(flat) == 0 {
		return textResult("No symbols found"), nil, nil
	}
	return textResult(formatDocumentSymbols(hierarchical, flat)), nil, nil
}

// DiagnosticsArgs are the arguments of lsp_diagnostics.
type DiagnosticsArgs struct {
	File string `json:"file" jsonschema:"Absolute path to the file"`
}

func (s *Server) handleDiagnostics(ctx context.Context, req *mcpsdk.CallToolRequest, args DiagnosticsArgs) (*mcpsdk.CallToolResult, any, error) {
	diagnostics, err := s.manager.GetDiagnostics(ctx, args.File)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(diagnosticFormatter.FormatForAI("file://"+args.File, diagnostics)), nil, nil
}

// WorkspaceSymbolsArgs are the arguments of lsp_workspace_symbols.
type WorkspaceSymbolsArgs struct {
	Query    string `json:"query" jsonschema:"Symbol name or substring to search for"`
	Language string `json:"language" jsonschema:"LSP language identifier to search within, e.g. go, python, typescript"`
}

func (s *Server) handleWorkspaceSymbols(ctx context.Context, req *mcpsdk.CallToolRequest, args WorkspaceSymbolsArgs) (*mcpsdk.CallToolResult, any, error) {
	symbols, err := s.manager.WorkspaceSymbols(ctx, args.Query, args.Language)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if len(symbols) == 0 {
		return textResult("No symbols found"), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d symbol(s):\n\n", len(symbols))
	for _, sym := range symbols {
		fmt.Fprintf(&b, "- %s at %s\n", sym.Name, formatLocation(sym.Location))
	}
	return textResult(strings.TrimRight(b.String(), "\n")), nil, nil
}

// Formatting helpers, grounded on the same shape the original core used to
// render LSP results as plain text for a model to read.

func formatLocation(loc lsp.Location) string {
	return fmt.Sprintf("%s:%d:%d", strings.TrimPrefix(loc.URI, "file://"), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}

func formatLocations(locations []lsp.Location, header string) string {
	lines := make([]string, 0, len(locations))
	for _, loc := range locations {
		lines = append(lines, formatLocation(loc))
	}
	return header + strings.Join(lines, "\n")
}

func formatDocumentSymbols(hierarchical []lsp.DocumentSymbol, flat []lsp.SymbolInformation) string {
	if len(flat) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d symbol(s):\n\n", len(flat))
		for _, sym := range flat {
			fmt.Fprintf(&b, "- %s at %s\n", sym.Name, formatLocation(sym.Location))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var b strings.Builder
	b.WriteString("Document outline:\n\n")
	for _, sym := range hierarchical {
		writeDocumentSymbol(&b, sym, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDocumentSymbol(b *strings.Builder, sym lsp.DocumentSymbol, indent int) {
	fmt.Fprintf(b, "%s- %s at %d:%d\n", strings.Repeat("  ", indent), sym.Name, sym.SelectionRange.Start.Line+1, sym.SelectionRange.Start.Character+1)
	for _, child := range sym.Children {
		writeDocumentSymbol(b, child, indent+1)
	}
}
