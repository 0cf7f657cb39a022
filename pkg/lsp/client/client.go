// Package client implements one LSP client per language server: process
// lifecycle, the initialize handshake, lazy document tracking, and the
// typed operation façade (goto-definition, references, hover, document
// symbols, workspace symbols, diagnostics) the manager and MCP front end
// call into.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/lsp"
	"github.com/YZTangent/lsmcp/pkg/schema"
)

// Client drives one spawned language server for the duration of its
// process lifetime. A Client is safe for concurrent use by multiple
// callers; requests are correlated independently and a document is opened
// at most once until it is closed with DidClose.
type Client struct {
	name     string
	language string
	config   *schema.LspPackage
	rootURI  string

	transport *transport
	documents *documentTracker

	capabilities lsp.ServerCapabilities
}

// New spawns config.Command, performs the initialize/initialized
// handshake, and returns a ready-to-use Client. rootDir is the workspace
// directory passed as rootUri.
func New(ctx context.Context, language string, config *schema.LspPackage, rootDir string) (*Client, error) {
	logger.Info("spawning LSP server", "language", language, "server", config.Name)

	tr, err := spawnTransport(ctx, config, rootDir)
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:      config.Name,
		language:  language,
		config:    config,
		rootURI:   pathToURI(rootDir),
		transport: tr,
		documents: newDocumentTracker(),
	}

	if err := c.initialize(ctx); err != nil {
		_ = tr.close()
		return nil, err
	}

	logger.Info("LSP server initialized", "language", language, "server", config.Name)
	return c, nil
}

func (c *Client) initialize(ctx context.Context) error {
	pid := os.Getpid()
	rootURI := c.rootURI
	params := lsp.InitializeParams{
		ProcessID:             &pid,
		RootURI:               &rootURI,
		Capabilities:          json.RawMessage(`{}`),
		InitializationOptions: c.config.InitializationOptions,
	}

	raw, err := c.transport.correlator.send(ctx, "initialize", params)
	if err != nil {
		return err
	}

	var result lsp.InitializeResult
	if err := unmarshalParams(raw, &result); err != nil {
		return err
	}
	c.capabilities = result.Capabilities

	return c.transport.correlator.notify("initialized", struct{}{})
}

// Close terminates the child process. There is no shutdown/exit
// handshake; see transport.close.
func (c *Client) Close() error {
	return c.transport.close()
}

// Capabilities returns the capabilities the server advertised during
// initialize.
func (c *Client) Capabilities() lsp.ServerCapabilities {
	return c.capabilities
}

// traceCall logs the start of one façade operation under a fresh
// correlation id, so the lazy-open-then-request sequence a single
// goto-definition or hover call triggers can be traced as one unit across
// the resulting log lines.
func (c *Client) traceCall(op, path string) string {
	id := uuid.NewString()
	logger.Debug("lsp call", "op", op, "call_id", id, "language", c.language, "path", path)
	return id
}

func (c *Client) ensureOpen(ctx context.Context, path string) (string, error) {
	uri, err := filePathToURI(path)
	if err != nil {
		return "", err
	}
	if err := c.documents.ensureOpen(ctx, c.transport.correlator, path, uri, c.language); err != nil {
		return "", err
	}
	return uri, nil
}

// DidClose tells the server path is no longer open, per spec.md §4.6: a
// didClose removes the document from the open set so a later per-file
// operation on the same path reopens it. Closing a path that was never
// opened is a no-op.
func (c *Client) DidClose(ctx context.Context, path string) error {
	uri, err := filePathToURI(path)
	if err != nil {
		return err
	}
	return c.documents.close(ctx, c.transport.correlator, path, uri)
}

// GotoDefinition resolves the symbol at (line, character) in path to its
// defining location(s). line and character are zero-based, per LSP.
func (c *Client) GotoDefinition(ctx context.Context, path string, line, character int) ([]lsp.Location, error) {
	c.traceCall("GotoDefinition", path)
	uri, err := c.ensureOpen(ctx, path)
	if err != nil {
		return nil, err
	}

	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     lsp.Position{Line: line, Character: character},
	}
	raw, err := c.transport.correlator.send(ctx, "textDocument/definition", params)
	if err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// FindReferences resolves every reference to the symbol at (line,
// character) in path.
func (c *Client) FindReferences(ctx context.Context, path string, line, character int, includeDeclaration bool) ([]lsp.Location, error) {
	c.traceCall("FindReferences", path)
	uri, err := c.ensureOpen(ctx, path)
	if err != nil {
		return nil, err
	}

	params := lsp.ReferenceParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: uri},
			Position:     lsp.Position{Line: line, Character: character},
		},
		Context: lsp.ReferenceContext{IncludeDeclaration: includeDeclaration},
	}
	raw, err := c.transport.correlator.send(ctx, "textDocument/references", params)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var locations []lsp.Location
	if err := unmarshalParams(raw, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Hover returns the hover content at (line, character) in path, or nil if
// the server has none to offer there.
func (c *Client) Hover(ctx context.Context, path string, line, character int) (*lsp.Hover, error) {
	c.traceCall("Hover", path)
	uri, err := c.ensureOpen(ctx, path)
	if err != nil {
		return nil, err
	}

	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     lsp.Position{Line: line, Character: character},
	}
	raw, err := c.transport.correlator.send(ctx, "textDocument/hover", params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hover lsp.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		return nil, errors.NewJSON(err)
	}
	return &hover, nil
}

// DocumentSymbols returns the hierarchical or flat symbol outline for
// path, whichever shape the server returns.
func (c *Client) DocumentSymbols(ctx context.Context, path string) ([]lsp.DocumentSymbol, []lsp.SymbolInformation, error) {
	c.traceCall("DocumentSymbols", path)
	uri, err := c.ensureOpen(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	params := lsp.DocumentSymbolParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}}
	raw, err := c.transport.correlator.send(ctx, "textDocument/documentSymbol", params)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, nil
	}

	var rawItems []json.RawMessage
	if err := unmarshalParams(raw, &rawItems); err != nil {
		return nil, nil, err
	}
	if len(rawItems) == 0 {
		return nil, nil, nil
	}

	// SymbolInformation carries a "location" object; DocumentSymbol carries
	// "range"/"selectionRange" instead. Peek at the first element's shape
	// to tell the two apart.
	var probe struct {
		Location json.RawMessage `json:"location"`
	}
	_ = json.Unmarshal(rawItems[0], &probe)
	if len(probe.Location) > 0 {
		var flat []lsp.SymbolInformation
		if err := unmarshalParams(raw, &flat); err != nil {
			return nil, nil, err
		}
		return nil, flat, nil
	}

	var hierarchical []lsp.DocumentSymbol
	if err := unmarshalParams(raw, &hierarchical); err != nil {
		return nil, nil, err
	}
	return hierarchical, nil, nil
}

// WorkspaceSymbols searches the whole workspace for symbols matching
// query.
func (c *Client) WorkspaceSymbols(ctx context.Context, query string) ([]lsp.SymbolInformation, error) {
	c.traceCall("WorkspaceSymbols", query)
	params := lsp.WorkspaceSymbolParams{Query: query}
	raw, err := c.transport.correlator.send(ctx, "workspace/symbol", params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var symbols []lsp.SymbolInformation
	if err := unmarshalParams(raw, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// GetDiagnostics returns the most recently published diagnostics for
// path. If the document has not been opened yet this opens it first (a
// server only publishes diagnostics for documents it knows about) and
// returns whatever has arrived by the time this call returns, which may
// be empty if the server has not yet analyzed the file.
func (c *Client) GetDiagnostics(ctx context.Context, path string) ([]lsp.Diagnostic, error) {
	c.traceCall("GetDiagnostics", path)
	uri, err := c.ensureOpen(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.transport.diagnostics.get(uri), nil
}

func decodeLocations(raw json.RawMessage) ([]lsp.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single lsp.Location
	if json.Unmarshal(raw, &single) == nil && single.URI != "" {
		return []lsp.Location{single}, nil
	}

	// A LocationLink[] also decodes into []Location (with empty URIs), so
	// only accept this shape when the entries carry a uri.
	var multiple []lsp.Location
	if json.Unmarshal(raw, &multiple) == nil && (len(multiple) == 0 || multiple[0].URI != "") {
		return multiple, nil
	}

	var links []struct {
		TargetURI   string   `json:"targetUri"`
		TargetRange lsp.Range `json:"targetRange"`
	}
	if err := unmarshalParams(raw, &links); err != nil {
		return nil, err
	}
	locations := make([]lsp.Location, 0, len(links))
	for _, l := range links {
		locations = append(locations, lsp.Location{URI: l.TargetURI, Range: l.TargetRange})
	}
	return locations, nil
}

// pathToURI converts an absolute directory path to a file:// URI, used for
// the workspace root where the path is trusted to exist.
func pathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// filePathToURI converts path to a file:// URI, rejecting paths that can't
// be made absolute.
func filePathToURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewInvalidPath(path)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", errors.NewInvalidPath(fmt.Sprintf("%s: %s", path, err))
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
