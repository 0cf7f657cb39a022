// Package lsp defines the wire types and framing codec for the Language
// Server Protocol subset the core speaks to child language servers:
// initialize, textDocument/didOpen, textDocument/definition,
// textDocument/references, textDocument/hover,
// textDocument/documentSymbol, workspace/symbol, and the
// textDocument/publishDiagnostics notification it receives.
package lsp

import "encoding/json"

// Position is a zero-based line/character offset, as LSP defines it.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a Range within a file URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// DiagnosticSeverity mirrors the LSP DiagnosticSeverity enum.
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticSeverityError:
		return "Error"
	case DiagnosticSeverityWarning:
		return "Warning"
	case DiagnosticSeverityInformation:
		return "Information"
	case DiagnosticSeverityHint:
		return "Hint"
	default:
		return "Unknown"
	}
}

// DiagnosticInfo is a secondary location attached to a Diagnostic, e.g.
// pointing at the definition a redeclaration conflicts with.
type DiagnosticInfo struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// Diagnostic is one entry of a textDocument/publishDiagnostics payload.
// Code may be a string or a number per the LSP spec, so it is captured as
// json.RawMessage and exposed via CodeString.
type Diagnostic struct {
	Range              Range              `json:"range"`
	Severity           DiagnosticSeverity `json:"severity,omitempty"`
	Code               json.RawMessage    `json:"code,omitempty"`
	Source             string             `json:"source,omitempty"`
	Message            string             `json:"message"`
	RelatedInformation []DiagnosticInfo   `json:"relatedInformation,omitempty"`
}

// CodeString renders Code as a display string regardless of whether the
// server sent it as a JSON string or number.
func (d Diagnostic) CodeString() string {
	if len(d.Code) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(d.Code, &s) == nil {
		return s
	}
	return string(d.Code)
}

// PublishDiagnosticsParams is the params object of a
// textDocument/publishDiagnostics notification.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int         `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// TextDocumentItem is the full content of a document sent with didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentIdentifier refers to an already-open document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// DidOpenTextDocumentParams is the params object of
// textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseTextDocumentParams is the params object of
// textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// TextDocumentPositionParams is the common shape shared by definition,
// references, and hover requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext toggles whether the declaration itself is included in
// a textDocument/references response.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is the params object of textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// DocumentSymbolParams is the params object of
// textDocument/documentSymbol.
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// WorkspaceSymbolParams is the params object of workspace/symbol.
type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

// MarkupContent is a hover/documentation payload, either plain text or
// markdown per Kind.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the result of textDocument/hover. Contents may arrive as a
// MarkupContent object, a bare string, or a MarkedString[]; Hover's
// UnmarshalJSON normalizes all three into Contents.Value.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// UnmarshalJSON accepts the several shapes the LSP spec allows for
// Hover.contents: a MarkupContent object, a bare string, or an array of
// strings/MarkedString objects. Whichever shape arrives, the rendered
// text ends up in Contents.Value.
func (h *Hover) UnmarshalJSON(data []byte) error {
	var raw struct {
		Contents json.RawMessage `json:"contents"`
		Range    *Range          `json:"range,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.Range = raw.Range
	h.Contents = parseHoverContents(raw.Contents)
	return nil
}

func parseHoverContents(raw json.RawMessage) MarkupContent {
	if len(raw) == 0 {
		return MarkupContent{}
	}

	var asObject MarkupContent
	if json.Unmarshal(raw, &asObject) == nil && asObject.Value != "" {
		return asObject
	}

	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return MarkupContent{Kind: "plaintext", Value: asString}
	}

	var asArray []json.RawMessage
	if json.Unmarshal(raw, &asArray) == nil {
		var parts []string
		for _, item := range asArray {
			var s string
			if json.Unmarshal(item, &s) == nil {
				parts = append(parts, s)
				continue
			}
			var marked struct {
				Value string `json:"value"`
			}
			if json.Unmarshal(item, &marked) == nil {
				parts = append(parts, marked.Value)
			}
		}
		value := ""
		for i, p := range parts {
			if i > 0 {
				value += "\n\n"
			}
			value += p
		}
		return MarkupContent{Kind: "plaintext", Value: value}
	}

	return MarkupContent{}
}

// SymbolKind mirrors the LSP SymbolKind enum, restricted to the values the
// core surfaces to callers.
type SymbolKind int

// DocumentSymbol is one node of a textDocument/documentSymbol hierarchical
// response.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolInformation is the flat (non-hierarchical) symbol shape used by
// workspace/symbol, and returned by some servers from
// textDocument/documentSymbol instead of DocumentSymbol.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}

// ServerCapabilities is the subset of InitializeResult.capabilities the
// core inspects; unrecognized fields are ignored.
type ServerCapabilities struct {
	HoverProvider           bool `json:"hoverProvider,omitempty"`
	DefinitionProvider      bool `json:"definitionProvider,omitempty"`
	ReferencesProvider      bool `json:"referencesProvider,omitempty"`
	DocumentSymbolProvider  bool `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider bool `json:"workspaceSymbolProvider,omitempty"`
}

// InitializeParams is the params object of the initialize request.
type InitializeParams struct {
	ProcessID             *int            `json:"processId"`
	RootURI               *string         `json:"rootUri"`
	Capabilities          json.RawMessage `json:"capabilities"`
	InitializationOptions json.RawMessage `json:"initializationOptions,omitempty"`
}

// InitializeResult is the result of the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}
