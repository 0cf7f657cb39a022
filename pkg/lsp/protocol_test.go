package lsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_JSON(t *testing.T) {
	p := Position{Line: 10, Character: 25}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":10,"character":25}`, string(data))

	var decoded Position
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)
}

func TestRange_JSON(t *testing.T) {
	r := Range{Start: Position{Line: 1, Character: 0}, End: Position{Line: 10, Character: 15}}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":{"line":1,"character":0},"end":{"line":10,"character":15}}`, string(data))
}

func TestLocation_JSON(t *testing.T) {
	loc := Location{URI: "file:///a.go", Range: Range{Start: Position{Line: 1}, End: Position{Line: 1, Character: 5}}}
	data, err := json.Marshal(loc)
	require.NoError(t, err)
	var decoded Location
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, loc, decoded)
}

func TestDiagnostic_CodeString(t *testing.T) {
	d := Diagnostic{Code: json.RawMessage(`"E001"`)}
	assert.Equal(t, "E001", d.CodeString())

	d = Diagnostic{Code: json.RawMessage(`42`)}
	assert.Equal(t, "42", d.CodeString())

	d = Diagnostic{}
	assert.Equal(t, "", d.CodeString())
}

func TestDiagnostic_RoundTrip(t *testing.T) {
	d := Diagnostic{
		Range:    Range{Start: Position{Line: 5, Character: 10}, End: Position{Line: 5, Character: 20}},
		Severity: DiagnosticSeverityWarning,
		Code:     json.RawMessage(`"YAML001"`),
		Source:   "gopls",
		Message:  "unused variable",
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded Diagnostic
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d.Range, decoded.Range)
	assert.Equal(t, d.Severity, decoded.Severity)
	assert.Equal(t, "YAML001", decoded.CodeString())
	assert.Equal(t, d.Message, decoded.Message)
}

func TestPublishDiagnosticsParams_JSON(t *testing.T) {
	raw := `{"uri":"file:///a.go","diagnostics":[{"range":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}},"severity":1,"message":"boom"}]}`
	var params PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal([]byte(raw), &params))
	assert.Equal(t, "file:///a.go", params.URI)
	require.Len(t, params.Diagnostics, 1)
	assert.Equal(t, DiagnosticSeverityError, params.Diagnostics[0].Severity)
	assert.Equal(t, "boom", params.Diagnostics[0].Message)
}

func TestHover_UnmarshalJSON_ObjectContents(t *testing.T) {
	raw := `{"contents":{"kind":"markdown","value":"**func** foo()"}}`
	var h Hover
	require.NoError(t, json.Unmarshal([]byte(raw), &h))
	assert.Equal(t, "markdown", h.Contents.Kind)
	assert.Equal(t, "**func** foo()", h.Contents.Value)
}

func TestHover_UnmarshalJSON_StringContents(t *testing.T) {
	raw := `{"contents":"plain hover text"}`
	var h Hover
	require.NoError(t, json.Unmarshal([]byte(raw), &h))
	assert.Equal(t, "plain hover text", h.Contents.Value)
}

func TestHover_UnmarshalJSON_ArrayContents(t *testing.T) {
	raw := `{"contents":["line one", {"value":"line two"}]}`
	var h Hover
	require.NoError(t, json.Unmarshal([]byte(raw), &h))
	assert.Equal(t, "line one\n\nline two", h.Contents.Value)
}

func TestDocumentSymbol_JSON(t *testing.T) {
	sym := DocumentSymbol{
		Name:  "Foo",
		Kind:  SymbolKind(12),
		Range: Range{Start: Position{Line: 0}, End: Position{Line: 5}},
		Children: []DocumentSymbol{
			{Name: "Bar", Kind: SymbolKind(6), Range: Range{Start: Position{Line: 1}, End: Position{Line: 2}}},
		},
	}
	data, err := json.Marshal(sym)
	require.NoError(t, err)

	var decoded DocumentSymbol
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, sym.Name, decoded.Name)
	require.Len(t, decoded.Children, 1)
	assert.Equal(t, "Bar", decoded.Children[0].Name)
}

func TestSymbolInformation_JSON(t *testing.T) {
	si := SymbolInformation{
		Name:          "main",
		Kind:          SymbolKind(12),
		Location:      Location{URI: "file:///main.go", Range: Range{}},
		ContainerName: "main",
	}
	data, err := json.Marshal(si)
	require.NoError(t, err)
	var decoded SymbolInformation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, si, decoded)
}
