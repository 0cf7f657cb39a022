package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/lsp"
	"github.com/YZTangent/lsmcp/pkg/schema"
)

// scriptedServer is a fake language server driven entirely by the test: it
// reads framed JSON-RPC off one io.Pipe and writes framed responses onto
// another, letting client_test exercise Client end to end without
// spawning any real process or LSP binary.
type scriptedServer struct {
	reader *lsp.Reader
	w      io.Writer
	t      *testing.T
}

func (s *scriptedServer) respond(id json.RawMessage, result any) {
	body, err := json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{"2.0", id, result})
	require.NoError(s.t, err)
	_, err = s.w.Write(frame(body))
	require.NoError(s.t, err)
}

func (s *scriptedServer) notify(method string, params any) {
	body, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{"2.0", method, params})
	require.NoError(s.t, err)
	_, err = s.w.Write(frame(body))
	require.NoError(s.t, err)
}

func frame(body []byte) []byte {
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body))
}

// newTestClient wires a Client to a scriptedServer over in-memory pipes
// and runs script in its own goroutine to answer every request the Client
// makes. script receives the decoded method/id/params for each incoming
// message and is responsible for calling respond/notify as appropriate.
func newTestClient(t *testing.T, rootDir string, script func(srv *scriptedServer, msg *lsp.RawMessage)) *Client {
	t.Helper()

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	tr := &transport{
		name:        "fake-ls",
		stdin:       clientToServerW,
		writeCh:     make(chan writeRequest),
		stopWrite:   make(chan struct{}),
		diagnostics: newDiagnosticsTable(),
		readerDone:  make(chan struct{}),
	}
	tr.correlator = newCorrelator(tr.writeFrame)
	tr.startLoops(serverToClientR)

	srv := &scriptedServer{reader: lsp.NewReader(clientToServerR), w: serverToClientW, t: t}
	go func() {
		// Once the client closes its stdin (on Close), this read errors;
		// closing our write side in turn EOFs the client's reader loop so
		// Close doesn't block forever waiting on readerDone.
		defer serverToClientW.Close()
		for {
			msg, err := srv.reader.ReadMessage()
			if err != nil {
				return
			}
			script(srv, msg)
		}
	}()

	return &Client{
		name:      "fake-ls",
		language:  "go",
		config:    &schema.LspPackage{Name: "fake-ls", Languages: []string{"go"}},
		rootURI:   pathToURI(rootDir),
		transport: tr,
		documents: newDocumentTracker(),
	}
}

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestClient_Hover_HappyPath(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		switch msg.Method {
		case "textDocument/hover":
			srv.respond(msg.ID, map[string]any{"contents": map[string]string{"kind": "markdown", "value": "**func** main()"}})
		}
	})
	defer c.Close()

	hover, err := c.Hover(context.Background(), path, 0, 8)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Equal(t, "**func** main()", hover.Contents.Value)
}

func TestClient_GotoDefinition_SingleLocation(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "textDocument/definition" {
			srv.respond(msg.ID, map[string]any{
				"uri":   "file:///somewhere/other.go",
				"range": map[string]any{"start": map[string]int{"line": 3, "character": 1}, "end": map[string]int{"line": 3, "character": 5}},
			})
		}
	})
	defer c.Close()

	locs, err := c.GotoDefinition(context.Background(), path, 0, 8)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "file:///somewhere/other.go", locs[0].URI)
}

func TestClient_FindReferences_Concurrent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "textDocument/references" {
			srv.respond(msg.ID, []map[string]any{
				{"uri": "file:///a.go", "range": map[string]any{"start": map[string]int{"line": 1}, "end": map[string]int{"line": 1, "character": 3}}},
				{"uri": "file:///b.go", "range": map[string]any{"start": map[string]int{"line": 2}, "end": map[string]int{"line": 2, "character": 3}}},
			})
		}
	})
	defer c.Close()

	results := make(chan int, 5)
	for i := 0; i < 5; i++ {
		go func() {
			locs, err := c.FindReferences(context.Background(), path, 0, 8, true)
			require.NoError(t, err)
			results <- len(locs)
		}()
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, 2, <-results)
	}
}

func TestClient_DocumentSymbols_Hierarchical(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "textDocument/documentSymbol" {
			srv.respond(msg.ID, []map[string]any{
				{"name": "main", "kind": 12, "range": map[string]any{"start": map[string]int{}, "end": map[string]int{"line": 5}}, "selectionRange": map[string]any{"start": map[string]int{}, "end": map[string]int{}}},
			})
		}
	})
	defer c.Close()

	hier, flat, err := c.DocumentSymbols(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, flat)
	require.Len(t, hier, 1)
	assert.Equal(t, "main", hier[0].Name)
}

func TestClient_DocumentSymbols_Flat(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "textDocument/documentSymbol" {
			srv.respond(msg.ID, []map[string]any{
				{"name": "main", "kind": 12, "location": map[string]any{"uri": "file:///main.go", "range": map[string]any{"start": map[string]int{}, "end": map[string]int{}}}},
			})
		}
	})
	defer c.Close()

	hier, flat, err := c.DocumentSymbols(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, hier)
	require.Len(t, flat, 1)
	assert.Equal(t, "main", flat[0].Name)
}

func TestClient_WorkspaceSymbols(t *testing.T) {
	dir := t.TempDir()

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "workspace/symbol" {
			srv.respond(msg.ID, []map[string]any{
				{"name": "Handler", "kind": 6, "location": map[string]any{"uri": "file:///h.go", "range": map[string]any{"start": map[string]int{}, "end": map[string]int{}}}},
			})
		}
	})
	defer c.Close()

	symbols, err := c.WorkspaceSymbols(context.Background(), "Handler")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Handler", symbols[0].Name)
}

func TestClient_GetDiagnostics_PushedAfterOpen(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		if msg.Method == "textDocument/didOpen" {
			srv.notify("textDocument/publishDiagnostics", map[string]any{
				"uri": pathToURI(path),
				"diagnostics": []map[string]any{
					{"range": map[string]any{"start": map[string]int{"line": 0}, "end": map[string]int{"line": 0, "character": 5}}, "severity": 1, "message": "boom"},
				},
			})
		}
	})
	defer c.Close()

	require.Eventually(t, func() bool {
		ds, err := c.GetDiagnostics(context.Background(), path)
		return err == nil && len(ds) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_DidClose_SendsNotificationAndAllowsReopen(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.go", "package main\n")

	var didCloseCount int
	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {
		switch msg.Method {
		case "textDocument/hover":
			srv.respond(msg.ID, map[string]any{"contents": map[string]string{"kind": "markdown", "value": "hover"}})
		case "textDocument/didClose":
			didCloseCount++
		}
	})
	defer c.Close()

	_, err := c.Hover(context.Background(), path, 0, 8)
	require.NoError(t, err)

	require.NoError(t, c.DidClose(context.Background(), path))
	require.Eventually(t, func() bool { return didCloseCount == 1 }, time.Second, 10*time.Millisecond)

	_, err = c.Hover(context.Background(), path, 0, 8)
	require.NoError(t, err)
}

func TestClient_Hover_NonexistentFileIsInvalidPath(t *testing.T) {
	dir := t.TempDir()
	c := newTestClient(t, dir, func(srv *scriptedServer, msg *lsp.RawMessage) {})
	defer c.Close()

	_, err := c.Hover(context.Background(), filepath.Join(dir, "nonexistent.go"), 0, 0)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidPath, errors.Kind(err))
}
