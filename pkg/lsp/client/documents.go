package client

import (
	"context"
	"os"
	"sync"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/lsp"
)

// documentTracker remembers which files have already been announced to
// the server with textDocument/didOpen, so repeated operations on the
// same file don't resend its content. There is no didChange support: a
// document is opened with a snapshot of its contents at that time and
// never refreshed while it stays open; after close, the next ensureOpen
// reads the file again and sends a fresh didOpen.
type documentTracker struct {
	mu     sync.Mutex
	opened map[string]bool
}

func newDocumentTracker() *documentTracker {
	return &documentTracker{opened: make(map[string]bool)}
}

// ensureOpen sends textDocument/didOpen for path the first time it is
// seen, reading its current contents from disk. Subsequent calls for the
// same path are no-ops.
func (d *documentTracker) ensureOpen(ctx context.Context, c *correlator, path, uri, languageID string) error {
	d.mu.Lock()
	if d.opened[path] {
		d.mu.Unlock()
		return nil
	}
	d.opened[path] = true
	d.mu.Unlock()

	contents, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO(err)
	}

	params := lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       string(contents),
		},
	}
	return c.notify("textDocument/didOpen", params)
}

// close sends textDocument/didClose for path and removes it from the open
// set, if it was open. A path that was never opened is a no-op: there is
// nothing to tell the server and nothing to remove.
func (d *documentTracker) close(ctx context.Context, c *correlator, path, uri string) error {
	d.mu.Lock()
	if !d.opened[path] {
		d.mu.Unlock()
		return nil
	}
	delete(d.opened, path)
	d.mu.Unlock()

	params := lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	}
	return c.notify("textDocument/didClose", params)
}
