package client

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/YZTangent/lsmcp/pkg/config"
	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/lsp"
)

// Manager is the lifecycle pool of per-language Clients: at most one
// client is ever spawned per language, created lazily on first use and
// shared across every subsequent caller for that language.
type Manager struct {
	loader  *config.Loader
	rootDir string

	mu      sync.Mutex
	clients map[string]*Client
}

// NewManager builds a Manager rooted at rootDir, using loader to resolve
// which server to spawn per language or file extension.
func NewManager(loader *config.Loader, rootDir string) *Manager {
	return &Manager{
		loader:  loader,
		rootDir: rootDir,
		clients: make(map[string]*Client),
	}
}

// newClient is a package-level indirection to New, so tests can substitute
// a fake spawn (e.g. one that counts calls or injects latency) without
// launching a real child process.
var newClient = New

// GetClient returns the already-running client for language, if any,
// without spawning one.
func (m *Manager) GetClient(language string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[language]
	return c, ok
}

// getOrCreateClient returns the client for language, spawning it on first
// use. The manager mutex is held across the whole resolve/spawn/initialize
// sequence, not just the map lookup: per spec.md §4.8, client creation is
// serialized so two concurrent callers for the same never-yet-seen language
// never both spawn a child process. Creation is rare and amortized, so this
// is an acceptable price for the correctness guarantee.
func (m *Manager) getOrCreateClient(ctx context.Context, language string) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[language]; ok {
		logger.Debug("reusing existing LSP client", "language", language)
		return c, nil
	}

	pkg, err := m.loader.ResolveByLanguage(language)
	if err != nil {
		return nil, err
	}

	c, err := newClient(ctx, language, pkg, m.rootDir)
	if err != nil {
		return nil, err
	}

	m.clients[language] = c
	return c, nil
}

// getClientForFile resolves path's language by extension and returns its
// client, spawning it on first use.
func (m *Manager) getClientForFile(ctx context.Context, path string) (*Client, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, errors.NewInvalidPath(path)
	}

	pkg, err := m.loader.ResolveByExtension(ext)
	if err != nil {
		return nil, err
	}
	return m.getOrCreateClient(ctx, pkg.PrimaryLanguage())
}

// GotoDefinition resolves path's language server and delegates.
func (m *Manager) GotoDefinition(ctx context.Context, path string, line, character int) ([]lsp.Location, error) {
	c, err := m.getClientForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.GotoDefinition(ctx, path, line, character)
}

// FindReferences resolves path's language server and delegates.
func (m *Manager) FindReferences(ctx context.Context, path string, line, character int, includeDeclaration bool) ([]lsp.Location, error) {
	c, err := m.getClientForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.FindReferences(ctx, path, line, character, includeDeclaration)
}

// Hover resolves path's language server and delegates.
func (m *Manager) Hover(ctx context.Context, path string, line, character int) (*lsp.Hover, error) {
	c, err := m.getClientForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.Hover(ctx, path, line, character)
}

// DocumentSymbols resolves path's language server and delegates.
func (m *Manager) DocumentSymbols(ctx context.Context, path string) ([]lsp.DocumentSymbol, []lsp.SymbolInformation, error) {
	c, err := m.getClientForFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return c.DocumentSymbols(ctx, path)
}

// GetDiagnostics resolves path's language server and delegates.
func (m *Manager) GetDiagnostics(ctx context.Context, path string) ([]lsp.Diagnostic, error) {
	c, err := m.getClientForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.GetDiagnostics(ctx, path)
}

// DidClose tells path's already-running language server (if any) that the
// document is closed. If no client is running for path's language yet,
// there is nothing open to close and this is a no-op.
func (m *Manager) DidClose(ctx context.Context, path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return errors.NewInvalidPath(path)
	}
	pkg, err := m.loader.ResolveByExtension(ext)
	if err != nil {
		return err
	}
	c, ok := m.GetClient(pkg.PrimaryLanguage())
	if !ok {
		return nil
	}
	return c.DidClose(ctx, path)
}

// WorkspaceSymbols spawns (or reuses) the client for language and searches
// across its workspace view for query.
func (m *Manager) WorkspaceSymbols(ctx context.Context, query, language string) ([]lsp.SymbolInformation, error) {
	c, err := m.getOrCreateClient(ctx, language)
	if err != nil {
		return nil, err
	}
	return c.WorkspaceSymbols(ctx, query)
}

// ActiveLanguages returns the languages with a currently running client,
// sorted for stable output.
func (m *Manager) ActiveLanguages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	langs := make([]string, 0, len(m.clients))
	for lang := range m.clients {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Shutdown closes every running client concurrently. Errors from
// individual clients are logged but do not stop the remaining clients from
// being closed.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	var g errgroup.Group
	for language, c := range clients {
		g.Go(func() error {
			logger.Info("shutting down LSP client", "language", language)
			if err := c.Close(); err != nil {
				logger.Warn("error shutting down LSP client", "language", language, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
