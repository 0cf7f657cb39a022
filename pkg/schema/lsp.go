// Package schema holds the data descriptors the core consumes from its
// external collaborators: the LSP server packages resolved by the config
// loader, and the user-facing override file shape.
package schema

import "encoding/json"

// LspPackage describes how to launch one LSP server and which languages and
// file extensions it serves. It is produced by the config loader
// (pkg/config) and treated as immutable read-only input by the core once a
// client has been constructed from it.
type LspPackage struct {
	// Name identifies the server for logging and error messages, e.g.
	// "gopls" or "typescript-language-server".
	Name string `json:"name" toml:"name"`

	// Command is the executable to spawn.
	Command string `json:"command" toml:"command"`

	// Args are passed to Command, e.g. []string{"--stdio"}.
	Args []string `json:"args" toml:"args"`

	// InitializationOptions is passed verbatim as
	// initialize.initializationOptions. May be nil.
	InitializationOptions json.RawMessage `json:"initializationOptions,omitempty" toml:"-"`

	// Languages are the LSP language identifiers this server serves, e.g.
	// []string{"go"} or []string{"typescript", "javascript"}. The first
	// entry is used as languageId when the package is resolved by
	// extension and no explicit language was requested.
	Languages []string `json:"languages" toml:"languages"`

	// FileExtensions are matched without a leading dot, e.g. "go", "ts".
	FileExtensions []string `json:"fileExtensions" toml:"fileExtensions"`
}

// HasExtension reports whether ext (without a leading dot) is served by
// this package.
func (p *LspPackage) HasExtension(ext string) bool {
	for _, e := range p.FileExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// HasLanguage reports whether language is served by this package.
func (p *LspPackage) HasLanguage(language string) bool {
	for _, l := range p.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// PrimaryLanguage returns the language identifier to announce in
// textDocument/didOpen when a package was resolved by file extension rather
// than by an explicit language name.
func (p *LspPackage) PrimaryLanguage() string {
	if len(p.Languages) == 0 {
		return ""
	}
	return p.Languages[0]
}

// UserConfig is the shape of an optional .lsmcp.toml override file: a map
// of language name to package descriptor, merged over the built-in
// defaults by pkg/config.
type UserConfig struct {
	LSP map[string]*LspPackage `toml:"lsp"`
}
