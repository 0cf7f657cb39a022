// Package config resolves an LspPackage for a file extension or language
// name, layering an optional user override file over a set of built-in
// defaults the way the core ships zero-config support for popular
// languages.
package config

import "github.com/YZTangent/lsmcp/pkg/schema"

// Defaults returns the built-in language server descriptors keyed by
// language name. TypeScript and JavaScript share a single server.
func Defaults() map[string]*schema.LspPackage {
	ts := typeScriptPackage()
	return map[string]*schema.LspPackage{
		"typescript": ts,
		"javascript": ts,
		"python":     pythonPackage(),
		"rust":       rustPackage(),
		"go":         goPackage(),
	}
}

func typeScriptPackage() *schema.LspPackage {
	return &schema.LspPackage{
		Name:           "typescript-language-server",
		Command:        "typescript-language-server",
		Args:           []string{"--stdio"},
		Languages:      []string{"typescript", "javascript"},
		FileExtensions: []string{"ts", "tsx", "js", "jsx", "mjs", "cjs"},
	}
}

func pythonPackage() *schema.LspPackage {
	return &schema.LspPackage{
		Name:           "pyright",
		Command:        "pyright-langserver",
		Args:           []string{"--stdio"},
		Languages:      []string{"python"},
		FileExtensions: []string{"py", "pyi"},
	}
}

func rustPackage() *schema.LspPackage {
	return &schema.LspPackage{
		Name:           "rust-analyzer",
		Command:        "rust-analyzer",
		Languages:      []string{"rust"},
		FileExtensions: []string{"rs"},
	}
}

func goPackage() *schema.LspPackage {
	return &schema.LspPackage{
		Name:           "gopls",
		Command:        "gopls",
		Languages:      []string{"go"},
		FileExtensions: []string{"go"},
	}
}
