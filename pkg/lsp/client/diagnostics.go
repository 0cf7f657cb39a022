package client

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/YZTangent/lsmcp/pkg/lsp"
)

// diagnosticsTable stores the most recent textDocument/publishDiagnostics
// payload per URI. A new payload replaces the previous entry for that URI
// rather than merging into it, matching how LSP servers are expected to
// resend the full current set on every publish.
type diagnosticsTable struct {
	mu    sync.RWMutex
	byURI map[string][]lsp.Diagnostic
}

func newDiagnosticsTable() *diagnosticsTable {
	return &diagnosticsTable{byURI: make(map[string][]lsp.Diagnostic)}
}

func (t *diagnosticsTable) publish(params lsp.PublishDiagnosticsParams) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byURI[params.URI] = params.Diagnostics
}

func (t *diagnosticsTable) get(uri string) []lsp.Diagnostic {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byURI[uri]
}

func (t *diagnosticsTable) all() map[string][]lsp.Diagnostic {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string][]lsp.Diagnostic, len(t.byURI))
	for k, v := range t.byURI {
		out[k] = v
	}
	return out
}

// DiagnosticFormatter renders diagnostic sets into strings for tool
// callers: a verbose AI-facing summary, a detailed report, a compiler-style
// compact line format, and an aggregate summary across files.
type DiagnosticFormatter struct{}

// NewDiagnosticFormatter returns a stateless DiagnosticFormatter.
func NewDiagnosticFormatter() *DiagnosticFormatter {
	return &DiagnosticFormatter{}
}

// FormatForAI renders a short natural-language summary suitable for
// embedding in a tool result sent back to an MCP client.
func (f *DiagnosticFormatter) FormatForAI(uri string, diagnostics []lsp.Diagnostic) string {
	if len(diagnostics) == 0 {
		return fmt.Sprintf("No issues found in %s", uri)
	}

	errs, warns, infos, hints := splitBySeverity(diagnostics)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d issue(s) in %s\n\n", len(diagnostics), uri)

	writeSection := func(title string, ds []lsp.Diagnostic) {
		if len(ds) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s (%d):\n", title, len(ds))
		for _, d := range ds {
			fmt.Fprintf(&b, "  Line %d: %s\n", d.Range.Start.Line+1, d.Message)
		}
		b.WriteByte('\n')
	}
	writeSection("ERRORS", errs)
	writeSection("WARNINGS", warns)
	writeSection("INFO", infos)
	writeSection("HINTS", hints)

	return strings.TrimRight(b.String(), "\n")
}

// FormatDiagnostics renders a detailed, section-grouped report for a
// single file.
func (f *DiagnosticFormatter) FormatDiagnostics(uri string, diagnostics []lsp.Diagnostic) string {
	path := strings.TrimPrefix(uri, "file://")
	errs, warns, infos, hints := splitBySeverity(diagnostics)

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Summary: %d error(s), %d warning(s)\n\n", len(errs), len(warns))

	writeDetailed := func(title string, ds []lsp.Diagnostic) {
		if len(ds) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, d := range ds {
			line := fmt.Sprintf("  Line %d:%d: %s", d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
			if d.Source != "" {
				line += fmt.Sprintf(" [%s]", d.Source)
			}
			if code := d.CodeString(); code != "" {
				line += fmt.Sprintf(" (Code: %s)", code)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	writeDetailed("ERRORS", errs)
	writeDetailed("WARNINGS", warns)
	writeDetailed("INFO", infos)
	writeDetailed("HINTS", hints)

	return strings.TrimRight(b.String(), "\n")
}

// FormatCompact renders one compiler-style line per diagnostic:
// path:line:col: severity: message [source]
func (f *DiagnosticFormatter) FormatCompact(uri string, diagnostics []lsp.Diagnostic) string {
	path := strings.TrimPrefix(uri, "file://")
	var lines []string
	for _, d := range diagnostics {
		line := fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Start.Line+1, d.Range.Start.Character+1, severityLabel(d.Severity), d.Message)
		if d.Source != "" {
			line += fmt.Sprintf(" [%s]", d.Source)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FileSummary is the per-file breakdown within a DiagnosticSummary.
type FileSummary struct {
	Errors   int
	Warnings int
	Infos    int
	Hints    int
}

// DiagnosticSummary aggregates counts across every file with diagnostics.
type DiagnosticSummary struct {
	FilesWithIssues int
	TotalErrors     int
	TotalWarnings   int
	TotalInfos      int
	TotalHints      int
	Files           map[string]FileSummary
}

// GetDiagnosticSummary tallies severities across every URI in
// diagnosticsByURI.
func (f *DiagnosticFormatter) GetDiagnosticSummary(diagnosticsByURI map[string][]lsp.Diagnostic) DiagnosticSummary {
	summary := DiagnosticSummary{Files: make(map[string]FileSummary)}
	for uri, ds := range diagnosticsByURI {
		if len(ds) == 0 {
			continue
		}
		summary.FilesWithIssues++
		var fs FileSummary
		for _, d := range ds {
			switch d.Severity {
			case lsp.DiagnosticSeverityError:
				fs.Errors++
				summary.TotalErrors++
			case lsp.DiagnosticSeverityWarning:
				fs.Warnings++
				summary.TotalWarnings++
			case lsp.DiagnosticSeverityInformation:
				fs.Infos++
				summary.TotalInfos++
			case lsp.DiagnosticSeverityHint:
				fs.Hints++
				summary.TotalHints++
			}
		}
		summary.Files[uri] = fs
	}
	return summary
}

// FormatAllDiagnostics renders FormatDiagnostics for every file, sorted by
// URI, separated by blank lines.
func (f *DiagnosticFormatter) FormatAllDiagnostics(diagnosticsByURI map[string][]lsp.Diagnostic) string {
	uris := make([]string, 0, len(diagnosticsByURI))
	for uri := range diagnosticsByURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	var sections []string
	for _, uri := range uris {
		sections = append(sections, f.FormatDiagnostics(uri, diagnosticsByURI[uri]))
	}
	return strings.Join(sections, "\n\n")
}

func splitBySeverity(ds []lsp.Diagnostic) (errs, warns, infos, hints []lsp.Diagnostic) {
	for _, d := range ds {
		switch d.Severity {
		case lsp.DiagnosticSeverityError:
			errs = append(errs, d)
		case lsp.DiagnosticSeverityWarning:
			warns = append(warns, d)
		case lsp.DiagnosticSeverityInformation:
			infos = append(infos, d)
		case lsp.DiagnosticSeverityHint:
			hints = append(hints, d)
		}
	}
	return
}

func severityLabel(s lsp.DiagnosticSeverity) string {
	switch s {
	case lsp.DiagnosticSeverityError:
		return "error"
	case lsp.DiagnosticSeverityWarning:
		return "warning"
	case lsp.DiagnosticSeverityInformation:
		return "information"
	case lsp.DiagnosticSeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}
