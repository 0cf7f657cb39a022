// Package errors defines the taxonomized error kinds surfaced by the lsmcp
// core (spec §7) on top of github.com/cockroachdb/errors, and a small
// builder for attaching operator-facing hints and structured context.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind identifies which of the core's error categories an error belongs to.
// Callers (the façade, the MCP adapter) use Kind(err) to render a
// taxonomized message without string-matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindServerNotFound
	KindServerCrashed
	KindTimeout
	KindUnsupportedLanguage
	KindInvalidPath
	KindProtocolError
	KindConfigError
	KindIO
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindServerNotFound:
		return "ServerNotFound"
	case KindServerCrashed:
		return "ServerCrashed"
	case KindTimeout:
		return "Timeout"
	case KindUnsupportedLanguage:
		return "UnsupportedLanguage"
	case KindInvalidPath:
		return "InvalidPath"
	case KindProtocolError:
		return "ProtocolError"
	case KindConfigError:
		return "ConfigError"
	case KindIO:
		return "Io"
	case KindJSON:
		return "Json"
	default:
		return "Unknown"
	}
}

// kinded is implemented by every sentinel error type below so Kind(err) can
// recover the category even after the error has been wrapped.
type kinded interface {
	errorKind() Kind
}

// Kind walks err's causal chain (via errors.As over the kinded interface)
// and returns the first matching category, or KindUnknown.
func Kind(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.errorKind()
	}
	return KindUnknown
}

// ServerNotFoundError is returned when spawning an LSP server's binary
// fails, or the binary cannot be located.
type ServerNotFoundError struct {
	Name string
	Hint string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("LSP server not found: %s (%s)", e.Name, e.Hint)
}
func (e *ServerNotFoundError) errorKind() Kind { return KindServerNotFound }

// NewServerNotFound builds a ServerNotFoundError.
func NewServerNotFound(name, hint string) error {
	return Build(&ServerNotFoundError{Name: name, Hint: hint}).
		WithHintf("install %s and ensure it is on PATH", name).
		Err()
}

// ServerCrashedError is returned when the reader loop observes EOF mid
// session, i.e. the child process died unexpectedly.
type ServerCrashedError struct {
	Name string
}

func (e *ServerCrashedError) Error() string  { return fmt.Sprintf("LSP server crashed: %s", e.Name) }
func (e *ServerCrashedError) errorKind() Kind { return KindServerCrashed }

// NewServerCrashed builds a ServerCrashedError.
func NewServerCrashed(name string) error {
	return Build(&ServerCrashedError{Name: name}).Err()
}

// TimeoutError is returned when a request's deadline elapses before a
// response arrives.
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string  { return fmt.Sprintf("request timed out after %ds", e.Seconds) }
func (e *TimeoutError) errorKind() Kind { return KindTimeout }

// NewTimeout builds a TimeoutError.
func NewTimeout(seconds int) error {
	return Build(&TimeoutError{Seconds: seconds}).Err()
}

// UnsupportedLanguageError is returned when no configured package matches a
// file extension or language name.
type UnsupportedLanguageError struct {
	Descriptor string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("language not supported: %s", e.Descriptor)
}
func (e *UnsupportedLanguageError) errorKind() Kind { return KindUnsupportedLanguage }

// NewUnsupportedLanguage builds an UnsupportedLanguageError.
func NewUnsupportedLanguage(descriptor string) error {
	return Build(&UnsupportedLanguageError{Descriptor: descriptor}).
		WithHint("configure a language server for this file type in .lsmcp.toml").
		Err()
}

// InvalidPathError is returned when a path cannot be converted to a file
// URI or has no usable extension.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string  { return fmt.Sprintf("invalid path: %s", e.Path) }
func (e *InvalidPathError) errorKind() Kind { return KindInvalidPath }

// NewInvalidPath builds an InvalidPathError.
func NewInvalidPath(path string) error {
	return Build(&InvalidPathError{Path: path}).Err()
}

// ProtocolError is returned for malformed responses, unexpected nulls, or a
// server-reported JSON-RPC error object.
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string  { return fmt.Sprintf("LSP protocol error: %s", e.Detail) }
func (e *ProtocolError) errorKind() Kind { return KindProtocolError }

// NewProtocolError builds a ProtocolError.
func NewProtocolError(detail string) error {
	return Build(&ProtocolError{Detail: detail}).Err()
}

// ConfigError is returned by the config-loader collaborator.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string  { return fmt.Sprintf("configuration error: %s", e.Detail) }
func (e *ConfigError) errorKind() Kind { return KindConfigError }

// NewConfigError builds a ConfigError.
func NewConfigError(detail string) error {
	return Build(&ConfigError{Detail: detail}).Err()
}

// IOError wraps an underlying I/O failure.
type IOError struct {
	Cause error
}

func (e *IOError) Error() string   { return fmt.Sprintf("io error: %s", e.Cause) }
func (e *IOError) Unwrap() error   { return e.Cause }
func (e *IOError) errorKind() Kind { return KindIO }

// NewIO wraps cause as an IOError. Returns nil if cause is nil.
func NewIO(cause error) error {
	if cause == nil {
		return nil
	}
	return Build(&IOError{Cause: cause}).Err()
}

// JSONError wraps an underlying encoding/json failure.
type JSONError struct {
	Cause error
}

func (e *JSONError) Error() string   { return fmt.Sprintf("json error: %s", e.Cause) }
func (e *JSONError) Unwrap() error   { return e.Cause }
func (e *JSONError) errorKind() Kind { return KindJSON }

// NewJSON wraps cause as a JSONError. Returns nil if cause is nil.
func NewJSON(cause error) error {
	if cause == nil {
		return nil
	}
	return Build(&JSONError{Cause: cause}).Err()
}
