package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder accumulates operator-facing hints and structured context
// around a base error before it is returned to a caller.
type ErrorBuilder struct {
	err      error
	hints    []string
	context  map[string]string
	exitCode *int
}

// Build starts a builder around err.
func Build(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithHint appends an operator-facing suggestion (e.g. "install X").
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

// WithHintf is WithHint with fmt.Sprintf formatting.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	return b.WithHint(fmt.Sprintf(format, args...))
}

// WithContext attaches a key/value pair as safe (loggable) error detail.
func (b *ErrorBuilder) WithContext(key, value string) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]string)
	}
	b.context[key] = value
	return b
}

// WithExitCode records the process exit code a CLI entry point should use
// if this error reaches the top level.
func (b *ErrorBuilder) WithExitCode(code int) *ErrorBuilder {
	b.exitCode = &code
	return b
}

// Err materializes the accumulated hints and context onto the base error.
func (b *ErrorBuilder) Err() error {
	err := b.err
	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}
	if len(b.context) > 0 {
		keys := make([]string, 0, len(b.context))
		for k := range b.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, b.context[k]))
		}
		err = errors.WithSafeDetails(err, strings.Join(pairs, " "))
	}
	if b.exitCode != nil {
		err = &exitCodeError{cause: err, code: *b.exitCode}
	}
	return err
}

// exitCodeError associates an explicit process exit code with a wrapped
// error, for CLI entry points that want to preserve a specific code.
type exitCodeError struct {
	cause error
	code  int
}

func (e *exitCodeError) Error() string { return e.cause.Error() }
func (e *exitCodeError) Unwrap() error { return e.cause }

// ExitCode extracts the exit code attached via WithExitCode, if any, and
// whether one was found.
func ExitCode(err error) (int, bool) {
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code, true
	}
	return 0, false
}
