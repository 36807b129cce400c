package pack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willibrandon/gonugetizer/observability"
)

// Diagnostic codes reported by the packaging tasks.
const (
	// NG0010: item has neither a kind nor an explicit package path
	ErrorCodeMissingKind = "NG0010"

	// NG0012: distinct files resolve to the same package path
	ErrorCodeDuplicatePackagePath = "NG0012"

	// NG0013: a version or version range could not be parsed
	ErrorCodeVersionParse = "NG0013"

	// NG0014: reading a source file or writing the package failed
	ErrorCodeIO = "NG0014"

	// NG0016: target framework moniker could not be parsed
	WarningCodeInvalidTargetFramework = "NG0016"

	// NG0017: a boolean item metadata value could not be parsed
	WarningCodeInvalidMetadataValue = "NG0017"
)

// PackError is a diagnostic with a stable code.
type PackError struct {
	Code    string
	Message string
	Item    string // Item spec the diagnostic refers to, if any
	Err     error
}

// Error implements the error interface.
func (e *PackError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PackError) Unwrap() error {
	return e.Err
}

// Conflict is one source file that claimed an already used package path.
type Conflict struct {
	Source      string
	PackagePath string
}

// NewMissingKindError creates a NG0010 error for item.
func NewMissingKindError(item Item) *PackError {
	return &PackError{
		Code:    ErrorCodeMissingKind,
		Message: fmt.Sprintf("Item %q has no %s and no explicit %s, so its package location cannot be determined.", item.ItemSpec, MetadataKind, MetadataPackagePath),
		Item:    item.ItemSpec,
	}
}

// NewDuplicatePackagePathError creates a single NG0012 error listing every
// conflicting file.
func NewDuplicatePackagePathError(conflicts []Conflict) *PackError {
	var sb strings.Builder
	sb.WriteString("Distinct files would be written to the same package path:")
	for _, c := range conflicts {
		fmt.Fprintf(&sb, "\n  %s -> %s", c.Source, c.PackagePath)
	}
	return &PackError{
		Code:    ErrorCodeDuplicatePackagePath,
		Message: sb.String(),
	}
}

// NewVersionParseError creates a NG0013 error for an invalid version value.
func NewVersionParseError(what, value string, err error) *PackError {
	return &PackError{
		Code:    ErrorCodeVersionParse,
		Message: fmt.Sprintf("Invalid %s %q: %v", what, value, err),
		Err:     err,
	}
}

// NewIOError creates a NG0014 error wrapping err.
func NewIOError(op, path string, err error) *PackError {
	return &PackError{
		Code:    ErrorCodeIO,
		Message: fmt.Sprintf("%s %s: %v", op, path, err),
		Item:    path,
		Err:     err,
	}
}

// NewInvalidTargetFrameworkWarning creates a NG0016 warning.
func NewInvalidTargetFrameworkWarning(item Item, moniker string, err error) *PackError {
	return &PackError{
		Code:    WarningCodeInvalidTargetFramework,
		Message: fmt.Sprintf("Item %q has an unrecognized target framework %q and is packaged without one: %v", item.ItemSpec, moniker, err),
		Item:    item.ItemSpec,
		Err:     err,
	}
}

// NewInvalidMetadataValueWarning creates a NG0017 warning for a metadata
// value that is not a boolean.
func NewInvalidMetadataValueWarning(item Item, name, value string) *PackError {
	return &PackError{
		Code:    WarningCodeInvalidMetadataValue,
		Message: fmt.Sprintf("Item %q has %s=%q, which is not true or false, and the value is left unset.", item.ItemSpec, name, value),
		Item:    item.ItemSpec,
	}
}

// Log collects the diagnostics of one invocation. Each entry is also sent
// to the structured logger.
type Log struct {
	logger   observability.Logger
	errors   []*PackError
	warnings []*PackError
}

// NewLog creates a Log writing to logger. A nil logger discards output.
func NewLog(logger observability.Logger) *Log {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	return &Log{logger: logger}
}

// LogError records err. Errors that are not a *PackError are recorded
// without a code.
func (l *Log) LogError(err error) {
	if err == nil {
		return
	}
	var pe *PackError
	if !errors.As(err, &pe) {
		pe = &PackError{Message: err.Error(), Err: err}
	}
	l.errors = append(l.errors, pe)
	observability.DiagnosticsTotal.WithLabelValues(pe.Code, "error").Inc()
	l.logger.Error("{Code} {Message}", pe.Code, pe.Message)
}

// LogWarning records w. A warning equal to one already recorded for the
// same item is dropped, so stages that inspect the same metadata report it
// once.
func (l *Log) LogWarning(w *PackError) {
	if w == nil {
		return
	}
	for _, prev := range l.warnings {
		if prev.Code == w.Code && prev.Item == w.Item && prev.Message == w.Message {
			return
		}
	}
	l.warnings = append(l.warnings, w)
	observability.DiagnosticsTotal.WithLabelValues(w.Code, "warning").Inc()
	l.logger.Warn("{Code} {Message}", w.Code, w.Message)
}

// HasLoggedErrors reports whether any error was recorded.
func (l *Log) HasLoggedErrors() bool {
	return len(l.errors) > 0
}

// Errors returns the recorded errors in order.
func (l *Log) Errors() []*PackError {
	return l.errors
}

// Warnings returns the recorded warnings in order.
func (l *Log) Warnings() []*PackError {
	return l.warnings
}

// Logger returns the structured logger behind l.
func (l *Log) Logger() observability.Logger {
	return l.logger
}
