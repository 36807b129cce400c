package output

import (
	"encoding/json"
	"io"
	"time"
)

// CurrentSchemaVersion is the schema version for all JSON outputs
const CurrentSchemaVersion = "1.0.0"

// AssignOutput is the JSON output of the assign command.
type AssignOutput struct {
	SchemaVersion string         `json:"schemaVersion"`
	Items         []AssignedItem `json:"items"`
	Diagnostics   []Diagnostic   `json:"diagnostics"`
	ElapsedMs     int64          `json:"elapsedMs"`
}

// AssignedItem is one item after path assignment.
type AssignedItem struct {
	Spec            string            `json:"spec"`
	Kind            string            `json:"kind,omitempty"`
	PackageFolder   string            `json:"packageFolder,omitempty"`
	PackagePath     string            `json:"packagePath"`
	TargetFramework string            `json:"targetFramework,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// PackOutput is the JSON output of the pack command.
type PackOutput struct {
	SchemaVersion string       `json:"schemaVersion"`
	Package       string       `json:"package"`
	ID            string       `json:"id"`
	Version       string       `json:"version"`
	Files         []PackedFile `json:"files"`
	Dependencies  []DepGroup   `json:"dependencyGroups"`
	Success       bool         `json:"success"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
	ElapsedMs     int64        `json:"elapsedMs"`
}

// PackedFile is a manifest file entry.
type PackedFile struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DepGroup is a dependency group keyed by short framework name.
type DepGroup struct {
	TargetFramework string       `json:"targetFramework"`
	Dependencies    []Dependency `json:"dependencies"`
}

// Dependency is a package id and its version range.
type Dependency struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// Diagnostic is a coded error or warning.
type Diagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Item     string `json:"item,omitempty"`
}

// NewAssignOutput creates an AssignOutput with schema version.
func NewAssignOutput(start time.Time) *AssignOutput {
	return &AssignOutput{
		SchemaVersion: CurrentSchemaVersion,
		Items:         []AssignedItem{},
		Diagnostics:   []Diagnostic{},
		ElapsedMs:     MeasureElapsed(start),
	}
}

// NewPackOutput creates a PackOutput with schema version.
func NewPackOutput(pkg string, start time.Time) *PackOutput {
	return &PackOutput{
		SchemaVersion: CurrentSchemaVersion,
		Package:       pkg,
		Files:         []PackedFile{},
		Dependencies:  []DepGroup{},
		Diagnostics:   []Diagnostic{},
		ElapsedMs:     MeasureElapsed(start),
	}
}

// WriteJSON writes a JSON object to the specified writer (typically stdout)
// When --format json is used, ALL JSON goes to stdout and ALL messages go to stderr
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// MeasureElapsed returns elapsed time in milliseconds since start
func MeasureElapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
