package packaging

import "errors"

var (
	// ErrInvalidPackage indicates the archive is not a well formed package.
	ErrInvalidPackage = errors.New("invalid package structure")

	// ErrNuspecNotFound indicates the archive has no manifest at its root.
	ErrNuspecNotFound = errors.New("nuspec file not found")

	// ErrMultipleNuspecs indicates the archive has more than one root manifest.
	ErrMultipleNuspecs = errors.New("multiple nuspec files found")

	// ErrInvalidPath indicates a package path that escapes the package root
	// or collides with a reserved part.
	ErrInvalidPath = errors.New("invalid file path")

	// ErrDuplicateFile indicates two files were added at the same package path.
	ErrDuplicateFile = errors.New("duplicate file path")
)
