package packaging

import (
	"fmt"
	"strings"
)

// Well known top level package folders.
const (
	LibFolder          = "lib"
	ContentFilesFolder = "contentFiles"
	ToolsFolder        = "tools"
	BuildFolder        = "build"
	RuntimesFolder     = "runtimes"
	SymbolsFolder      = "symbols"
)

// ManifestExtension is the extension of the manifest at the package root.
const ManifestExtension = ".nuspec"

// PackageExtension is the extension of package archives.
const PackageExtension = ".nupkg"

// NormalizePackagePath converts '\' separators to '/' and trims a leading
// "./".
func NormalizePackagePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "./")
}

// IsPackagePart reports whether p is one of the parts the archive writer
// owns: OPC relationships, content types, core properties or a root manifest.
func IsPackagePart(p string) bool {
	lower := strings.ToLower(NormalizePackagePath(p))
	switch {
	case lower == strings.ToLower(ContentTypesPart):
		return true
	case strings.HasPrefix(lower, "_rels/"):
		return true
	case strings.HasPrefix(lower, "package/services/"):
		return true
	case !strings.Contains(lower, "/") && strings.HasSuffix(lower, ManifestExtension):
		return true
	}
	return false
}

// ValidatePackagePath rejects paths that are empty, absolute, traverse out of
// the package or use reserved part names.
func ValidatePackagePath(p string) error {
	normalized := NormalizePackagePath(p)
	if normalized == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(normalized, "/") || strings.Contains(normalized, ":") {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return fmt.Errorf("%w: %q traverses outside the package", ErrInvalidPath, p)
		}
	}
	if strings.HasSuffix(normalized, "/") {
		return fmt.Errorf("%w: %q names a folder", ErrInvalidPath, p)
	}
	if IsPackagePart(normalized) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidPath, p)
	}
	return nil
}
