package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/version"
)

// OpenFunc opens the content of a file to be archived.
type OpenFunc func() (io.ReadCloser, error)

// PackageBuilder assembles a .nupkg from metadata and an explicit file list.
// No wildcard expansion happens here; every file is added by path.
type PackageBuilder struct {
	metadata PackageMetadata
	files    []builderFile
	targets  map[string]string
	modified time.Time
}

type builderFile struct {
	source string
	target string
	open   OpenFunc
}

// NewPackageBuilder returns an empty builder.
func NewPackageBuilder() *PackageBuilder {
	return &PackageBuilder{
		targets:  make(map[string]string),
		modified: time.Now().UTC(),
	}
}

// SetMetadata replaces all package metadata.
func (b *PackageBuilder) SetMetadata(metadata PackageMetadata) *PackageBuilder {
	b.metadata = metadata
	return b
}

// Metadata returns the current metadata.
func (b *PackageBuilder) Metadata() PackageMetadata {
	return b.metadata
}

// SetID sets the package id.
func (b *PackageBuilder) SetID(id string) *PackageBuilder {
	b.metadata.ID = id
	return b
}

// SetVersion sets the package version.
func (b *PackageBuilder) SetVersion(v *version.NuGetVersion) *PackageBuilder {
	b.metadata.Version = v
	return b
}

// SetDescription sets the package description.
func (b *PackageBuilder) SetDescription(description string) *PackageBuilder {
	b.metadata.Description = description
	return b
}

// SetAuthors sets the package authors.
func (b *PackageBuilder) SetAuthors(authors ...string) *PackageBuilder {
	b.metadata.Authors = authors
	return b
}

// SetModified sets the timestamp recorded on archive entries.
func (b *PackageBuilder) SetModified(t time.Time) *PackageBuilder {
	b.modified = t
	return b
}

// AddDependency adds a dependency to the group for fw, creating the group
// when needed.
func (b *PackageBuilder) AddDependency(fw *frameworks.NuGetFramework, id string, vr *version.VersionRange) *PackageBuilder {
	dep := PackageDependency{ID: id, VersionRange: vr}
	for i := range b.metadata.DependencyGroups {
		if b.metadata.DependencyGroups[i].TargetFramework.Equals(fw) {
			b.metadata.DependencyGroups[i].Dependencies = append(b.metadata.DependencyGroups[i].Dependencies, dep)
			return b
		}
	}
	b.metadata.DependencyGroups = append(b.metadata.DependencyGroups, PackageDependencyGroup{
		TargetFramework: fw,
		Dependencies:    []PackageDependency{dep},
	})
	return b
}

// AddFile adds the file at sourcePath on disk as targetPath.
func (b *PackageBuilder) AddFile(sourcePath, targetPath string) error {
	return b.AddFileWithOpener(sourcePath, targetPath, func() (io.ReadCloser, error) {
		return os.Open(sourcePath)
	})
}

// AddFileFromBytes adds in-memory content as targetPath.
func (b *PackageBuilder) AddFileFromBytes(targetPath string, content []byte) error {
	return b.AddFileWithOpener("", targetPath, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	})
}

// AddFileWithOpener adds a file whose content is produced by open when the
// package is saved. source is informational and ends up in Files.
func (b *PackageBuilder) AddFileWithOpener(source, targetPath string, open OpenFunc) error {
	if err := ValidatePackagePath(targetPath); err != nil {
		return err
	}

	target := NormalizePackagePath(targetPath)
	key := strings.ToLower(target)
	if prev, ok := b.targets[key]; ok {
		return fmt.Errorf("%w: %q already added as %q", ErrDuplicateFile, targetPath, prev)
	}

	b.targets[key] = target
	b.files = append(b.files, builderFile{source: source, target: target, open: open})
	return nil
}

// Files lists the added files in insertion order.
func (b *PackageBuilder) Files() []ManifestFile {
	files := make([]ManifestFile, len(b.files))
	for i, f := range b.files {
		files[i] = ManifestFile{Source: f.source, Target: f.target}
	}
	return files
}

// Validate checks metadata and files without writing anything.
func (b *PackageBuilder) Validate() error {
	if err := ValidateMetadata(b.metadata); err != nil {
		return fmt.Errorf("invalid package metadata: %w", err)
	}
	return ValidateFiles(b.Files())
}

// Save validates the package and writes the archive to w.
func (b *PackageBuilder) Save(w io.Writer) error {
	if err := b.Validate(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	manifestPart := b.metadata.ID + ManifestExtension
	nuspec, err := GenerateNuspecXML(b.metadata, nil)
	if err != nil {
		return err
	}
	if err := b.writeEntry(zw, manifestPart, bytes.NewReader(nuspec)); err != nil {
		return err
	}

	parts := make([]string, 0, len(b.files))
	for _, f := range b.files {
		if err := b.copyFile(zw, f); err != nil {
			return err
		}
		parts = append(parts, f.target)
	}

	if err := writeOPCParts(zw, b.metadata, manifestPart, parts, b.modified); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize package: %w", err)
	}
	return nil
}

// SaveToFile writes the archive to path, creating parent directories. The
// write holds the lock of path (see LockPath) so concurrent builds of the
// same package do not interleave. A partially written file is removed on
// failure.
func (b *PackageBuilder) SaveToFile(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	return WithFileLock(ctx, path, func() error {
		return b.saveToFile(path)
	})
}

func (b *PackageBuilder) saveToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create package file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close package file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return b.Save(f)
}

func (b *PackageBuilder) copyFile(zw *zip.Writer, f builderFile) error {
	rc, err := f.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", describeSource(f), err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return b.writeEntry(zw, f.target, rc)
}

func (b *PackageBuilder) writeEntry(zw *zip.Writer, name string, r io.Reader) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: b.modified})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func describeSource(f builderFile) string {
	if f.source != "" {
		return f.source
	}
	return f.target
}
