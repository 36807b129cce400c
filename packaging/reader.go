package packaging

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

// PackageReader reads entries from a .nupkg archive.
type PackageReader struct {
	zip    *zip.Reader
	closer io.Closer
}

// OpenPackage opens the archive at path. Close releases the file.
func OpenPackage(path string) (*PackageReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r, err := OpenPackageFromReaderAt(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenPackageFromReaderAt reads an archive held in memory or elsewhere.
func OpenPackageFromReaderAt(ra io.ReaderAt, size int64) (*PackageReader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return &PackageReader{zip: zr}, nil
}

// Close releases the underlying file, if any.
func (r *PackageReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Files returns the package content entries, leaving out folders and the
// parts written by the archive itself.
func (r *PackageReader) Files() []*zip.File {
	var files []*zip.File
	for _, f := range r.zip.File {
		if strings.HasSuffix(f.Name, "/") || IsPackagePart(f.Name) {
			continue
		}
		files = append(files, f)
	}
	return files
}

// GetNuspecFile returns the single manifest at the archive root.
func (r *PackageReader) GetNuspecFile() (*zip.File, error) {
	var found *zip.File
	for _, f := range r.zip.File {
		if strings.Contains(f.Name, "/") || !strings.HasSuffix(strings.ToLower(f.Name), ManifestExtension) {
			continue
		}
		if found != nil {
			return nil, ErrMultipleNuspecs
		}
		found = f
	}
	if found == nil {
		return nil, ErrNuspecNotFound
	}
	return found, nil
}

// Nuspec parses the root manifest.
func (r *PackageReader) Nuspec() (*Nuspec, error) {
	f, err := r.GetNuspecFile()
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open nuspec: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return ParseNuspec(rc)
}

// GetManifest reconstructs the manifest from the archive: metadata from the
// nuspec and one file entry per content entry, with Source and Target both
// set to the package path.
func (r *PackageReader) GetManifest() (*Manifest, error) {
	nuspec, err := r.Nuspec()
	if err != nil {
		return nil, err
	}

	meta, err := nuspec.ToMetadata()
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{Metadata: *meta}
	for _, f := range r.Files() {
		manifest.Files = append(manifest.Files, ManifestFile{Source: f.Name, Target: f.Name})
	}
	return manifest, nil
}

// GetFile finds an entry by package path, ignoring case.
func (r *PackageReader) GetFile(p string) (*zip.File, error) {
	want := strings.ToLower(NormalizePackagePath(p))
	for _, f := range r.zip.File {
		if strings.ToLower(f.Name) == want {
			return f, nil
		}
	}
	return nil, fmt.Errorf("file not found in package: %s", p)
}

// HasFile reports whether an entry exists at p.
func (r *PackageReader) HasFile(p string) bool {
	_, err := r.GetFile(p)
	return err == nil
}

// ReadFile returns the content of the entry at p.
func (r *PackageReader) ReadFile(p string) ([]byte, error) {
	f, err := r.GetFile(p)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return io.ReadAll(rc)
}
