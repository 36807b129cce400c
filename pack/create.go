package pack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/packaging"
)

// CreatePackage writes a package from assigned items and a metadata bag.
// Files are added exactly as listed; nothing is expanded or searched for.
type CreatePackage struct {
	// Manifest holds the package metadata (see the Manifest* keys).
	Manifest map[string]string

	// Contents are the assigned items of the package, including dependency
	// and framework reference items.
	Contents []Item

	// TargetPath is where Execute writes the .nupkg.
	TargetPath string

	// NuspecFile optionally receives a standalone copy of the manifest.
	NuspecFile string

	// FileSystem reads source files. Nil uses the local disk.
	FileSystem FileSystem

	// Logger receives diagnostics. Nil discards them.
	Logger observability.Logger

	// Modified stamps archive entries. Zero uses the current time.
	Modified time.Time

	// OutputPackage is set by a successful Execute: the package path with a
	// copy of the manifest metadata.
	OutputPackage Item

	log *Log
}

// Log returns the diagnostics of the last run.
func (t *CreatePackage) Log() *Log {
	if t.log == nil {
		t.log = NewLog(t.Logger)
	}
	return t.log
}

// Execute builds the package at TargetPath. It reports false when any error
// was logged, even if the archive was written.
func (t *CreatePackage) Execute(ctx context.Context) bool {
	log := t.Log()
	ctx, stage := observability.StartStage(ctx, observability.StagePackTotal)

	err := t.execute(ctx)
	if err != nil {
		log.LogError(err)
	}
	stage.End(err)

	if log.HasLoggedErrors() {
		observability.PackagesCreatedTotal.WithLabelValues("failure").Inc()
		return false
	}
	observability.PackagesCreatedTotal.WithLabelValues("success").Inc()
	return true
}

func (t *CreatePackage) execute(ctx context.Context) error {
	manifest, err := CreateManifest(ctx, t.Manifest, t.Contents, t.fileSystem(), t.Log())
	if err != nil {
		return err
	}

	builder, err := t.builder(manifest)
	if err != nil {
		return err
	}

	_, stage := observability.StartStage(ctx, observability.StageWrite,
		observability.AttrFileCount.Int(len(manifest.Files)))
	if err := builder.SaveToFile(ctx, t.TargetPath); err != nil {
		werr := NewIOError("write package", t.TargetPath, err)
		stage.End(werr)
		return werr
	}
	stage.End(nil)

	if t.NuspecFile != "" {
		if err := writeNuspec(t.NuspecFile, manifest); err != nil {
			return err
		}
	}

	t.OutputPackage = NewItem(t.TargetPath, t.Manifest)
	t.Log().Logger().InfoContext(ctx, "Created package {PackageId} {Version} at {Path}",
		manifest.Metadata.ID, manifest.Metadata.Version.ToNormalizedString(), t.TargetPath)
	return nil
}

// ExecuteTo writes the package to w instead of TargetPath and returns the
// manifest read back from the written archive.
func (t *CreatePackage) ExecuteTo(ctx context.Context, w io.Writer) (*packaging.Manifest, error) {
	manifest, err := CreateManifest(ctx, t.Manifest, t.Contents, t.fileSystem(), t.Log())
	if err != nil {
		return nil, err
	}

	builder, err := t.builder(manifest)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := builder.Save(&buf); err != nil {
		return nil, err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, NewIOError("write", "package", err)
	}

	reader, err := packaging.OpenPackageFromReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	return reader.GetManifest()
}

// builder feeds the manifest into a PackageBuilder and validates it.
func (t *CreatePackage) builder(manifest *packaging.Manifest) (*packaging.PackageBuilder, error) {
	fsys := t.fileSystem()

	b := packaging.NewPackageBuilder().SetMetadata(manifest.Metadata)
	if !t.Modified.IsZero() {
		b.SetModified(t.Modified)
	}
	for _, f := range manifest.Files {
		source := f.Source
		err := b.AddFileWithOpener(source, f.Target, func() (io.ReadCloser, error) {
			return fsys.Open(source)
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", f.Target, err)
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (t *CreatePackage) fileSystem() FileSystem {
	if t.FileSystem == nil {
		return OSFileSystem{}
	}
	return t.FileSystem
}

// writeNuspec saves the standalone manifest, including its file list.
func writeNuspec(path string, manifest *packaging.Manifest) error {
	data, err := packaging.GenerateNuspecXML(manifest.Metadata, manifest.Files)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewIOError("create directory for", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewIOError("write", path, err)
	}
	return nil
}
