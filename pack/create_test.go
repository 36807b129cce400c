package pack

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gonugetizer/packaging"
)

func TestCreatePackage_EndToEnd(t *testing.T) {
	fsys := fstest.MapFS{
		"a.dll": {Data: []byte("MZ assembly"), ModTime: modTime},
		"a.pdb": {Data: []byte("symbols"), ModTime: modTime},
	}

	log := NewLog(nil)
	assigned := AssignPackagePath(context.Background(), []Item{
		NewItem("a.dll", map[string]string{MetadataKind: KindLib, MetadataTargetFrameworkMoniker: net45}),
		NewItem("a.pdb", map[string]string{MetadataKind: KindSymbols, MetadataTargetFrameworkMoniker: net45}),
	}, DefaultKinds(), log)
	require.False(t, log.HasLoggedErrors())
	require.Len(t, assigned, 2)
	assert.Equal(t, "lib/net45/a.dll", assigned[0].Get(MetadataPackagePath))
	assert.Equal(t, "symbols/net45/a.pdb", assigned[1].Get(MetadataPackagePath))

	target := filepath.Join(t.TempDir(), "out", "Sample.1.2.3-beta.nupkg")
	task := &CreatePackage{
		Manifest:   testMetadata(),
		Contents:   assigned,
		TargetPath: target,
		FileSystem: FS(fsys),
	}

	require.True(t, task.Execute(context.Background()))
	assert.Empty(t, task.Log().Errors())
	assert.Equal(t, target, task.OutputPackage.ItemSpec)
	assert.Equal(t, "Sample", task.OutputPackage.Get(ManifestID))

	reader, err := packaging.OpenPackage(target)
	require.NoError(t, err)
	defer func() {
		_ = reader.Close()
	}()

	var names []string
	for _, f := range reader.Files() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"lib/net45/a.dll", "symbols/net45/a.pdb"}, names)

	data, err := reader.ReadFile("lib/net45/a.dll")
	require.NoError(t, err)
	assert.Equal(t, "MZ assembly", string(data))

	nuspec, err := reader.Nuspec()
	require.NoError(t, err)
	assert.Equal(t, "Sample", nuspec.Metadata.ID)
	assert.Equal(t, "1.2.3-beta", nuspec.Metadata.Version)
}

func TestCreatePackage_RoundTrip(t *testing.T) {
	fsys := fstest.MapFS{
		"bin/net45/a.dll":          {Data: []byte("net45"), ModTime: modTime},
		"bin/netstandard2.0/a.dll": {Data: []byte("netstandard"), ModTime: modTime},
		"content/Sample.cs":        {Data: []byte("class Sample {}"), ModTime: modTime},
		"readme.txt":               {Data: []byte("read me"), ModTime: modTime},
	}

	bag := testMetadata()
	bag[ManifestTitle] = "Sample"
	bag[ManifestTags] = "a b"
	bag[ManifestProjectURL] = "https://example.com/"

	log := NewLog(nil)
	contents := AssignPackagePath(context.Background(), []Item{
		NewItem("bin/net45/a.dll", map[string]string{MetadataKind: KindLib, MetadataTargetFrameworkMoniker: net45}),
		NewItem("bin/netstandard2.0/a.dll", map[string]string{MetadataKind: KindLib, MetadataTargetFramework: "netstandard2.0"}),
		NewItem("content/Sample.cs", map[string]string{MetadataKind: KindContent, MetadataCodeLanguage: "cs", MetadataTargetPath: "Sample.cs", MetadataBuildAction: "Compile"}),
		NewItem("readme.txt", map[string]string{MetadataKind: KindNone}),
		dependency("Newtonsoft.Json", "[1.0,2.0)", ".NETStandard,Version=v2.0"),
		dependency("Newtonsoft.Json", "[1.5,3.0]", ".NETStandard,Version=v2.0"),
		dependency("Private", "1.0", ".NETStandard,Version=v2.0").With(MetadataPrivateAssets, "all"),
	}, DefaultKinds(), log)
	require.False(t, log.HasLoggedErrors())

	task := &CreatePackage{Manifest: bag, Contents: contents, FileSystem: FS(fsys)}
	want, err := CreateManifest(context.Background(), bag, contents, FS(fsys), NewLog(nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	got, err := task.ExecuteTo(context.Background(), &buf)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
	assert.False(t, task.Log().HasLoggedErrors())

	// Scalar metadata.
	assert.Equal(t, want.Metadata.ID, got.Metadata.ID)
	assert.True(t, want.Metadata.Version.Equals(got.Metadata.Version))
	assert.Equal(t, want.Metadata.Title, got.Metadata.Title)
	assert.Equal(t, want.Metadata.Description, got.Metadata.Description)
	assert.Equal(t, want.Metadata.Authors, got.Metadata.Authors)
	assert.Equal(t, want.Metadata.Tags, got.Metadata.Tags)
	assert.Equal(t, want.Metadata.ProjectURL.String(), got.Metadata.ProjectURL.String())

	// Files, compared by package path.
	var wantTargets, gotTargets []string
	for _, f := range want.Files {
		wantTargets = append(wantTargets, f.Target)
	}
	for _, f := range got.Files {
		gotTargets = append(gotTargets, f.Target)
	}
	assert.ElementsMatch(t, wantTargets, gotTargets)
	assert.Contains(t, gotTargets, "contentFiles/cs/any/Sample.cs")
	assert.Contains(t, gotTargets, "readme.txt")

	// Dependency groups.
	require.Len(t, got.Metadata.DependencyGroups, len(want.Metadata.DependencyGroups))
	for i, g := range want.Metadata.DependencyGroups {
		gg := got.Metadata.DependencyGroups[i]
		assert.Equal(t, g.TargetFramework.FrameworkName(), gg.TargetFramework.FrameworkName())
		require.Len(t, gg.Dependencies, len(g.Dependencies))
		for j, d := range g.Dependencies {
			assert.Equal(t, d.ID, gg.Dependencies[j].ID)
			assert.Equal(t, d.VersionRange.String(), gg.Dependencies[j].VersionRange.String())
		}
	}
	require.Len(t, got.Metadata.DependencyGroups, 2)
	assert.Empty(t, got.Metadata.DependencyGroups[0].Dependencies, "net45 ships without dependencies")
	assert.Equal(t, "[1.5.0, 2.0.0)", got.Metadata.DependencyGroups[1].Dependencies[0].VersionRange.String())

	// Content file metadata.
	require.Len(t, got.Metadata.ContentFiles, 1)
	assert.Equal(t, "Compile", got.Metadata.ContentFiles[0].BuildAction)
}

func TestCreatePackage_ConflictStillWritesButFails(t *testing.T) {
	fsys := fstest.MapFS{
		"one/readme.txt": {Data: []byte("one"), ModTime: modTime},
		"two/readme.txt": {Data: []byte("second"), ModTime: modTime},
		"lib/a.dll":      {Data: []byte("a"), ModTime: modTime},
	}

	target := filepath.Join(t.TempDir(), "conflict.nupkg")
	task := &CreatePackage{
		Manifest: testMetadata(),
		Contents: []Item{
			packaged("one/readme.txt", "readme.txt"),
			packaged("two/readme.txt", "readme.txt"),
			packaged("lib/a.dll", "lib/a.dll"),
		},
		TargetPath: target,
		FileSystem: FS(fsys),
	}

	assert.False(t, task.Execute(context.Background()))
	require.Len(t, task.Log().Errors(), 1)
	assert.Equal(t, ErrorCodeDuplicatePackagePath, task.Log().Errors()[0].Code)

	reader, err := packaging.OpenPackage(target)
	require.NoError(t, err)
	defer func() {
		_ = reader.Close()
	}()
	assert.True(t, reader.HasFile("lib/a.dll"))
	assert.False(t, reader.HasFile("readme.txt"))
}

func TestCreatePackage_CaseOnlyConflict(t *testing.T) {
	fsys := fstest.MapFS{
		"bin/a.dll": {Data: []byte("bin build"), ModTime: modTime},
		"obj/A.dll": {Data: []byte("obj"), ModTime: modTime},
		"bin/c.dll": {Data: []byte("c"), ModTime: modTime},
	}

	task := &CreatePackage{
		Manifest: testMetadata(),
		Contents: []Item{
			packaged("bin/a.dll", "lib/net45/a.dll"),
			packaged("obj/A.dll", "lib/net45/A.dll"),
			packaged("bin/c.dll", "lib/net45/c.dll"),
		},
		FileSystem: FS(fsys),
	}

	var buf bytes.Buffer
	manifest, err := task.ExecuteTo(context.Background(), &buf)
	require.NoError(t, err)

	require.Len(t, task.Log().Errors(), 1)
	e := task.Log().Errors()[0]
	assert.Equal(t, ErrorCodeDuplicatePackagePath, e.Code)
	assert.Contains(t, e.Message, "bin/a.dll -> lib/net45/a.dll")
	assert.Contains(t, e.Message, "obj/A.dll -> lib/net45/A.dll")

	require.Len(t, manifest.Files, 1)
	assert.Equal(t, "lib/net45/c.dll", manifest.Files[0].Target)
}

func TestCreatePackage_InvalidVersion(t *testing.T) {
	bag := testMetadata()
	bag[ManifestVersion] = "one.two"
	target := filepath.Join(t.TempDir(), "bad.nupkg")

	task := &CreatePackage{Manifest: bag, TargetPath: target, FileSystem: FS(fstest.MapFS{})}

	assert.False(t, task.Execute(context.Background()))
	require.Len(t, task.Log().Errors(), 1)
	assert.Equal(t, ErrorCodeVersionParse, task.Log().Errors()[0].Code)

	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestCreatePackage_MissingSourceFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing.nupkg")
	task := &CreatePackage{
		Manifest:   testMetadata(),
		Contents:   []Item{packaged("gone.dll", "lib/gone.dll")},
		TargetPath: target,
		FileSystem: FS(fstest.MapFS{}),
	}

	assert.False(t, task.Execute(context.Background()))
	require.Len(t, task.Log().Errors(), 1)
	assert.Equal(t, ErrorCodeIO, task.Log().Errors()[0].Code)

	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err), "partial package must be removed")
}

func TestCreatePackage_NuspecFile(t *testing.T) {
	fsys := fstest.MapFS{
		"a.dll": {Data: []byte("a"), ModTime: modTime},
	}
	dir := t.TempDir()
	nuspecPath := filepath.Join(dir, "obj", "nuspec", "Sample.nuspec")

	task := &CreatePackage{
		Manifest: testMetadata(),
		Contents: []Item{
			NewItem("a.dll", map[string]string{MetadataPackagePath: "lib/net45/a.dll", MetadataPackageFolder: "lib"}),
			lib("a.dll", net45).With(MetadataPackagePath, ""),
		},
		TargetPath: filepath.Join(dir, "Sample.nupkg"),
		NuspecFile: nuspecPath,
		FileSystem: FS(fsys),
	}
	require.True(t, task.Execute(context.Background()))

	nuspec, err := packaging.ParseNuspecFile(nuspecPath)
	require.NoError(t, err)
	assert.Equal(t, []packaging.ManifestFile{{Source: "a.dll", Target: "lib/net45/a.dll"}}, nuspec.GetFiles())

	groups, err := nuspec.GetDependencyGroups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "net45", groups[0].TargetFramework.GetShortFolderName())
}
