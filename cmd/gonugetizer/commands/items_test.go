package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/gonugetizer/pack"
)

func TestLoadItems_Document(t *testing.T) {
	path := newWorkspace(t)
	dir := filepath.Dir(path)

	file, err := LoadItems(path)
	require.NoError(t, err)

	assert.Equal(t, "Sample", file.Package[pack.ManifestID])
	assert.Equal(t, "1.2.3", file.Package[pack.ManifestVersion])
	require.Len(t, file.Items, 4)

	dll := file.Items[0]
	assert.Equal(t, "bin/a.dll", dll.ItemSpec)
	assert.Equal(t, pack.KindLib, dll.Get(pack.MetadataKind))
	assert.Equal(t, ".NETFramework,Version=v4.5", dll.Get(pack.MetadataTargetFrameworkMoniker))
	assert.Equal(t, filepath.Join(dir, "bin", "a.dll"), dll.Get(pack.MetadataFullPath))
	assert.Equal(t, "[13.0.1,)", file.Items[3].Get(pack.MetadataVersion))
}

func TestLoadItems_BareListJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")
	writeFile(t, path, `[
  {"spec": "a.dll", "metadata": {"Kind": "Lib", "TargetFramework": "net45"}},
  {"spec": "b.dll", "metadata": {"Kind": "Lib", "FullPath": "/abs/b.dll"}}
]`)

	file, err := LoadItems(path)
	require.NoError(t, err)
	assert.Empty(t, file.Package)
	require.Len(t, file.Items, 2)
	assert.Equal(t, "net45", file.Items[0].Get(pack.MetadataTargetFramework))
	assert.Equal(t, filepath.Join(dir, "a.dll"), file.Items[0].Get(pack.MetadataFullPath))
	assert.Equal(t, "/abs/b.dll", file.Items[1].Get(pack.MetadataFullPath))
}

func TestLoadItems_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadItems(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read items")

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "items: [unclosed")
	_, err = LoadItems(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse items")

	nospec := filepath.Join(dir, "nospec.yaml")
	writeFile(t, nospec, "- metadata: {Kind: Lib}\n")
	_, err = LoadItems(nospec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no spec")
}

func TestLoadItems_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	file, err := LoadItems(path)
	require.NoError(t, err)
	assert.Empty(t, file.Items)
}
