package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
)

const sampleItems = `package:
  Id: Sample
  Version: 1.2.3
  Description: Sample package
  Authors: alice
items:
  - spec: bin/a.dll
    metadata:
      Kind: Lib
      TargetFrameworkMoniker: ".NETFramework,Version=v4.5"
  - spec: bin/a.pdb
    metadata:
      Kind: Symbols
      TargetFrameworkMoniker: ".NETFramework,Version=v4.5"
  - spec: readme.txt
    metadata:
      Kind: None
  - spec: Newtonsoft.Json
    metadata:
      Kind: Dependency
      Version: "[13.0.1,)"
      TargetFrameworkMoniker: ".NETStandard,Version=v2.0"
`

// newWorkspace chdirs into a fresh directory holding the files of
// sampleItems and returns the items file path.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, filepath.Join(dir, "bin", "a.dll"), "MZ assembly")
	writeFile(t, filepath.Join(dir, "bin", "a.pdb"), "symbols")
	writeFile(t, filepath.Join(dir, "readme.txt"), "read me")
	itemsPath := filepath.Join(dir, "items.yaml")
	writeFile(t, itemsPath, sampleItems)
	return itemsPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes cmd with args and returns what it wrote to stdout and stderr.
func run(t *testing.T, newCmd func(*output.Console) *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	console := output.NewConsole(&stdout, &stderr, output.VerbosityNormal)
	console.SetColors(false)

	cmd := newCmd(console)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
