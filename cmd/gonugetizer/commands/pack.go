package commands

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
	"github.com/willibrandon/gonugetizer/pack"
	"github.com/willibrandon/gonugetizer/packaging"
)

type packOptions struct {
	itemsFile  string
	kindsFile  string
	outputPath string
	nuspecPath string
	metadata   []string
	format     string
}

// NewPackCommand creates the pack command
func NewPackCommand(console *output.Console) *cobra.Command {
	opts := &packOptions{}

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Build a .nupkg from an items file",
		Long: `Assign package paths, resolve duplicate files, aggregate dependencies and
write the package archive.

Package metadata comes from the "package" section of the items file and
from --metadata, which wins.

Examples:
  gonugetizer pack --items items.yaml
  gonugetizer pack --items items.yaml --output out/Sample.nupkg --nuspec out/Sample.nuspec
  gonugetizer pack --items items.yaml --metadata Version=2.0.0-beta`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd.Context(), cmd, console, opts)
		},
	}

	cmd.Flags().StringVar(&opts.itemsFile, "items", "", "Items file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.kindsFile, "kinds", "", "YAML file with kind definitions")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Package file to write (default <Id>.<Version>.nupkg)")
	cmd.Flags().StringVar(&opts.nuspecPath, "nuspec", "", "Also write the manifest to this file")
	cmd.Flags().StringArrayVar(&opts.metadata, "metadata", nil, "Package metadata as Key=Value (repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Package path glob to leave out (repeatable)")
	cmd.Flags().StringVar(&opts.format, "format", formatConsole, "Output format (console, json)")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

func runPack(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *packOptions) error {
	start := time.Now()
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	overrides, err := parseMetadata(opts.metadata)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.Close()

	file, err := LoadItems(opts.itemsFile)
	if err != nil {
		return err
	}
	assigner, err := s.assigner(opts.kindsFile)
	if err != nil {
		return err
	}

	bag := make(map[string]string, len(file.Package)+len(overrides))
	maps.Copy(bag, file.Package)
	maps.Copy(bag, overrides)

	target := opts.outputPath
	if target == "" {
		target = defaultPackageName(bag)
	}

	assignLog := pack.NewLog(s.logger)
	contents := assigner.Assign(ctx, file.Items, assignLog)

	task := &pack.CreatePackage{
		Manifest:   bag,
		Contents:   contents,
		TargetPath: target,
		NuspecFile: opts.nuspecPath,
		Logger:     s.logger,
	}
	ok := task.Execute(ctx) && !assignLog.HasLoggedErrors()

	diags := s.reportDiagnostics(assignLog)
	diags = append(diags, s.reportDiagnostics(task.Log())...)

	var manifest *packaging.Manifest
	if task.OutputPackage.ItemSpec != "" {
		if manifest, err = readManifest(task.OutputPackage.ItemSpec); err != nil {
			return err
		}
	}

	if opts.format == formatJSON {
		out := output.NewPackOutput(target, start)
		out.Success = ok
		out.Diagnostics = diags
		fillPackOutput(out, manifest)
		out.ElapsedMs = output.MeasureElapsed(start)
		if err := output.WriteJSON(console.Out(), out); err != nil {
			return err
		}
	} else if manifest != nil {
		printPackage(console, manifest)
	}

	if !ok {
		return fmt.Errorf("failed to create package %s", target)
	}
	if opts.format != formatJSON {
		console.Success("Successfully created package '%s'.", target)
	}
	return nil
}

// parseMetadata splits Key=Value pairs. Values may contain '=' and ','.
func parseMetadata(pairs []string) (map[string]string, error) {
	bag := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --metadata %q, expected Key=Value", p)
		}
		bag[key] = value
	}
	return bag, nil
}

func defaultPackageName(bag map[string]string) string {
	id := bag[pack.ManifestID]
	if id == "" {
		id = "package"
	}
	if v := bag[pack.ManifestVersion]; v != "" {
		return id + "." + v + packaging.PackageExtension
	}
	return id + packaging.PackageExtension
}

// readManifest reopens the written archive so the report shows what the
// package really contains.
func readManifest(path string) (*packaging.Manifest, error) {
	r, err := packaging.OpenPackage(path)
	if err != nil {
		return nil, fmt.Errorf("read back %s: %w", path, err)
	}
	defer func() {
		_ = r.Close()
	}()
	return r.GetManifest()
}

func fillPackOutput(out *output.PackOutput, manifest *packaging.Manifest) {
	if manifest == nil {
		return
	}
	out.ID = manifest.Metadata.ID
	if manifest.Metadata.Version != nil {
		out.Version = manifest.Metadata.Version.ToNormalizedString()
	}
	for _, f := range manifest.Files {
		out.Files = append(out.Files, output.PackedFile{Source: f.Source, Target: f.Target})
	}
	for _, g := range manifest.Metadata.DependencyGroups {
		group := output.DepGroup{TargetFramework: groupFramework(g), Dependencies: []output.Dependency{}}
		for _, d := range g.Dependencies {
			group.Dependencies = append(group.Dependencies, output.Dependency{ID: d.ID, Version: d.VersionRange.ToShortString()})
		}
		out.Dependencies = append(out.Dependencies, group)
	}
}

func groupFramework(g packaging.PackageDependencyGroup) string {
	if g.TargetFramework == nil || !g.TargetFramework.IsSpecificFramework() {
		return ""
	}
	return g.TargetFramework.GetShortFolderName()
}

func printPackage(console *output.Console, manifest *packaging.Manifest) {
	console.Header("%s %s", manifest.Metadata.ID, manifest.Metadata.Version.ToNormalizedString())
	for _, f := range manifest.Files {
		console.Detail("  %s", f.Target)
	}
	for _, g := range manifest.Metadata.DependencyGroups {
		name := groupFramework(g)
		if name == "" {
			name = "(any)"
		}
		console.Detail("  dependencies %s: %d", name, len(g.Dependencies))
	}
	console.Info("%d file(s), %d dependency group(s)", len(manifest.Files), len(manifest.Metadata.DependencyGroups))
}
