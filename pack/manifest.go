package pack

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/packaging"
	"github.com/willibrandon/gonugetizer/version"
)

// Manifest metadata keys.
const (
	ManifestID                       = "Id"
	ManifestVersion                  = "Version"
	ManifestTitle                    = "Title"
	ManifestDescription              = "Description"
	ManifestSummary                  = "Summary"
	ManifestLanguage                 = "Language"
	ManifestCopyright                = "Copyright"
	ManifestReleaseNotes             = "ReleaseNotes"
	ManifestTags                     = "Tags"
	ManifestAuthors                  = "Authors"
	ManifestOwners                   = "Owners"
	ManifestLicenseURL               = "LicenseUrl"
	ManifestProjectURL               = "ProjectUrl"
	ManifestIconURL                  = "IconUrl"
	ManifestIcon                     = "Icon"
	ManifestReadme                   = "Readme"
	ManifestMinClientVersion         = "MinClientVersion"
	ManifestPackageTypes             = "PackageTypes"
	ManifestDevelopmentDependency    = "DevelopmentDependency"
	ManifestRequireLicenseAcceptance = "RequireLicenseAcceptance"
	ManifestServiceable              = "Serviceable"
	ManifestRepositoryType           = "RepositoryType"
	ManifestRepositoryURL            = "RepositoryUrl"
	ManifestRepositoryBranch         = "RepositoryBranch"
	ManifestRepositoryCommit         = "RepositoryCommit"
)

// ParseMetadata reads the scalar package metadata from a key/value bag.
// The version must be a valid semantic version; a bad value is a NG0013
// error.
func ParseMetadata(bag map[string]string) (packaging.PackageMetadata, error) {
	get := func(key string) string { return strings.TrimSpace(bag[key]) }

	raw := get(ManifestVersion)
	v, err := version.Parse(raw)
	if err != nil {
		return packaging.PackageMetadata{}, NewVersionParseError("package version", raw, err)
	}

	meta := packaging.PackageMetadata{
		ID:                       get(ManifestID),
		Version:                  v,
		Title:                    get(ManifestTitle),
		Description:              get(ManifestDescription),
		Summary:                  get(ManifestSummary),
		Language:                 get(ManifestLanguage),
		Copyright:                get(ManifestCopyright),
		ReleaseNotes:             get(ManifestReleaseNotes),
		Tags:                     strings.Fields(get(ManifestTags)),
		Authors:                  splitList(get(ManifestAuthors)),
		Owners:                   splitList(get(ManifestOwners)),
		Icon:                     get(ManifestIcon),
		Readme:                   get(ManifestReadme),
		DevelopmentDependency:    parseBool(get(ManifestDevelopmentDependency)),
		RequireLicenseAcceptance: parseBool(get(ManifestRequireLicenseAcceptance)),
		Serviceable:              parseBool(get(ManifestServiceable)),
	}

	for _, u := range []struct {
		key  string
		dest **url.URL
	}{
		{ManifestLicenseURL, &meta.LicenseURL},
		{ManifestProjectURL, &meta.ProjectURL},
		{ManifestIconURL, &meta.IconURL},
	} {
		parsed, err := parseURL(u.key, get(u.key))
		if err != nil {
			return packaging.PackageMetadata{}, err
		}
		*u.dest = parsed
	}

	if raw := get(ManifestMinClientVersion); raw != "" {
		if meta.MinClientVersion, err = version.Parse(raw); err != nil {
			return packaging.PackageMetadata{}, NewVersionParseError("minimum client version", raw, err)
		}
	}

	for _, name := range splitList(get(ManifestPackageTypes)) {
		meta.PackageTypes = append(meta.PackageTypes, packaging.PackageType{Name: name})
	}

	if repoURL := get(ManifestRepositoryURL); repoURL != "" {
		meta.Repository = &packaging.RepositoryMetadata{
			Type:   get(ManifestRepositoryType),
			URL:    repoURL,
			Branch: get(ManifestRepositoryBranch),
			Commit: get(ManifestRepositoryCommit),
		}
	}

	return meta, nil
}

// BuildManifest attaches files, dependency groups, content file records and
// framework assemblies to metadata. unique is the deduplicated file set;
// contents is the full item list the framework references are read from.
func BuildManifest(metadata packaging.PackageMetadata, groups map[string]packaging.PackageDependencyGroup, unique, contents []Item) *packaging.Manifest {
	manifest := &packaging.Manifest{Metadata: metadata}
	manifest.Metadata.DependencyGroups = SortedDependencyGroups(groups)

	for _, item := range unique {
		target := packaging.NormalizePackagePath(item.Get(MetadataPackagePath))
		manifest.Files = append(manifest.Files, packaging.ManifestFile{
			Source: item.SourcePath(),
			Target: target,
		})

		if item.Get(MetadataPackageFolder) != packaging.ContentFilesFolder {
			continue
		}
		manifest.Metadata.ContentFiles = append(manifest.Metadata.ContentFiles, packaging.ManifestContentFiles{
			Include:      target,
			BuildAction:  item.Get(MetadataBuildAction),
			CopyToOutput: parseOptionalBool(item.Get(MetadataCopyToOutput)),
			Flatten:      parseOptionalBool(item.Get(MetadataFlatten)),
		})
	}

	manifest.Metadata.FrameworkAssemblies = frameworkAssemblies(contents)
	return manifest
}

// CreateManifest runs duplicate detection and dependency aggregation over
// contents, whose package paths must already be assigned, and builds the
// manifest described by bag. Conflicting files are logged and left out;
// version and I/O failures are returned.
func CreateManifest(ctx context.Context, bag map[string]string, contents []Item, fsys FileSystem, log *Log) (*packaging.Manifest, error) {
	if log == nil {
		log = NewLog(nil)
	}
	metadata, err := ParseMetadata(bag)
	if err != nil {
		return nil, err
	}

	dedup, err := ResolveDuplicates(ctx, contents, fsys, log)
	if err != nil {
		return nil, err
	}

	groups, err := AggregateDependencies(ctx, contents, log)
	if err != nil {
		return nil, err
	}
	checkContentFileFlags(dedup.Unique, log)

	_, stage := observability.StartStage(ctx, observability.StageManifest,
		observability.AttrPackageID.String(metadata.ID),
		observability.AttrPackageVersion.String(metadata.Version.ToNormalizedString()))
	manifest := BuildManifest(metadata, groups, dedup.Unique, contents)
	stage.SetAttributes(observability.AttrFileCount.Int(len(manifest.Files)))
	stage.End(nil)

	return manifest, nil
}

// frameworkAssemblies collects FrameworkReference items, one entry per
// assembly and framework.
func frameworkAssemblies(contents []Item) []packaging.PackageFrameworkAssembly {
	var assemblies []packaging.PackageFrameworkAssembly
	seen := make(map[string]bool)
	for _, item := range contents {
		if item.Get(MetadataKind) != KindFrameworkReference {
			continue
		}
		fw := itemFramework(item, nil)
		key := strings.ToLower(item.ItemSpec) + "|" + fw.FrameworkName()
		if seen[key] {
			continue
		}
		seen[key] = true
		assemblies = append(assemblies, packaging.PackageFrameworkAssembly{
			AssemblyName:     item.ItemSpec,
			TargetFrameworks: []*frameworks.NuGetFramework{fw},
		})
	}
	return assemblies
}

func parseURL(key, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return u, nil
}

// splitList splits on commas, trimming entries and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// checkContentFileFlags warns about content file flags BuildManifest would
// drop because they are not booleans.
func checkContentFileFlags(unique []Item, log *Log) {
	for _, item := range unique {
		if item.Get(MetadataPackageFolder) != packaging.ContentFilesFolder {
			continue
		}
		for _, name := range []string{MetadataCopyToOutput, MetadataFlatten} {
			if v := item.Get(name); v != "" && parseOptionalBool(v) == nil {
				log.LogWarning(NewInvalidMetadataValueWarning(item, name, v))
			}
		}
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func parseOptionalBool(s string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &b
}
