// Package packaging reads and writes NuGet package archives (.nupkg) and
// their manifests (.nuspec).
package packaging

import (
	"net/url"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/version"
)

// PackageIdentity is a package id and version.
type PackageIdentity struct {
	ID      string
	Version *version.NuGetVersion
}

// String returns "id version".
func (p PackageIdentity) String() string {
	if p.Version == nil {
		return p.ID
	}
	return p.ID + " " + p.Version.ToNormalizedString()
}

// PackageMetadata is everything a manifest says about a package apart from
// its file list.
type PackageMetadata struct {
	ID          string
	Version     *version.NuGetVersion
	Title       string
	Description string
	Summary     string
	Authors     []string
	Owners      []string

	ProjectURL *url.URL
	IconURL    *url.URL
	LicenseURL *url.URL
	Icon       string
	Readme     string

	RequireLicenseAcceptance bool
	DevelopmentDependency    bool
	Serviceable              bool

	ReleaseNotes string
	Copyright    string
	Language     string
	Tags         []string

	MinClientVersion *version.NuGetVersion

	PackageTypes        []PackageType
	Repository          *RepositoryMetadata
	DependencyGroups    []PackageDependencyGroup
	FrameworkAssemblies []PackageFrameworkAssembly
	ContentFiles        []ManifestContentFiles
}

// Identity returns the id and version.
func (m *PackageMetadata) Identity() PackageIdentity {
	return PackageIdentity{ID: m.ID, Version: m.Version}
}

// PackageDependencyGroup is the set of dependencies that apply to one
// target framework.
type PackageDependencyGroup struct {
	TargetFramework *frameworks.NuGetFramework
	Dependencies    []PackageDependency
}

// PackageDependency is a dependency on another package. A nil VersionRange
// accepts any version.
type PackageDependency struct {
	ID           string
	VersionRange *version.VersionRange
	Include      []string
	Exclude      []string
}

// PackageFrameworkAssembly is a reference to an assembly that ships with the
// target framework rather than the package.
type PackageFrameworkAssembly struct {
	AssemblyName     string
	TargetFrameworks []*frameworks.NuGetFramework
}

// ManifestContentFiles describes how a consuming project treats one file
// under contentFiles/. Nil fields are left out of the manifest.
type ManifestContentFiles struct {
	Include      string
	Exclude      string
	BuildAction  string
	CopyToOutput *bool
	Flatten      *bool
}

// PackageType marks the kind of package, e.g. "Dependency" or "DotnetTool".
type PackageType struct {
	Name    string
	Version *version.NuGetVersion
}

// RepositoryMetadata points at the source repository of a package.
type RepositoryMetadata struct {
	Type   string
	URL    string
	Branch string
	Commit string
}

// ManifestFile maps a file on disk to its path inside the package.
type ManifestFile struct {
	Source string
	Target string
}

// Manifest is a complete package description: metadata plus the exact file
// set to archive.
type Manifest struct {
	Metadata PackageMetadata
	Files    []ManifestFile
}
