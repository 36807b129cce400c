package packaging

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/version"
)

// Nuspec is the XML shape of a .nuspec document. It is used for both
// reading and writing.
type Nuspec struct {
	XMLName  xml.Name       `xml:"package"`
	Xmlns    string         `xml:"xmlns,attr,omitempty"`
	Metadata NuspecMetadata `xml:"metadata"`
	Files    *FilesElement  `xml:"files,omitempty"`
}

// NuspecMetadata is the <metadata> element.
type NuspecMetadata struct {
	MinClientVersion string `xml:"minClientVersion,attr,omitempty"`

	ID                       string                      `xml:"id"`
	Version                  string                      `xml:"version"`
	Title                    string                      `xml:"title,omitempty"`
	Authors                  string                      `xml:"authors"`
	Owners                   string                      `xml:"owners,omitempty"`
	DevelopmentDependency    bool                        `xml:"developmentDependency,omitempty"`
	RequireLicenseAcceptance bool                        `xml:"requireLicenseAcceptance"`
	LicenseURL               string                      `xml:"licenseUrl,omitempty"`
	Icon                     string                      `xml:"icon,omitempty"`
	Readme                   string                      `xml:"readme,omitempty"`
	ProjectURL               string                      `xml:"projectUrl,omitempty"`
	IconURL                  string                      `xml:"iconUrl,omitempty"`
	Description              string                      `xml:"description"`
	Summary                  string                      `xml:"summary,omitempty"`
	ReleaseNotes             string                      `xml:"releaseNotes,omitempty"`
	Copyright                string                      `xml:"copyright,omitempty"`
	Language                 string                      `xml:"language,omitempty"`
	Tags                     string                      `xml:"tags,omitempty"`
	Serviceable              bool                        `xml:"serviceable,omitempty"`
	PackageTypes             *PackageTypesElement        `xml:"packageTypes,omitempty"`
	Repository               *RepositoryElement          `xml:"repository,omitempty"`
	Dependencies             *DependenciesElement        `xml:"dependencies,omitempty"`
	FrameworkAssemblies      *FrameworkAssembliesElement `xml:"frameworkAssemblies,omitempty"`
	ContentFiles             *ContentFilesElement        `xml:"contentFiles,omitempty"`
}

// PackageTypesElement is <packageTypes>.
type PackageTypesElement struct {
	Types []PackageTypeElement `xml:"packageType"`
}

// PackageTypeElement is <packageType name="" version=""/>.
type PackageTypeElement struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr,omitempty"`
}

// RepositoryElement is <repository/>.
type RepositoryElement struct {
	Type   string `xml:"type,attr,omitempty"`
	URL    string `xml:"url,attr,omitempty"`
	Branch string `xml:"branch,attr,omitempty"`
	Commit string `xml:"commit,attr,omitempty"`
}

// DependenciesElement is <dependencies>. Ungrouped dependencies are a legacy
// form that applies to every framework.
type DependenciesElement struct {
	Groups       []DependencyGroupElement `xml:"group"`
	Dependencies []DependencyElement      `xml:"dependency"`
}

// DependencyGroupElement is <group targetFramework="">.
type DependencyGroupElement struct {
	TargetFramework string              `xml:"targetFramework,attr,omitempty"`
	Dependencies    []DependencyElement `xml:"dependency"`
}

// DependencyElement is <dependency id="" version=""/>.
type DependencyElement struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr,omitempty"`
	Include string `xml:"include,attr,omitempty"`
	Exclude string `xml:"exclude,attr,omitempty"`
}

// FrameworkAssembliesElement is <frameworkAssemblies>.
type FrameworkAssembliesElement struct {
	Assemblies []FrameworkAssemblyElement `xml:"frameworkAssembly"`
}

// FrameworkAssemblyElement is <frameworkAssembly assemblyName="" targetFramework=""/>.
type FrameworkAssemblyElement struct {
	AssemblyName    string `xml:"assemblyName,attr"`
	TargetFramework string `xml:"targetFramework,attr,omitempty"`
}

// ContentFilesElement is <contentFiles>.
type ContentFilesElement struct {
	Files []ContentFilesEntry `xml:"files"`
}

// ContentFilesEntry is <files include="" buildAction="" copyToOutput="" flatten=""/>.
type ContentFilesEntry struct {
	Include      string `xml:"include,attr"`
	Exclude      string `xml:"exclude,attr,omitempty"`
	BuildAction  string `xml:"buildAction,attr,omitempty"`
	CopyToOutput string `xml:"copyToOutput,attr,omitempty"`
	Flatten      string `xml:"flatten,attr,omitempty"`
}

// FilesElement is the <files> list of a standalone nuspec.
type FilesElement struct {
	Files []FileElement `xml:"file"`
}

// FileElement is <file src="" target=""/>.
type FileElement struct {
	Source string `xml:"src,attr"`
	Target string `xml:"target,attr,omitempty"`
}

// ParseNuspec decodes a .nuspec document.
func ParseNuspec(r io.Reader) (*Nuspec, error) {
	var nuspec Nuspec
	if err := xml.NewDecoder(r).Decode(&nuspec); err != nil {
		return nil, fmt.Errorf("parse nuspec: %w", err)
	}
	return &nuspec, nil
}

// ParseNuspecFile decodes the .nuspec at path.
func ParseNuspecFile(path string) (*Nuspec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return ParseNuspec(f)
}

// GetParsedIdentity returns the package id and parsed version.
func (n *Nuspec) GetParsedIdentity() (*PackageIdentity, error) {
	ver, err := version.Parse(n.Metadata.Version)
	if err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}
	return &PackageIdentity{ID: n.Metadata.ID, Version: ver}, nil
}

// ToMetadata converts the XML form back into PackageMetadata.
func (n *Nuspec) ToMetadata() (*PackageMetadata, error) {
	identity, err := n.GetParsedIdentity()
	if err != nil {
		return nil, err
	}

	m := n.Metadata
	meta := &PackageMetadata{
		ID:                       identity.ID,
		Version:                  identity.Version,
		Title:                    m.Title,
		Description:              m.Description,
		Summary:                  m.Summary,
		Authors:                  splitList(m.Authors),
		Owners:                   splitList(m.Owners),
		Icon:                     m.Icon,
		Readme:                   m.Readme,
		RequireLicenseAcceptance: m.RequireLicenseAcceptance,
		DevelopmentDependency:    m.DevelopmentDependency,
		Serviceable:              m.Serviceable,
		ReleaseNotes:             m.ReleaseNotes,
		Copyright:                m.Copyright,
		Language:                 m.Language,
		Tags:                     strings.Fields(m.Tags),
	}

	for _, u := range []struct {
		raw  string
		dest **url.URL
	}{
		{m.ProjectURL, &meta.ProjectURL},
		{m.IconURL, &meta.IconURL},
		{m.LicenseURL, &meta.LicenseURL},
	} {
		if u.raw == "" {
			continue
		}
		parsed, err := url.Parse(u.raw)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", u.raw, err)
		}
		*u.dest = parsed
	}

	if m.MinClientVersion != "" {
		if meta.MinClientVersion, err = version.Parse(m.MinClientVersion); err != nil {
			return nil, fmt.Errorf("parse min client version: %w", err)
		}
	}

	if m.PackageTypes != nil {
		for _, pt := range m.PackageTypes.Types {
			t := PackageType{Name: pt.Name}
			if pt.Version != "" {
				if t.Version, err = version.Parse(pt.Version); err != nil {
					return nil, fmt.Errorf("parse package type version: %w", err)
				}
			}
			meta.PackageTypes = append(meta.PackageTypes, t)
		}
	}

	if r := m.Repository; r != nil {
		meta.Repository = &RepositoryMetadata{Type: r.Type, URL: r.URL, Branch: r.Branch, Commit: r.Commit}
	}

	if meta.DependencyGroups, err = n.GetDependencyGroups(); err != nil {
		return nil, err
	}
	if meta.FrameworkAssemblies, err = n.GetFrameworkAssemblies(); err != nil {
		return nil, err
	}
	meta.ContentFiles = n.GetContentFiles()

	return meta, nil
}

// GetDependencyGroups returns the dependency groups. Legacy ungrouped
// dependencies are returned as a single group for AnyFramework.
func (n *Nuspec) GetDependencyGroups() ([]PackageDependencyGroup, error) {
	deps := n.Metadata.Dependencies
	if deps == nil {
		return nil, nil
	}

	var groups []PackageDependencyGroup
	for _, g := range deps.Groups {
		fw, err := parseTargetFramework(g.TargetFramework)
		if err != nil {
			return nil, err
		}
		list, err := parseDependencies(g.Dependencies)
		if err != nil {
			return nil, err
		}
		groups = append(groups, PackageDependencyGroup{TargetFramework: fw, Dependencies: list})
	}

	if len(deps.Dependencies) > 0 {
		list, err := parseDependencies(deps.Dependencies)
		if err != nil {
			return nil, err
		}
		anyFw := frameworks.AnyFramework
		groups = append(groups, PackageDependencyGroup{TargetFramework: &anyFw, Dependencies: list})
	}

	return groups, nil
}

// GetFrameworkAssemblies returns the framework assembly references.
func (n *Nuspec) GetFrameworkAssemblies() ([]PackageFrameworkAssembly, error) {
	fa := n.Metadata.FrameworkAssemblies
	if fa == nil {
		return nil, nil
	}

	result := make([]PackageFrameworkAssembly, 0, len(fa.Assemblies))
	for _, a := range fa.Assemblies {
		ref := PackageFrameworkAssembly{AssemblyName: a.AssemblyName}
		for _, name := range splitList(a.TargetFramework) {
			fw, err := frameworks.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("framework assembly %s: %w", a.AssemblyName, err)
			}
			ref.TargetFrameworks = append(ref.TargetFrameworks, fw)
		}
		result = append(result, ref)
	}
	return result, nil
}

// GetContentFiles returns the contentFiles entries. Unparsable boolean
// attributes are treated as absent.
func (n *Nuspec) GetContentFiles() []ManifestContentFiles {
	cf := n.Metadata.ContentFiles
	if cf == nil {
		return nil
	}

	result := make([]ManifestContentFiles, 0, len(cf.Files))
	for _, f := range cf.Files {
		result = append(result, ManifestContentFiles{
			Include:      f.Include,
			Exclude:      f.Exclude,
			BuildAction:  f.BuildAction,
			CopyToOutput: parseOptionalBool(f.CopyToOutput),
			Flatten:      parseOptionalBool(f.Flatten),
		})
	}
	return result
}

// GetFiles returns the <files> list of a standalone nuspec.
func (n *Nuspec) GetFiles() []ManifestFile {
	if n.Files == nil {
		return nil
	}
	files := make([]ManifestFile, 0, len(n.Files.Files))
	for _, f := range n.Files.Files {
		files = append(files, ManifestFile{Source: f.Source, Target: f.Target})
	}
	return files
}

func parseTargetFramework(s string) (*frameworks.NuGetFramework, error) {
	if strings.TrimSpace(s) == "" {
		anyFw := frameworks.AnyFramework
		return &anyFw, nil
	}
	fw, err := frameworks.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("dependency group: %w", err)
	}
	return fw, nil
}

func parseDependencies(elements []DependencyElement) ([]PackageDependency, error) {
	deps := make([]PackageDependency, 0, len(elements))
	for _, d := range elements {
		dep := PackageDependency{
			ID:      d.ID,
			Include: splitList(d.Include),
			Exclude: splitList(d.Exclude),
		}
		if d.Version != "" {
			vr, err := version.ParseVersionRange(d.Version)
			if err != nil {
				return nil, fmt.Errorf("dependency %s: %w", d.ID, err)
			}
			dep.VersionRange = vr
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// splitList splits a comma separated list, trimming entries and dropping
// empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOptionalBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
