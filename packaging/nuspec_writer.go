package packaging

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Nuspec schema namespaces.
const (
	// NuspecNamespaceV3 is required for semantic (prerelease) versions.
	NuspecNamespaceV3 = "http://schemas.microsoft.com/packaging/2011/10/nuspec.xsd"

	// NuspecNamespaceV4 added framework specific dependency groups.
	NuspecNamespaceV4 = "http://schemas.microsoft.com/packaging/2012/06/nuspec.xsd"

	// NuspecNamespaceV6 is the most recent schema.
	NuspecNamespaceV6 = "http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd"
)

// GenerateNuspecXML renders metadata as a .nuspec document. files is written
// as the <files> list and is normally only set for standalone manifests;
// the copy embedded in a package has none.
func GenerateNuspecXML(metadata PackageMetadata, files []ManifestFile) ([]byte, error) {
	nuspec := buildNuspec(metadata, files)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(nuspec); err != nil {
		return nil, fmt.Errorf("encode nuspec: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// determineNuspecNamespace picks the oldest schema that can express metadata.
func determineNuspecNamespace(metadata PackageMetadata) string {
	if len(metadata.ContentFiles) > 0 {
		return NuspecNamespaceV6
	}
	for _, g := range metadata.DependencyGroups {
		if g.TargetFramework != nil && g.TargetFramework.IsSpecificFramework() {
			return NuspecNamespaceV4
		}
	}
	if metadata.Version != nil && metadata.Version.IsPrerelease() {
		return NuspecNamespaceV3
	}
	return NuspecNamespaceV6
}

func buildNuspec(metadata PackageMetadata, files []ManifestFile) *Nuspec {
	m := NuspecMetadata{
		ID:                       metadata.ID,
		Title:                    metadata.Title,
		Authors:                  strings.Join(metadata.Authors, ","),
		Owners:                   strings.Join(metadata.Owners, ","),
		DevelopmentDependency:    metadata.DevelopmentDependency,
		RequireLicenseAcceptance: metadata.RequireLicenseAcceptance,
		Icon:                     metadata.Icon,
		Readme:                   metadata.Readme,
		Description:              metadata.Description,
		Summary:                  metadata.Summary,
		ReleaseNotes:             metadata.ReleaseNotes,
		Copyright:                metadata.Copyright,
		Language:                 metadata.Language,
		Tags:                     strings.Join(metadata.Tags, " "),
		Serviceable:              metadata.Serviceable,
	}

	if metadata.Version != nil {
		m.Version = metadata.Version.ToFullString()
	}
	if metadata.MinClientVersion != nil {
		m.MinClientVersion = metadata.MinClientVersion.ToNormalizedString()
	}
	if metadata.ProjectURL != nil {
		m.ProjectURL = metadata.ProjectURL.String()
	}
	if metadata.IconURL != nil {
		m.IconURL = metadata.IconURL.String()
	}
	if metadata.LicenseURL != nil {
		m.LicenseURL = metadata.LicenseURL.String()
	}

	if len(metadata.PackageTypes) > 0 {
		m.PackageTypes = &PackageTypesElement{}
		for _, pt := range metadata.PackageTypes {
			el := PackageTypeElement{Name: pt.Name}
			if pt.Version != nil {
				el.Version = pt.Version.ToNormalizedString()
			}
			m.PackageTypes.Types = append(m.PackageTypes.Types, el)
		}
	}

	if r := metadata.Repository; r != nil {
		m.Repository = &RepositoryElement{Type: r.Type, URL: r.URL, Branch: r.Branch, Commit: r.Commit}
	}

	if len(metadata.DependencyGroups) > 0 {
		m.Dependencies = &DependenciesElement{}
		for _, g := range metadata.DependencyGroups {
			group := DependencyGroupElement{}
			if g.TargetFramework != nil && g.TargetFramework.IsSpecificFramework() {
				group.TargetFramework = g.TargetFramework.GetShortFolderName()
			}
			for _, d := range g.Dependencies {
				group.Dependencies = append(group.Dependencies, DependencyElement{
					ID:      d.ID,
					Version: d.VersionRange.ToShortString(),
					Include: strings.Join(d.Include, ","),
					Exclude: strings.Join(d.Exclude, ","),
				})
			}
			m.Dependencies.Groups = append(m.Dependencies.Groups, group)
		}
	}

	if len(metadata.FrameworkAssemblies) > 0 {
		m.FrameworkAssemblies = &FrameworkAssembliesElement{}
		for _, fa := range metadata.FrameworkAssemblies {
			names := make([]string, 0, len(fa.TargetFrameworks))
			for _, fw := range fa.TargetFrameworks {
				if fw.IsSpecificFramework() {
					names = append(names, fw.GetShortFolderName())
				}
			}
			m.FrameworkAssemblies.Assemblies = append(m.FrameworkAssemblies.Assemblies, FrameworkAssemblyElement{
				AssemblyName:    fa.AssemblyName,
				TargetFramework: strings.Join(names, ","),
			})
		}
	}

	if len(metadata.ContentFiles) > 0 {
		m.ContentFiles = &ContentFilesElement{}
		for _, cf := range metadata.ContentFiles {
			m.ContentFiles.Files = append(m.ContentFiles.Files, ContentFilesEntry{
				Include:      cf.Include,
				Exclude:      cf.Exclude,
				BuildAction:  cf.BuildAction,
				CopyToOutput: formatOptionalBool(cf.CopyToOutput),
				Flatten:      formatOptionalBool(cf.Flatten),
			})
		}
	}

	nuspec := &Nuspec{
		Xmlns:    determineNuspecNamespace(metadata),
		Metadata: m,
	}

	if len(files) > 0 {
		nuspec.Files = &FilesElement{}
		for _, f := range files {
			nuspec.Files.Files = append(nuspec.Files.Files, FileElement{Source: f.Source, Target: f.Target})
		}
	}

	return nuspec
}

func formatOptionalBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
