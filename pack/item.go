// Package pack turns annotated build outputs into a package: it assigns
// in-archive paths, removes duplicate files, merges dependency ranges per
// target framework and assembles the manifest handed to the archive writer.
package pack

import (
	"maps"
	"path"

	"github.com/willibrandon/gonugetizer/packaging"
)

// Metadata names read and written on items.
const (
	MetadataKind                    = "Kind"
	MetadataPackageID               = "PackageId"
	MetadataTargetFramework         = "TargetFramework"
	MetadataTargetFrameworkMoniker  = "TargetFrameworkMoniker"
	MetadataFrameworkSpecific       = "FrameworkSpecific"
	MetadataPackagePath             = "PackagePath"
	MetadataPackageFolder           = "PackageFolder"
	MetadataTargetPath              = "TargetPath"
	MetadataFullPath                = "FullPath"
	MetadataVersion                 = "Version"
	MetadataPrivateAssets           = "PrivateAssets"
	MetadataIsDevelopmentDependency = "IsDevelopmentDependency"
	MetadataIsPackable              = "IsPackable"

	// Content file metadata.
	MetadataCodeLanguage = "CodeLanguage"
	MetadataBuildAction  = "BuildAction"
	MetadataCopyToOutput = "CopyToOutput"
	MetadataFlatten      = "Flatten"
)

// Item is a build output or reference with string metadata. Items are
// treated as values: operations in this package return new items and never
// modify the metadata map of an input.
type Item struct {
	ItemSpec string            `json:"spec" yaml:"spec"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewItem copies metadata into a new item.
func NewItem(spec string, metadata map[string]string) Item {
	return Item{ItemSpec: spec, Metadata: maps.Clone(metadata)}
}

// Get returns the named metadata value, or "" when unset.
func (i Item) Get(name string) string {
	return i.Metadata[name]
}

// Has reports whether name is set to a non-empty value.
func (i Item) Has(name string) bool {
	return i.Metadata[name] != ""
}

// Clone returns a copy that shares nothing with i.
func (i Item) Clone() Item {
	return NewItem(i.ItemSpec, i.Metadata)
}

// With returns a copy of i with name set to value.
func (i Item) With(name, value string) Item {
	c := i.Clone()
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[name] = value
	return c
}

// SourcePath is the file on disk backing the item: FullPath when set,
// otherwise the item spec.
func (i Item) SourcePath() string {
	if p := i.Get(MetadataFullPath); p != "" {
		return p
	}
	return i.ItemSpec
}

// FileName is the last element of the item spec.
func (i Item) FileName() string {
	return path.Base(packaging.NormalizePackagePath(i.ItemSpec))
}
