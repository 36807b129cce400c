// Package frameworks models NuGet target frameworks.
//
// A framework can be written two ways: as a short folder name used inside
// package archives ("net45", "netstandard2.0", "portable-net45+win8") or as a
// full moniker produced by build systems (".NETFramework,Version=v4.5").
// Both parse into a NuGetFramework, which projects back to either form.
//
//	fw, err := frameworks.ParseFrameworkName(".NETFramework,Version=v4.5")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(fw.GetShortFolderName()) // net45
//	fmt.Println(fw.FrameworkName())      // .NETFramework,Version=v4.5
package frameworks

import (
	"fmt"
	"sort"
	"strings"
)

// Well known framework identifiers.
const (
	NetFramework  = ".NETFramework"
	NetStandard   = ".NETStandard"
	NetCoreApp    = ".NETCoreApp"
	NetPortable   = ".NETPortable"
	AnyIdentifier = "Any"
	Agnostic      = "Agnostic"
	Unsupported   = "Unsupported"
)

// NuGetFramework is a parsed target framework.
type NuGetFramework struct {
	// Framework is the full identifier, e.g. ".NETFramework".
	Framework string

	Version FrameworkVersion

	// Platform and PlatformVersion are only used by net5.0 and later ("net6.0-windows10.0").
	Platform        string
	PlatformVersion FrameworkVersion

	// Profile is the .NET Framework profile ("Client") or the portable
	// profile ("Profile7" or "net45+win8").
	Profile string
}

// FrameworkVersion is the four part version of a framework.
type FrameworkVersion struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// AnyFramework is the framework of items that are not framework specific.
var AnyFramework = NuGetFramework{Framework: AnyIdentifier}

// IsEmpty reports whether all components are zero.
func (v FrameworkVersion) IsEmpty() bool {
	return v == FrameworkVersion{}
}

// Compare returns -1, 0 or 1 as v sorts before, equal to or after other.
func (v FrameworkVersion) Compare(other FrameworkVersion) int {
	a := [4]int{v.Major, v.Minor, v.Build, v.Revision}
	b := [4]int{other.Major, other.Minor, other.Build, other.Revision}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// String formats the version with at least two components, dropping
// trailing zero build and revision: 4.7.2.0 is "4.7.2" and 6.0.0.0 is "6.0".
func (v FrameworkVersion) String() string {
	switch {
	case v.Revision > 0:
		return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	case v.Build > 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsAny reports whether fw is the "any" framework.
func (fw *NuGetFramework) IsAny() bool {
	return strings.EqualFold(fw.Framework, AnyIdentifier)
}

// IsSpecificFramework is false for the any, agnostic and unsupported pseudo frameworks.
func (fw *NuGetFramework) IsSpecificFramework() bool {
	switch strings.ToLower(fw.Framework) {
	case "", "any", "agnostic", "unsupported":
		return false
	}
	return true
}

// IsPCL reports whether fw is a portable class library profile.
func (fw *NuGetFramework) IsPCL() bool {
	return fw.Framework == NetPortable && fw.Profile != ""
}

// IsNet5Era reports whether fw is .NET 5 or later, which uses the "net" short name.
func (fw *NuGetFramework) IsNet5Era() bool {
	return fw.Framework == NetCoreApp && fw.Version.Major >= 5
}

// Equals compares identifier (case-insensitively), version, platform and profile.
func (fw *NuGetFramework) Equals(other *NuGetFramework) bool {
	if fw == nil || other == nil {
		return fw == other
	}
	return strings.EqualFold(fw.Framework, other.Framework) &&
		fw.Version.Compare(other.Version) == 0 &&
		strings.EqualFold(fw.Platform, other.Platform) &&
		fw.PlatformVersion.Compare(other.PlatformVersion) == 0 &&
		strings.EqualFold(fw.Profile, other.Profile)
}

// String returns the short folder name.
func (fw *NuGetFramework) String() string {
	return fw.GetShortFolderName()
}

// GetShortFolderName returns the name used for framework folders inside a
// package, e.g. "net45", "netstandard2.0", "net6.0-windows",
// "portable-net45+win8".
func (fw *NuGetFramework) GetShortFolderName() string {
	if !fw.IsSpecificFramework() {
		return strings.ToLower(fw.Framework)
	}

	p := DefaultFrameworkNameProvider()

	if fw.IsPCL() {
		return "portable-" + strings.Join(p.portableFolderNames(fw.Profile), "+")
	}

	var sb strings.Builder
	if fw.IsNet5Era() {
		sb.WriteString("net")
	} else if short, ok := p.TryGetShortIdentifier(fw.Framework); ok {
		sb.WriteString(short)
	} else {
		sb.WriteString(strings.ToLower(strings.ReplaceAll(fw.Framework, ".", "")))
	}

	sb.WriteString(p.GetVersionString(fw))

	if fw.Profile != "" {
		if short := p.shortProfile(fw.Profile); short != "" {
			sb.WriteString("-")
			sb.WriteString(short)
		}
	}

	if fw.Platform != "" {
		sb.WriteString("-")
		sb.WriteString(strings.ToLower(fw.Platform))
		if !fw.PlatformVersion.IsEmpty() {
			sb.WriteString(fw.PlatformVersion.String())
		}
	}

	return sb.String()
}

// FrameworkName returns the full moniker, e.g. ".NETFramework,Version=v4.5"
// or ".NETPortable,Version=v4.5,Profile=Profile7". It is the canonical key
// used to compare frameworks written in different forms.
//
// Monikers have no platform component, so platform specific frameworks
// ("net6.0-windows") are returned in their short form instead.
func (fw *NuGetFramework) FrameworkName() string {
	if fw.Platform != "" {
		return fw.GetShortFolderName()
	}

	identifier := fw.Framework
	if fw.IsAny() {
		identifier = AnyIdentifier
	}

	var sb strings.Builder
	sb.WriteString(identifier)
	sb.WriteString(",Version=v")
	sb.WriteString(fw.Version.String())
	if fw.Profile != "" {
		sb.WriteString(",Profile=")
		sb.WriteString(fw.Profile)
	}
	return sb.String()
}

// SortFrameworks orders frameworks by identifier, then version, then profile.
func SortFrameworks(fws []*NuGetFramework) {
	sort.SliceStable(fws, func(i, j int) bool {
		a, b := fws[i], fws[j]
		if c := strings.Compare(strings.ToLower(a.Framework), strings.ToLower(b.Framework)); c != 0 {
			return c < 0
		}
		if c := a.Version.Compare(b.Version); c != 0 {
			return c < 0
		}
		return strings.ToLower(a.Profile) < strings.ToLower(b.Profile)
	})
}
