// Package version implements NuGet package versions and version ranges.
//
// Versions follow NuGet's flavour of SemVer 2.0, which also admits the legacy
// four-part form (Major.Minor.Build.Revision):
//
//	v, err := version.Parse("1.2.3-beta.1")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(v.ToNormalizedString()) // 1.2.3-beta.1
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// NuGetVersion is a parsed package version.
type NuGetVersion struct {
	Major int
	Minor int
	Patch int

	// Revision is the fourth numeric component of a legacy version.
	Revision int

	// IsLegacyVersion is set when the input had four numeric components.
	IsLegacyVersion bool

	// ReleaseLabels holds the dot separated prerelease labels ("1.0.0-beta.1" has ["beta", "1"]).
	ReleaseLabels []string

	// Metadata is the build metadata after '+'. It never takes part in comparison.
	Metadata string

	originalString string
}

// NewVersion builds a release version from its numeric components.
func NewVersion(major, minor, patch int) *NuGetVersion {
	return &NuGetVersion{Major: major, Minor: minor, Patch: patch}
}

// String returns the version as it was written when parsed, or the
// normalized full form for versions built in code.
func (v *NuGetVersion) String() string {
	if v.originalString != "" {
		return v.originalString
	}
	return v.ToFullString()
}

// IsPrerelease reports whether the version carries release labels.
func (v *NuGetVersion) IsPrerelease() bool {
	return len(v.ReleaseLabels) > 0
}

// ToNormalizedString formats the version without build metadata.
// Leading zeros are dropped, missing components are filled with zero and the
// revision is only emitted when it is non-zero.
func (v *NuGetVersion) ToNormalizedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision > 0 {
		fmt.Fprintf(&sb, ".%d", v.Revision)
	}
	if len(v.ReleaseLabels) > 0 {
		sb.WriteByte('-')
		sb.WriteString(strings.Join(v.ReleaseLabels, "."))
	}
	return sb.String()
}

// ToFullString is ToNormalizedString plus the build metadata.
func (v *NuGetVersion) ToFullString() string {
	s := v.ToNormalizedString()
	if v.Metadata != "" {
		s += "+" + v.Metadata
	}
	return s
}

// Parse parses a version string.
//
// Between one and four numeric components are accepted, optionally followed
// by "-labels" and "+metadata". Labels and metadata are restricted to ASCII
// alphanumerics and '-'.
func Parse(s string) (*NuGetVersion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("version string cannot be empty")
	}

	v := &NuGetVersion{originalString: s}

	rest := s
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.Metadata = rest[i+1:]
		rest = rest[:i]
		if !validIdentifiers(v.Metadata) {
			return nil, fmt.Errorf("invalid build metadata in version %q", s)
		}
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		labels := rest[i+1:]
		rest = rest[:i]
		if !validIdentifiers(labels) {
			return nil, fmt.Errorf("invalid release label in version %q", s)
		}
		v.ReleaseLabels = strings.Split(labels, ".")
	}

	numbers := strings.Split(rest, ".")
	if len(numbers) > 4 {
		return nil, fmt.Errorf("invalid version format: %q", s)
	}

	parts := make([]int, 4)
	for i, n := range numbers {
		if n == "" {
			return nil, fmt.Errorf("invalid version format: %q", s)
		}
		for _, r := range n {
			if r < '0' || r > '9' {
				return nil, fmt.Errorf("invalid numeric component %q in version %q", n, s)
			}
		}
		value, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric component %q in version %q: %w", n, s, err)
		}
		parts[i] = value
	}

	v.Major, v.Minor, v.Patch, v.Revision = parts[0], parts[1], parts[2], parts[3]
	v.IsLegacyVersion = len(numbers) == 4
	return v, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) *NuGetVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// validIdentifiers checks a dot separated list of SemVer identifiers.
func validIdentifiers(s string) bool {
	if s == "" {
		return false
	}
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return false
		}
		for _, r := range id {
			isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !isAlnum && r != '-' {
				return false
			}
		}
	}
	return true
}
