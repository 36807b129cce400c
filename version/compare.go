package version

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0 or 1 as v sorts before, equal to or after other.
//
// Numeric components are compared first, then release labels: a release sorts
// after any of its prereleases, numeric labels sort before alphanumeric ones
// and alphanumeric labels compare case-insensitively. Metadata is ignored.
func (v *NuGetVersion) Compare(other *NuGetVersion) int {
	if v == other {
		return 0
	}
	if v == nil {
		return -1
	}
	if other == nil {
		return 1
	}

	for _, pair := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
		{v.Revision, other.Revision},
	} {
		if c := compareInt(pair[0], pair[1]); c != 0 {
			return c
		}
	}

	return compareReleaseLabels(v.ReleaseLabels, other.ReleaseLabels)
}

// Equals reports whether both versions compare equal.
func (v *NuGetVersion) Equals(other *NuGetVersion) bool {
	return v.Compare(other) == 0
}

// LessThan reports whether v sorts before other.
func (v *NuGetVersion) LessThan(other *NuGetVersion) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v sorts after other.
func (v *NuGetVersion) GreaterThan(other *NuGetVersion) bool {
	return v.Compare(other) > 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareReleaseLabels(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareLabel(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareLabel(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)

	switch {
	case aErr == nil && bErr == nil:
		return compareInt(an, bn)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
