package version

import (
	"fmt"
	"strings"
)

// VersionRange is an interval of versions. A nil bound is unbounded on
// that side.
//
// Syntax:
//
//	1.0          x ≥ 1.0
//	[1.0]        x == 1.0
//	[1.0, 2.0]   1.0 ≤ x ≤ 2.0
//	(1.0, 2.0)   1.0 < x < 2.0
//	[1.0, 2.0)   1.0 ≤ x < 2.0
//	[1.0, )      x ≥ 1.0
//	(, 2.0]      x ≤ 2.0
type VersionRange struct {
	MinVersion   *NuGetVersion
	MaxVersion   *NuGetVersion
	MinInclusive bool
	MaxInclusive bool
}

// ParseVersionRange parses a range in NuGet interval notation or a bare
// version, which means "at least this version".
func ParseVersionRange(s string) (*VersionRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("version range cannot be empty")
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(") {
		return parseIntervalNotation(s)
	}

	v, err := Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version range %q: %w", s, err)
	}
	return &VersionRange{MinVersion: v, MinInclusive: true}, nil
}

// MustParseRange is ParseVersionRange for literals known to be valid.
func MustParseRange(s string) *VersionRange {
	r, err := ParseVersionRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseIntervalNotation(s string) (*VersionRange, error) {
	if !strings.HasSuffix(s, "]") && !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("invalid version range %q: must end with ] or )", s)
	}

	r := &VersionRange{
		MinInclusive: s[0] == '[',
		MaxInclusive: s[len(s)-1] == ']',
	}

	body := s[1 : len(s)-1]
	parts := strings.Split(body, ",")

	switch len(parts) {
	case 1:
		// Only [x] is meaningful as a single-element interval.
		if !r.MinInclusive || !r.MaxInclusive {
			return nil, fmt.Errorf("invalid version range %q: exact versions use [x]", s)
		}
		v, err := Parse(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid version range %q: %w", s, err)
		}
		r.MinVersion, r.MaxVersion = v, v
		return r, nil
	case 2:
	default:
		return nil, fmt.Errorf("invalid version range %q: too many bounds", s)
	}

	if lower := strings.TrimSpace(parts[0]); lower != "" {
		v, err := Parse(lower)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound in range %q: %w", s, err)
		}
		r.MinVersion = v
	}
	if upper := strings.TrimSpace(parts[1]); upper != "" {
		v, err := Parse(upper)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound in range %q: %w", s, err)
		}
		r.MaxVersion = v
	}

	return r, nil
}

// HasLowerBound reports whether the range has a minimum version.
func (r *VersionRange) HasLowerBound() bool { return r != nil && r.MinVersion != nil }

// HasUpperBound reports whether the range has a maximum version.
func (r *VersionRange) HasUpperBound() bool { return r != nil && r.MaxVersion != nil }

// Satisfies reports whether v lies inside the range. A nil range accepts
// every version.
func (r *VersionRange) Satisfies(v *NuGetVersion) bool {
	if v == nil {
		return false
	}
	if r == nil {
		return true
	}

	if r.MinVersion != nil {
		c := v.Compare(r.MinVersion)
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.MaxVersion != nil {
		c := v.Compare(r.MaxVersion)
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// String formats the range in full interval notation with normalized
// versions, e.g. "[1.5.0, 2.0.0)".
func (r *VersionRange) String() string {
	if r == nil {
		return ""
	}

	open, close := "(", ")"
	if r.MinInclusive {
		open = "["
	}
	if r.MaxInclusive {
		close = "]"
	}

	var lower, upper string
	if r.MinVersion != nil {
		lower = r.MinVersion.ToNormalizedString()
	}
	if r.MaxVersion != nil {
		upper = r.MaxVersion.ToNormalizedString()
	}
	return fmt.Sprintf("%s%s, %s%s", open, lower, upper, close)
}

// ToShortString formats the range the way it is written into a manifest:
// a bare version for "at least", "[x]" for exact matches and interval
// notation otherwise.
func (r *VersionRange) ToShortString() string {
	if r == nil {
		return ""
	}
	if r.MinVersion != nil && r.MinInclusive && r.MaxVersion == nil {
		return r.MinVersion.ToNormalizedString()
	}
	if r.MinVersion != nil && r.MaxVersion != nil && r.MinInclusive && r.MaxInclusive &&
		r.MinVersion.Equals(r.MaxVersion) {
		return "[" + r.MinVersion.ToNormalizedString() + "]"
	}
	return r.String()
}
