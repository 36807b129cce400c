package frameworks

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse accepts either a full moniker (".NETFramework,Version=v4.5") or a
// short folder name ("net45").
func Parse(s string) (*NuGetFramework, error) {
	if strings.Contains(s, ",") {
		return ParseFrameworkName(s)
	}
	return ParseFramework(s)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *NuGetFramework {
	fw, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return fw
}

// ParseFrameworkName parses a full moniker of the form
// "Identifier,Version=vX.Y[,Profile=P]". Keys are case-insensitive, the
// leading 'v' of the version is optional and a missing version is 0.0.
//
//	.NETFramework,Version=v4.5              -> net45
//	.NETPortable,Version=v4.5,Profile=Profile7 -> portable-net45+win8
//	Xamarin.iOS,Version=v1.0                -> xamarinios10
func ParseFrameworkName(name string) (*NuGetFramework, error) {
	parts := strings.Split(name, ",")
	identifier := strings.TrimSpace(parts[0])
	if identifier == "" {
		return nil, fmt.Errorf("invalid framework name %q: missing identifier", name)
	}

	fw := &NuGetFramework{
		Framework: DefaultFrameworkNameProvider().canonicalIdentifier(identifier),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid framework name %q: expected key=value in %q", name, part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "version":
			v, err := parseDottedVersion(strings.TrimPrefix(strings.TrimPrefix(value, "v"), "V"))
			if err != nil {
				return nil, fmt.Errorf("invalid framework name %q: %w", name, err)
			}
			fw.Version = v
		case "profile":
			fw.Profile = value
		default:
			return nil, fmt.Errorf("invalid framework name %q: unknown key %q", name, key)
		}
	}

	return fw, nil
}

// ParseFramework parses a short folder name.
//
//	net45, net472, net4.5        .NETFramework
//	net5.0, net8.0-windows10.0   .NETCoreApp (platform specific)
//	netstandard2.0               .NETStandard
//	netcoreapp3.1                .NETCoreApp
//	net40-client                 .NETFramework, Client profile
//	portable-net45+win8          .NETPortable, framework list profile
//	portable50                   .NETPortable 5.0
//	xamarinios10, monoandroid25  Xamarin / Mono platforms
//	any, agnostic, unsupported   pseudo frameworks
func ParseFramework(tfm string) (*NuGetFramework, error) {
	s := strings.ToLower(strings.TrimSpace(tfm))
	if s == "" {
		return nil, fmt.Errorf("framework string cannot be empty")
	}

	switch s {
	case "any":
		return &NuGetFramework{Framework: AnyIdentifier}, nil
	case "agnostic":
		return &NuGetFramework{Framework: Agnostic}, nil
	case "unsupported":
		return &NuGetFramework{Framework: Unsupported}, nil
	}

	if profile, ok := strings.CutPrefix(s, "portable-"); ok {
		if profile == "" {
			return nil, fmt.Errorf("invalid framework %q: missing portable profile", tfm)
		}
		return &NuGetFramework{Framework: NetPortable, Profile: canonicalPortableProfile(profile)}, nil
	}

	head, suffix, hasSuffix := strings.Cut(s, "-")

	p := DefaultFrameworkNameProvider()
	var short, versionPart string
	for _, prefix := range p.shortPrefixes {
		if rest, ok := strings.CutPrefix(head, prefix); ok && startsVersion(rest) {
			short, versionPart = prefix, rest
			break
		}
	}
	if short == "" {
		return nil, fmt.Errorf("unknown framework %q", tfm)
	}

	v, err := parseFolderVersion(versionPart)
	if err != nil {
		return nil, fmt.Errorf("invalid framework %q: %w", tfm, err)
	}

	identifier, _ := p.TryGetIdentifier(short)
	fw := &NuGetFramework{Framework: identifier, Version: v}
	if identifier == NetFramework && v.Major >= 5 {
		fw.Framework = NetCoreApp
	}

	if hasSuffix {
		if suffix == "" {
			return nil, fmt.Errorf("invalid framework %q: empty suffix", tfm)
		}
		if fw.IsNet5Era() {
			if err := parsePlatform(fw, suffix); err != nil {
				return nil, fmt.Errorf("invalid framework %q: %w", tfm, err)
			}
		} else {
			fw.Profile = canonicalProfile(suffix)
		}
	}

	return fw, nil
}

// startsVersion reports whether s can be the version part of a short name.
func startsVersion(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// parseFolderVersion parses "45" as 4.5 and "4.5" or "10.0" as dotted.
func parseFolderVersion(s string) (FrameworkVersion, error) {
	if strings.Contains(s, ".") {
		return parseDottedVersion(s)
	}
	if len(s) > 4 {
		return FrameworkVersion{}, fmt.Errorf("compact version %q has too many digits", s)
	}

	var parts [4]int
	for i, c := range s {
		if c < '0' || c > '9' {
			return FrameworkVersion{}, fmt.Errorf("invalid compact version %q", s)
		}
		parts[i] = int(c - '0')
	}
	return FrameworkVersion{Major: parts[0], Minor: parts[1], Build: parts[2], Revision: parts[3]}, nil
}

func parseDottedVersion(s string) (FrameworkVersion, error) {
	if s == "" {
		return FrameworkVersion{}, nil
	}

	fields := strings.Split(s, ".")
	if len(fields) > 4 {
		return FrameworkVersion{}, fmt.Errorf("version %q has too many components", s)
	}

	var parts [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return FrameworkVersion{}, fmt.Errorf("invalid version component %q in %q", f, s)
		}
		parts[i] = n
	}
	return FrameworkVersion{Major: parts[0], Minor: parts[1], Build: parts[2], Revision: parts[3]}, nil
}

func parsePlatform(fw *NuGetFramework, s string) error {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		fw.Platform = s
		return nil
	}
	if i == 0 {
		return fmt.Errorf("platform %q has no name", s)
	}

	v, err := parseDottedVersion(s[i:])
	if err != nil {
		return fmt.Errorf("invalid platform version: %w", err)
	}
	fw.Platform = s[:i]
	fw.PlatformVersion = v
	return nil
}

func canonicalProfile(s string) string {
	switch s {
	case "client":
		return "Client"
	case "full":
		return "Full"
	}
	return s
}

// canonicalPortableProfile restores "profile7" to "Profile7" and leaves
// framework lists alone.
func canonicalPortableProfile(s string) string {
	if rest, ok := strings.CutPrefix(s, "profile"); ok {
		if _, err := strconv.Atoi(rest); err == nil {
			return "Profile" + rest
		}
	}
	return s
}
