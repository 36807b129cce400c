package frameworks

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FrameworkNameProvider maps between full framework identifiers and their
// short folder name forms.
type FrameworkNameProvider struct {
	shortByIdentifier map[string]string
	identifierByShort map[string]string
	// shortPrefixes is sorted longest first so "netstandard" wins over "net".
	shortPrefixes    []string
	portableProfiles map[string][]string
}

var (
	defaultProvider     *FrameworkNameProvider
	defaultProviderOnce sync.Once
)

// DefaultFrameworkNameProvider returns the shared provider.
func DefaultFrameworkNameProvider() *FrameworkNameProvider {
	defaultProviderOnce.Do(func() {
		defaultProvider = newFrameworkNameProvider()
	})
	return defaultProvider
}

// identifierMappings lists full identifiers and their short folder names.
var identifierMappings = [][2]string{
	{NetFramework, "net"},
	{NetStandard, "netstandard"},
	{NetCoreApp, "netcoreapp"},
	{NetPortable, "portable"},
	{".NETMicroFramework", "netmf"},
	{".NETCore", "netcore"},
	{"Silverlight", "sl"},
	{"Windows", "win"},
	{"WindowsPhone", "wp"},
	{"WindowsPhoneApp", "wpa"},
	{"UAP", "uap"},
	{"Tizen", "tizen"},
	{"DNX", "dnx"},
	{"DNXCore", "dnxcore"},
	{"MonoAndroid", "monoandroid"},
	{"MonoTouch", "monotouch"},
	{"MonoMac", "monomac"},
	{"Xamarin.iOS", "xamarinios"},
	{"Xamarin.Mac", "xamarinmac"},
	{"Xamarin.TVOS", "xamarintvos"},
	{"Xamarin.WatchOS", "xamarinwatchos"},
	{"Xamarin.PlayStation3", "xamarinpsthree"},
	{"Xamarin.PlayStation4", "xamarinpsfour"},
	{"Xamarin.PlayStationVita", "xamarinpsvita"},
	{"Xamarin.Xbox360", "xamarinxboxthreesixty"},
	{"Xamarin.XboxOne", "xamarinxboxone"},
}

// Long-form aliases accepted when parsing short names.
var identifierAliases = map[string]string{
	"netframework": NetFramework,
	"windows":      "Windows",
	"windowsphone": "WindowsPhone",
	"silverlight":  "Silverlight",
}

// portableProfileMappings expands numbered portable profiles.
var portableProfileMappings = map[int][]string{
	2:   {"net4", "win8", "sl4", "wp7"},
	7:   {"net45", "win8"},
	31:  {"win81", "wp81"},
	32:  {"win81", "wpa81"},
	44:  {"net451", "win81"},
	49:  {"net45", "wp8"},
	78:  {"net45", "win8", "wp8"},
	84:  {"wp81", "wpa81"},
	111: {"net45", "win8", "wpa81"},
	151: {"net451", "win81", "wpa81"},
	157: {"win81", "wp81", "wpa81"},
	259: {"net45", "win8", "wpa81", "wp8"},
}

func newFrameworkNameProvider() *FrameworkNameProvider {
	p := &FrameworkNameProvider{
		shortByIdentifier: make(map[string]string, len(identifierMappings)),
		identifierByShort: make(map[string]string, len(identifierMappings)+len(identifierAliases)),
		portableProfiles:  make(map[string][]string, len(portableProfileMappings)),
	}

	for _, m := range identifierMappings {
		p.shortByIdentifier[strings.ToLower(m[0])] = m[1]
		p.identifierByShort[m[1]] = m[0]
	}
	for alias, identifier := range identifierAliases {
		p.identifierByShort[alias] = identifier
	}
	// Full identifiers followed directly by a version (".NETFramework4.5")
	// appear in older manifests.
	for _, m := range identifierMappings {
		if _, ok := p.identifierByShort[strings.ToLower(m[0])]; !ok {
			p.identifierByShort[strings.ToLower(m[0])] = m[0]
		}
	}
	for short := range p.identifierByShort {
		p.shortPrefixes = append(p.shortPrefixes, short)
	}
	sort.Slice(p.shortPrefixes, func(i, j int) bool {
		if len(p.shortPrefixes[i]) != len(p.shortPrefixes[j]) {
			return len(p.shortPrefixes[i]) > len(p.shortPrefixes[j])
		}
		return p.shortPrefixes[i] < p.shortPrefixes[j]
	})

	for number, names := range portableProfileMappings {
		p.portableProfiles[fmt.Sprintf("profile%d", number)] = names
	}

	return p
}

// TryGetShortIdentifier maps ".NETFramework" to "net". Lookup is case-insensitive.
func (p *FrameworkNameProvider) TryGetShortIdentifier(identifier string) (string, bool) {
	short, ok := p.shortByIdentifier[strings.ToLower(identifier)]
	return short, ok
}

// TryGetIdentifier maps "net" to ".NETFramework".
func (p *FrameworkNameProvider) TryGetIdentifier(short string) (string, bool) {
	identifier, ok := p.identifierByShort[strings.ToLower(short)]
	return identifier, ok
}

// canonicalIdentifier restores the canonical casing of known identifiers.
func (p *FrameworkNameProvider) canonicalIdentifier(identifier string) string {
	if short, ok := p.TryGetShortIdentifier(identifier); ok {
		return p.identifierByShort[short]
	}
	if strings.EqualFold(identifier, AnyIdentifier) {
		return AnyIdentifier
	}
	return identifier
}

// GetVersionString formats the version part of a short folder name.
//
// .NET Standard, .NET Core, UAP and net5.0+ use dotted versions
// ("netstandard2.0", "net8.0"). Everything else is written compactly as a
// digit string when every component is a single digit ("net472",
// "monoandroid25", "xamarinios10"). The Windows, Windows Phone and
// Silverlight families also drop a zero minor ("win8", "sl5").
func (p *FrameworkNameProvider) GetVersionString(fw *NuGetFramework) string {
	v := fw.Version
	if v.IsEmpty() {
		return ""
	}

	switch {
	case fw.Framework == NetStandard, fw.Framework == NetCoreApp, strings.EqualFold(fw.Framework, "UAP"):
		return v.String()
	}

	parts := []int{v.Major, v.Minor, v.Build, v.Revision}
	for _, n := range parts {
		if n > 9 {
			return v.String()
		}
	}

	keep := 2
	switch fw.Framework {
	case "Windows", "WindowsPhone", "WindowsPhoneApp", "Silverlight":
		keep = 1
	}
	for len(parts) > keep && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}

	var sb strings.Builder
	for _, n := range parts {
		sb.WriteByte(byte('0' + n))
	}
	return sb.String()
}

func (p *FrameworkNameProvider) shortProfile(profile string) string {
	switch strings.ToLower(profile) {
	case "full":
		return ""
	case "client":
		return "client"
	}
	return strings.ToLower(profile)
}

// portableFolderNames expands a portable profile to its sorted member
// frameworks. Numbered profiles use the known profile table; framework lists
// ("net45+win8") are normalized member by member.
func (p *FrameworkNameProvider) portableFolderNames(profile string) []string {
	members, ok := p.portableProfiles[strings.ToLower(profile)]
	if !ok {
		members = strings.Split(profile, "+")
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if fw, err := ParseFramework(m); err == nil {
			names = append(names, fw.GetShortFolderName())
		} else {
			names = append(names, strings.ToLower(m))
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}
