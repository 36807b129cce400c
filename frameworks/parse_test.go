package frameworks

import "testing"

func TestParseFramework(t *testing.T) {
	tests := []struct {
		tfm          string
		wantFw       string
		wantVersion  FrameworkVersion
		wantPlatform string
		wantProfile  string
	}{
		{"net45", NetFramework, FrameworkVersion{Major: 4, Minor: 5}, "", ""},
		{"net472", NetFramework, FrameworkVersion{Major: 4, Minor: 7, Build: 2}, "", ""},
		{"NET4.5", NetFramework, FrameworkVersion{Major: 4, Minor: 5}, "", ""},
		{"net40-client", NetFramework, FrameworkVersion{Major: 4}, "", "Client"},
		{"net5.0", NetCoreApp, FrameworkVersion{Major: 5}, "", ""},
		{"net10.0", NetCoreApp, FrameworkVersion{Major: 10}, "", ""},
		{"net8.0-windows", NetCoreApp, FrameworkVersion{Major: 8}, "windows", ""},
		{"netstandard2.0", NetStandard, FrameworkVersion{Major: 2}, "", ""},
		{"netcoreapp3.1", NetCoreApp, FrameworkVersion{Major: 3, Minor: 1}, "", ""},
		{"netcore50", ".NETCore", FrameworkVersion{Major: 5}, "", ""},
		{"portable50", NetPortable, FrameworkVersion{Major: 5}, "", ""},
		{"portable-net45+win8", NetPortable, FrameworkVersion{}, "", "net45+win8"},
		{"portable-profile7", NetPortable, FrameworkVersion{}, "", "Profile7"},
		{"xamarinios10", "Xamarin.iOS", FrameworkVersion{Major: 1}, "", ""},
		{"monoandroid25", "MonoAndroid", FrameworkVersion{Major: 2, Minor: 5}, "", ""},
		{"win81", "Windows", FrameworkVersion{Major: 8, Minor: 1}, "", ""},
		{"wpa81", "WindowsPhoneApp", FrameworkVersion{Major: 8, Minor: 1}, "", ""},
		{"wp8", "WindowsPhone", FrameworkVersion{Major: 8}, "", ""},
		{"uap10.0", "UAP", FrameworkVersion{Major: 10}, "", ""},
		{"any", AnyIdentifier, FrameworkVersion{}, "", ""},
		{".NETFramework4.5", NetFramework, FrameworkVersion{Major: 4, Minor: 5}, "", ""},
		{".NETStandard2.0", NetStandard, FrameworkVersion{Major: 2}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.tfm, func(t *testing.T) {
			fw, err := ParseFramework(tt.tfm)
			if err != nil {
				t.Fatalf("ParseFramework(%q) error = %v", tt.tfm, err)
			}
			if fw.Framework != tt.wantFw {
				t.Errorf("Framework = %q, want %q", fw.Framework, tt.wantFw)
			}
			if fw.Version != tt.wantVersion {
				t.Errorf("Version = %+v, want %+v", fw.Version, tt.wantVersion)
			}
			if fw.Platform != tt.wantPlatform {
				t.Errorf("Platform = %q, want %q", fw.Platform, tt.wantPlatform)
			}
			if fw.Profile != tt.wantProfile {
				t.Errorf("Profile = %q, want %q", fw.Profile, tt.wantProfile)
			}
		})
	}
}

func TestParseFramework_Invalid(t *testing.T) {
	for _, tfm := range []string{"", "   ", "foo45", "net", "net45-", "net12345", "portable-", "netx.y"} {
		t.Run(tfm, func(t *testing.T) {
			if fw, err := ParseFramework(tfm); err == nil {
				t.Errorf("ParseFramework(%q) = %+v, want error", tfm, fw)
			}
		})
	}
}

func TestParseFrameworkName(t *testing.T) {
	tests := []struct {
		name      string
		wantShort string
		wantFull  string
	}{
		{".NETFramework,Version=v4.5", "net45", ".NETFramework,Version=v4.5"},
		{".NETFramework, Version=v4.7.2", "net472", ".NETFramework,Version=v4.7.2"},
		{".netframework,version=v4.0,profile=Client", "net40-client", ".NETFramework,Version=v4.0,Profile=Client"},
		{".NETPortable,Version=v5.0", "portable50", ".NETPortable,Version=v5.0"},
		{".NETPortable,Version=v4.5,Profile=Profile7", "portable-net45+win8", ".NETPortable,Version=v4.5,Profile=Profile7"},
		{"Xamarin.iOS,Version=v1.0", "xamarinios10", "Xamarin.iOS,Version=v1.0"},
		{"MonoAndroid,Version=v2.5", "monoandroid25", "MonoAndroid,Version=v2.5"},
		{".NETStandard,Version=v2.0", "netstandard2.0", ".NETStandard,Version=v2.0"},
		{".NETCoreApp,Version=v3.1", "netcoreapp3.1", ".NETCoreApp,Version=v3.1"},
		{".NETCoreApp,Version=v8.0", "net8.0", ".NETCoreApp,Version=v8.0"},
		{"Tizen,Version=v4.0", "tizen40", "Tizen,Version=v4.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, err := ParseFrameworkName(tt.name)
			if err != nil {
				t.Fatalf("ParseFrameworkName(%q) error = %v", tt.name, err)
			}
			if got := fw.GetShortFolderName(); got != tt.wantShort {
				t.Errorf("GetShortFolderName() = %q, want %q", got, tt.wantShort)
			}
			if got := fw.FrameworkName(); got != tt.wantFull {
				t.Errorf("FrameworkName() = %q, want %q", got, tt.wantFull)
			}
		})
	}
}

func TestParseFrameworkName_Invalid(t *testing.T) {
	for _, name := range []string{",Version=v4.5", ".NETFramework,Version", ".NETFramework,Version=vX", ".NETFramework,Flavor=v1"} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFrameworkName(name); err == nil {
				t.Errorf("ParseFrameworkName(%q) succeeded, want error", name)
			}
		})
	}
}

func TestParse_DispatchesOnForm(t *testing.T) {
	short := MustParse("net45")
	full := MustParse(".NETFramework,Version=v4.5")

	if !short.Equals(full) {
		t.Errorf("net45 and .NETFramework,Version=v4.5 should be equal: %+v vs %+v", short, full)
	}
	if short.FrameworkName() != full.FrameworkName() {
		t.Errorf("FrameworkName() differs: %q vs %q", short.FrameworkName(), full.FrameworkName())
	}
}
