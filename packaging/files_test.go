package packaging

import (
	"errors"
	"testing"
)

func TestValidatePackagePath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"lib/net45/a.dll", true},
		{`lib\net45\a.dll`, true},
		{"./readme.txt", true},
		{"contentFiles/any/any/a..b.txt", true},
		{"", false},
		{"/abs.dll", false},
		{`C:\abs.dll`, false},
		{"lib/../../escape.dll", false},
		{"lib/", false},
		{"[Content_Types].xml", false},
		{"_rels/.rels", false},
		{"package/services/metadata/core-properties/x.psmdcp", false},
		{"Foo.nuspec", false},
		{"content/Foo.nuspec", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePackagePath(tt.path)
			if tt.valid && err != nil {
				t.Errorf("ValidatePackagePath(%q) error = %v", tt.path, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidPath) {
				t.Errorf("ValidatePackagePath(%q) error = %v, want ErrInvalidPath", tt.path, err)
			}
		})
	}
}

func TestNormalizePackagePath(t *testing.T) {
	if got := NormalizePackagePath(`.\tools\a.ps1`); got != "tools/a.ps1" {
		t.Errorf("NormalizePackagePath() = %q", got)
	}
}
