package pack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const net45 = ".NETFramework,Version=v4.5"

func assignOne(t *testing.T, item Item) (Item, *Log) {
	t.Helper()
	log := NewLog(nil)
	out := AssignPackagePath(context.Background(), []Item{item}, DefaultKinds(), log)
	require.Len(t, out, 1)
	return out[0], log
}

func TestAssign_MissingKind(t *testing.T) {
	out, log := assignOne(t, NewItem("library.dll", map[string]string{
		MetadataTargetFrameworkMoniker: net45,
	}))

	require.True(t, log.HasLoggedErrors())
	assert.Equal(t, ErrorCodeMissingKind, log.Errors()[0].Code)
	assert.Equal(t, "library.dll", log.Errors()[0].Item)
	assert.Empty(t, out.Get(MetadataPackagePath))
}

func TestAssign_MissingKindDoesNotStopOthers(t *testing.T) {
	log := NewLog(nil)
	out := AssignPackagePath(context.Background(), []Item{
		NewItem("a.dll", nil),
		NewItem("b.dll", map[string]string{MetadataKind: KindLib}),
		NewItem("c.dll", nil),
	}, nil, log)

	require.Len(t, out, 3)
	assert.Len(t, log.Errors(), 2)
	assert.Equal(t, "lib/b.dll", out[1].Get(MetadataPackagePath))
}

func TestAssign_ExplicitPackagePathWithoutKindAssignsTargetFramework(t *testing.T) {
	out, log := assignOne(t, NewItem("library.dll", map[string]string{
		MetadataTargetFrameworkMoniker: net45,
		MetadataPackagePath:            `workbooks\library.dll`,
	}))

	assert.False(t, log.HasLoggedErrors())
	assert.Equal(t, "net45", out.Get(MetadataTargetFramework))
	assert.Equal(t, "workbooks/library.dll", out.Get(MetadataPackagePath))
	assert.Empty(t, out.Get(MetadataPackageFolder))
}

func TestAssign_ExplicitPackagePathBypassesFolder(t *testing.T) {
	out, _ := assignOne(t, NewItem("readme.txt", map[string]string{
		MetadataKind:        KindNone,
		MetadataPackagePath: `docs\readme.txt`,
	}))

	assert.Empty(t, out.Get(MetadataPackageFolder))
	assert.Equal(t, "docs/readme.txt", out.Get(MetadataPackagePath))
}

func TestAssign_LibWithoutFramework(t *testing.T) {
	out, _ := assignOne(t, NewItem("library.dll", map[string]string{MetadataKind: KindLib}))

	assert.Equal(t, "lib", out.Get(MetadataPackageFolder))
	assert.Equal(t, "lib/library.dll", out.Get(MetadataPackagePath))
	assert.Empty(t, out.Get(MetadataTargetFramework))
}

func TestAssign_TargetFrameworkFromMoniker(t *testing.T) {
	tests := []struct {
		moniker string
		want    string
	}{
		{net45, "net45"},
		{".NETPortable,Version=v5.0", "portable50"},
		{"Xamarin.iOS,Version=v1.0", "xamarinios10"},
		{"MonoAndroid,Version=v2.5", "monoandroid25"},
		{".NETStandard,Version=v2.0", "netstandard2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.moniker, func(t *testing.T) {
			out, log := assignOne(t, NewItem("library.dll", map[string]string{
				MetadataKind:                   KindLib,
				MetadataTargetFrameworkMoniker: tt.moniker,
			}))

			assert.False(t, log.HasLoggedErrors())
			assert.Equal(t, "lib", out.Get(MetadataPackageFolder))
			assert.Equal(t, "lib/"+tt.want+"/library.dll", out.Get(MetadataPackagePath))
			assert.Equal(t, tt.want, out.Get(MetadataTargetFramework))
		})
	}
}

func TestAssign_MappedKinds(t *testing.T) {
	for _, def := range DefaultKinds().Definitions() {
		if def.PackageFolder == "" || def.Name == KindContent {
			continue
		}
		t.Run(def.Name, func(t *testing.T) {
			out, _ := assignOne(t, NewItem("library.dll", map[string]string{
				MetadataKind:                   def.Name,
				MetadataTargetFrameworkMoniker: net45,
			}))

			assert.Equal(t, def.PackageFolder, out.Get(MetadataPackageFolder))
			assert.Equal(t, def.PackageFolder+"/net45/library.dll", out.Get(MetadataPackagePath))
		})
	}
}

func TestAssign_KindsWithoutFolderAreNotPackaged(t *testing.T) {
	for _, kind := range []string{KindDependency, KindFrameworkReference, KindMetadata} {
		t.Run(kind, func(t *testing.T) {
			out, log := assignOne(t, NewItem("library.dll", map[string]string{
				MetadataKind:                   kind,
				MetadataTargetFrameworkMoniker: net45,
			}))

			assert.False(t, log.HasLoggedErrors())
			assert.Empty(t, out.Get(MetadataPackagePath))
		})
	}
}

func TestAssign_InferredFolders(t *testing.T) {
	tests := []struct {
		kind   string
		folder string
	}{
		{KindBuild, "build"},
		{KindRuntimes, "runtimes"},
		{"Workbook", "workbook"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, _ := assignOne(t, NewItem("library.dll", map[string]string{
				MetadataKind:                   tt.kind,
				MetadataTargetFrameworkMoniker: net45,
			}))

			assert.Equal(t, tt.folder, out.Get(MetadataPackageFolder))
			assert.Equal(t, tt.folder+"/net45/library.dll", out.Get(MetadataPackagePath))
		})
	}
}

func TestAssign_ContentFiles(t *testing.T) {
	tests := []struct {
		moniker string
		lang    string
		want    string
	}{
		{"", "vb", "contentFiles/vb/any/Sample.cs"},
		{"", "", "contentFiles/any/any/Sample.cs"},
		{net45, "cs", "contentFiles/cs/net45/Sample.cs"},
		{net45, "", "contentFiles/any/net45/Sample.cs"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			out, _ := assignOne(t, NewItem("Sample.cs", map[string]string{
				MetadataKind:                   KindContent,
				MetadataTargetFrameworkMoniker: tt.moniker,
				MetadataCodeLanguage:           tt.lang,
			}))

			assert.Equal(t, "contentFiles", out.Get(MetadataPackageFolder))
			assert.Equal(t, tt.want, out.Get(MetadataPackagePath))
		})
	}
}

func TestAssign_ContentFileKeepsRelativePath(t *testing.T) {
	out, _ := assignOne(t, NewItem(`content\scripts\app.js`, map[string]string{
		MetadataKind:       KindContent,
		MetadataTargetPath: `scripts\app.js`,
	}))

	assert.Equal(t, "contentFiles/any/any/scripts/app.js", out.Get(MetadataPackagePath))
}

func TestAssign_ContentFilePreservesMetadata(t *testing.T) {
	out, _ := assignOne(t, NewItem("Sample.cs", map[string]string{
		MetadataKind:                   KindContent,
		MetadataTargetFrameworkMoniker: net45,
		MetadataCodeLanguage:           "cs",
		MetadataBuildAction:            "EmbeddedResource",
		MetadataCopyToOutput:           "true",
		MetadataFlatten:                "true",
	}))

	assert.Equal(t, "cs", out.Get(MetadataCodeLanguage))
	assert.Equal(t, "EmbeddedResource", out.Get(MetadataBuildAction))
	assert.Equal(t, "true", out.Get(MetadataCopyToOutput))
	assert.Equal(t, "true", out.Get(MetadataFlatten))
}

func TestAssign_None(t *testing.T) {
	out, _ := assignOne(t, NewItem("docs/readme.txt", map[string]string{
		MetadataKind:                   KindNone,
		MetadataTargetFrameworkMoniker: net45,
	}))

	assert.Empty(t, out.Get(MetadataPackageFolder))
	assert.Equal(t, "docs/readme.txt", out.Get(MetadataPackagePath))
	assert.NotContains(t, out.Get(MetadataPackagePath), "net45")
}

func TestAssign_NoneWithTargetPath(t *testing.T) {
	out, _ := assignOne(t, NewItem("library.dll", map[string]string{
		MetadataKind:       KindNone,
		MetadataTargetPath: `workbook\library.dll`,
	}))

	assert.Empty(t, out.Get(MetadataPackageFolder))
	assert.Equal(t, "workbook/library.dll", out.Get(MetadataPackagePath))
}

func TestAssign_TargetPath(t *testing.T) {
	out, _ := assignOne(t, NewItem("tool.exe", map[string]string{
		MetadataKind:       KindTool,
		MetadataTargetPath: `sdk\bin\tool.exe`,
	}))
	assert.Equal(t, "tools/sdk/bin/tool.exe", out.Get(MetadataPackagePath))

	out, _ = assignOne(t, NewItem("tool.exe", map[string]string{
		MetadataKind:                   KindTool,
		MetadataTargetFrameworkMoniker: net45,
		MetadataTargetPath:             `sdk\bin\tool.exe`,
	}))
	assert.Equal(t, "tools/net45/sdk/bin/tool.exe", out.Get(MetadataPackagePath))
}

func TestAssign_FrameworkSpecificOverride(t *testing.T) {
	tests := []struct {
		name string
		kind string
		flag string
		want string
	}{
		{"lib not specific", KindLib, "false", "lib/library.dll"},
		{"custom kind not specific", "Workbook", "false", "workbook/library.dll"},
		{"unknown kind stays specific", "Analyzer", "True", "analyzer/net45/library.dll"},
		{"unparsable flag ignored", KindLib, "maybe", "lib/net45/library.dll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := assignOne(t, NewItem("library.dll", map[string]string{
				MetadataKind:                   tt.kind,
				MetadataTargetFrameworkMoniker: net45,
				MetadataFrameworkSpecific:      tt.flag,
			}))

			assert.Equal(t, tt.want, out.Get(MetadataPackagePath))
			assert.Equal(t, "net45", out.Get(MetadataTargetFramework))
		})
	}
}

func TestAssign_ExplicitTargetFrameworkWins(t *testing.T) {
	out, _ := assignOne(t, NewItem("library.dll", map[string]string{
		MetadataKind:                   KindLib,
		MetadataTargetFramework:        "netstandard2.0",
		MetadataTargetFrameworkMoniker: net45,
	}))

	assert.Equal(t, "lib/netstandard2.0/library.dll", out.Get(MetadataPackagePath))
	assert.Equal(t, "netstandard2.0", out.Get(MetadataTargetFramework))
}

func TestAssign_InvalidMonikerWarns(t *testing.T) {
	out, log := assignOne(t, NewItem("library.dll", map[string]string{
		MetadataKind:                   KindLib,
		MetadataTargetFrameworkMoniker: ".NETFramework,Version=vX",
	}))

	assert.False(t, log.HasLoggedErrors())
	require.Len(t, log.Warnings(), 1)
	assert.Equal(t, WarningCodeInvalidTargetFramework, log.Warnings()[0].Code)
	assert.Equal(t, "lib/library.dll", out.Get(MetadataPackagePath))
}

func TestAssign_Deterministic(t *testing.T) {
	meta := map[string]string{
		MetadataKind:                   KindContent,
		MetadataTargetFrameworkMoniker: net45,
		MetadataCodeLanguage:           "fs",
	}

	log := NewLog(nil)
	out := AssignPackagePath(context.Background(), []Item{
		NewItem("a.fs", meta),
		NewItem("a.fs", meta),
	}, DefaultKinds(), log)

	assert.Equal(t, out[0], out[1])
}

func TestAssign_DoesNotModifyInput(t *testing.T) {
	in := NewItem("library.dll", map[string]string{
		MetadataKind:                   KindLib,
		MetadataTargetFrameworkMoniker: net45,
		"Custom":                       "kept",
	})

	out, _ := assignOne(t, in)

	assert.Len(t, in.Metadata, 3)
	assert.False(t, in.Has(MetadataPackagePath))
	assert.Equal(t, "kept", out.Get("Custom"))
	assert.Equal(t, "library.dll", out.ItemSpec)
}

func TestAssigner_Exclude(t *testing.T) {
	a, err := NewAssigner(AssignOptions{Exclude: []string{"symbols/**/*.pdb"}})
	require.NoError(t, err)

	log := NewLog(nil)
	out := a.Assign(context.Background(), []Item{
		NewItem("a.dll", map[string]string{MetadataKind: KindLib, MetadataTargetFrameworkMoniker: net45}),
		NewItem("a.pdb", map[string]string{MetadataKind: KindSymbols, MetadataTargetFrameworkMoniker: net45}),
	}, log)

	assert.Equal(t, "lib/net45/a.dll", out[0].Get(MetadataPackagePath))
	assert.Empty(t, out[1].Get(MetadataPackagePath))
	assert.Equal(t, "symbols", out[1].Get(MetadataPackageFolder))
}

func TestNewAssigner_InvalidPattern(t *testing.T) {
	_, err := NewAssigner(AssignOptions{Exclude: []string{"lib/[net"}})
	assert.Error(t, err)
}
