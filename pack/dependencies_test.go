package pack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gonugetizer/packaging"
)

func dependency(id, versionRange, moniker string) Item {
	return NewItem(id, map[string]string{
		MetadataKind:                   KindDependency,
		MetadataVersion:                versionRange,
		MetadataTargetFrameworkMoniker: moniker,
	})
}

func lib(name, moniker string) Item {
	return NewItem(name, map[string]string{
		MetadataKind:                   KindLib,
		MetadataTargetFrameworkMoniker: moniker,
	})
}

func TestAggregateDependencies_IntersectsRanges(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("Newtonsoft.Json", "[1.0,2.0)", net45),
		dependency("Newtonsoft.Json", "[1.5,3.0]", net45),
	}, NewLog(nil))
	require.NoError(t, err)

	require.Len(t, groups, 1)
	g, ok := groups[".NETFramework,Version=v4.5"]
	require.True(t, ok)
	require.Len(t, g.Dependencies, 1)

	vr := g.Dependencies[0].VersionRange
	require.NotNil(t, vr)
	assert.Equal(t, "[1.5.0, 2.0.0)", vr.String())
	assert.True(t, vr.MinInclusive)
	assert.False(t, vr.MaxInclusive)
}

func TestAggregateDependencies_TieKeepsInclusiveOnlyWhenBothAre(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("A", "(1.0,2.0]", ""),
		dependency("A", "[1.0,2.0)", ""),
	}, NewLog(nil))
	require.NoError(t, err)

	vr := groups["Any,Version=v0.0"].Dependencies[0].VersionRange
	assert.Equal(t, "(1.0.0, 2.0.0)", vr.String())
}

func TestAggregateDependencies_UnconstrainedStaysNil(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("A", "", net45),
		dependency("A", "", net45),
		dependency("B", "", net45),
		dependency("B", "1.2.0", net45),
	}, NewLog(nil))
	require.NoError(t, err)

	deps := groups[".NETFramework,Version=v4.5"].Dependencies
	require.Len(t, deps, 2)
	assert.Equal(t, "A", deps[0].ID)
	assert.Nil(t, deps[0].VersionRange)
	assert.Equal(t, "B", deps[1].ID)
	assert.Equal(t, "1.2.0", deps[1].VersionRange.ToShortString())
}

func TestAggregateDependencies_GroupsByFramework(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("A", "1.0", net45),
		dependency("A", "2.0", ".NETStandard,Version=v2.0"),
		// The short form names the same framework as the moniker.
		NewItem("B", map[string]string{MetadataKind: KindDependency, MetadataTargetFramework: "net45"}),
	}, NewLog(nil))
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Len(t, groups[".NETFramework,Version=v4.5"].Dependencies, 2)
	assert.Len(t, groups[".NETStandard,Version=v2.0"].Dependencies, 1)
}

func TestAggregateDependencies_IDsAreCaseInsensitive(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("Serilog", "[2.0,)", net45),
		dependency("serilog", "[2.5,)", net45),
	}, NewLog(nil))
	require.NoError(t, err)

	deps := groups[".NETFramework,Version=v4.5"].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "Serilog", deps[0].ID)
	assert.Equal(t, "2.5.0", deps[0].VersionRange.ToShortString())
}

func TestAggregateDependencies_PrivateAssetsExcluded(t *testing.T) {
	private := dependency("Analyzers", "1.0", net45).With(MetadataPrivateAssets, "All")

	groups, err := AggregateDependencies(context.Background(), []Item{
		private,
		dependency("Public", "1.0", net45),
	}, NewLog(nil))
	require.NoError(t, err)

	deps := groups[".NETFramework,Version=v4.5"].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "Public", deps[0].ID)
}

func TestAggregateDependencies_PlaceholderDropped(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("_._", "", ".NETStandard,Version=v1.0"),
	}, NewLog(nil))
	require.NoError(t, err)

	g, ok := groups[".NETStandard,Version=v1.0"]
	require.True(t, ok)
	assert.Empty(t, g.Dependencies)
}

func TestAggregateDependencies_EmptyGroupForLibFrameworks(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		lib("a.dll", net45),
		lib("a.dll", ".NETStandard,Version=v2.0"),
		dependency("A", "1.0", ".NETStandard,Version=v2.0"),
		lib("private.dll", ".NETCoreApp,Version=v3.1").With(MetadataPrivateAssets, "all"),
	}, NewLog(nil))
	require.NoError(t, err)

	require.Len(t, groups, 2)
	g, ok := groups[".NETFramework,Version=v4.5"]
	require.True(t, ok, "lib framework without dependencies must get a group")
	assert.NotNil(t, g.Dependencies)
	assert.Empty(t, g.Dependencies)
	assert.Len(t, groups[".NETStandard,Version=v2.0"].Dependencies, 1)
}

func TestAggregateDependencies_InvalidRange(t *testing.T) {
	_, err := AggregateDependencies(context.Background(), []Item{
		dependency("A", "[1.0", net45),
	}, NewLog(nil))
	require.Error(t, err)

	pe, ok := err.(*PackError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeVersionParse, pe.Code)
	assert.Equal(t, "A", pe.Item)
}

func TestAggregateDependencies_InvalidFrameworkFallsBackToAny(t *testing.T) {
	log := NewLog(nil)
	groups, err := AggregateDependencies(context.Background(), []Item{
		dependency("A", "1.0", ".NETFramework,Version=vX"),
	}, log)
	require.NoError(t, err)

	_, ok := groups["Any,Version=v0.0"]
	assert.True(t, ok)
	require.Len(t, log.Warnings(), 1)
	assert.Equal(t, WarningCodeInvalidTargetFramework, log.Warnings()[0].Code)
}

func TestAggregateDependencies_InvalidFrameworkWarnsOnceAfterAssign(t *testing.T) {
	log := NewLog(nil)
	assigned := AssignPackagePath(context.Background(), []Item{
		dependency("A", "1.0", ".NETFramework,Version=vX"),
	}, DefaultKinds(), log)
	require.Len(t, log.Warnings(), 1)

	_, err := AggregateDependencies(context.Background(), assigned, log)
	require.NoError(t, err)
	require.Len(t, log.Warnings(), 1)
	assert.Equal(t, "A", log.Warnings()[0].Item)
}

func TestAggregateDependencies_NilLog(t *testing.T) {
	items := []Item{dependency("A", "1.0", ".NETFramework,Version=vX")}
	assigned := AssignPackagePath(context.Background(), items, nil, nil)
	require.Len(t, assigned, 1)

	groups, err := AggregateDependencies(context.Background(), assigned, nil)
	require.NoError(t, err)
	assert.Contains(t, groups, "Any,Version=v0.0")
}

func TestSortedDependencyGroups(t *testing.T) {
	groups, err := AggregateDependencies(context.Background(), []Item{
		lib("a.dll", ".NETStandard,Version=v2.0"),
		lib("a.dll", ".NETFramework,Version=v4.6"),
		lib("a.dll", net45),
	}, NewLog(nil))
	require.NoError(t, err)

	sorted := SortedDependencyGroups(groups)
	names := make([]string, len(sorted))
	for i, g := range sorted {
		names[i] = g.TargetFramework.GetShortFolderName()
	}
	assert.Equal(t, []string{"net45", "net46", "netstandard2.0"}, names)
}

func TestSortedDependencyGroups_Empty(t *testing.T) {
	assert.Empty(t, SortedDependencyGroups(map[string]packaging.PackageDependencyGroup{}))
}
