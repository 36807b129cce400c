package pack

import (
	"context"
	"strings"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/packaging"
	"github.com/willibrandon/gonugetizer/version"
)

// emptyDependencyID marks an intentionally empty lib folder. It is never
// written as a dependency.
const emptyDependencyID = "_._"

// AggregateDependencies builds the dependency groups of a package from its
// items, keyed by the full framework name (see NuGetFramework.FrameworkName).
//
// Dependency items declare the package id as their item spec and a version
// range in Version. Items with PrivateAssets=all are ignored. Ranges
// declared more than once for the same id and framework are intersected.
// Every framework with Lib items but no declared dependencies gets an empty
// group, which states that the framework has no dependencies rather than
// leaving it unknown.
//
// A malformed range aborts with a NG0013 error. Unparsable frameworks are
// logged as NG0016 warnings and the item is treated as framework neutral.
func AggregateDependencies(ctx context.Context, items []Item, log *Log) (map[string]packaging.PackageDependencyGroup, error) {
	if log == nil {
		log = NewLog(nil)
	}
	ctx, stage := observability.StartStage(ctx, observability.StageDepends,
		observability.AttrItemCount.Int(len(items)))

	type entry struct {
		id string
		vr *version.VersionRange
	}
	type group struct {
		fw      *frameworks.NuGetFramework
		entries []*entry
		byID    map[string]*entry
	}

	groups := make(map[string]*group)
	for _, item := range items {
		if item.Get(MetadataKind) != KindDependency || isPrivate(item) {
			continue
		}

		vr, err := parseDependencyRange(item)
		if err != nil {
			stage.End(err)
			return nil, err
		}

		fw := itemFramework(item, log)
		key := fw.FrameworkName()
		g, ok := groups[key]
		if !ok {
			g = &group{fw: fw, byID: make(map[string]*entry)}
			groups[key] = g
		}

		// The group is created even for the placeholder so the framework
		// is still declared.
		if item.ItemSpec == emptyDependencyID {
			continue
		}

		idKey := strings.ToLower(item.ItemSpec)
		if e, ok := g.byID[idKey]; ok {
			e.vr = version.Intersect(e.vr, vr)
			continue
		}
		e := &entry{id: item.ItemSpec, vr: vr}
		g.byID[idKey] = e
		g.entries = append(g.entries, e)
	}

	result := make(map[string]packaging.PackageDependencyGroup, len(groups))
	for key, g := range groups {
		deps := make([]packaging.PackageDependency, 0, len(g.entries))
		for _, e := range g.entries {
			deps = append(deps, packaging.PackageDependency{ID: e.id, VersionRange: e.vr})
		}
		result[key] = packaging.PackageDependencyGroup{TargetFramework: g.fw, Dependencies: deps}
	}

	for _, item := range items {
		if item.Get(MetadataKind) != KindLib || isPrivate(item) {
			continue
		}
		fw := itemFramework(item, nil)
		if _, ok := result[fw.FrameworkName()]; !ok {
			result[fw.FrameworkName()] = packaging.PackageDependencyGroup{
				TargetFramework: fw,
				Dependencies:    []packaging.PackageDependency{},
			}
		}
	}

	stage.SetAttributes(observability.AttrGroupCount.Int(len(result)))
	log.Logger().DebugContext(ctx, "Aggregated {Count} dependency groups", len(result))
	stage.End(nil)
	return result, nil
}

// SortedDependencyGroups returns the groups ordered by framework.
func SortedDependencyGroups(groups map[string]packaging.PackageDependencyGroup) []packaging.PackageDependencyGroup {
	fws := make([]*frameworks.NuGetFramework, 0, len(groups))
	for _, g := range groups {
		fws = append(fws, g.TargetFramework)
	}
	frameworks.SortFrameworks(fws)

	sorted := make([]packaging.PackageDependencyGroup, 0, len(groups))
	for _, fw := range fws {
		sorted = append(sorted, groups[fw.FrameworkName()])
	}
	return sorted
}

func isPrivate(item Item) bool {
	return strings.EqualFold(item.Get(MetadataPrivateAssets), "all")
}

// parseDependencyRange parses the Version metadata of a dependency item.
// An empty value means any version and yields nil.
func parseDependencyRange(item Item) (*version.VersionRange, error) {
	raw := strings.TrimSpace(item.Get(MetadataVersion))
	if raw == "" {
		return nil, nil
	}
	vr, err := version.ParseVersionRange(raw)
	if err != nil {
		pe := NewVersionParseError("version range for dependency "+item.ItemSpec, raw, err)
		pe.Item = item.ItemSpec
		return nil, pe
	}
	return vr, nil
}

// itemFramework resolves the framework an item targets, preferring the
// short TargetFramework over the moniker. Items without a usable framework
// belong to the any framework. Parse failures are reported to log when it
// is not nil.
func itemFramework(item Item, log *Log) *frameworks.NuGetFramework {
	raw := item.Get(MetadataTargetFramework)
	if raw == "" {
		raw = item.Get(MetadataTargetFrameworkMoniker)
	}
	if raw == "" {
		anyFw := frameworks.AnyFramework
		return &anyFw
	}

	fw, err := frameworks.Parse(raw)
	if err != nil {
		if log != nil {
			log.LogWarning(NewInvalidTargetFrameworkWarning(item, raw, err))
		}
		anyFw := frameworks.AnyFramework
		return &anyFw
	}
	return fw
}
