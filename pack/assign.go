package pack

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/willibrandon/gonugetizer/frameworks"
	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/packaging"
)

// anyToken fills the language and framework segments of content file paths.
const anyToken = "any"

// AssignOptions configures an Assigner.
type AssignOptions struct {
	// Kinds maps item kinds to package folders. Nil uses DefaultKinds.
	Kinds *KindTable

	// Exclude holds doublestar patterns matched against computed package
	// paths. Matching items are left out of the package.
	Exclude []string
}

// Assigner computes in-archive paths for items.
type Assigner struct {
	kinds   *KindTable
	exclude []string
}

// NewAssigner validates opts and returns an Assigner.
func NewAssigner(opts AssignOptions) (*Assigner, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	kinds := opts.Kinds
	if kinds == nil {
		kinds = DefaultKinds()
	}
	return &Assigner{kinds: kinds, exclude: opts.Exclude}, nil
}

// AssignPackagePath assigns every item using kinds and no exclusions.
func AssignPackagePath(ctx context.Context, items []Item, kinds *KindTable, log *Log) []Item {
	a := &Assigner{kinds: kinds}
	if kinds == nil {
		a.kinds = DefaultKinds()
	}
	return a.Assign(ctx, items, log)
}

// Assign returns one assigned item per input, in input order. Items that
// cannot be placed are returned with an empty PackagePath and the problem
// is logged; the remaining items are still processed. A nil log discards
// diagnostics.
func (a *Assigner) Assign(ctx context.Context, items []Item, log *Log) []Item {
	if log == nil {
		log = NewLog(nil)
	}
	ctx, stage := observability.StartStage(ctx, observability.StageAssign,
		observability.AttrItemCount.Int(len(items)))

	assigned := make([]Item, len(items))
	failed := 0
	for i, item := range items {
		out, warning, err := a.AssignItem(item)
		if warning != nil {
			log.LogWarning(warning)
		}
		if err != nil {
			log.LogError(err)
			failed++
		}
		assigned[i] = out

		folder := out.Get(MetadataPackageFolder)
		if !out.Has(MetadataPackagePath) {
			folder = "none"
		} else if folder == "" {
			folder = "root"
		}
		observability.FilesAssignedTotal.WithLabelValues(folder).Inc()
	}

	log.Logger().DebugContext(ctx, "Assigned package paths to {Count} items ({Failed} failed)", len(items), failed)
	stage.End(nil)
	return assigned
}

// AssignItem computes the package folder and path of a single item. The
// returned item is a copy; item itself is not modified. The warning is set
// when the target framework moniker could not be parsed.
func (a *Assigner) AssignItem(item Item) (assigned Item, warning, err *PackError) {
	out := item.Clone()
	if out.Metadata == nil {
		out.Metadata = make(map[string]string)
	}

	kind := item.Get(MetadataKind)
	switch {
	case item.Has(MetadataPackagePath):
		var short string
		short, warning = shortFramework(item)
		out.Metadata[MetadataPackageFolder] = ""
		out.Metadata[MetadataPackagePath] = packaging.NormalizePackagePath(item.Get(MetadataPackagePath))
		setTargetFramework(out, short)

	case kind == "":
		out.Metadata[MetadataPackageFolder] = ""
		out.Metadata[MetadataPackagePath] = ""
		return out, nil, NewMissingKindError(item)

	case kind == KindNone:
		rel := item.Get(MetadataTargetPath)
		if rel == "" {
			rel = item.ItemSpec
		}
		out.Metadata[MetadataPackageFolder] = ""
		out.Metadata[MetadataPackagePath] = packaging.NormalizePackagePath(rel)

	default:
		var short string
		short, warning = shortFramework(item)
		folder, specific := a.kinds.Classify(kind)
		if v, perr := strconv.ParseBool(item.Get(MetadataFrameworkSpecific)); perr == nil {
			specific = v
		}

		if kind == KindContent {
			folder = packaging.ContentFilesFolder
			out.Metadata[MetadataPackagePath] = contentFilePath(item, short)
		} else {
			out.Metadata[MetadataPackagePath] = folderPath(item, folder, specific, short)
		}
		out.Metadata[MetadataPackageFolder] = folder
		setTargetFramework(out, short)
	}

	if a.excluded(out.Get(MetadataPackagePath)) {
		out.Metadata[MetadataPackagePath] = ""
	}
	return out, warning, nil
}

func (a *Assigner) excluded(packagePath string) bool {
	if packagePath == "" {
		return false
	}
	for _, pattern := range a.exclude {
		if ok, _ := doublestar.Match(pattern, packagePath); ok {
			return true
		}
	}
	return false
}

// contentFilePath lays out contentFiles/<language>/<framework>/<path>.
func contentFilePath(item Item, short string) string {
	lang := item.Get(MetadataCodeLanguage)
	if lang == "" {
		lang = anyToken
	}
	if short == "" {
		short = anyToken
	}

	rel := item.Get(MetadataTargetPath)
	if rel == "" {
		rel = item.ItemSpec
	}
	return path.Join(packaging.ContentFilesFolder, lang, short, packaging.NormalizePackagePath(rel))
}

// folderPath lays out <folder>[/<framework>]/<TargetPath or file name>.
func folderPath(item Item, folder string, specific bool, short string) string {
	if folder == "" {
		return ""
	}

	rel := item.FileName()
	if tp := item.Get(MetadataTargetPath); tp != "" {
		rel = packaging.NormalizePackagePath(tp)
	}

	if specific && short != "" {
		return path.Join(folder, short, rel)
	}
	return path.Join(folder, rel)
}

// shortFramework returns the short folder name of the item's framework:
// TargetFramework when set, otherwise the projection of
// TargetFrameworkMoniker.
func shortFramework(item Item) (string, *PackError) {
	if tf := item.Get(MetadataTargetFramework); tf != "" {
		return tf, nil
	}

	moniker := item.Get(MetadataTargetFrameworkMoniker)
	if moniker == "" {
		return "", nil
	}
	fw, err := frameworks.Parse(moniker)
	if err != nil {
		return "", NewInvalidTargetFrameworkWarning(item, moniker, err)
	}
	return fw.GetShortFolderName(), nil
}

// setTargetFramework fills TargetFramework unless the item already had one.
func setTargetFramework(item Item, short string) {
	if item.Get(MetadataTargetFramework) == "" {
		item.Metadata[MetadataTargetFramework] = short
	}
}
