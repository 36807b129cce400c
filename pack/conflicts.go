package pack

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/packaging"
)

// FileSystem is the file access needed to tell duplicate files apart.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
}

// OSFileSystem reads from the local disk.
type OSFileSystem struct{}

// Stat calls os.Stat.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// Open calls os.Open.
func (OSFileSystem) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

// FS adapts an fs.FS, such as fstest.MapFS or os.DirFS, to FileSystem.
func FS(fsys fs.FS) FileSystem {
	return ioFS{fsys}
}

type ioFS struct {
	fsys fs.FS
}

func (f ioFS) Stat(name string) (fs.FileInfo, error) { return fs.Stat(f.fsys, name) }

func (f ioFS) Open(name string) (io.ReadCloser, error) { return f.fsys.Open(name) }

// DedupResult is the outcome of ResolveDuplicates.
type DedupResult struct {
	// Unique holds one item per package path, in input order.
	Unique []Item

	// Conflicts lists every file left out because different content claimed
	// its package path.
	Conflicts []Conflict
}

// fileIdentity is the cheap identity compared before any content is read.
type fileIdentity struct {
	packagePath string
	name        string
	ext         string
	modTime     int64
	size        int64
}

// ResolveDuplicates collapses items that write the same file to the same
// package path and reports paths claimed by different files.
//
// Items without a package path are ignored. Package paths are compared
// without regard to case, as the archive does. Paths used once are accepted
// without touching the disk. Otherwise the sources are compared by name,
// extension, modification time and size, and only the sources those checks
// leave apart are compared by a SHA-512 digest of their content.
//
// When one content is claimed by several sources and every other content
// by a single source, the first source of the shared content is kept and
// the others are conflicts. When no content is shared, or more than one
// is, every source of the path is a conflict. All conflicts are reported
// in a single NG0012 error logged to log.
//
// A failure to stat or read a source aborts with a NG0014 error.
func ResolveDuplicates(ctx context.Context, items []Item, fsys FileSystem, log *Log) (*DedupResult, error) {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	if log == nil {
		log = NewLog(nil)
	}

	ctx, stage := observability.StartStage(ctx, observability.StageDedup,
		observability.AttrItemCount.Int(len(items)))

	var paths []string
	byPath := make(map[string][]int)
	for i, item := range items {
		p := item.Get(MetadataPackagePath)
		if p == "" {
			continue
		}
		p = strings.ToLower(packaging.NormalizePackagePath(p))
		if _, ok := byPath[p]; !ok {
			paths = append(paths, p)
		}
		byPath[p] = append(byPath[p], i)
	}

	keep := make(map[int]bool, len(items))
	var conflicting []int
	for _, p := range paths {
		group := byPath[p]
		if len(group) == 1 {
			keep[group[0]] = true
			continue
		}

		kept, lost, err := resolvePath(items, group, p, fsys)
		if err != nil {
			stage.End(err)
			return nil, err
		}
		if kept >= 0 {
			keep[kept] = true
		}
		if len(lost) > 0 {
			observability.PackageConflictsTotal.Inc()
			conflicting = append(conflicting, lost...)
		}
	}

	result := &DedupResult{}
	for i, item := range items {
		if keep[i] {
			result.Unique = append(result.Unique, item)
		}
	}

	sort.Ints(conflicting)
	for _, i := range conflicting {
		result.Conflicts = append(result.Conflicts, Conflict{
			Source:      items[i].SourcePath(),
			PackagePath: packaging.NormalizePackagePath(items[i].Get(MetadataPackagePath)),
		})
	}
	if len(result.Conflicts) > 0 {
		log.LogError(NewDuplicatePackagePathError(result.Conflicts))
	}

	stage.SetAttributes(
		observability.AttrFileCount.Int(len(result.Unique)),
		observability.AttrConflictCount.Int(len(result.Conflicts)),
	)
	log.Logger().DebugContext(ctx, "Kept {Count} unique files, {Conflicts} conflicts", len(result.Unique), len(result.Conflicts))
	stage.End(nil)
	return result, nil
}

// resolvePath settles a package path claimed by several items. It returns
// the index of the item to keep, or -1 when none is, and the indexes of the
// items in conflict.
func resolvePath(items []Item, group []int, packagePath string, fsys FileSystem) (int, []int, error) {
	// Cheap pass: file metadata. Each representative stands for the items
	// sharing its identity.
	var reps []int
	members := make(map[int][]int, len(group))
	byIdentity := make(map[fileIdentity]int, len(group))
	for _, i := range group {
		source := items[i].SourcePath()
		info, err := fsys.Stat(source)
		if err != nil {
			return -1, nil, NewIOError("stat", source, err)
		}

		name := path.Base(packaging.NormalizePackagePath(source))
		id := fileIdentity{
			packagePath: packagePath,
			name:        name,
			ext:         path.Ext(name),
			modTime:     info.ModTime().UnixNano(),
			size:        info.Size(),
		}
		if rep, ok := byIdentity[id]; ok {
			members[rep] = append(members[rep], i)
			continue
		}
		byIdentity[id] = i
		members[i] = []int{i}
		reps = append(reps, i)
	}
	if len(reps) == 1 {
		return reps[0], nil, nil
	}

	// Expensive pass: content of the representatives only.
	var digests []string
	byDigest := make(map[string][]int, len(reps))
	for _, rep := range reps {
		digest, err := hashFile(fsys, items[rep].SourcePath())
		if err != nil {
			return -1, nil, err
		}
		if _, ok := byDigest[digest]; !ok {
			digests = append(digests, digest)
		}
		byDigest[digest] = append(byDigest[digest], members[rep]...)
	}
	if len(digests) == 1 {
		return group[0], nil, nil
	}

	shared := ""
	for _, d := range digests {
		if len(byDigest[d]) < 2 {
			continue
		}
		if shared != "" {
			// Two contents both backed by several sources: neither wins.
			return -1, group, nil
		}
		shared = d
	}
	if shared == "" {
		return -1, group, nil
	}

	kept := byDigest[shared][0]
	for _, i := range byDigest[shared] {
		kept = min(kept, i)
	}
	var lost []int
	for _, d := range digests {
		if d != shared {
			lost = append(lost, byDigest[d]...)
		}
	}
	sort.Ints(lost)
	return kept, lost, nil
}

func hashFile(fsys FileSystem, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", NewIOError("open", name, err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", NewIOError("read", name, err)
	}
	observability.FilesHashedTotal.Inc()
	return hex.EncodeToString(h.Sum(nil)), nil
}
