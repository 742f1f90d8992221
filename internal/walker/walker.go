// Package walker enumerates a directory tree in dirsum's canonical tree
// order: at each directory, entries are filtered (follow-link, then
// include/exclude) and the survivors are sorted case-insensitively by
// leaf name before descent or emission. This order is what makes
// single-digest mode deterministic.
package walker

import (
	"os"
	"sort"
	"strings"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/pathmodel"
)

// Kind distinguishes a file entry from a directory entry.
type Kind int

const (
	File Kind = iota
	Directory
)

// DirEntry is one node visited by the walk, in canonical tree order.
type DirEntry struct {
	Path pathmodel.Path
	Kind Kind
	Size int64
}

// Entry is the minimal shape the directory lister needs to produce;
// Name is the leaf name and IsDir tells the walker whether to recurse.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// ReadDirFunc lists the entries of the directory at absolutePath, which
// is always in dirsum's canonical (Windows-shaped) form — the default
// implementation (osReadDir) converts it to host-native form via
// pathmodel.ToOSPath before touching the real filesystem; tests instead
// substitute an in-memory tree keyed by the canonical form directly, so
// Walker's ordering and filtering logic can be exercised without any
// path translation at all.
type ReadDirFunc func(absolutePath string) ([]Entry, error)

// ReparseFunc reports whether absolutePath (canonical form) is a reparse
// point (symlink, junction, mount point). Defaults to osIsReparse, which
// converts to host-native form before calling pathmodel.IsReparsePoint.
type ReparseFunc func(absolutePath string) bool

// Options configures a Walker. OnlyPatterns and ExcludePatterns are
// mutually exclusive (checked by New).
type Options struct {
	FollowLinks     bool
	OnlyPatterns    []string
	ExcludePatterns []string
	SkipErrors      bool

	// SelfAbsolute, when non-empty, is the canonical absolute path of a
	// distinguished file (the manifest being written, or the reference
	// file being verified against) that must never appear in the walk.
	// The comparison is case-insensitive and only the first match found
	// is suppressed.
	SelfAbsolute string

	ReadDir      ReadDirFunc
	IsReparse    ReparseFunc
	OnEnumerate  func(dirAbsolute string, err error) // observability hook for skipped directories
}

// Walker performs a deterministic recursive enumeration of a directory
// tree, applying the follow-link and include/exclude filters at each
// level before sorting survivors into canonical tree order.
type Walker struct {
	opts       Options
	suppressed bool
}

// New validates options and returns a ready Walker.
func New(opts Options) (*Walker, error) {
	if len(opts.OnlyPatterns) > 0 && len(opts.ExcludePatterns) > 0 {
		return nil, dirsumerr.New(dirsumerr.KindArgument, "walker: -only and -exclude are mutually exclusive")
	}
	if opts.ReadDir == nil {
		opts.ReadDir = osReadDir
	}
	if opts.IsReparse == nil {
		opts.IsReparse = osIsReparse
	}
	return &Walker{opts: opts}, nil
}

// osIsReparse adapts the walker's canonical (Windows-shaped) absolute
// path to host-native form before asking pathmodel.IsReparsePoint, which
// opens the real file.
func osIsReparse(absolutePath string) bool {
	return pathmodel.IsReparsePoint(pathmodel.ToOSPath(absolutePath))
}

// osReadDir is the real ReadDirFunc backend: it converts the walker's
// canonical (Windows-shaped) absolute path to host-native form before
// calling os.ReadDir. Tests substitute their own ReadDirFunc/ReparseFunc
// keyed by the canonical form directly, bypassing this conversion.
func osReadDir(absolutePath string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(pathmodel.ToOSPath(absolutePath))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		var size int64
		if !de.IsDir() {
			if info, err := de.Info(); err == nil {
				size = info.Size()
			}
		}
		entries = append(entries, Entry{Name: de.Name(), IsDir: de.IsDir(), Size: size})
	}
	return entries, nil
}

// Walk enumerates root and every descendant in canonical tree order,
// invoking visit for each surviving entry. A directory enumeration
// failure is either skipped (continuing as if the directory were empty)
// or fatal, per SkipErrors.
func (w *Walker) Walk(root pathmodel.Path, visit func(DirEntry) error) error {
	return w.walkDir(root, visit)
}

func (w *Walker) walkDir(dir pathmodel.Path, visit func(DirEntry) error) error {
	entries, err := w.opts.ReadDir(dir.Absolute)
	if err != nil {
		if w.opts.OnEnumerate != nil {
			w.opts.OnEnumerate(dir.Absolute, err)
		}
		if w.opts.SkipErrors {
			return nil
		}
		return dirsumerr.New(dirsumerr.KindEnumerate, "walker: enumerate %q: %w", dir.Display, err)
	}

	survivors := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}

		childPath := dir.Append(e.Name)

		if !w.opts.FollowLinks && w.opts.IsReparse(childPath.Absolute) {
			continue
		}

		if w.isSelf(childPath) {
			continue
		}

		if len(w.opts.OnlyPatterns) > 0 && !e.IsDir {
			if !matchAny(w.opts.OnlyPatterns, e.Name) {
				continue
			}
		}
		if len(w.opts.ExcludePatterns) > 0 {
			if matchAny(w.opts.ExcludePatterns, e.Name) {
				continue
			}
		}

		survivors = append(survivors, e)
	}

	sort.Slice(survivors, func(i, j int) bool {
		return strings.ToLower(survivors[i].Name) < strings.ToLower(survivors[j].Name)
	})

	for _, e := range survivors {
		childPath := dir.Append(e.Name)
		if e.IsDir {
			if err := visit(DirEntry{Path: childPath, Kind: Directory}); err != nil {
				return err
			}
			if err := w.walkDir(childPath, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(DirEntry{Path: childPath, Kind: File, Size: e.Size}); err != nil {
			return err
		}
	}

	return nil
}

func (w *Walker) isSelf(p pathmodel.Path) bool {
	if w.suppressed || w.opts.SelfAbsolute == "" {
		return false
	}
	if strings.EqualFold(p.Absolute, w.opts.SelfAbsolute) {
		w.suppressed = true
		return true
	}
	return false
}
