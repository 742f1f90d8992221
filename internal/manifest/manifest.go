// Package manifest holds the in-memory manifest shape shared by the writer
// and the parser, plus the canonical ordering used when rendering one to
// disk.
package manifest

import (
	"sort"
	"strings"

	"dirsum/internal/hashengine"
)

// Entry is one digest line: a display path, the algorithm it was computed
// with, the digest bytes, and whether verification has matched it against
// the walk. Every field but Processed is fixed at parse/compute time.
type Entry struct {
	DisplayName string
	Algorithm   hashengine.ID
	Digest      []byte
	Processed   bool
}

// Manifest is the parsed or accumulated content of one checksum or result
// file. ByName indexes named entries (checksum format, and the named
// variant of result format); BySize indexes bare-digest result lines by
// their byte length, since those carry no name to key on.
type Manifest struct {
	ByName map[string]*Entry
	BySize map[int][]byte

	// SkippedLines records the 1-based line numbers of lines that failed
	// to parse after the first accepted line (checksum format only).
	SkippedLines []int
}

// New returns an empty Manifest ready to accumulate entries.
func New() *Manifest {
	return &Manifest{ByName: make(map[string]*Entry), BySize: make(map[int][]byte)}
}

// Put inserts or overwrites the entry named name. A second occurrence of
// the same name overwrites the first — duplicate paths in a manifest
// resolve "last wins".
func (m *Manifest) Put(e *Entry) {
	m.ByName[e.DisplayName] = e
}

// Lookup returns the entry for a display path, matched exactly (display
// paths are already backslash-normalised by the time they reach here).
func (m *Manifest) Lookup(displayName string) (*Entry, bool) {
	e, ok := m.ByName[displayName]
	return e, ok
}

// Unprocessed returns every entry whose Processed flag is still false, in
// canonical manifest order, for reporting as missing after a verify drain.
func (m *Manifest) Unprocessed() []*Entry {
	var out []*Entry
	for _, e := range m.ByName {
		if !e.Processed {
			out = append(out, e)
		}
	}
	SortCanonical(out)
	return out
}

// SortCanonical orders entries by the canonical manifest order: deeper
// paths first (more path separators), then case-insensitive lexical order
// of the display path, with paths that differ only in case ordered by byte
// value. This is a total order — for any two distinct display paths
// exactly one precedes the other.
func SortCanonical(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di := depth(entries[i].DisplayName)
		dj := depth(entries[j].DisplayName)
		if di != dj {
			return di > dj
		}
		li := strings.ToLower(entries[i].DisplayName)
		lj := strings.ToLower(entries[j].DisplayName)
		if li != lj {
			return li < lj
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
}

func depth(displayName string) int {
	return strings.Count(displayName, `\`)
}
