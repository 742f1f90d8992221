package manifest

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
)

// shadowSuffix names the transient per-algorithm file threaded manifest
// computation writes to before the canonical post-sort.
const shadowSuffix = ".dirhash_shadow"

// bomBytes is the UTF-8 byte order mark every manifest/result file starts
// with; append-mode's "does this file already have content" check ignores
// it so a brand new file doesn't get a spurious leading blank line.
var bomBytes = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions controls how a digest line is rendered.
type WriteOptions struct {
	Lowercase      bool
	RelativePaths  bool
	IncludeLastDir bool
	RootDisplay    string
}

// RelativeDisplay renders full (an entry's absolute display path, rooted at
// the walk's root) according to the relative-path options. With neither
// RelativePaths nor IncludeLastDir set, full is returned unchanged.
func (o WriteOptions) RelativeDisplay(full string) string {
	if !o.RelativePaths && !o.IncludeLastDir {
		return full
	}
	rel := strings.TrimPrefix(full, o.RootDisplay)
	rel = strings.TrimPrefix(rel, `\`)
	if !o.IncludeLastDir {
		return rel
	}
	leaf := leafOf(o.RootDisplay)
	if rel == "" {
		return leaf
	}
	return leaf + `\` + rel
}

func leafOf(display string) string {
	idx := strings.LastIndexByte(display, '\\')
	if idx < 0 {
		return display
	}
	return display[idx+1:]
}

// FormatLine renders one checksum-format line: "<hex>  <path>\n".
func FormatLine(digest []byte, displayPath string, opts WriteOptions) string {
	h := hex.EncodeToString(digest)
	if !opts.Lowercase {
		h = strings.ToUpper(h)
	}
	return h + "  " + opts.RelativeDisplay(displayPath) + "\n"
}

// FormatResultLine renders one result-format line (§4.7/§6, the format
// single-digest mode's -t output file uses): `<AlgoId> hash of "<target>"
// (<n> bytes) = <hex>\n`. <n> is the algorithm's digest size in bytes
// (len(digest)), not the number of bytes fed into the hash — the same
// quantity internal/parser.ParseResultFile cross-checks against
// hashengine.DigestSize(algo) when reading the line back.
func FormatResultLine(id hashengine.ID, target string, digest []byte, lowercase bool) string {
	h := hex.EncodeToString(digest)
	if !lowercase {
		h = strings.ToUpper(h)
	}
	return fmt.Sprintf(`%s hash of "%s" (%d bytes) = %s`+"\n", id, target, len(digest), h)
}

// OutputFileName returns the on-disk name for id's output file. In
// multi-algorithm mode the algorithm id is appended to base.
func OutputFileName(base string, id hashengine.ID, multi bool) string {
	if !multi {
		return base
	}
	return base + "." + string(id)
}

// OutputFile is one algorithm's destination: the real output file, plus an
// optional shadow file that threaded workers write to instead.
type OutputFile struct {
	ID     hashengine.ID
	file   *os.File
	shadow *os.File

	shadowName string
}

// Target returns the stream writers should use: the shadow file if one is
// open, otherwise the real output file.
func (o *OutputFile) Target() *os.File {
	if o.shadow != nil {
		return o.shadow
	}
	return o.file
}

// ShadowName returns the on-disk name of o's shadow file, for a caller
// that needs to reopen it for reading once workers are done writing to it.
func (o *OutputFile) ShadowName() string { return o.shadowName }

// WriteLine appends line to Target(): the real output file in sequential
// manifest computation, the shadow file when the threaded serializer
// writes through it.
func (o *OutputFile) WriteLine(line string) error {
	_, err := o.Target().WriteString(line)
	if err != nil {
		return dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	return nil
}

// Writer owns one OutputFile per requested algorithm.
type Writer struct {
	files []*OutputFile
}

// OpenWriter opens base (suffixed per algorithm when len(ids) > 1), in
// truncate or append mode per overwrite. In append mode, if the file
// already holds content beyond the BOM, a leading newline is written so
// the new block isn't glued to the prior one. useShadow additionally opens
// a ".dirhash_shadow" file per algorithm for threaded workers to write to.
func OpenWriter(base string, ids []hashengine.ID, overwrite, useShadow bool) (*Writer, error) {
	multi := len(ids) > 1
	w := &Writer{}
	for _, id := range ids {
		name := OutputFileName(base, id, multi)
		of, err := openOutputFile(name, overwrite, useShadow)
		if err != nil {
			w.Close()
			return nil, dirsumerr.New(dirsumerr.KindOpen, "manifest: open %q: %w", name, err)
		}
		of.ID = id
		w.files = append(w.files, of)
	}
	return w, nil
}

func openOutputFile(name string, overwrite, useShadow bool) (*OutputFile, error) {
	flag := os.O_CREATE | os.O_WRONLY
	existingLen := int64(0)
	if overwrite {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_APPEND
		if info, err := os.Stat(name); err == nil {
			existingLen = info.Size()
		}
	}

	f, err := os.OpenFile(name, flag, 0o644) // #nosec G302
	if err != nil {
		return nil, err
	}

	if !overwrite && existingLen > int64(len(bomBytes)) {
		if _, err := f.WriteString("\n"); err != nil {
			f.Close()
			return nil, err
		}
	}
	if existingLen == 0 {
		if _, err := f.Write(bomBytes); err != nil {
			f.Close()
			return nil, err
		}
	}

	of := &OutputFile{ID: "", file: f}
	if useShadow {
		shadowName := name + shadowSuffix
		sf, err := os.OpenFile(shadowName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) // #nosec G302
		if err != nil {
			f.Close()
			return nil, err
		}
		of.shadow = sf
		of.shadowName = shadowName
	}
	return of, nil
}

// OpenSingleFile opens one output/result file with the same
// truncate/append-with-leading-newline/BOM behavior as a per-algorithm
// output file, for callers (single-digest/result-format mode) that don't
// split output per algorithm.
func OpenSingleFile(name string, overwrite bool) (*os.File, error) {
	of, err := openOutputFile(name, overwrite, false)
	if err != nil {
		return nil, err
	}
	return of.file, nil
}

// ForID returns the OutputFile for id.
func (w *Writer) ForID(id hashengine.ID) *OutputFile {
	for _, of := range w.files {
		if of.ID == id {
			return of
		}
	}
	return nil
}

// Files exposes every opened OutputFile, in the order of the ids passed to
// OpenWriter, for callers that index by position.
func (w *Writer) Files() []*OutputFile { return w.files }

// FinalizeShadow is called once all threaded work has drained for one
// algorithm's output file: it closes the shadow file, sorts entries (which
// the caller has already parsed back from the shadow) into canonical
// manifest order, writes them to the real output file, and deletes the
// shadow.
func (w *Writer) FinalizeShadow(of *OutputFile, entries []*Entry, opts WriteOptions) error {
	if of.shadow == nil {
		return nil
	}
	if err := of.shadow.Close(); err != nil {
		return dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	of.shadow = nil

	SortCanonical(entries)
	for _, e := range entries {
		if _, err := of.file.WriteString(FormatLine(e.Digest, e.DisplayName, opts)); err != nil {
			return dirsumerr.Wrap(dirsumerr.KindOpen, err)
		}
	}

	if err := os.Remove(of.shadowName); err != nil && !os.IsNotExist(err) {
		return dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	return nil
}

// Close closes every opened file and shadow file, best-effort.
func (w *Writer) Close() error {
	var firstErr error
	for _, of := range w.files {
		if of.shadow != nil {
			if err := of.shadow.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if of.file != nil {
			if err := of.file.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("manifest: close: %w", firstErr)
	}
	return nil
}
