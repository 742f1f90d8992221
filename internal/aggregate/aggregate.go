// Package aggregate implements single-digest mode: a directory tree is
// reduced to one digest per requested algorithm by feeding every name and
// every file's bytes, in canonical tree order, into a shared set of hash
// engines.
package aggregate

import (
	"context"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/pathmodel"
	"dirsum/internal/walker"
)

// blockSize is the read granularity: 64 KiB, above the "≥4 KiB" floor of
// spec §4.4.
const blockSize = 64 * 1024

// Options controls how names are folded into the digest feed.
type Options struct {
	// HashNames feeds every entry's name into the engines before its
	// bytes (for files) or before descent (for directories).
	HashNames bool
	// StripNames, only meaningful with HashNames, feeds just the leaf
	// name instead of the full canonicalised display path.
	StripNames bool
	// OnBytes, if set, is called after every block is fed to the
	// engines, for progress reporting.
	OnBytes func(n int64)
}

// Result is one algorithm's finalized digest.
type Result struct {
	ID     hashengine.ID
	Digest []byte
}

// Run drives w over root, feeding engines in canonical tree order, and
// returns one finalized Result per engine, in the same order as engines.
// engines are used directly (never cloned) — single-digest mode is
// strictly single-threaded, and its determinism comes from exactly this
// sequential feeding of shared state. ctx is checked between entries and
// between blocks of a file, so a Ctrl+C reaches even a single huge tree
// or file instead of only being observed between pool jobs.
func Run(ctx context.Context, w *walker.Walker, root pathmodel.Path, engines []*hashengine.Engine, opts Options) ([]Result, error) {
	buf := make([]byte, blockSize)

	feed := func(p []byte) error {
		for _, e := range engines {
			if err := e.Update(p); err != nil {
				return dirsumerr.Wrap(dirsumerr.KindRead, err)
			}
		}
		if opts.OnBytes != nil {
			opts.OnBytes(int64(len(p)))
		}
		return nil
	}

	feedName := func(p pathmodel.Path) error {
		if !opts.HashNames {
			return nil
		}
		name := p.Display
		if opts.StripNames {
			name = leafName(p.Display)
		}
		return feed(encodeUTF16LE(name))
	}

	err := w.Walk(root, func(e walker.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := feedName(e.Path); err != nil {
			return err
		}
		if e.Kind != walker.File {
			return nil
		}
		return feedFile(ctx, e.Path.OSPath(), buf, feed)
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(engines))
	for i, e := range engines {
		results[i] = Result{ID: e.ID(), Digest: e.Finalize(nil)}
	}
	return results, nil
}

// RunSingleFile hashes one file (no tree, no name feed — that matches
// spec §8 scenario 1: a bare file with no flags) into engines, returning
// one finalized Result per engine in the same order as engines.
func RunSingleFile(ctx context.Context, absolutePath string, engines []*hashengine.Engine, onBytes func(int64)) ([]Result, error) {
	buf := make([]byte, blockSize)
	feed := func(p []byte) error {
		for _, e := range engines {
			if err := e.Update(p); err != nil {
				return dirsumerr.Wrap(dirsumerr.KindRead, err)
			}
		}
		if onBytes != nil {
			onBytes(int64(len(p)))
		}
		return nil
	}
	if err := feedFile(ctx, absolutePath, buf, feed); err != nil {
		return nil, err
	}
	results := make([]Result, len(engines))
	for i, e := range engines {
		results[i] = Result{ID: e.ID(), Digest: e.Finalize(nil)}
	}
	return results, nil
}

func feedFile(ctx context.Context, absolutePath string, buf []byte, feed func([]byte) error) error {
	f, err := os.Open(absolutePath) // #nosec G304
	if err != nil {
		return dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	defer f.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := feed(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return dirsumerr.Wrap(dirsumerr.KindRead, rerr)
		}
	}
}

func leafName(display string) string {
	idx := strings.LastIndexByte(display, '\\')
	if idx < 0 {
		return display
	}
	return display[idx+1:]
}

// encodeUTF16LE renders s as UTF-16 little-endian code units, matching
// spec §4.4's name-feed encoding (the format the original Windows tool
// gets natively from its wide-character strings).
func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}
