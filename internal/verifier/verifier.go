// Package verifier drives a walk against a previously parsed manifest,
// comparing each file's digest against the expected value and tracking
// which manifest entries were seen.
package verifier

import (
	"context"
	"io"
	"os"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
	"dirsum/internal/pathmodel"
	"dirsum/internal/walker"
)

const blockSize = 64 * 1024

// Mismatch describes one file whose computed digest disagreed with the
// manifest, or one file the walk produced that the manifest didn't expect.
type Mismatch struct {
	DisplayName string
	Reason      string
}

// Result summarizes a verification run.
type Result struct {
	Mismatches []Mismatch
	Missing    []*manifest.Entry
}

// OK reports whether verification found no mismatches and no missing
// entries — spec §4.8's "non-zero exit iff (a), (b), or (c)".
func (r Result) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Missing) == 0
}

// Options configures a verification run.
type Options struct {
	Algorithm  hashengine.ID
	SkipErrors bool
	// SingleFile and SingleFileDisplay are not read by VerifyDirectory;
	// single-file verification goes through VerifySingleFile instead.
	SingleFile        bool
	SingleFileDisplay string
}

// VerifyDirectory drives w over root, looking up every walked file in m,
// comparing its digest against the expected entry, and tracking coverage.
// The manifest's digest length must already have been checked against
// engine's digest size by the caller (spec's hash-length cross-check
// happens before any file is read, in the caller that constructs engine).
// ctx is checked between entries and between blocks of a file, same as
// aggregate.Run, so a Ctrl+C reaches a verify run in progress.
func VerifyDirectory(ctx context.Context, w *walker.Walker, root pathmodel.Path, m *manifest.Manifest, engine *hashengine.Engine, opts Options) (Result, error) {
	var result Result
	buf := make([]byte, blockSize)

	err := w.Walk(root, func(e walker.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.Kind != walker.File {
			return nil
		}

		entry, ok := m.Lookup(e.Path.Display)
		if !ok {
			if opts.SkipErrors {
				result.Mismatches = append(result.Mismatches, Mismatch{DisplayName: e.Path.Display, Reason: "not present in manifest"})
				return nil
			}
			return dirsumerr.New(dirsumerr.KindVerification, "verifier: %q not present in manifest", e.Path.Display)
		}
		entry.Processed = true

		clone, err := engine.Clone()
		if err != nil {
			return dirsumerr.Wrap(dirsumerr.KindHashInit, err)
		}
		digest, err := hashFile(ctx, e.Path.OSPath(), clone, buf)
		if err != nil {
			if opts.SkipErrors {
				result.Mismatches = append(result.Mismatches, Mismatch{DisplayName: e.Path.Display, Reason: err.Error()})
				return nil
			}
			return err
		}

		if !bytesEqual(digest, entry.Digest) {
			result.Mismatches = append(result.Mismatches, Mismatch{DisplayName: e.Path.Display, Reason: "digest mismatch"})
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Missing = m.Unprocessed()
	return result, nil
}

// VerifySingleFile restricts m to the one entry named displayName,
// hashes path directly (no walk), and compares. A missing manifest entry
// is fatal, matching spec §4.8.
func VerifySingleFile(ctx context.Context, absolutePath, displayName string, m *manifest.Manifest, engine *hashengine.Engine) (Result, error) {
	entry, ok := m.Lookup(displayName)
	if !ok {
		return Result{}, dirsumerr.New(dirsumerr.KindVerification, "verifier: %q not present in manifest", displayName)
	}
	entry.Processed = true

	buf := make([]byte, blockSize)
	digest, err := hashFile(ctx, absolutePath, engine, buf)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if !bytesEqual(digest, entry.Digest) {
		result.Mismatches = append(result.Mismatches, Mismatch{DisplayName: displayName, Reason: "digest mismatch"})
	}
	return result, nil
}

// CheckHashLength validates the manifest's parsed digest length against
// the selected algorithm's digest size before any file is read.
func CheckHashLength(m *manifest.Manifest, id hashengine.ID) error {
	want, ok := hashengine.DigestSize(id)
	if !ok {
		return dirsumerr.New(dirsumerr.KindArgument, "verifier: unknown algorithm %q", id)
	}
	for _, e := range m.ByName {
		if len(e.Digest) != want {
			return dirsumerr.New(dirsumerr.KindHashLengthMismatch,
				"verifier: manifest digest length %d bytes does not match %s's %d bytes", len(e.Digest), id, want)
		}
		return nil // every entry in a single parsed file shares one length
	}
	for size := range m.BySize {
		if size != want {
			return dirsumerr.New(dirsumerr.KindHashLengthMismatch,
				"verifier: manifest digest length %d bytes does not match %s's %d bytes", size, id, want)
		}
		return nil
	}
	return nil
}

func hashFile(ctx context.Context, absolutePath string, engine *hashengine.Engine, buf []byte) ([]byte, error) {
	f, err := os.Open(absolutePath) // #nosec G304
	if err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	defer f.Close()

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := engine.Update(buf[:n]); err != nil {
				return nil, dirsumerr.Wrap(dirsumerr.KindRead, err)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, dirsumerr.Wrap(dirsumerr.KindRead, rerr)
		}
	}
	return engine.Finalize(nil), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
