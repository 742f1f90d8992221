package workerpool

import (
	"context"
	"io"
	"os"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/manifest"
)

const blockSize = 64 * 1024

// HashJob reads job.Path.Absolute once, feeding every byte block into every
// one of job.Engines — the per-worker, per-job clones that keep workers
// from sharing mutable hash state. It never touches a shared output
// stream; the caller's WorkFunc renders the resulting digests into an
// OutputItem for the serializer.
func HashJob(ctx context.Context, job *Job) ([][]byte, error) {
	f, err := os.Open(job.Path.OSPath()) // #nosec G304
	if err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	defer f.Close()

	buf := make([]byte, blockSize)
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			for _, e := range job.Engines {
				if err := e.Update(buf[:n]); err != nil {
					return nil, dirsumerr.Wrap(dirsumerr.KindRead, err)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, dirsumerr.Wrap(dirsumerr.KindRead, rerr)
		}
	}

	digests := make([][]byte, len(job.Engines))
	for i, e := range job.Engines {
		digests[i] = e.Finalize(nil)
	}
	return digests, nil
}

// RenderManifestItem runs HashJob and renders one manifest line per
// algorithm, for sum-mode (manifest-compute) jobs.
func RenderManifestItem(ctx context.Context, job *Job, opts manifest.WriteOptions) *OutputItem {
	digests, err := HashJob(ctx, job)
	if err != nil {
		return &OutputItem{Job: job, Err: err}
	}
	lines := make([]string, len(digests))
	for i, d := range digests {
		lines[i] = manifest.FormatLine(d, job.Path.Display, opts)
	}
	return &OutputItem{Job: job, ManifestLines: lines}
}

// RenderVerifyItem runs HashJob (job.Engines holds exactly one clone, per
// spec's single-algorithm verify constraint) and compares the result
// against job.Expected.
func RenderVerifyItem(ctx context.Context, job *Job) *OutputItem {
	digests, err := HashJob(ctx, job)
	if err != nil {
		return &OutputItem{Job: job, Err: err}
	}
	mismatch := !digestsEqual(digests[0], job.Expected.Digest)
	return &OutputItem{Job: job, Mismatch: mismatch}
}

func digestsEqual(a, b []byte) bool {
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
