// Package workerpool runs the threaded manifest/verify pipeline: a bounded
// set of workers hash files concurrently, each handing its result to a
// single serializer goroutine that owns every write to the manifest and
// to shared verification state. A channel is used for both queues —
// dirsum's concurrency requirement is "any MPMC queue", and plain Go
// channels satisfy that without hand-rolled lock-free structures.
package workerpool

import (
	"context"
	"runtime"
	"sync"

	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
	"dirsum/internal/pathmodel"
)

// maxWorkers bounds the pool regardless of logical processor count.
const maxWorkers = 256

// Job is one file to hash: its path, a set of hash engines cloned
// specifically for this job (so workers never share mutable hash state),
// and — in verify mode — the manifest entry it must be compared against.
type Job struct {
	Path       pathmodel.Path
	FileSize   int64
	Engines    []*hashengine.Engine
	SumMode    bool
	VerifyMode bool
	Expected   *manifest.Entry // non-nil in verify mode
}

// OutputItem is the result of one Job, destined for the single serializer.
// ManifestLines holds one rendered line per algorithm (sum mode);
// ConsoleLine is the (optionally multi-algorithm) line painted to the
// console; Mismatch/Err carry verify-mode and I/O outcomes.
type OutputItem struct {
	Job           *Job
	ManifestLines []string // one per Job.Engines entry, in order
	ConsoleLine   string
	Mismatch      bool
	Err           error
}

// WorkFunc hashes a job and renders its output item. It must not touch any
// shared output stream or manifest state directly — only the serializer
// does that, from OutputItem.
type WorkFunc func(ctx context.Context, job *Job) *OutputItem

// SerializeFunc consumes one OutputItem at a time, in the order workers
// happen to finish (unordered across workers — see package doc). It is
// called from a single goroutine, so it's free to mutate shared state
// (write files, flip a manifest entry's Processed flag, raise a mismatch
// flag) without locking.
type SerializeFunc func(*OutputItem)

// Pool runs a bounded set of workers plus one serializer.
type Pool struct {
	Workers int
}

// New returns a Pool sized to workers, or runtime.NumCPU() if workers <= 0,
// capped at maxWorkers.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return &Pool{Workers: workers}
}

// Run drains jobs across the pool's workers, feeding every resulting
// OutputItem to serialize (from a single goroutine, preserving its
// single-writer contract). Run blocks until jobs is closed and every
// in-flight job has been serialized, or ctx is canceled.
//
// Cancellation mirrors spec §5: once ctx is done, workers stop pulling new
// jobs, a work function built on HashJob stops at its next block, a worker
// whose item is not yet handed to the serializer drops it, and Run
// returns ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs <-chan *Job, work WorkFunc, serialize SerializeFunc) error {
	outputs := make(chan *OutputItem)
	var wg sync.WaitGroup

	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					item := work(ctx, job)
					select {
					case outputs <- item:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(outputs)
		close(done)
	}()

	for item := range outputs {
		serialize(item)
	}
	<-done

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
