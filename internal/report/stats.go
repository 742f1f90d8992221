// Package report accumulates run statistics and prints them, colorized,
// to the console — adapted from the teacher's internal/metrics package,
// retargeted from file-verification counters to dirsum's hash/manifest/
// verify counters.
package report

import (
	"sync/atomic"
	"time"
)

// Stats accumulates counters across a run. Every field is updated with
// atomic operations so it can be shared across worker-pool goroutines
// without its own lock.
type Stats struct {
	Total       int64
	Processed   int64
	OK          int64
	Mismatches  int64
	Missing     int64
	Errors      int64
	Skipped     int64
	BytesHashed int64

	Started  time.Time
	Finished time.Time
}

func (s *Stats) Start() { s.Started = time.Now() }
func (s *Stats) Stop()  { s.Finished = time.Now() }

func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

func (s *Stats) AddBytes(n int64)  { atomic.AddInt64(&s.BytesHashed, n) }
func (s *Stats) IncProcessed()     { atomic.AddInt64(&s.Processed, 1) }
func (s *Stats) IncOK()            { atomic.AddInt64(&s.OK, 1) }
func (s *Stats) IncMismatch()      { atomic.AddInt64(&s.Mismatches, 1) }
func (s *Stats) IncMissing()       { atomic.AddInt64(&s.Missing, 1) }
func (s *Stats) IncError()         { atomic.AddInt64(&s.Errors, 1) }
func (s *Stats) IncSkipped()       { atomic.AddInt64(&s.Skipped, 1) }
func (s *Stats) SetTotal(n int64)  { atomic.StoreInt64(&s.Total, n) }

// Snapshot is a consistent point-in-time read of every counter, used by
// both the progress bar description and the final summary print.
type Snapshot struct {
	DurationMs  int64
	Total       int64
	Processed   int64
	OK          int64
	Mismatches  int64
	Missing     int64
	Errors      int64
	Skipped     int64
	BytesHashed int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		DurationMs:  s.Duration().Milliseconds(),
		Total:       atomic.LoadInt64(&s.Total),
		Processed:   atomic.LoadInt64(&s.Processed),
		OK:          atomic.LoadInt64(&s.OK),
		Mismatches:  atomic.LoadInt64(&s.Mismatches),
		Missing:     atomic.LoadInt64(&s.Missing),
		Errors:      atomic.LoadInt64(&s.Errors),
		Skipped:     atomic.LoadInt64(&s.Skipped),
		BytesHashed: atomic.LoadInt64(&s.BytesHashed),
	}
}
