// Package progress renders a live byte-granularity progress bar over
// dirsum's aggregate and manifest hashing pipelines, adapted from the
// teacher's internal/progress package (same schollz/progressbar/v3
// plumbing, retargeted from file-verification counters to hash/mismatch
// counters).
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"dirsum/internal/report"
)

// Bar drives a progressbar/v3 bar from a byte-count channel, periodically
// refreshing its description from a report.Stats snapshot.
type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan int64
	done chan struct{}
	stop chan struct{}

	stats  *report.Stats
	lastB  int64
	lastAt time.Time
}

// New starts a bar for a run expected to hash totalBytes, describing
// progress from stats as the run proceeds.
func New(totalBytes int64, stats *report.Stats) *Bar {
	b := &Bar{
		ch:     make(chan int64, 16384),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		stats:  stats,
		lastAt: time.Now(),
	}

	b.bar = progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription("hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
	)

	if err := b.bar.RenderBlank(); err != nil {
		panic(err)
	}

	go func() {
		defer close(b.done)
		for n := range b.ch {
			_ = b.bar.Add64(n)
		}
		_ = b.bar.Finish()
	}()

	go func() {
		t := time.NewTicker(1 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

// AddBytes reports n more bytes have been fed into the hash state.
func (b *Bar) AddBytes(n int64) {
	if n <= 0 {
		return
	}
	b.ch <- n
}

// Close stops the refresh loop and waits for the render goroutine to
// drain and finish the bar.
func (b *Bar) Close() {
	close(b.stop)
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	if b.stats == nil {
		return
	}
	snap := b.stats.Snapshot()

	now := time.Now()
	dt := now.Sub(b.lastAt).Seconds()

	mbps := 0.0
	if dt > 0 {
		dBytes := snap.BytesHashed - b.lastB
		mbps = (float64(dBytes) / 1_000_000.0) / dt
	}

	b.lastB = snap.BytesHashed
	b.lastAt = now

	desc := fmt.Sprintf("hashing %d/%d | ok=%d mismatches=%d errors=%d skipped=%d | %.1f MB/s",
		snap.Processed, snap.Total, snap.OK, snap.Mismatches, snap.Errors, snap.Skipped, mbps,
	)
	b.bar.Describe(desc)
}
