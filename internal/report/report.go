package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/colorstring"
	"golang.org/x/term"
)

// Reporter prints dirsum's console policy (§7): errors in red, warnings
// (mismatches, missing entries) in yellow, successful digests in yellow.
// Quiet mode suppresses the console copy only. Mirror, when non-nil,
// receives every line uncolored, whether or not Quiet is set; New leaves
// it nil, so the CLI mirrors nothing into its manifest or result files.
type Reporter struct {
	Quiet  bool
	Mirror io.Writer

	colorEnabled bool
}

// New builds a Reporter. Color is automatically disabled when stdout
// isn't a terminal, the same check the teacher's progress bar skips but
// that colorstring-using tools in the pack rely on x/term for.
func New(quiet bool) *Reporter {
	return &Reporter{
		Quiet:        quiet,
		colorEnabled: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Error reports a fatal-class message in red.
func (r *Reporter) Error(format string, args ...any) {
	r.print("[red]", format, args...)
}

// Warning reports a mismatch or missing-entry message in yellow.
func (r *Reporter) Warning(format string, args ...any) {
	r.print("[yellow]", format, args...)
}

// Success reports a successful digest line in yellow, matching the
// teacher's choice to treat "results" and "warnings" with the same color
// and reserve red strictly for failure.
func (r *Reporter) Success(format string, args ...any) {
	r.print("[yellow]", format, args...)
}

func (r *Reporter) print(colorTag, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.Mirror != nil {
		fmt.Fprintln(r.Mirror, msg)
	}
	if r.Quiet {
		return
	}
	if r.colorEnabled {
		fmt.Println(colorstring.Color(colorTag + msg))
	} else {
		fmt.Println(msg)
	}
}

// PrintSummary renders s's final snapshot. It does not consult quiet mode
// itself; cmd/dirsum skips the call when -quiet is set.
func PrintSummary(s *Stats) {
	snap := s.Snapshot()

	fmt.Println("--- summary ---")
	fmt.Println("duration_ms:", snap.DurationMs)
	fmt.Println("total:", snap.Total)
	fmt.Println("processed:", snap.Processed)
	fmt.Println("ok:", snap.OK)
	fmt.Println("mismatches:", snap.Mismatches)
	fmt.Println("missing:", snap.Missing)
	fmt.Println("errors:", snap.Errors)
	fmt.Println("skipped:", snap.Skipped)
	fmt.Println("bytes_hashed:", snap.BytesHashed)

	if snap.DurationMs > 0 {
		secs := float64(snap.DurationMs) / 1000.0
		bps := float64(snap.BytesHashed) / secs
		fmt.Println("throughput_mb_per_sec:", bps/1_000_000.0)
	}
}
