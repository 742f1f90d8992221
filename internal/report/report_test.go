package report

import (
	"strings"
	"testing"
)

func TestReporter_MirrorsRegardlessOfQuiet(t *testing.T) {
	var mirror strings.Builder
	r := &Reporter{Quiet: true, Mirror: &mirror}
	r.Warning("mismatch: %s", "a.txt")

	if !strings.Contains(mirror.String(), "mismatch: a.txt") {
		t.Fatalf("expected mirror to receive the line even when quiet, got %q", mirror.String())
	}
}

func TestStats_SnapshotReflectsCounters(t *testing.T) {
	s := &Stats{}
	s.SetTotal(10)
	s.IncOK()
	s.IncOK()
	s.IncMismatch()
	s.AddBytes(1024)

	snap := s.Snapshot()
	if snap.Total != 10 || snap.OK != 2 || snap.Mismatches != 1 || snap.BytesHashed != 1024 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStats_DurationWithoutStop(t *testing.T) {
	s := &Stats{}
	s.Start()
	if s.Duration() < 0 {
		t.Fatalf("expected non-negative duration")
	}
}
