//go:build !windows

package pathmodel

// NativeLongPathSupport is always true off Windows — the classic
// MAX_PATH limit and its escape prefix are a Windows-specific concept,
// but dirsum's manifests must still be byte-identical regardless of the
// host, so the escape logic in Normalize stays in the code path and is
// exercised by tests on every platform. Here only the length threshold
// adds the escape, and toHostPath strips it again before any os call.
func NativeLongPathSupport() bool { return true }
