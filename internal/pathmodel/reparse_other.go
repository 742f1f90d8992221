//go:build !windows

package pathmodel

import "os"

// IsReparsePoint reports whether the entry at absolutePath is a symbolic
// link — the closest POSIX analogue of a Windows reparse point (junctions
// and mount points have no non-Windows equivalent). A failure to stat the
// path is treated as "not a reparse point", matching the Windows behavior.
func IsReparsePoint(absolutePath string) bool {
	info, err := os.Lstat(absolutePath)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}
