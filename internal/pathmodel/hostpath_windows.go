//go:build windows

package pathmodel

// toHostPath returns absolute unchanged: on Windows it is already in the
// form os.* calls expect, long-path escape included.
func toHostPath(absolute string) string { return absolute }
