//go:build windows

package pathmodel

import "golang.org/x/sys/windows/registry"

// NativeLongPathSupport reports whether the host has the Windows 10+
// LongPathsEnabled policy turned on. When false, Normalize adds the \\?\
// escape to every path regardless of length.
func NativeLongPathSupport() bool {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Control\FileSystem`, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer key.Close()

	value, _, err := key.GetIntegerValue("LongPathsEnabled")
	if err != nil {
		return false
	}
	return value != 0
}
