//go:build !windows

package pathmodel

import "strings"

// toHostPath adapts dirsum's always-Windows-shaped absolute form to
// something the host's os.* calls can open: the long-path escape is
// meaningless off Windows, and the separator needs to be the host's.
func toHostPath(absolute string) string {
	p := strings.TrimPrefix(absolute, `\\?\UNC\`)
	p = strings.TrimPrefix(p, `\\?\`)
	return strings.ReplaceAll(p, `\`, "/")
}
