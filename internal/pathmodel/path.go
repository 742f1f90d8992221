// Package pathmodel canonicalises user-supplied paths into the (display,
// absolute) pair the rest of dirsum operates on. Its rules are the
// Windows path rules (drive letters, UNC shares, long-path escapes)
// regardless of the host the binary happens to run on, because the tool's
// manifests and aggregate digests must be reproducible across hosts that
// disagree about what a "native" path looks like.
package pathmodel

import "strings"

// longPathThreshold is the classic MAX_PATH limit; paths at or beyond it
// need the \\?\ escape to keep working on hosts without native long-path
// support.
const longPathThreshold = 260

// Path is a (display, absolute) pair. display is user-facing — backslash
// normalised, may stay relative. absolute is canonicalised, long-path
// escaped where needed, and is what every filesystem call uses.
type Path struct {
	Display  string
	Absolute string
}

// Normalize builds a Path from raw user input, resolving relative paths
// against cwd. longPathSupport reports whether the host has native long
// path support (e.g. a manifest opted in, or the OS doesn't impose the
// classic limit) — when true, the escape prefix is added only to paths at
// or beyond longPathThreshold; when false, it is added to every path.
func Normalize(input, cwd string, longPathSupport bool) Path {
	display := toBackslash(input)
	display = strings.TrimSuffix(display, `\`)
	if display == "" {
		display = `\`
	}

	absolute := display
	if !IsAbsolute(absolute) {
		absolute = resolveRelative(absolute, cwd)
	}
	absolute = canonicalize(absolute)

	if len(absolute) >= longPathThreshold || !longPathSupport {
		absolute = addLongPathEscape(absolute)
	}

	return Path{Display: display, Absolute: absolute}
}

// OSPath adapts p.Absolute to the form the host's os.* calls expect —
// the inverse of the Windows-shaped model Normalize always builds. Every
// real filesystem call (os.Open, os.Stat, os.ReadDir, ...) must go through
// this, never through Absolute directly, or a POSIX host would try to
// open a literal filename containing backslash characters.
func (p Path) OSPath() string { return ToOSPath(p.Absolute) }

// ToOSPath is OSPath for callers that only have the bare absolute string,
// not a Path — e.g. a default ReadDirFunc/ReparseFunc backend that takes
// the walker's canonical absolute path and must convert it before the
// real os.ReadDir/Lstat call underneath.
func ToOSPath(absolute string) string { return toHostPath(absolute) }

// Append returns a new Path naming a child called name beneath p.
func (p Path) Append(name string) Path {
	name = toBackslash(name)
	display := p.Display
	if !strings.HasSuffix(display, `\`) {
		display += `\`
	}
	display += name

	absolute := p.Absolute
	if !strings.HasSuffix(absolute, `\`) {
		absolute += `\`
	}
	absolute += name

	return Path{Display: display, Absolute: absolute}
}

// IsAbsolute reports whether p is a drive-letter root ("C:\...") or a UNC
// root with a present server and share ("\\server\share\...").
//
// IsAbsolute is only meant for raw, unescaped user input — it is never
// called again on a path that Normalize has already prefixed with \\?\,
// so the ambiguity between "\\?\C:\..." and a UNC root is not reached in
// practice.
func IsAbsolute(p string) bool {
	p = toBackslash(p)
	if isDriveRooted(p) {
		return true
	}
	if isUNCRoot(p) {
		return true
	}
	return false
}

func isDriveRooted(p string) bool {
	return len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && p[2] == '\\'
}

func isUNCRoot(p string) bool {
	escaped := strings.TrimPrefix(p, `\\?\UNC\`)
	if escaped != p {
		return hasServerAndShare(escaped)
	}
	if strings.HasPrefix(p, `\\`) {
		return hasServerAndShare(strings.TrimPrefix(p, `\\`))
	}
	return false
}

func hasServerAndShare(rest string) bool {
	parts := strings.SplitN(rest, `\`, 3)
	return len(parts) >= 2 && parts[0] != "" && parts[1] != ""
}

func isDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toBackslash(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// resolveRelative resolves a non-absolute display path against cwd,
// honouring two Windows conventions: a path missing a drive letter
// inherits the drive of cwd, and a path starting with a single "\" (but
// not "\\") is drive-relative to the current drive rather than relative
// to the current directory.
func resolveRelative(p, cwd string) string {
	cwd = toBackslash(cwd)

	if len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' {
		// Drive given but path not rooted at that drive's root: still
		// relative to cwd if the drive matches, otherwise treat the
		// drive root itself as the base.
		if strings.HasPrefix(p, cwd[:2]) {
			rest := strings.TrimPrefix(p, p[:2])
			return joinBackslash(cwd, strings.TrimPrefix(rest, `\`))
		}
		return p
	}

	if strings.HasPrefix(p, `\`) && !strings.HasPrefix(p, `\\`) {
		drive := driveOf(cwd)
		return drive + p
	}

	return joinBackslash(cwd, p)
}

func driveOf(p string) string {
	if len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' {
		return p[:2]
	}
	return ""
}

func joinBackslash(base, rel string) string {
	if rel == "" {
		return base
	}
	if strings.HasSuffix(base, `\`) {
		return base + rel
	}
	return base + `\` + rel
}

// canonicalize collapses "." and ".." components and duplicate
// separators, preserving a leading UNC "\\server\share" or drive root.
func canonicalize(p string) string {
	prefix := ""
	rest := p
	switch {
	case strings.HasPrefix(p, `\\`):
		rest = strings.TrimPrefix(p, `\\`)
		serverShare, tail := splitServerShare(rest)
		prefix = `\\` + serverShare
		rest = tail
	case len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':':
		prefix = p[:2]
		rest = p[2:]
	}

	segments := strings.Split(rest, `\`)
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	joined := strings.Join(stack, `\`)
	if joined == "" {
		return prefix + `\`
	}
	return prefix + `\` + joined
}

// splitServerShare pulls "server\share" off the front of a UNC path's
// remainder (after stripping the leading "\\"), returning it along with
// whatever trails it.
func splitServerShare(rest string) (serverShare, tail string) {
	parts := strings.SplitN(rest, `\`, 3)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	case 2:
		return parts[0] + `\` + parts[1], ""
	default:
		return parts[0] + `\` + parts[1], parts[2]
	}
}

// addLongPathEscape prepends the long-path escape, translating a UNC root
// to the \\?\UNC\ form.
func addLongPathEscape(p string) string {
	if strings.HasPrefix(p, `\\?\`) {
		return p
	}
	if strings.HasPrefix(p, `\\`) {
		return `\\?\UNC\` + strings.TrimPrefix(p, `\\`)
	}
	return `\\?\` + p
}
