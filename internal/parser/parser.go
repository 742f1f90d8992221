// Package parser reads the two on-disk grammars dirsum produces: the
// checksum-format manifest written by per-file manifest mode, and the
// result-format file written by single-digest mode.
package parser

import (
	"bufio"
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
)

var allowedSizes = map[int]bool{16: true, 20: true, 32: true, 48: true, 64: true}

// ParseChecksumFile reads a checksum-format manifest: one line per file,
// "<hex>  [*]<path>". The first accepted line fixes the digest length for
// the rest of the file. A line 1 failure is fatal ("not a checksum file");
// any later line that fails to parse is skipped and its 1-based line
// number recorded in the returned Manifest's SkippedLines.
//
// inputDirDisplay, when non-empty, is prepended to any stored path that
// doesn't already begin with it — this lets manifests written with
// relative paths still be verified against an absolute walk root.
func ParseChecksumFile(r io.Reader, inputDirDisplay string) (*manifest.Manifest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 8192), 1<<20)

	m := manifest.New()
	digestLen := 0
	lineNumber := 0
	first := true

	for scanner.Scan() {
		lineNumber++
		line := stripBOM(scanner.Text(), first)
		first = false
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		entryName, digest, ok := parseChecksumLine(line, digestLen)
		if !ok {
			if lineNumber == 1 {
				return nil, dirsumerr.New(dirsumerr.KindManifestParse, "parser: line 1 is not a checksum-format line")
			}
			m.SkippedLines = append(m.SkippedLines, lineNumber)
			continue
		}

		digestLen = len(digest)
		entryName = normalizeEntryPath(entryName, inputDirDisplay)
		m.Put(&manifest.Entry{DisplayName: entryName, Digest: digest})
	}
	if err := scanner.Err(); err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindManifestParse, err)
	}
	return m, nil
}

// parseChecksumLine splits "<hex>  [*]<path>" and validates the digest
// length is in the allowed set, and — once digestLen is nonzero — matches
// the length fixed by the file's first accepted line.
func parseChecksumLine(line string, digestLen int) (entryName string, digest []byte, ok bool) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return "", nil, false
	}
	hexPart := line[:sp]
	rest := strings.TrimLeft(line[sp+1:], " ")
	rest = strings.TrimPrefix(rest, "*")
	if rest == "" {
		return "", nil, false
	}

	d, err := hex.DecodeString(hexPart)
	if err != nil {
		return "", nil, false
	}
	if digestLen != 0 {
		if len(d) != digestLen {
			return "", nil, false
		}
	} else if !allowedSizes[len(d)] {
		return "", nil, false
	}

	return strings.ReplaceAll(rest, "/", `\`), d, true
}

func normalizeEntryPath(entryName, inputDirDisplay string) string {
	if inputDirDisplay == "" {
		return entryName
	}
	if len(entryName) >= len(inputDirDisplay) && strings.EqualFold(entryName[:len(inputDirDisplay)], inputDirDisplay) {
		return entryName
	}
	return inputDirDisplay + entryName
}

// ParseResultFile reads a result-format file: one line per algorithm,
// `<AlgoId> hash of "<target>" (<dd> bytes) = <hex>`, or a bare hex digest
// line. Unlike the checksum format, ANY line that fails to parse aborts
// the whole file — there is no per-line skip here, because a result file
// has no notion of "line 1 sets the format, the rest just carries data":
// every line is independently meaningful.
func ParseResultFile(r io.Reader) (*manifest.Manifest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 8192), 1<<20)

	m := manifest.New()
	first := true
	any := false

	for scanner.Scan() {
		line := stripBOM(scanner.Text(), first)
		first = false
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		target, algo, digest, ok := parseResultLine(line)
		if !ok {
			return nil, dirsumerr.New(dirsumerr.KindManifestParse, "parser: malformed result-format line %q", line)
		}
		any = true
		if target != "" && algo != "" {
			m.Put(&manifest.Entry{DisplayName: target, Algorithm: algo, Digest: digest})
		} else {
			m.BySize[len(digest)] = digest
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindManifestParse, err)
	}
	if !any {
		return nil, dirsumerr.New(dirsumerr.KindManifestParse, "parser: result file had no usable lines")
	}
	return m, nil
}

const (
	hashOfMarker = `hash of "`
	bytesMarker  = "bytes) = "
)

func parseResultLine(line string) (targetName string, algo hashengine.ID, digest []byte, ok bool) {
	if d, err := hex.DecodeString(line); err == nil && allowedSizes[len(d)] {
		return "", "", d, true
	}

	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return "", "", nil, false
	}
	algoID, known := hashengine.Canonicalize(line[:sp])
	if !known {
		return "", "", nil, false
	}
	rest := line[sp+1:]

	if !strings.HasPrefix(rest, hashOfMarker) {
		return "", "", nil, false
	}
	rest = rest[len(hashOfMarker):]

	q := strings.IndexByte(rest, '"')
	if q < 0 {
		return "", "", nil, false
	}
	target := rest[:q]
	rest = rest[q+1:]

	if !strings.HasPrefix(rest, " (") {
		return "", "", nil, false
	}
	rest = rest[2:]

	sp2 := strings.IndexByte(rest, ' ')
	if sp2 < 0 {
		return "", "", nil, false
	}
	n, err := strconv.Atoi(rest[:sp2])
	if err != nil {
		return "", "", nil, false
	}
	want, ok2 := hashengine.DigestSize(algoID)
	if !ok2 || n != want {
		return "", "", nil, false
	}
	rest = rest[sp2+1:]

	if !strings.HasPrefix(rest, bytesMarker) {
		return "", "", nil, false
	}
	hexPart := rest[len(bytesMarker):]
	if len(hexPart) != 2*n {
		return "", "", nil, false
	}
	d, err := hex.DecodeString(hexPart)
	if err != nil {
		return "", "", nil, false
	}
	return target, algoID, d, true
}

func stripBOM(line string, isFirst bool) string {
	if !isFirst {
		return line
	}
	return strings.TrimPrefix(line, "\ufeff")
}
