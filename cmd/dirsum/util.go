package main

import (
	"fmt"
	"os"
	"strings"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/manifest"
	"dirsum/internal/pathmodel"
	"dirsum/internal/report"
)

// exitCode maps any error produced by a run* function to a process exit
// code, using the kind carried by *dirsumerr.Error when present.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var de *dirsumerr.Error
	if e, ok := err.(*dirsumerr.Error); ok {
		de = e
	}
	if de != nil {
		return de.ExitCode()
	}
	return 1
}

func fail(reporter *report.Reporter, err error) int {
	if err != nil {
		reporter.Error("%v", err)
	}
	return exitCode(err)
}

// selfAbsolute normalizes a sibling file argument (the -t output file or
// the -verify reference file) to the absolute path the walker should
// suppress if it lies inside the tree being walked. An empty name yields
// an empty result, meaning "nothing to suppress".
func selfAbsolute(name, cwd string, longPathSupport bool) string {
	if name == "" {
		return ""
	}
	return pathmodel.Normalize(name, cwd, longPathSupport).Absolute
}

// formatDigestLine renders one single-digest-mode output line in the same
// checksum-style shape a manifest line uses (spec §8 scenario 1): the
// target of single-digest mode is the whole file or tree, so its line
// reuses ManifestWriter's per-file rendering with the target's own
// display path standing in for a file path. The trailing newline is
// stripped; the line is printed to the console, while the -t file gets
// manifest.FormatResultLine instead.
func formatDigestLine(digest []byte, target string, lowercase bool) string {
	line := manifest.FormatLine(digest, target, manifest.WriteOptions{Lowercase: lowercase})
	return strings.TrimSuffix(line, "\n")
}

// leafOf returns the last backslash-delimited component of a display path,
// used by -stripnames to reduce the aggregate target name to its leaf.
func leafOf(display string) string {
	idx := strings.LastIndexByte(display, '\\')
	if idx < 0 {
		return display
	}
	return display[idx+1:]
}

// selfCollisionCheck refuses to hash a target that is also the output or
// verification file — spec §7's self-collision error kind.
func selfCollisionCheck(targetAbsolute, otherAbsolute string) error {
	if otherAbsolute == "" {
		return nil
	}
	if strings.EqualFold(targetAbsolute, otherAbsolute) {
		return dirsumerr.New(dirsumerr.KindSelfCollision, "dirsum: input path and output/verify file are the same")
	}
	return nil
}

func showLogo(quiet, nologo bool) {
	if quiet || nologo {
		return
	}
	fmt.Fprintln(os.Stderr, "dirsum - deterministic directory hashing, manifests, and verification")
}
