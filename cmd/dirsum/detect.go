package main

import (
	"os"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/manifest"
	"dirsum/internal/parser"
)

// loadManifest opens referenceFile and tries the checksum-format parser
// first, falling back to the result-format parser if that fails — the
// same detection order single-digest verify files have always used,
// since a result file also begins with a hex or quoted-target line that
// the checksum parser's line-1 check correctly rejects.
func loadManifest(referenceFile, inputDirDisplay string) (*manifest.Manifest, error) {
	f, err := os.Open(referenceFile) // #nosec G304
	if err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	m, cerr := parser.ParseChecksumFile(f, inputDirDisplay)
	f.Close()
	if cerr == nil {
		return m, nil
	}

	f2, err := os.Open(referenceFile) // #nosec G304
	if err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	defer f2.Close()
	m, rerr := parser.ParseResultFile(f2)
	if rerr != nil {
		return nil, dirsumerr.New(dirsumerr.KindManifestParse, "dirsum: %q is neither a checksum-format nor a result-format file", referenceFile)
	}
	return m, nil
}
