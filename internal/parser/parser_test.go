package parser

import (
	"bytes"
	"strings"
	"testing"

	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
)

func TestParseChecksumFile_Basic(t *testing.T) {
	data := "ABCD1234ABCD1234ABCD1234ABCD1234  a.txt\n" +
		"1234ABCD1234ABCD1234ABCD1234ABCD  *b.txt\n"
	m, err := ParseChecksumFile(strings.NewReader(data), "")
	if err != nil {
		t.Fatalf("ParseChecksumFile: %v", err)
	}
	if len(m.ByName) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.ByName))
	}
	e, ok := m.Lookup("b.txt")
	if !ok {
		t.Fatalf("expected b.txt entry (asterisk stripped)")
	}
	if len(e.Digest) != 16 {
		t.Fatalf("expected 16-byte digest, got %d", len(e.Digest))
	}
}

func TestParseChecksumFile_Line1FailureIsFatal(t *testing.T) {
	data := "not a valid line at all\n" +
		"ABCD1234ABCD1234ABCD1234ABCD1234  a.txt\n"
	_, err := ParseChecksumFile(strings.NewReader(data), "")
	if err == nil {
		t.Fatalf("expected line-1 failure to be fatal")
	}
}

func TestParseChecksumFile_LaterFailureIsSkipped(t *testing.T) {
	data := "ABCD1234ABCD1234ABCD1234ABCD1234  a.txt\n" +
		"this line is garbage\n" +
		"1234ABCD1234ABCD1234ABCD1234ABCD  b.txt\n"
	m, err := ParseChecksumFile(strings.NewReader(data), "")
	if err != nil {
		t.Fatalf("ParseChecksumFile: %v", err)
	}
	if len(m.SkippedLines) != 1 || m.SkippedLines[0] != 2 {
		t.Fatalf("expected line 2 skipped, got %v", m.SkippedLines)
	}
	if len(m.ByName) != 2 {
		t.Fatalf("expected both valid entries recorded, got %d", len(m.ByName))
	}
}

func TestParseChecksumFile_SlashNormalized(t *testing.T) {
	data := "ABCD1234ABCD1234ABCD1234ABCD1234  dir1/sub/a.txt\n"
	m, err := ParseChecksumFile(strings.NewReader(data), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Lookup(`dir1\sub\a.txt`); !ok {
		t.Fatalf("expected backslash-normalized key, got %v", m.ByName)
	}
}

func TestParseChecksumFile_InputDirPrefixPrepended(t *testing.T) {
	data := "ABCD1234ABCD1234ABCD1234ABCD1234  a.txt\n"
	m, err := ParseChecksumFile(strings.NewReader(data), `C:\root\`)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Lookup(`C:\root\a.txt`); !ok {
		t.Fatalf("expected input-dir prefix prepended, got %v", m.ByName)
	}
}

func TestParseChecksumFile_DigestLengthMismatchWithinFile(t *testing.T) {
	data := "ABCD1234ABCD1234ABCD1234ABCD1234  a.txt\n" +
		"AB  b.txt\n"
	m, err := ParseChecksumFile(strings.NewReader(data), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.SkippedLines) != 1 {
		t.Fatalf("expected mismatched-length line to be skipped, got %v", m.SkippedLines)
	}
}

func TestParseResultFile_NamedForm(t *testing.T) {
	line := `SHA256 hash of "hello.txt" (32 bytes) = ` + strings.Repeat("ab", 32)
	m, err := ParseResultFile(strings.NewReader(line + "\n"))
	if err != nil {
		t.Fatalf("ParseResultFile: %v", err)
	}
	e, ok := m.Lookup("hello.txt")
	if !ok {
		t.Fatalf("expected hello.txt entry")
	}
	if e.Algorithm != hashengine.SHA256 {
		t.Fatalf("got algorithm %v", e.Algorithm)
	}
	if len(e.Digest) != 32 {
		t.Fatalf("got digest length %d", len(e.Digest))
	}
}

func TestParseResultFile_RoundTripsWriterFormat(t *testing.T) {
	digest := []byte(strings.Repeat("\xab", 32))
	line := manifest.FormatResultLine(hashengine.SHA256, `root\hello.txt`, digest, false)

	m, err := ParseResultFile(strings.NewReader(line))
	if err != nil {
		t.Fatalf("ParseResultFile: %v", err)
	}
	e, ok := m.Lookup(`root\hello.txt`)
	if !ok {
		t.Fatalf("expected root\\hello.txt entry, got %v", m.ByName)
	}
	if e.Algorithm != hashengine.SHA256 {
		t.Fatalf("got algorithm %v", e.Algorithm)
	}
	if !bytes.Equal(e.Digest, digest) {
		t.Fatalf("got digest %x want %x", e.Digest, digest)
	}
}

func TestParseResultFile_BareHexForm(t *testing.T) {
	line := strings.Repeat("ab", 32)
	m, err := ParseResultFile(strings.NewReader(line + "\n"))
	if err != nil {
		t.Fatalf("ParseResultFile: %v", err)
	}
	d, ok := m.BySize[32]
	if !ok || len(d) != 32 {
		t.Fatalf("expected bare 32-byte digest recorded by size")
	}
}

func TestParseResultFile_AnyLineFailureAbortsWholeFile(t *testing.T) {
	good := `SHA256 hash of "hello.txt" (32 bytes) = ` + strings.Repeat("ab", 32)
	data := good + "\n" + "garbage line\n"
	_, err := ParseResultFile(strings.NewReader(data))
	if err == nil {
		t.Fatalf("expected any malformed line to abort result-file parse")
	}
}

func TestParseResultFile_DigestLengthMustMatchAlgorithm(t *testing.T) {
	// Claims SHA256 (32 bytes) but supplies a 16-byte digest's worth of hex.
	line := `SHA256 hash of "hello.txt" (16 bytes) = ` + strings.Repeat("ab", 16)
	_, err := ParseResultFile(strings.NewReader(line + "\n"))
	if err == nil {
		t.Fatalf("expected mismatched declared length vs algorithm size to fail")
	}
}
