package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"dirsum/internal/hashengine"
)

func TestSortCanonical_DepthThenLex(t *testing.T) {
	entries := []*Entry{
		{DisplayName: `a.txt`},
		{DisplayName: `dir1\c.txt`},
		{DisplayName: `B.txt`},
		{DisplayName: `dir1\sub\d.txt`},
	}
	SortCanonical(entries)

	want := []string{`dir1\sub\d.txt`, `dir1\c.txt`, `a.txt`, `B.txt`}
	for i, e := range entries {
		if e.DisplayName != want[i] {
			t.Fatalf("index %d: got %q want %q (full order: %v)", i, e.DisplayName, want[i], names(entries))
		}
	}
}

func names(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.DisplayName
	}
	return out
}

func TestSortCanonical_TotalOrder(t *testing.T) {
	a := &Entry{DisplayName: `root\a.txt`}
	b := &Entry{DisplayName: `root\A.TXT`}
	for _, entries := range [][]*Entry{{a, b}, {b, a}} {
		SortCanonical(entries)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0] != b || entries[1] != a {
			t.Fatalf("case-only difference not totally ordered: %v", names(entries))
		}
	}
}

func TestPut_LastWins(t *testing.T) {
	m := New()
	m.Put(&Entry{DisplayName: "a.txt", Digest: []byte{1}})
	m.Put(&Entry{DisplayName: "a.txt", Digest: []byte{2}})

	e, ok := m.Lookup("a.txt")
	if !ok {
		t.Fatalf("expected entry")
	}
	if e.Digest[0] != 2 {
		t.Fatalf("expected last write to win, got %v", e.Digest)
	}
}

func TestUnprocessed_FiltersAndSorts(t *testing.T) {
	m := New()
	m.Put(&Entry{DisplayName: `b.txt`, Processed: true})
	m.Put(&Entry{DisplayName: `a.txt`, Processed: false})
	m.Put(&Entry{DisplayName: `dir\c.txt`, Processed: false})

	got := m.Unprocessed()
	if len(got) != 2 {
		t.Fatalf("expected 2 unprocessed, got %d", len(got))
	}
	if got[0].DisplayName != `dir\c.txt` || got[1].DisplayName != `a.txt` {
		t.Fatalf("unexpected order: %v", names(got))
	}
}

func TestFormatLine_HexCasing(t *testing.T) {
	digest := []byte{0xAB, 0xCD}
	upper := FormatLine(digest, "a.txt", WriteOptions{})
	if upper != "ABCD  a.txt\n" {
		t.Fatalf("got %q", upper)
	}
	lower := FormatLine(digest, "a.txt", WriteOptions{Lowercase: true})
	if lower != "abcd  a.txt\n" {
		t.Fatalf("got %q", lower)
	}
}

func TestRelativeDisplay(t *testing.T) {
	opts := WriteOptions{RelativePaths: true, RootDisplay: `root`}
	if got := opts.RelativeDisplay(`root\dir1\c.txt`); got != `dir1\c.txt` {
		t.Fatalf("got %q", got)
	}

	optsLastDir := WriteOptions{IncludeLastDir: true, RootDisplay: `root`}
	if got := optsLastDir.RelativeDisplay(`root\dir1\c.txt`); got != `root\dir1\c.txt` {
		t.Fatalf("got %q", got)
	}
	if got := optsLastDir.RelativeDisplay(`root`); got != `root` {
		t.Fatalf("got %q", got)
	}
}

func TestOutputFileName_SuffixOnlyWhenMulti(t *testing.T) {
	if got := OutputFileName("out.txt", hashengine.SHA256, false); got != "out.txt" {
		t.Fatalf("got %q", got)
	}
	if got := OutputFileName("out.txt", hashengine.SHA256, true); got != "out.txt.SHA256" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenWriter_AppendModeAddsLeadingNewline(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(base, append(bomBytes, []byte("ABCD  old.txt\n")...), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := OpenWriter(base, []hashengine.ID{hashengine.SHA256}, false, false)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	of := w.ForID(hashengine.SHA256)
	if err := of.WriteLine("EF01  new.txt\n"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(base)
	if err != nil {
		t.Fatal(err)
	}
	want := string(bomBytes) + "ABCD  old.txt\n\nEF01  new.txt\n"
	if string(content) != want {
		t.Fatalf("got %q want %q", content, want)
	}
}

func TestOpenWriter_MultiAlgorithmSuffixesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.txt")

	w, err := OpenWriter(base, []hashengine.ID{hashengine.SHA256, hashengine.MD5}, true, false)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(base + ".SHA256"); err != nil {
		t.Fatalf("expected suffixed file: %v", err)
	}
	if _, err := os.Stat(base + ".MD5"); err != nil {
		t.Fatalf("expected suffixed file: %v", err)
	}
}
