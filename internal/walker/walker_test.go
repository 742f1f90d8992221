package walker

import (
	"errors"
	"strings"
	"testing"

	"dirsum/internal/pathmodel"
)

// memFS is a tiny in-memory directory tree keyed by absolute path,
// letting Walker's ordering and filtering logic be exercised without
// touching the real filesystem.
type memFS map[string][]Entry

func (fs memFS) readDir(absolutePath string) ([]Entry, error) {
	entries, ok := fs[absolutePath]
	if !ok {
		return nil, errors.New("no such directory: " + absolutePath)
	}
	return entries, nil
}

func rootPath() pathmodel.Path {
	return pathmodel.Path{Display: `root`, Absolute: `C:\root`}
}

func TestWalk_CanonicalOrder(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "B.txt", IsDir: false},
			{Name: "a.txt", IsDir: false},
			{Name: "Dir1", IsDir: true},
		},
		`C:\root\Dir1`: {
			{Name: "c.txt", IsDir: false},
		},
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var visited []string
	err = w.Walk(rootPath(), func(e DirEntry) error {
		visited = append(visited, e.Path.Display)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{`root\a.txt`, `root\B.txt`, `root\Dir1`, `root\Dir1\c.txt`}
	if len(visited) != len(want) {
		t.Fatalf("got %v want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("index %d: got %q want %q (full: %v)", i, visited[i], want[i], visited)
		}
	}
}

func TestWalk_OnlyPattern_DirsStillDescended(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "a.txt", IsDir: false},
			{Name: "a.bin", IsDir: false},
			{Name: "sub", IsDir: true},
		},
		`C:\root\sub`: {
			{Name: "b.txt", IsDir: false},
			{Name: "b.bin", IsDir: false},
		},
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }, OnlyPatterns: []string{"*.txt"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var files []string
	err = w.Walk(rootPath(), func(e DirEntry) error {
		if e.Kind == File {
			files = append(files, e.Path.Display)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{`root\a.txt`, `root\sub\b.txt`}
	if len(files) != len(want) {
		t.Fatalf("got %v want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("got %v want %v", files, want)
		}
	}
}

func TestWalk_ExcludeAppliesToFilesAndDirs(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "keep.txt", IsDir: false},
			{Name: "skip.txt", IsDir: false},
			{Name: "skipdir", IsDir: true},
		},
		`C:\root\skipdir`: {
			{Name: "hidden.txt", IsDir: false},
		},
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }, ExcludePatterns: []string{"skip*"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var seen []string
	err = w.Walk(rootPath(), func(e DirEntry) error {
		seen = append(seen, e.Path.Display)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(seen) != 1 || seen[0] != `root\keep.txt` {
		t.Fatalf("got %v", seen)
	}
}

func TestNew_RejectsConflictingFilters(t *testing.T) {
	_, err := New(Options{OnlyPatterns: []string{"*.txt"}, ExcludePatterns: []string{"*.bin"}})
	if err == nil {
		t.Fatalf("expected error for conflicting filters")
	}
}

func TestWalk_FollowLinksFalseSkipsReparsePoints(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "real.txt", IsDir: false},
			{Name: "link.txt", IsDir: false},
		},
	}
	isReparse := func(p string) bool { return strings.HasSuffix(p, `link.txt`) }

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: isReparse, FollowLinks: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var seen []string
	_ = w.Walk(rootPath(), func(e DirEntry) error {
		seen = append(seen, e.Path.Display)
		return nil
	})
	if len(seen) != 1 || seen[0] != `root\real.txt` {
		t.Fatalf("got %v", seen)
	}
}

func TestWalk_SelfFileSuppressedOnce(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "manifest.txt", IsDir: false},
			{Name: "data.txt", IsDir: false},
		},
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }, SelfAbsolute: `c:\root\manifest.txt`})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var seen []string
	_ = w.Walk(rootPath(), func(e DirEntry) error {
		seen = append(seen, e.Path.Display)
		return nil
	})
	if len(seen) != 1 || seen[0] != `root\data.txt` {
		t.Fatalf("got %v", seen)
	}
}

func TestWalk_EnumerateFailure_SkipErrors(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "gone", IsDir: true},
			{Name: "ok.txt", IsDir: false},
		},
		// "gone" deliberately absent from fs to simulate an enumerate failure.
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }, SkipErrors: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var seen []string
	err = w.Walk(rootPath(), func(e DirEntry) error {
		seen = append(seen, e.Path.Display)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk should not fail with SkipErrors: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected gone dir itself plus ok.txt, got %v", seen)
	}
}

func TestWalk_EnumerateFailure_Fatal(t *testing.T) {
	fs := memFS{
		`C:\root`: {
			{Name: "gone", IsDir: true},
		},
	}

	w, err := New(Options{ReadDir: fs.readDir, IsReparse: func(string) bool { return false }, SkipErrors: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = w.Walk(rootPath(), func(e DirEntry) error { return nil })
	if err == nil {
		t.Fatalf("expected fatal enumerate error")
	}
}
