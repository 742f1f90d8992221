package hashengine

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestParseSpec_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []ID
		wantErr bool
	}{
		{"single", "SHA256", []ID{SHA256}, false},
		{"preserves order", "SHA512,MD5,SHA256", []ID{SHA512, MD5, SHA256}, false},
		{"case insensitive", "sha256,blake3", []ID{SHA256, Blake3}, false},
		{"empty string", "", nil, true},
		{"trailing comma", "SHA256,", nil, true},
		{"leading comma", ",SHA256", nil, true},
		{"unknown id", "SHA256,ROT13", nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got ids=%v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("length mismatch: got %v want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("index %d: got %v want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEngine_MatchesStandardLibrary(t *testing.T) {
	e, err := New(SHA256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !e.IsValid() {
		t.Fatalf("expected valid engine")
	}

	data := []byte("the quick brown fox jumps over the lazy dog")
	if err := e.Update(data); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := e.Finalize(nil)

	want := sha256.Sum256(data)
	if !bytes.Equal(got, want[:]) {
		t.Fatalf("digest mismatch: got %x want %x", got, want)
	}
	if e.DigestSize() != 32 {
		t.Fatalf("DigestSize: got %d want 32", e.DigestSize())
	}
}

func TestEngine_CloneIsIndependent(t *testing.T) {
	e, err := New(SHA256)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clone, err := e.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	if err := e.Update([]byte("original")); err != nil {
		t.Fatalf("Update e: %v", err)
	}
	if err := clone.Update([]byte("clone")); err != nil {
		t.Fatalf("Update clone: %v", err)
	}

	gotE := e.Finalize(nil)
	gotClone := clone.Finalize(nil)
	if bytes.Equal(gotE, gotClone) {
		t.Fatalf("expected independent digests, got identical: %x", gotE)
	}

	wantClone := sha256.Sum256([]byte("clone"))
	if !bytes.Equal(gotClone, wantClone[:]) {
		t.Fatalf("clone digest mismatch: got %x want %x", gotClone, wantClone)
	}
}

func TestDigestSizes_AreInAllowedSet(t *testing.T) {
	allowed := map[int]bool{16: true, 20: true, 32: true, 48: true, 64: true}
	for _, name := range Names() {
		id, ok := Canonicalize(name)
		if !ok {
			t.Fatalf("Names() produced unknown id %q", name)
		}
		size, ok := DigestSize(id)
		if !ok {
			t.Fatalf("DigestSize missing for %s", id)
		}
		if !allowed[size] {
			t.Fatalf("%s has disallowed digest size %d", id, size)
		}
	}
}

func TestNewAll_FailureDiscardsAll(t *testing.T) {
	ids := []ID{SHA256, ID("NOPE")}
	engines, err := NewAll(ids)
	if err == nil {
		t.Fatalf("expected error")
	}
	if engines != nil {
		t.Fatalf("expected nil engines on failure, got %v", engines)
	}
}
