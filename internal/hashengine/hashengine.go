// Package hashengine is the uniform façade over every digest primitive
// dirsum can drive: init/update/finalize/clone, with algorithm identifiers
// parsed from a user-supplied comma list. The algorithm set is closed —
// there is no plugin mechanism — so callers never see the individual
// primitives, only this contract.
package hashengine

import (
	"crypto/md5"  // #nosec G501 -- file integrity checksums, not a security boundary
	"crypto/sha1" // #nosec G505 -- file integrity checksums, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/streebog/streebog"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

// ID is one of the fixed set of algorithm identifiers in the glossary.
type ID string

const (
	MD5      ID = "MD5"
	SHA1     ID = "SHA1"
	SHA256   ID = "SHA256"
	SHA384   ID = "SHA384"
	SHA512   ID = "SHA512"
	Blake2s  ID = "Blake2s"
	Blake2b  ID = "Blake2b"
	Blake3   ID = "Blake3"
	Streebog ID = "Streebog"
)

// order is the canonical enumeration of known ids, used for case-insensitive
// lookups and for listing supported algorithms in usage text.
var order = []ID{MD5, SHA1, SHA256, SHA384, SHA512, Blake2s, Blake2b, Blake3, Streebog}

var digestSizes = map[ID]int{
	MD5:      16,
	SHA1:     20,
	SHA256:   32,
	SHA384:   48,
	SHA512:   64,
	Blake2s:  32,
	Blake2b:  64,
	Blake3:   32,
	Streebog: 64,
}

var factories = map[ID]func() (hash.Hash, error){
	MD5:      func() (hash.Hash, error) { return md5.New(), nil }, // #nosec G401
	SHA1:     func() (hash.Hash, error) { return sha1.New(), nil }, // #nosec G401
	SHA256:   func() (hash.Hash, error) { return sha256.New(), nil },
	SHA384:   func() (hash.Hash, error) { return sha512.New384(), nil },
	SHA512:   func() (hash.Hash, error) { return sha512.New(), nil },
	Blake2s:  func() (hash.Hash, error) { return blake2s.New256(nil) },
	Blake2b:  func() (hash.Hash, error) { return blake2b.New512(nil) },
	Blake3:   func() (hash.Hash, error) { return blake3.New(), nil },
	Streebog: func() (hash.Hash, error) { return streebog.New512(), nil },
}

var canonicalByLower = func() map[string]ID {
	m := make(map[string]ID, len(order))
	for _, id := range order {
		m[strings.ToLower(string(id))] = id
	}
	return m
}()

// IsKnown reports whether id names one of the closed set of algorithms.
func IsKnown(id ID) bool {
	_, ok := digestSizes[id]
	return ok
}

// Canonicalize resolves a user-typed algorithm name to its canonical ID,
// matching case-insensitively.
func Canonicalize(name string) (ID, bool) {
	id, ok := canonicalByLower[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// DigestSize returns the number of bytes a finalized digest of id holds.
// It is always one of {16, 20, 32, 48, 64}.
func DigestSize(id ID) (int, bool) {
	n, ok := digestSizes[id]
	return n, ok
}

// Names lists every supported algorithm identifier in canonical order.
func Names() []string {
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = string(id)
	}
	return names
}

// Engine is an opaque digest state: init happens at construction, Update
// feeds bytes, Finalize renders the digest, and Clone produces an
// independent, freshly initialized engine for the same algorithm (see
// Clone). Mutating a clone never affects the original.
type Engine struct {
	id    ID
	h     hash.Hash
	valid bool
}

// New constructs a freshly initialized engine for id. An unknown id or a
// backend initialization failure is always fatal to the caller.
func New(id ID) (*Engine, error) {
	factory, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("hashengine: unknown algorithm %q", id)
	}
	h, err := factory()
	if err != nil {
		return nil, fmt.Errorf("hashengine: init %s: %w", id, err)
	}
	return &Engine{id: id, h: h, valid: true}, nil
}

// ID returns the algorithm this engine was constructed for.
func (e *Engine) ID() ID { return e.id }

// DigestSize returns the number of bytes Finalize will append.
func (e *Engine) DigestSize() int {
	n, _ := DigestSize(e.id)
	return n
}

// IsValid reports whether the engine was successfully initialized. Calling
// Update or Finalize on an invalid engine is a programming error — callers
// must check IsValid immediately after New/Clone and before anything else
// observes the engine.
func (e *Engine) IsValid() bool { return e.valid }

// Update feeds bytes into the digest state.
func (e *Engine) Update(p []byte) error {
	if !e.valid {
		panic("hashengine: Update called on an invalid engine")
	}
	if len(p) == 0 {
		return nil
	}
	_, err := e.h.Write(p)
	return err
}

// Finalize appends the digest to out and returns the resulting slice. The
// engine must not be reused afterward.
func (e *Engine) Finalize(out []byte) []byte {
	if !e.valid {
		panic("hashengine: Finalize called on an invalid engine")
	}
	return e.h.Sum(out)
}

// Clone returns a new engine for the same algorithm, independent of e, in
// the initial state: it is a fresh New() of the same id and does not copy
// e's state, so bytes already fed to e are not carried over. A clone
// matches its source only while the source has not been updated.
func (e *Engine) Clone() (*Engine, error) {
	return New(e.id)
}

// ParseSpec splits a comma-delimited algorithm list, preserving the
// caller's order, rejecting empty segments (including a trailing comma)
// and unknown identifiers.
func ParseSpec(text string) ([]ID, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("hashengine: empty algorithm spec")
	}
	parts := strings.Split(text, ",")
	ids := make([]ID, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("hashengine: empty algorithm segment in %q", text)
		}
		id, ok := Canonicalize(part)
		if !ok {
			return nil, fmt.Errorf("hashengine: unknown algorithm %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewAll constructs one fresh engine per id, in order. On any failure all
// previously constructed engines are discarded — the caller gets either a
// complete, valid set or nothing.
func NewAll(ids []ID) ([]*Engine, error) {
	engines := make([]*Engine, 0, len(ids))
	for _, id := range ids {
		e, err := New(id)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return engines, nil
}

// CloneAll clones every engine in engines, in order, for use by one job.
func CloneAll(engines []*Engine) ([]*Engine, error) {
	clones := make([]*Engine, 0, len(engines))
	for _, e := range engines {
		c, err := e.Clone()
		if err != nil {
			return nil, err
		}
		clones = append(clones, c)
	}
	return clones, nil
}
