// Command dirsum-diff compares two or more files split-by-split, reporting
// which byte ranges differ instead of only "equal"/"not equal". It is the
// adapted form of the teacher's filesolver tool: same split/compare shape,
// retargeted onto dirsum's HashEngine façade (internal/hashengine) so it
// shares algorithm selection and digest rendering with the rest of dirsum
// instead of carrying its own standalone hasher.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"dirsum/internal/hashengine"
)

func main() {
	var (
		splits    int
		algorithm string
		lowercase bool
	)

	flag.IntVar(&splits, "splits", 8, "number of byte ranges to compare per file")
	flag.StringVar(&algorithm, "alg", "SHA256", "hash algorithm ("+strings.Join(hashengine.Names(), ", ")+")")
	flag.BoolVar(&lowercase, "lowercase", false, "lowercase hex output")
	flag.Parse()

	paths := flag.Args()
	if len(paths) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s -splits 8 -alg SHA256 <file1> <file2> [file3 ...]\n", os.Args[0])
		os.Exit(2)
	}

	res, err := compareFileSplitsMany(paths, splits, algorithm, lowercase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirsum-diff: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Algorithm: %s\n", res.Algorithm)
	fmt.Printf("Splits:    %d\n\n", res.Splits)

	fmt.Println("Files:")
	for i, p := range res.Paths {
		fmt.Printf("  [%d] %s (size=%d)\n", i, p, res.Sizes[i])
	}
	fmt.Println()

	if res.MinSize != res.MaxSize {
		fmt.Printf("Size mismatch detected.\nOverlap: %d bytes\nMax: %d bytes\n\n", res.MinSize, res.MaxSize)
		for i, tb := range res.TailBytes {
			if tb > 0 {
				fmt.Printf("  [%d] extra tail: %d bytes\n", i, tb)
			}
		}
		fmt.Println()
	}

	if len(res.DifferingSplits) == 0 && res.MinSize == res.MaxSize {
		fmt.Println("Result: All splits match and sizes match (files identical).")
		return
	}
	if len(res.DifferingSplits) == 0 {
		fmt.Println("Result: All splits match over overlap; only tails differ.")
		return
	}

	fmt.Printf("Differing splits: %v\n\n", res.DifferingSplits)
	for _, s := range res.DifferingSplits {
		fmt.Printf("Split %d differs:\n", s)
		for fi, p := range res.Paths {
			fmt.Printf("  [%d] %s\n      %s\n", fi, p, res.SplitHashes[s][fi])
		}
		fmt.Println()
	}

	os.Exit(1)
}

// multiSplitResult mirrors the teacher's MultiSplitResult, with digests
// rendered through hashengine rather than a bespoke crypto/* switch.
type multiSplitResult struct {
	Algorithm       string
	Splits          int
	Paths           []string
	Sizes           []int64
	SplitHashes     [][]string
	DifferingSplits []int
	TailBytes       []int64
	MinSize, MaxSize int64
}

func compareFileSplitsMany(paths []string, splits int, algorithm string, lowercase bool) (*multiSplitResult, error) {
	if len(paths) < 2 {
		return nil, fmt.Errorf("need at least 2 files")
	}
	if splits <= 0 {
		return nil, fmt.Errorf("splits must be > 0")
	}
	id, ok := hashengine.Canonicalize(algorithm)
	if !ok {
		return nil, fmt.Errorf("unsupported algorithm: %q", algorithm)
	}

	sizes := make([]int64, len(paths))
	var minSize, maxSize int64
	for i, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		sz := st.Size()
		sizes[i] = sz
		if i == 0 {
			minSize, maxSize = sz, sz
		} else {
			if sz < minSize {
				minSize = sz
			}
			if sz > maxSize {
				maxSize = sz
			}
		}
	}

	base := minSize / int64(splits)
	rem := minSize % int64(splits)

	splitHashes := make([][]string, splits)
	for i := range splitHashes {
		splitHashes[i] = make([]string, len(paths))
	}

	var offset int64
	for s := 0; s < splits; s++ {
		chunkLen := base
		if int64(s) < rem {
			chunkLen++
		}
		start := offset
		offset += chunkLen

		for fi, p := range paths {
			hx, err := fileHashHexRange(p, id, start, chunkLen, lowercase)
			if err != nil {
				return nil, err
			}
			splitHashes[s][fi] = hx
		}
	}

	var differing []int
	for s := 0; s < splits; s++ {
		ref := splitHashes[s][0]
		for fi := 1; fi < len(paths); fi++ {
			if splitHashes[s][fi] != ref {
				differing = append(differing, s)
				break
			}
		}
	}

	tails := make([]int64, len(paths))
	if minSize != maxSize {
		for i := range sizes {
			if sizes[i] > minSize {
				tails[i] = sizes[i] - minSize
			}
		}
	}

	return &multiSplitResult{
		Algorithm:       string(id),
		Splits:          splits,
		Paths:           paths,
		Sizes:           sizes,
		MinSize:         minSize,
		MaxSize:         maxSize,
		SplitHashes:     splitHashes,
		DifferingSplits: differing,
		TailBytes:       tails,
	}, nil
}

// fileHashHexRange hashes exactly length bytes of path starting at start,
// through a fresh hashengine.Engine, rendering the same hex casing dirsum's
// ManifestWriter uses.
func fileHashHexRange(path string, id hashengine.ID, start, length int64, lowercase bool) (string, error) {
	e, err := hashengine.New(id)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path) // #nosec G304 -- path supplied by the operator on the command line
	if err != nil {
		return "", err
	}
	defer f.Close()

	const bufSize = 1 << 20 // 1 MiB
	buf := make([]byte, bufSize)

	var read int64
	for read < length {
		toRead := int64(bufSize)
		if remain := length - read; remain < toRead {
			toRead = remain
		}
		n, rerr := f.ReadAt(buf[:toRead], start+read)
		if n > 0 {
			if werr := e.Update(buf[:n]); werr != nil {
				return "", werr
			}
			read += int64(n)
		}
		if rerr != nil {
			if rerr == io.EOF && read == length {
				break
			}
			if rerr == io.EOF {
				return "", fmt.Errorf("unexpected EOF at offset %d (wanted %d bytes total)", start+read, length)
			}
			return "", rerr
		}
	}

	sum := e.Finalize(nil)
	digest := hex.EncodeToString(sum)
	if !lowercase {
		digest = strings.ToUpper(digest)
	}
	return digest, nil
}
