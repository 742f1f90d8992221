// Command dirsum computes, emits, and verifies cryptographic digests over
// a file or a recursive directory tree: a single aggregate digest per
// algorithm, a per-file checksum manifest, or verification of either
// against a previously produced reference file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"dirsum/internal/config"
	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/pathmodel"
	"dirsum/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(os.Args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirsum: loading DirHash.ini: %v\n", err)
	}

	fs := flag.NewFlagSet("dirsum", flag.ContinueOnError)

	outputFile := fs.String("t", "", "write results to <file>")
	sumMode := fs.Bool("sum", cfg.Sum, "per-file manifest mode")
	sumRelativePath := fs.Bool("sumRelativePath", cfg.SumRelativePath, "strip the root prefix from manifest paths")
	includeLastDir := fs.Bool("includeLastDir", cfg.IncludeLastDir, "keep the root's own leaf name in manifest paths")
	verifyFile := fs.String("verify", "", "verify against <file>")
	threaded := fs.Bool("threads", cfg.Threads, "enable the parallel worker pool (manifest/verify only)")
	hashNames := fs.Bool("hashnames", cfg.HashNames, "include path names in the aggregate digest feed")
	stripNames := fs.Bool("stripnames", cfg.StripNames, "with -hashnames, feed only leaf names")
	var only, exclude stringList
	fs.Var(&only, "only", "include-only glob (repeatable); files only")
	fs.Var(&exclude, "exclude", "exclude glob (repeatable); files and directories")
	lowercase := fs.Bool("lowercase", cfg.Lowercase, "lowercase hex output")
	overwrite := fs.Bool("overwrite", false, "truncate the output file if it exists")
	quiet := fs.Bool("quiet", cfg.Quiet, "suppress console output")
	nologo := fs.Bool("nologo", cfg.NoLogo, "suppress the startup banner")
	nowait := fs.Bool("nowait", cfg.NoWait, "do not wait for a keypress on exit")
	showProgress := fs.Bool("progress", cfg.ShowProgress, "show a progress bar")
	clip := fs.Bool("clip", cfg.Clip, "copy the digest to the clipboard (single algorithm only)")
	skipErrors := fs.Bool("skipError", cfg.SkipError, "report per-file errors and continue instead of aborting")
	nofollow := fs.Bool("nofollow", cfg.NoFollow, "do not follow symlinks, junctions, or mount points")

	// Leading positional arguments (target path or -benchmark, then the
	// algorithm list) come before the flags; the flag package stops at the
	// first non-flag argument, so they are split off first.
	var rest []string
	for len(args) > 0 && (args[0] == "-benchmark" || !strings.HasPrefix(args[0], "-")) {
		rest = append(rest, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return exitCode(dirsumerr.Wrap(dirsumerr.KindArgument, err))
	}
	_ = nowait

	rest = append(rest, fs.Args()...)
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dirsum <path>|-benchmark [<AlgoId>[,<AlgoId>...]] [flags]")
		return exitCode(dirsumerr.New(dirsumerr.KindArgument, "dirsum: no target path given"))
	}
	target := rest[0]
	if target == "-benchmark" {
		fmt.Fprintln(os.Stderr, "dirsum: -benchmark is reserved and currently a no-op")
		return 0
	}

	algoSpec := cfg.Hash
	if len(rest) > 1 {
		algoSpec = rest[1]
	}

	if len(only) > 0 && len(exclude) > 0 {
		return exitCode(dirsumerr.New(dirsumerr.KindArgument, "dirsum: -only and -exclude are mutually exclusive"))
	}
	if *verifyFile != "" {
		if _, _, err := splitAlgoSpecForVerify(algoSpec); err != nil {
			return exitCode(err)
		}
	}

	reporter := report.New(*quiet)
	showLogo(*quiet, *nologo)

	cwd, err := os.Getwd()
	if err != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindInputNotFound, err))
	}
	longPathSupport := pathmodel.NativeLongPathSupport()

	root := pathmodel.Normalize(target, cwd, longPathSupport)
	info, statErr := os.Stat(root.OSPath())
	if statErr != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindInputNotFound, statErr))
	}
	isFile := !info.IsDir()

	stats := &report.Stats{}
	stats.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !*quiet {
		defer report.PrintSummary(stats)
	}

	switch {
	case *verifyFile != "":
		id, _, err := splitAlgoSpecForVerify(algoSpec)
		if err != nil {
			return fail(reporter, err)
		}
		return runVerify(ctx, root, isFile, verifyConfig{
			referenceFile: *verifyFile,
			algorithm:     id,
			only:          only,
			exclude:       exclude,
			nofollow:      *nofollow,
			skipErrors:    *skipErrors,
			threaded:      *threaded && !isFile,
			showProgress:  *showProgress,
		}, reporter, stats, cwd, longPathSupport)

	case *sumMode:
		ids, err := hashengine.ParseSpec(algoSpec)
		if err != nil {
			return fail(reporter, dirsumerr.Wrap(dirsumerr.KindArgument, err))
		}
		if *outputFile == "" {
			return fail(reporter, dirsumerr.New(dirsumerr.KindArgument, "dirsum: -sum requires -t <file>"))
		}
		return runSum(ctx, root, isFile, sumConfig{
			ids:            ids,
			outputFile:     *outputFile,
			overwrite:      *overwrite,
			lowercase:      *lowercase,
			relativePaths:  *sumRelativePath || *includeLastDir,
			includeLast:    *includeLastDir,
			only:           only,
			exclude:        exclude,
			nofollow:       *nofollow,
			skipErrors:     *skipErrors,
			threaded:       *threaded,
			showProgress:   *showProgress,
			quiet:          *quiet,
			nologo:         *nologo,
		}, reporter, stats, cwd, longPathSupport)

	default:
		ids, err := hashengine.ParseSpec(algoSpec)
		if err != nil {
			return fail(reporter, dirsumerr.Wrap(dirsumerr.KindArgument, err))
		}
		if *clip && len(ids) != 1 {
			return fail(reporter, dirsumerr.New(dirsumerr.KindArgument, "dirsum: -clip requires exactly one algorithm"))
		}
		return runAggregate(ctx, root, isFile, aggregateConfig{
			ids:          ids,
			hashNames:    *hashNames,
			stripNames:   *stripNames,
			outputFile:   *outputFile,
			overwrite:    *overwrite,
			lowercase:    *lowercase,
			only:         only,
			exclude:      exclude,
			nofollow:     *nofollow,
			skipErrors:   *skipErrors,
			showProgress: *showProgress,
			quiet:        *quiet,
			nologo:       *nologo,
			clip:         *clip,
		}, reporter, stats, cwd, longPathSupport)
	}
}

// splitAlgoSpecForVerify enforces verify mode's single-algorithm
// restriction (spec §3's HashSpec: "allowed in all modes except verify,
// where it must have exactly one element").
func splitAlgoSpecForVerify(spec string) (hashengine.ID, bool, error) {
	ids, err := hashengine.ParseSpec(spec)
	if err != nil {
		return "", false, dirsumerr.Wrap(dirsumerr.KindArgument, err)
	}
	if len(ids) != 1 {
		return "", false, dirsumerr.New(dirsumerr.KindArgument, "dirsum: -verify requires exactly one algorithm, got %d", len(ids))
	}
	return ids[0], true, nil
}
