package main

import (
	"context"
	"strings"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
	"dirsum/internal/pathmodel"
	"dirsum/internal/progress"
	"dirsum/internal/report"
	"dirsum/internal/verifier"
	"dirsum/internal/walker"
	"dirsum/internal/workerpool"
)

type verifyConfig struct {
	referenceFile        string
	algorithm            hashengine.ID
	only, exclude        []string
	nofollow, skipErrors bool
	threaded             bool
	showProgress         bool
}

// runVerify implements verify mode: the reference file is parsed (format
// auto-detected), its digest length is checked against the selected
// algorithm before any file is read, then the tree (or single file) is
// hashed and compared against the parsed manifest.
func runVerify(ctx context.Context, root pathmodel.Path, isFile bool, cfg verifyConfig, reporter *report.Reporter, stats *report.Stats, cwd string, longPathSupport bool) int {
	// A directory's entries are walked as "<root>\<name>", so the prefix
	// prepended to relative manifest paths needs its trailing separator.
	prefix := root.Display
	if !isFile && !strings.HasSuffix(prefix, `\`) {
		prefix += `\`
	}
	m, err := loadManifest(cfg.referenceFile, prefix)
	if err != nil {
		return fail(reporter, err)
	}
	if err := verifier.CheckHashLength(m, cfg.algorithm); err != nil {
		return fail(reporter, err)
	}

	engine, err := hashengine.New(cfg.algorithm)
	if err != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindHashInit, err))
	}

	if isFile {
		selfAbs := selfAbsolute(cfg.referenceFile, cwd, longPathSupport)
		if err := selfCollisionCheck(root.Absolute, selfAbs); err != nil {
			return fail(reporter, err)
		}
		result, err := verifier.VerifySingleFile(ctx, root.OSPath(), root.Display, m, engine)
		if err != nil {
			return fail(reporter, err)
		}
		return reportVerifyResult(result, reporter)
	}

	selfAbs := selfAbsolute(cfg.referenceFile, cwd, longPathSupport)
	w, err := walker.New(walker.Options{
		FollowLinks:     !cfg.nofollow,
		OnlyPatterns:    cfg.only,
		ExcludePatterns: cfg.exclude,
		SkipErrors:      cfg.skipErrors,
		SelfAbsolute:    selfAbs,
	})
	if err != nil {
		return fail(reporter, err)
	}

	var bar *progress.Bar
	if cfg.showProgress {
		bar = progress.New(0, stats)
		defer bar.Close()
	}

	var result verifier.Result
	if !cfg.threaded {
		result, err = verifier.VerifyDirectory(ctx, w, root, m, engine, verifier.Options{
			Algorithm:  cfg.algorithm,
			SkipErrors: cfg.skipErrors,
		})
	} else {
		result, err = runVerifyThreaded(ctx, w, root, m, cfg, reporter, stats, bar)
	}
	if err != nil {
		return fail(reporter, err)
	}
	stats.Stop()
	return reportVerifyResult(result, reporter)
}

// runVerifyThreaded drives the worker pool over the tree, comparing each
// file's digest against the manifest from the single serializer goroutine
// so the coverage-tracking Processed flags never race.
func runVerifyThreaded(ctx context.Context, w *walker.Walker, root pathmodel.Path, m *manifest.Manifest, cfg verifyConfig, reporter *report.Reporter, stats *report.Stats, bar *progress.Bar) (verifier.Result, error) {
	pool := workerpool.New(0)
	jobs := make(chan *workerpool.Job, pool.Workers*2)

	var result verifier.Result
	var walkErr error

	go func() {
		defer close(jobs)
		walkErr = w.Walk(root, func(e walker.DirEntry) error {
			if e.Kind != walker.File {
				return nil
			}
			entry, ok := m.Lookup(e.Path.Display)
			if !ok {
				if cfg.skipErrors {
					result.Mismatches = append(result.Mismatches, verifier.Mismatch{DisplayName: e.Path.Display, Reason: "not present in manifest"})
					return nil
				}
				return dirsumerr.New(dirsumerr.KindVerification, "verifier: %q not present in manifest", e.Path.Display)
			}
			clone, cerr := hashengine.New(cfg.algorithm)
			if cerr != nil {
				return dirsumerr.Wrap(dirsumerr.KindHashInit, cerr)
			}
			jobs <- &workerpool.Job{
				Path:       e.Path,
				FileSize:   e.Size,
				Engines:    []*hashengine.Engine{clone},
				VerifyMode: true,
				Expected:   entry,
			}
			return nil
		})
	}()

	var firstErr error
	work := workerpool.RenderVerifyItem
	serialize := func(item *workerpool.OutputItem) {
		if item.Err != nil {
			if cfg.skipErrors {
				result.Mismatches = append(result.Mismatches, verifier.Mismatch{DisplayName: item.Job.Path.Display, Reason: item.Err.Error()})
			} else if firstErr == nil {
				firstErr = item.Err
			}
			return
		}
		item.Job.Expected.Processed = true
		if item.Mismatch {
			result.Mismatches = append(result.Mismatches, verifier.Mismatch{DisplayName: item.Job.Path.Display, Reason: "digest mismatch"})
		}
		stats.IncProcessed()
		stats.AddBytes(item.Job.FileSize)
		if bar != nil {
			bar.AddBytes(item.Job.FileSize)
		}
	}

	if err := pool.Run(ctx, jobs, work, serialize); err != nil {
		return result, dirsumerr.Wrap(dirsumerr.KindEnumerate, err)
	}
	if walkErr != nil {
		return result, walkErr
	}
	if firstErr != nil {
		return result, firstErr
	}

	result.Missing = m.Unprocessed()
	return result, nil
}

func reportVerifyResult(result verifier.Result, reporter *report.Reporter) int {
	for _, mm := range result.Mismatches {
		reporter.Warning("mismatch: %s (%s)", mm.DisplayName, mm.Reason)
	}
	for _, e := range result.Missing {
		reporter.Warning("missing: %s", e.DisplayName)
	}
	if result.OK() {
		reporter.Success("verify: OK, no mismatches")
		return 0
	}
	if len(result.Missing) > 0 {
		return exitCode(dirsumerr.New(dirsumerr.KindMissingEntry, "verify: missing manifest entries found"))
	}
	return exitCode(dirsumerr.New(dirsumerr.KindVerification, "verify: mismatches found"))
}
