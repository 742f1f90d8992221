package main

import (
	"context"
	"os"

	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
	"dirsum/internal/parser"
	"dirsum/internal/pathmodel"
	"dirsum/internal/progress"
	"dirsum/internal/report"
	"dirsum/internal/walker"
	"dirsum/internal/workerpool"
)

type sumConfig struct {
	ids                         []hashengine.ID
	outputFile                  string
	overwrite, lowercase        bool
	relativePaths, includeLast  bool
	only, exclude               []string
	nofollow, skipErrors        bool
	threaded                    bool
	showProgress, quiet, nologo bool
}

// runSum implements manifest mode (-sum). A directory target gets one
// digest line per file per requested algorithm, written in canonical
// manifest order; sequential mode sorts in memory, threaded mode
// round-trips each algorithm's lines through a shadow file so the final
// order matches regardless of the finishing order of workers. A single
// file target (DirHash.cpp's HashFile, bSumMode branch) gets a one-line
// manifest naming just that file.
func runSum(ctx context.Context, root pathmodel.Path, isFile bool, cfg sumConfig, reporter *report.Reporter, stats *report.Stats, cwd string, longPathSupport bool) int {
	selfAbs := selfAbsolute(cfg.outputFile, cwd, longPathSupport)
	if err := selfCollisionCheck(root.Absolute, selfAbs); err != nil {
		return fail(reporter, err)
	}

	if isFile {
		return runSumSingleFile(ctx, root, cfg, reporter, stats)
	}

	useShadow := cfg.threaded

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

	writer, err := manifest.OpenWriter(cfg.outputFile, cfg.ids, cfg.overwrite, useShadow)
	if err != nil {
		return fail(reporter, err)
	}
	defer writer.Close()

	wopts := manifest.WriteOptions{
		Lowercase:      cfg.lowercase,
		RelativePaths:  cfg.relativePaths,
		IncludeLastDir: cfg.includeLast,
		RootDisplay:    root.Display,
	}

	var bar *progress.Bar
	if cfg.showProgress {
		bar = progress.New(0, stats)
		defer bar.Close()
	}

	if !useShadow {
		err = runSumSequential(ctx, w, root, cfg.ids, writer, wopts, reporter, stats, bar)
	} else {
		err = runSumThreaded(ctx, w, root, cfg.ids, writer, wopts, reporter, stats, bar)
	}
	if err != nil {
		return fail(reporter, err)
	}
	stats.Stop()
	return 0
}

// runSumSingleFile implements -sum against a single file target: a
// one-line manifest naming just that file, per algorithm. No shadow file
// or canonical sort is needed since there is only ever one line.
func runSumSingleFile(ctx context.Context, root pathmodel.Path, cfg sumConfig, reporter *report.Reporter, stats *report.Stats) int {
	info, err := os.Stat(root.OSPath())
	if err != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindInputNotFound, err))
	}

	engines, err := hashengine.NewAll(cfg.ids)
	if err != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindHashInit, err))
	}
	digests, err := workerpool.HashJob(ctx, &workerpool.Job{Path: root, Engines: engines})
	if err != nil {
		return fail(reporter, err)
	}

	writer, err := manifest.OpenWriter(cfg.outputFile, cfg.ids, cfg.overwrite, false)
	if err != nil {
		return fail(reporter, err)
	}
	defer writer.Close()

	wopts := manifest.WriteOptions{Lowercase: cfg.lowercase}
	for i, id := range cfg.ids {
		of := writer.ForID(id)
		if werr := of.WriteLine(manifest.FormatLine(digests[i], root.Display, wopts)); werr != nil {
			return fail(reporter, werr)
		}
	}

	stats.IncProcessed()
	stats.IncOK()
	stats.AddBytes(info.Size())
	stats.Stop()
	return 0
}

// runSumSequential walks the tree once, hashing every file with a fresh
// set of engines and collecting one Entry per algorithm in memory;
// canonical manifest order is applied by a single in-process sort before
// the final write, with no shadow file touching disk.
func runSumSequential(ctx context.Context, w *walker.Walker, root pathmodel.Path, ids []hashengine.ID, writer *manifest.Writer, wopts manifest.WriteOptions, reporter *report.Reporter, stats *report.Stats, bar *progress.Bar) error {
	perAlgo := make(map[hashengine.ID][]*manifest.Entry, len(ids))

	err := w.Walk(root, func(e walker.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.Kind != walker.File {
			return nil
		}
		engines, err := hashengine.NewAll(ids)
		if err != nil {
			return dirsumerr.Wrap(dirsumerr.KindHashInit, err)
		}
		job := &workerpool.Job{Path: e.Path, Engines: engines}
		digests, err := workerpool.HashJob(ctx, job)
		if err != nil {
			return err
		}
		stats.IncProcessed()
		stats.IncOK()
		stats.AddBytes(e.Size)
		if bar != nil {
			bar.AddBytes(e.Size)
		}
		for i, id := range ids {
			perAlgo[id] = append(perAlgo[id], &manifest.Entry{
				DisplayName: e.Path.Display,
				Algorithm:   id,
				Digest:      digests[i],
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		entries := perAlgo[id]
		manifest.SortCanonical(entries)
		of := writer.ForID(id)
		for _, ent := range entries {
			if werr := of.WriteLine(manifest.FormatLine(ent.Digest, ent.DisplayName, wopts)); werr != nil {
				return werr
			}
		}
	}
	return nil
}

// runSumThreaded hashes every file in the tree across a worker pool,
// writing each algorithm's unsorted lines to a shadow file as jobs
// complete, then parses the shadow back and finalizes it in canonical
// manifest order once the pool drains.
func runSumThreaded(ctx context.Context, w *walker.Walker, root pathmodel.Path, ids []hashengine.ID, writer *manifest.Writer, wopts manifest.WriteOptions, reporter *report.Reporter, stats *report.Stats, bar *progress.Bar) error {
	pool := workerpool.New(0)
	jobs := make(chan *workerpool.Job, pool.Workers*2)

	var walkErr error
	go func() {
		defer close(jobs)
		walkErr = w.Walk(root, func(e walker.DirEntry) error {
			if e.Kind != walker.File {
				return nil
			}
			engines, err := hashengine.NewAll(ids)
			if err != nil {
				return dirsumerr.Wrap(dirsumerr.KindHashInit, err)
			}
			jobs <- &workerpool.Job{Path: e.Path, FileSize: e.Size, Engines: engines, SumMode: true}
			return nil
		})
	}()

	var firstErr error
	work := func(ctx context.Context, job *workerpool.Job) *workerpool.OutputItem {
		return workerpool.RenderManifestItem(ctx, job, wopts)
	}
	serialize := func(item *workerpool.OutputItem) {
		if item.Err != nil {
			if firstErr == nil {
				firstErr = item.Err
			}
			stats.IncError()
			reporter.Error("%v", item.Err)
			return
		}
		for i, id := range ids {
			of := writer.ForID(id)
			if werr := of.WriteLine(item.ManifestLines[i]); werr != nil && firstErr == nil {
				firstErr = werr
			}
		}
		stats.IncProcessed()
		stats.IncOK()
		stats.AddBytes(item.Job.FileSize)
		if bar != nil {
			bar.AddBytes(item.Job.FileSize)
		}
	}

	if err := pool.Run(ctx, jobs, work, serialize); err != nil {
		return dirsumerr.Wrap(dirsumerr.KindEnumerate, err)
	}
	if walkErr != nil {
		return walkErr
	}
	if firstErr != nil {
		return firstErr
	}

	for _, id := range ids {
		of := writer.ForID(id)
		entries, perr := parseShadowBack(of)
		if perr != nil {
			return perr
		}
		if err := writer.FinalizeShadow(of, entries, wopts); err != nil {
			return err
		}
	}
	return nil
}

func parseShadowBack(of *manifest.OutputFile) ([]*manifest.Entry, error) {
	f, err := os.Open(of.ShadowName()) // #nosec G304
	if err != nil {
		return nil, dirsumerr.Wrap(dirsumerr.KindOpen, err)
	}
	defer f.Close()

	m, err := parser.ParseChecksumFile(f, "")
	if err != nil {
		return nil, err
	}
	entries := make([]*manifest.Entry, 0, len(m.ByName))
	for _, e := range m.ByName {
		entries = append(entries, e)
	}
	return entries, nil
}
