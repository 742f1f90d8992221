package main

import (
	"context"
	"encoding/hex"
	"os"
	"strings"

	"dirsum/internal/aggregate"
	"dirsum/internal/clipboard"
	"dirsum/internal/dirsumerr"
	"dirsum/internal/hashengine"
	"dirsum/internal/manifest"
	"dirsum/internal/pathmodel"
	"dirsum/internal/progress"
	"dirsum/internal/report"
	"dirsum/internal/walker"
)

type aggregateConfig struct {
	ids                         []hashengine.ID
	hashNames, stripNames       bool
	outputFile                  string
	overwrite, lowercase        bool
	only, exclude               []string
	nofollow, skipErrors        bool
	showProgress, quiet, nologo bool
	clip                        bool
}

// runAggregate implements single-digest mode: one digest per requested
// algorithm, covering either a single file or an entire tree.
func runAggregate(ctx context.Context, root pathmodel.Path, isFile bool, cfg aggregateConfig, reporter *report.Reporter, stats *report.Stats, cwd string, longPathSupport bool) int {
	engines, err := hashengine.NewAll(cfg.ids)
	if err != nil {
		return fail(reporter, dirsumerr.Wrap(dirsumerr.KindHashInit, err))
	}

	var bar *progress.Bar
	if cfg.showProgress {
		bar = progress.New(0, stats)
		defer bar.Close()
	}
	onBytes := func(n int64) {
		stats.AddBytes(n)
		if bar != nil {
			bar.AddBytes(n)
		}
	}

	var results []aggregate.Result
	if isFile {
		selfAbs := selfAbsolute(cfg.outputFile, cwd, longPathSupport)
		if err := selfCollisionCheck(root.Absolute, selfAbs); err != nil {
			return fail(reporter, err)
		}
		results, err = aggregate.RunSingleFile(ctx, root.OSPath(), engines, onBytes)
	} else {
		selfAbs := selfAbsolute(cfg.outputFile, cwd, longPathSupport)
		w, werr := walker.New(walker.Options{
			FollowLinks:     !cfg.nofollow,
			OnlyPatterns:    cfg.only,
			ExcludePatterns: cfg.exclude,
			SkipErrors:      cfg.skipErrors,
			SelfAbsolute:    selfAbs,
		})
		if werr != nil {
			return fail(reporter, werr)
		}
		results, err = aggregate.Run(ctx, w, root, engines, aggregate.Options{
			HashNames:  cfg.hashNames,
			StripNames: cfg.stripNames,
			OnBytes:    onBytes,
		})
	}
	if err != nil {
		return fail(reporter, err)
	}
	stats.Stop()

	var out *os.File
	if cfg.outputFile != "" {
		f, ferr := manifest.OpenSingleFile(cfg.outputFile, cfg.overwrite)
		if ferr != nil {
			return fail(reporter, dirsumerr.Wrap(dirsumerr.KindOpen, ferr))
		}
		defer f.Close()
		out = f
	}

	target := root.Display
	if cfg.stripNames {
		target = leafOf(target)
	}
	for _, r := range results {
		line := formatDigestLine(r.Digest, target, cfg.lowercase)
		reporter.Success("%s", line)
		if out != nil {
			resultLine := manifest.FormatResultLine(r.ID, target, r.Digest, cfg.lowercase)
			if _, werr := out.WriteString(resultLine); werr != nil {
				return fail(reporter, dirsumerr.Wrap(dirsumerr.KindOpen, werr))
			}
		}
		if cfg.clip {
			h := hex.EncodeToString(r.Digest)
			if !cfg.lowercase {
				h = strings.ToUpper(h)
			}
			clipboard.Copy(h)
		}
	}
	return 0
}
