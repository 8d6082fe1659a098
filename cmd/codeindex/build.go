package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/codeindex/crawl"
	"github.com/hupe1980/codeindex/index"
)

func runBuild(ctx context.Context, a *app, args []string) error {
	fset, cfgPath := a.flags("build")
	out := fset.String("o", "codeindex.idx", "output file")
	maxSize := fset.Int64("max-file-size", -1, "skip files larger than this many bytes (overrides build.max_file_size)")
	var ignores stringList
	fset.Var(&ignores, "ignore", "gitignore-style pattern to skip (repeatable)")
	if err := a.parse(fset, cfgPath, args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		fmt.Fprintln(a.stderr, "usage: codeindex build [-o out.idx] <dir>")
		return errUsage
	}

	limit := a.cfg.Build.MaxFileSize
	if *maxSize >= 0 {
		limit = *maxSize
	}

	start := time.Now()
	b := index.NewBuilder()
	stats, err := crawl.Walk(ctx, fset.Arg(0), b,
		crawl.WithMaxFileSize(limit),
		crawl.WithWorkers(a.cfg.Build.Workers),
		crawl.WithIgnorePatterns(a.cfg.Build.Ignore...),
		crawl.WithIgnorePatterns(ignores...),
		crawl.WithLogger(a.logger.Logger),
	)
	if err == nil {
		err = b.WriteFile(*out)
	}
	a.logger.LogBuild(ctx, *out, stats.Files, err)
	a.metrics.RecordBuild(stats.Files, time.Since(start), err)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: %d documents, %d trigrams, %d skipped, %d failed\n",
		*out, stats.Files, b.NumTrigrams(), stats.Skipped, stats.Failed)
	return nil
}
