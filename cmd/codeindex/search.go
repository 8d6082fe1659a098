package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/codeindex"
	"github.com/hupe1980/codeindex/codec"
	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/query"
)

type match struct {
	Index string `json:"index"`
	Path  string `json:"path"`
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fset, cfgPath := a.flags("search")
	var files, globs stringList
	fset.Var(&files, "i", "index file (repeatable)")
	fset.Var(&globs, "glob", "only search paths matching the pattern (repeatable)")
	regex := fset.Bool("regex", false, "treat the pattern as a regular expression")
	current := fset.Bool("current", false, "also search the index published to s3.bucket")
	root := fset.String("root", "", "resolve relative document paths against this directory")
	asJSON := fset.Bool("json", false, "print one JSON object per match")
	if err := a.parse(fset, cfgPath, args); err != nil {
		return err
	}
	if fset.NArg() != 1 || (len(files) == 0 && !*current) {
		fmt.Fprintln(a.stderr, "usage: codeindex search [-regex] [-glob pattern] -i index.idx... <pattern>")
		return errUsage
	}

	var spec query.Spec
	if *regex {
		var err error
		if spec, err = query.Regex(fset.Arg(0)); err != nil {
			return err
		}
	} else {
		spec = query.Contains(fset.Arg(0))
	}

	loader := index.WithDocumentLoader(index.DecompressingLoader{Inner: index.FileLoader{Root: *root}})
	indexes, err := codeindex.OpenIndexes(files, loader)
	if err != nil {
		return err
	}
	defer func() { codeindex.CloseIndexes(indexes) }()

	if *current {
		ix, err := a.openCurrent(ctx, loader)
		if err != nil {
			return err
		}
		indexes = append(indexes, ix)
	}

	opts := a.searchOptions()
	if len(globs) > 0 {
		opts = append(opts, codeindex.WithDocumentFilter(index.GlobFilter(globs...)))
	}
	rs := codeindex.NewResultSet(spec, indexes, opts...)
	defer rs.Close()

	lw := codec.NewLineWriter(a.stdout, nil)
	var writeErr error
	rs.Subscribe(func(ev codeindex.Event) {
		if ev.Kind != codeindex.EventInserted || writeErr != nil {
			return
		}
		for i := ev.Position; i < ev.Position+ev.Count; i++ {
			r := rs.At(i)
			if *asJSON {
				writeErr = lw.Write(match{Index: r.Index.Name(), Path: r.Path})
			} else {
				_, writeErr = fmt.Fprintln(a.stdout, r.Path)
			}
			if writeErr != nil {
				rs.Cancel()
				return
			}
		}
	})

	err = rs.Populate(ctx)
	if writeErr != nil {
		return writeErr
	}
	if errors.Is(err, codeindex.ErrCancelled) && ctx.Err() != nil {
		a.logger.InfoContext(ctx, "interrupted", "results", rs.Len())
	}
	return err
}
