package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/codeindex"
	"github.com/hupe1980/codeindex/index"
)

func runMerge(ctx context.Context, a *app, args []string) error {
	fset, cfgPath := a.flags("merge")
	out := fset.String("o", "", "output file")
	if err := a.parse(fset, cfgPath, args); err != nil {
		return err
	}
	if *out == "" || fset.NArg() == 0 {
		fmt.Fprintln(a.stderr, "usage: codeindex merge -o out.idx index.idx...")
		return errUsage
	}

	indexes, err := codeindex.OpenIndexes(fset.Args())
	if err != nil {
		return err
	}
	defer codeindex.CloseIndexes(indexes)

	start := time.Now()
	b := index.NewBuilder()
	for _, ix := range indexes {
		if err = b.Merge(ix); err != nil {
			break
		}
	}
	if err == nil {
		err = b.WriteFile(*out)
	}
	documents := b.NumDocuments() - 1
	a.logger.LogBuild(ctx, *out, documents, err)
	a.metrics.RecordBuild(documents, time.Since(start), err)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: %d documents from %d indexes\n", *out, documents, len(indexes))
	return nil
}
