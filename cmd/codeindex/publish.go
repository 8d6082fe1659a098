package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/codeindex/index"
)

func runPublish(ctx context.Context, a *app, args []string) error {
	fset, cfgPath := a.flags("publish")
	bucket := fset.String("bucket", "", "destination bucket (overrides s3.bucket)")
	prefix := fset.String("prefix", "", "key prefix (overrides s3.prefix)")
	table := fset.String("table", "", "DynamoDB catalog table (overrides s3.table)")
	name := fset.String("name", "", "blob name, defaults to the file's base name")
	if err := a.parse(fset, cfgPath, args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		fmt.Fprintln(a.stderr, "usage: codeindex publish -bucket name [-prefix p] [-table t] index.idx")
		return errUsage
	}
	if *bucket != "" {
		a.cfg.S3.Bucket = *bucket
	}
	if *prefix != "" {
		a.cfg.S3.Prefix = *prefix
	}
	if *table != "" {
		a.cfg.S3.Table = *table
	}
	filename := fset.Arg(0)
	if *name == "" {
		*name = filepath.Base(filename)
	}

	// Refuse to publish anything that would not open.
	ix, err := index.Open(filename)
	if err != nil {
		return err
	}
	documents := ix.NumDocuments() - 1
	if err := ix.Close(); err != nil {
		return err
	}

	r, err := a.remote(ctx)
	if err != nil {
		return err
	}
	if err := upload(ctx, r, filename, *name); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "index uploaded", "name", *name, "documents", documents)

	if r.catalog == nil {
		fmt.Fprintf(a.stdout, "uploaded %s\n", *name)
		return nil
	}
	version, err := r.catalog.Publish(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "published %s as version %d\n", *name, version)
	return nil
}

func upload(ctx context.Context, r *remote, filename, name string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := r.store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			return errors.Join(err, a.Abort())
		}
		return errors.Join(err, w.Close())
	}
	return w.Close()
}
