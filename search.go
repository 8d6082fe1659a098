package codeindex

import (
	"context"
	"errors"

	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/query"
)

// Search runs spec over indexes and returns every confirmed match.
//
// Example:
//
//	ix, _ := index.Open("repo.idx")
//	defer ix.Close()
//
//	results, err := codeindex.Search(ctx, query.Contains("TODO"), []*index.Index{ix})
//	for _, r := range results {
//	    fmt.Println(r.Path)
//	}
func Search(ctx context.Context, spec query.Spec, indexes []*index.Index, optFns ...Option) ([]query.Result, error) {
	rs := NewResultSet(spec, indexes, optFns...)
	err := rs.Populate(ctx)
	results := rs.Results()
	if cerr := rs.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return results, err
	}
	return results, nil
}

// OpenIndexes opens every file. On failure the indexes opened so far are
// closed again and an *OpenError is returned.
func OpenIndexes(filenames []string, optFns ...index.Option) ([]*index.Index, error) {
	indexes := make([]*index.Index, 0, len(filenames))
	for _, name := range filenames {
		ix, err := index.Open(name, optFns...)
		if err != nil {
			CloseIndexes(indexes)
			return nil, &OpenError{Path: name, cause: err}
		}
		indexes = append(indexes, ix)
	}
	return indexes, nil
}

// CloseIndexes releases one reference to every index.
func CloseIndexes(indexes []*index.Index) error {
	var errs []error
	for _, ix := range indexes {
		errs = append(errs, ix.Close())
	}
	return errors.Join(errs...)
}
