// Package query turns a predicate over document contents into the set of
// trigrams a matching document must contain, and verifies candidate
// documents against the predicate.
package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/internal/resource"
	"github.com/hupe1980/codeindex/sparse"
	"github.com/hupe1980/codeindex/trigram"
)

// Result is a confirmed match.
type Result struct {
	// Index is not referenced on behalf of the result. It stays valid while
	// the result set or the caller holds a reference.
	Index *index.Index
	Path  string
}

// Sender accepts confirmed results. Send fails once the consumer is gone.
type Sender interface {
	Send(ctx context.Context, r Result) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, r Result) error

func (f SenderFunc) Send(ctx context.Context, r Result) error { return f(ctx, r) }

// Option configures a Query.
type Option func(*Query)

// WithResourceController bounds concurrent document loads and read
// throughput.
func WithResourceController(rc *resource.Controller) Option {
	return func(q *Query) { q.rc = rc }
}

// WithLoadFailureHandler is called for every document that could not be
// loaded. Such documents are treated as non-matches.
func WithLoadFailureHandler(fn func(path string, err error)) Option {
	return func(q *Query) { q.onLoadFailure = fn }
}

// Query pairs a Spec with the machinery to verify candidates.
type Query struct {
	spec          Spec
	rc            *resource.Controller
	onLoadFailure func(path string, err error)
}

// New returns a query for spec.
func New(spec Spec, optFns ...Option) *Query {
	q := &Query{spec: spec}
	for _, fn := range optFns {
		fn(q)
	}
	return q
}

// Spec returns the predicate.
func (q *Query) Spec() Spec { return q.spec }

func (q *Query) String() string { return q.spec.String() }

// The trigram id space needs a 64MB sparse array, so sets are recycled.
var setPool = sync.Pool{
	New: func() any { return sparse.New(trigram.Cardinality) },
}

// Trigrams returns the ids every matching document must contain, in no
// particular order.
func (q *Query) Trigrams() []uint32 {
	set := setPool.Get().(*sparse.Set)
	defer func() {
		set.Reset()
		setPool.Put(set)
	}()
	q.spec.CollectTrigrams(set)
	return set.Values()
}

// Match loads the document at path through the loader of ix and sends a
// Result to out when it matches. A document that cannot be loaded
// is a non-match. The only error returned is a failed load slot acquisition
// or a failed send.
func (q *Query) Match(ctx context.Context, ix *index.Index, path string, out Sender) error {
	if err := q.rc.AcquireLoad(ctx); err != nil {
		return err
	}
	data, err := ix.LoadDocumentPath(ctx, path)
	q.rc.ReleaseLoad()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if q.onLoadFailure != nil {
			q.onLoadFailure(path, err)
		}
		return nil
	}
	if err := q.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}

	if !q.spec.Matches(path, data) {
		return nil
	}
	return out.Send(ctx, Result{Index: ix, Path: path})
}

// MatchID is Match for a document id of ix. An id outside the document
// table is a non-match reported to the load failure handler.
func (q *Query) MatchID(ctx context.Context, ix *index.Index, id uint32, out Sender) error {
	path, err := ix.DocumentPath(id)
	if err != nil {
		if q.onLoadFailure != nil {
			q.onLoadFailure(fmt.Sprintf("#%d", id), err)
		}
		return nil
	}
	return q.Match(ctx, ix, path, out)
}
