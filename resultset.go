package codeindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/internal/channel"
	"github.com/hupe1980/codeindex/internal/resource"
	"github.com/hupe1980/codeindex/query"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a ResultSet.
type State int32

const (
	// Idle is the state before Populate.
	Idle State = iota
	// Populating means candidates are being verified.
	Populating
	// Populated is terminal: no more results will arrive.
	Populated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Populating:
		return "populating"
	case Populated:
		return "populated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// EventKind distinguishes change notifications.
type EventKind uint8

const (
	// EventInserted announces Count results appended at Position.
	EventInserted EventKind = iota
	// EventCountChanged announces the new total in Count.
	EventCountChanged
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Kind     EventKind
	Position int
	Count    int
}

// ResultSet runs one search over a set of indexes and collects the
// confirmed matches in arrival order.
//
// Results may be read and subscribed to while Populate runs. Subscribers
// are called from the receiving goroutine, one event at a time.
type ResultSet struct {
	id      uuid.UUID
	query   *query.Query
	indexes []*index.Index
	opts    options
	logger  *Logger
	ch      *channel.Channel[query.Result]

	state    atomic.Int32
	closed   atomic.Bool
	finished chan struct{}
	err      error

	mu      sync.RWMutex
	results []query.Result

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	releaseOnce sync.Once
}

// NewResultSet prepares a search for spec over indexes. The result set holds
// a reference to every index until Close.
func NewResultSet(spec query.Spec, indexes []*index.Index, optFns ...Option) *ResultSet {
	o := applyOptions(optFns)
	id := uuid.New()

	rs := &ResultSet{
		id:       id,
		indexes:  make([]*index.Index, len(indexes)),
		opts:     o,
		logger:   o.logger.WithSearchID(id.String()).WithQuery(spec.String()),
		ch:       channel.New[query.Result](o.channelCapacity),
		finished: make(chan struct{}),
		subs:     make(map[int]func(Event)),
	}
	for i, ix := range indexes {
		rs.indexes[i] = ix.Ref()
	}

	rc := resource.NewController(resource.Config{
		MaxConcurrentLoads: o.maxConcurrentLoads,
		IOLimitBytesPerSec: o.ioLimit,
	})
	rs.query = query.New(spec,
		query.WithResourceController(rc),
		query.WithLoadFailureHandler(func(path string, err error) {
			rs.logger.LogLoadFailure(context.Background(), path, err)
			rs.opts.metricsCollector.RecordLoadFailure()
		}),
	)
	return rs
}

// ID identifies the search in logs.
func (rs *ResultSet) ID() uuid.UUID { return rs.id }

// Query returns the query being run.
func (rs *ResultSet) Query() *query.Query { return rs.query }

// State returns the current lifecycle state.
func (rs *ResultSet) State() State { return State(rs.state.Load()) }

// Done is closed when the result set reaches Populated.
func (rs *ResultSet) Done() <-chan struct{} { return rs.finished }

// Err returns the error Populate returned, once Done is closed.
func (rs *ResultSet) Err() error {
	select {
	case <-rs.finished:
		return rs.err
	default:
		return nil
	}
}

// Len returns the number of results delivered so far.
func (rs *ResultSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.results)
}

// At returns the i-th result.
func (rs *ResultSet) At(i int) query.Result {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.results[i]
}

// Results returns a copy of the results delivered so far.
func (rs *ResultSet) Results() []query.Result {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]query.Result(nil), rs.results...)
}

// Subscribe registers fn for change notifications and returns a function
// removing it.
func (rs *ResultSet) Subscribe(fn func(Event)) (unsubscribe func()) {
	rs.subsMu.Lock()
	defer rs.subsMu.Unlock()
	id := rs.nextSub
	rs.nextSub++
	rs.subs[id] = fn
	return func() {
		rs.subsMu.Lock()
		defer rs.subsMu.Unlock()
		delete(rs.subs, id)
	}
}

func (rs *ResultSet) publish(ev Event) {
	rs.subsMu.Lock()
	fns := make([]func(Event), 0, len(rs.subs))
	for _, fn := range rs.subs {
		fns = append(fns, fn)
	}
	rs.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Cancel stops the search. Verification tasks fail on their next send and
// Populate returns ErrCancelled. Results delivered so far are kept.
func (rs *ResultSet) Cancel() {
	rs.ch.Close()
}

// Close cancels a running search, waits for it to stop and releases the
// index references. Results keep pointing at their index, so a caller that
// uses Result.Index after Close must hold its own reference to that index.
func (rs *ResultSet) Close() error {
	if !rs.closed.CompareAndSwap(false, true) {
		return nil
	}
	rs.Cancel()
	if rs.state.CompareAndSwap(int32(Idle), int32(Populated)) {
		rs.err = ErrClosed
		close(rs.finished)
	}
	<-rs.finished

	var errs []error
	rs.releaseOnce.Do(func() {
		for _, ix := range rs.indexes {
			errs = append(errs, ix.Close())
		}
	})
	return errors.Join(errs...)
}

// Populate runs the search to completion. It can be called only once.
//
// A query without required trigrams completes immediately with no results.
func (rs *ResultSet) Populate(ctx context.Context) error {
	if rs.closed.Load() {
		return ErrClosed
	}
	if !rs.state.CompareAndSwap(int32(Idle), int32(Populating)) {
		return ErrAlreadyPopulated
	}

	start := time.Now()
	rs.logger.DebugContext(ctx, "search started", "indexes", len(rs.indexes))

	err := rs.populate(ctx)

	rs.err = err
	rs.state.Store(int32(Populated))
	close(rs.finished)

	n := rs.Len()
	rs.logger.LogPopulate(ctx, n, time.Since(start), err)
	rs.opts.metricsCollector.RecordSearch(n, time.Since(start), err)
	return err
}

func (rs *ResultSet) populate(ctx context.Context) error {
	ids := rs.query.Trigrams()
	if len(ids) == 0 {
		rs.ch.Close()
		return nil
	}

	received := make(chan struct{})
	go rs.receive(received)

	err := rs.produce(ctx, ids)
	cancelled := rs.ch.Closed()
	rs.ch.Close()
	<-received

	switch {
	case err == nil && !cancelled:
		return nil
	case err == nil, errors.Is(err, channel.ErrClosed):
		rs.logger.InfoContext(ctx, "search cancelled")
		return ErrCancelled
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	default:
		return err
	}
}

type candidate struct {
	ix *index.Index
	id uint32
}

// produce intersects the posting lists of every index and verifies the
// candidates in batches.
func (rs *ResultSet) produce(ctx context.Context, ids []uint32) error {
	batch := make([]candidate, 0, rs.opts.batchSize)
	for _, ix := range rs.indexes {
		var filter *roaring.Bitmap
		if rs.opts.documentFilter != nil {
			filter = ix.Select(rs.opts.documentFilter)
		}
		for id := range ix.Candidates(ids, filter) {
			batch = append(batch, candidate{ix: ix, id: id})
			if len(batch) < rs.opts.batchSize {
				continue
			}
			if err := rs.verify(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return rs.verify(ctx, batch)
	}
	return nil
}

// verify checks one batch concurrently. The first failed send cancels the
// rest of the batch.
func (rs *ResultSet) verify(ctx context.Context, batch []candidate) error {
	if rs.ch.Closed() {
		return channel.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range batch {
		g.Go(func() error {
			return rs.query.MatchID(gctx, c.ix, c.id, sender{rs.ch})
		})
	}
	err := g.Wait()

	rs.logger.LogBatch(ctx, len(batch), time.Since(start), err)
	rs.opts.metricsCollector.RecordBatch(len(batch), time.Since(start))
	return err
}

type sender struct {
	ch *channel.Channel[query.Result]
}

func (s sender) Send(ctx context.Context, r query.Result) error {
	return s.ch.Send(ctx, r)
}

// receive drains the channel until it is closed and empty, publishing one
// insertion per drain.
func (rs *ResultSet) receive(done chan<- struct{}) {
	defer close(done)

	var (
		buf   []query.Result
		timer *time.Timer
	)
	for {
		first, err := rs.ch.Recv(context.Background())
		if err != nil {
			return
		}
		buf = rs.ch.Drain(append(buf[:0], first))
		rs.insert(buf)

		if rs.opts.debounce <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(rs.opts.debounce)
		} else {
			timer.Reset(rs.opts.debounce)
		}
		select {
		case <-timer.C:
		case <-rs.ch.Done():
			timer.Stop()
		}
	}
}

func (rs *ResultSet) insert(batch []query.Result) {
	rs.mu.Lock()
	pos := len(rs.results)
	rs.results = append(rs.results, batch...)
	total := len(rs.results)
	rs.mu.Unlock()

	rs.publish(Event{Kind: EventInserted, Position: pos, Count: len(batch)})
	rs.publish(Event{Kind: EventCountChanged, Count: total})
}
