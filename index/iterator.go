package index

import (
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// PostingIterator decodes one posting list into ascending document ids.
// It only moves forward.
type PostingIterator struct {
	data []byte
	pos  int
	cur  uint32
	done bool
}

// Next advances to the next document id.
func (it *PostingIterator) Next() (uint32, bool) {
	if it.done || it.pos >= len(it.data) {
		it.done = true
		return 0, false
	}
	delta, n := readVarint(it.data[it.pos:])
	if n <= 0 {
		it.done = true
		return 0, false
	}
	it.pos += n
	it.cur += delta
	return it.cur, true
}

// Current returns the last id returned by Next, or 0 before the first call.
func (it *PostingIterator) Current() uint32 { return it.cur }

// Done reports whether the iterator is exhausted.
func (it *PostingIterator) Done() bool { return it.done }

// Len returns the encoded size of the posting list in bytes.
func (it *PostingIterator) Len() int { return len(it.data) }

// SeekTo advances until the current id is at least target and reports
// whether it equals target. It never moves backwards: if the current id is
// already past target, SeekTo returns false without advancing.
func (it *PostingIterator) SeekTo(target uint32) bool {
	if it.pos > 0 && it.cur >= target {
		return it.cur == target
	}
	for {
		id, ok := it.Next()
		if !ok {
			return false
		}
		if id >= target {
			return id == target
		}
	}
}

// All yields the remaining ids.
func (it *PostingIterator) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for id, ok := it.Next(); ok; id, ok = it.Next() {
			if !yield(id) {
				return
			}
		}
	}
}

// Candidates yields, in ascending order, the documents whose posting lists
// contain every trigram in ids. A trigram absent from the index yields
// nothing. When filter is non-nil only documents in filter are produced.
func (ix *Index) Candidates(ids []uint32, filter *roaring.Bitmap) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if len(ids) == 0 {
			return
		}
		its := make([]*PostingIterator, 0, len(ids))
		for _, id := range ids {
			it, ok := ix.PostingsByID(id)
			if !ok {
				return
			}
			its = append(its, it)
		}
		// Drive the intersection from the shortest list.
		slices.SortFunc(its, func(a, b *PostingIterator) int { return a.Len() - b.Len() })

		lead, rest := its[0], its[1:]
	next:
		for doc, ok := lead.Next(); ok; doc, ok = lead.Next() {
			for _, it := range rest {
				if !it.SeekTo(doc) {
					if it.Done() {
						return
					}
					continue next
				}
			}
			if filter != nil && !filter.Contains(doc) {
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}
}
