package index

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync/atomic"

	"github.com/hupe1980/codeindex/blobstore"
	"github.com/hupe1980/codeindex/internal/mmap"
	"github.com/hupe1980/codeindex/trigram"
)

// Index is an immutable, validated view of a serialized index.
//
// An Index is safe for concurrent use. It is reference counted: the creator
// holds the first reference, Ref adds one and Close drops one. The backing
// memory is released when the last reference is dropped.
type Index struct {
	name   string
	data   []byte
	header Header

	refs    atomic.Int32
	release func() error

	loader atomic.Pointer[loaderBox]
}

// Option configures how an index is opened.
type Option func(*openOptions)

type openOptions struct {
	loader  DocumentLoader
	useMmap bool
}

// WithDocumentLoader sets the loader used to fetch document contents.
func WithDocumentLoader(l DocumentLoader) Option {
	return func(o *openOptions) { o.loader = l }
}

// WithoutMmap reads index files into the heap instead of mapping them.
func WithoutMmap() Option {
	return func(o *openOptions) { o.useMmap = false }
}

func applyOptions(optFns []Option) openOptions {
	o := openOptions{useMmap: true}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Open maps filename and validates it.
func Open(filename string, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	if !o.useMmap {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		return newIndex(filename, data, nil, o)
	}

	m, err := mmap.Open(filename)
	if err != nil {
		return nil, err
	}
	// Posting lookups jump around the file.
	if err := m.Advise(mmap.AccessRandom); err != nil {
		m.Close()
		return nil, err
	}
	ix, err := newIndex(filename, m.Bytes(), m.Close, o)
	if err != nil {
		m.Close()
		return nil, err
	}
	return ix, nil
}

// OpenBytes validates an in-memory image. data must not be modified while
// the index is in use.
func OpenBytes(data []byte, optFns ...Option) (*Index, error) {
	return newIndex("", data, nil, applyOptions(optFns))
}

// OpenBlob loads name from store. Mappable blobs are used without copying.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Index, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			blob.Close()
			return nil, err
		}
		ix, err := newIndex(name, data, blob.Close, applyOptions(optFns))
		if err != nil {
			blob.Close()
			return nil, err
		}
		return ix, nil
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	n, err := blob.ReadAt(ctx, data, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		return nil, fmt.Errorf("read index blob %q: %w", name, err)
	}
	return newIndex(name, data[:n], nil, applyOptions(optFns))
}

func newIndex(name string, data []byte, release func() error, o openOptions) (*Index, error) {
	h, err := validate(data)
	if err != nil {
		if name != "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, err
	}
	ix := &Index{
		name:    name,
		data:    data,
		header:  *h,
		release: release,
	}
	ix.refs.Store(1)
	ix.SetDocumentLoader(o.loader)
	return ix, nil
}

func validate(data []byte) (*Header, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
	}
	size := uint64(len(data))
	within := func(off, n uint64) bool { return off <= size && n <= size-off }

	if size > math.MaxUint32 {
		return nil, invalid("image of %d bytes exceeds 32-bit offsets", size)
	}
	if h.NumDocuments < 1 {
		return nil, invalid("document count is zero")
	}
	for _, off := range [...]uint32{h.Documents, h.Trigrams, h.TrigramsData} {
		if off%Alignment != 0 {
			return nil, invalid("offset %d is not %d-byte aligned", off, Alignment)
		}
	}

	pathsStart := uint64(align(HeaderSize))
	pathsEnd := pathsStart + uint64(h.DocumentsBytes)
	if !within(pathsStart, uint64(h.DocumentsBytes)) {
		return nil, invalid("path blob exceeds file")
	}
	if !within(uint64(h.Documents), uint64(h.NumDocuments)*4) {
		return nil, invalid("document table exceeds file")
	}
	if uint64(h.TrigramsBytes) != uint64(h.NumTrigrams)*DescriptorSize {
		return nil, invalid("descriptor table size %d does not match %d trigrams", h.TrigramsBytes, h.NumTrigrams)
	}
	if !within(uint64(h.Trigrams), uint64(h.TrigramsBytes)) {
		return nil, invalid("descriptor table exceeds file")
	}
	if !within(uint64(h.TrigramsData), uint64(h.TrigramsDataBytes)) {
		return nil, invalid("posting blob exceeds file")
	}

	for id := uint32(1); id < h.NumDocuments; id++ {
		pos := uint64(binary.LittleEndian.Uint32(data[h.Documents+4*id:]))
		if pos < pathsStart || pos >= pathsEnd {
			return nil, invalid("document %d path offset %d outside path blob", id, pos)
		}
		if bytes.IndexByte(data[pos:pathsEnd], 0) < 0 {
			return nil, invalid("document %d path is not terminated", id)
		}
	}

	dataStart := h.TrigramsData
	dataEnd := uint64(h.TrigramsData) + uint64(h.TrigramsDataBytes)
	var prev int64 = -1
	for i := uint32(0); i < h.NumTrigrams; i++ {
		d := decodeDescriptor(data[h.Trigrams+i*DescriptorSize:])
		if int64(d.ID) <= prev || d.ID > trigram.MaxID {
			return nil, invalid("descriptor %d has out-of-order trigram %#x", i, d.ID)
		}
		if d.Start < dataStart || d.Start > d.End || uint64(d.End) > dataEnd {
			return nil, invalid("descriptor %d range [%d,%d) outside posting blob", i, d.Start, d.End)
		}
		prev = int64(d.ID)
	}
	return h, nil
}

// Name returns the file or blob name the index was opened from.
func (ix *Index) Name() string { return ix.name }

// Header returns a copy of the decoded header.
func (ix *Index) Header() Header { return ix.header }

// Size returns the size of the image in bytes.
func (ix *Index) Size() int { return len(ix.data) }

// NumDocuments returns the document count including the reserved id 0.
func (ix *Index) NumDocuments() int { return int(ix.header.NumDocuments) }

// NumTrigrams returns the number of trigrams with a posting list.
func (ix *Index) NumTrigrams() int { return int(ix.header.NumTrigrams) }

// Ref adds a reference and returns ix.
func (ix *Index) Ref() *Index {
	ix.refs.Add(1)
	return ix
}

// Close drops a reference. The image is released with the last one.
func (ix *Index) Close() error {
	n := ix.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		ix.refs.Add(1)
		return ErrClosed
	}
	if ix.release != nil {
		return ix.release()
	}
	return nil
}

// DocumentPath returns the path of document id.
func (ix *Index) DocumentPath(id uint32) (string, error) {
	if id == 0 || id >= ix.header.NumDocuments {
		return "", fmt.Errorf("%w: document id %d not in [1,%d)", ErrInvalidArgument, id, ix.header.NumDocuments)
	}
	pos := binary.LittleEndian.Uint32(ix.data[ix.header.Documents+4*id:])
	end := bytes.IndexByte(ix.data[pos:], 0)
	return string(ix.data[pos : int(pos)+end]), nil
}

func (ix *Index) descriptor(i int) Descriptor {
	return decodeDescriptor(ix.data[int(ix.header.Trigrams)+i*DescriptorSize:])
}

func (ix *Index) lookup(id uint32) (Descriptor, bool) {
	n := ix.NumTrigrams()
	i := sort.Search(n, func(i int) bool { return ix.descriptor(i).ID >= id })
	if i < n {
		if d := ix.descriptor(i); d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (ix *Index) postingsAt(d Descriptor) *PostingIterator {
	return &PostingIterator{data: ix.data[d.Start:d.End]}
}

// Postings returns an iterator over the documents containing t.
func (ix *Index) Postings(t trigram.Trigram) (*PostingIterator, bool) {
	return ix.PostingsByID(trigram.Encode(t))
}

// PostingsByID returns an iterator over the documents containing the
// encoded trigram id.
func (ix *Index) PostingsByID(id uint32) (*PostingIterator, bool) {
	d, ok := ix.lookup(id)
	if !ok {
		return nil, false
	}
	return ix.postingsAt(d), true
}

// Stat summarizes an index.
type Stat struct {
	Name         string `json:"name,omitempty"`
	Size         int    `json:"size"`
	NumDocuments int    `json:"documents"`
	NumTrigrams  int    `json:"trigrams"`
	PathBytes    int    `json:"path_bytes"`
	PostingBytes int    `json:"posting_bytes"`
}

// Stat returns counts and section sizes.
func (ix *Index) Stat() Stat {
	return Stat{
		Name:         ix.name,
		Size:         len(ix.data),
		NumDocuments: ix.NumDocuments() - 1,
		NumTrigrams:  ix.NumTrigrams(),
		PathBytes:    int(ix.header.DocumentsBytes),
		PostingBytes: int(ix.header.TrigramsDataBytes),
	}
}
