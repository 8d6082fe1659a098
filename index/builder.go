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
	"slices"
	"strings"

	"github.com/hupe1980/codeindex/blobstore"
	"github.com/hupe1980/codeindex/internal/fs"
	"github.com/hupe1980/codeindex/sparse"
	"github.com/hupe1980/codeindex/trigram"
)

// posting is the growing delta-varint stream of one trigram.
type posting struct {
	data []byte
	last uint32
}

// Builder accumulates documents and their trigrams and serializes them into
// the binary index format.
//
// A Builder is owned by a single goroutine. Mutating methods never fail;
// misuse of the Begin/Commit protocol panics.
type Builder struct {
	paths []string // paths[0] is the reserved document 0

	trigrams    *sparse.Set // trigram id -> index into postings
	postings    []posting
	uncommitted *sparse.Set

	staged bool
	path   string

	fs fs.FileSystem
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithFileSystem sets the file system used by WriteFile.
func WithFileSystem(fsys fs.FileSystem) BuilderOption {
	return func(b *Builder) {
		if fsys != nil {
			b.fs = fsys
		}
	}
}

// NewBuilder returns an empty builder.
func NewBuilder(optFns ...BuilderOption) *Builder {
	b := &Builder{
		paths:       []string{""},
		trigrams:    sparse.New(trigram.Cardinality),
		uncommitted: sparse.New(trigram.Cardinality),
		fs:          fs.Default,
	}
	for _, fn := range optFns {
		fn(b)
	}
	return b
}

// NumDocuments returns the number of committed documents plus the reserved
// document 0.
func (b *Builder) NumDocuments() int { return len(b.paths) }

// NumTrigrams returns the number of distinct trigrams with at least one
// committed posting.
func (b *Builder) NumTrigrams() int { return b.trigrams.Len() }

// Uncommitted returns the number of distinct trigrams staged for the
// in-flight document.
func (b *Builder) Uncommitted() int { return b.uncommitted.Len() }

// Begin stages a new document. Only one document may be in flight.
func (b *Builder) Begin(path string) {
	if b.staged {
		panic(fmt.Sprintf("index: Begin(%q) while %q is uncommitted", path, b.path))
	}
	if strings.IndexByte(path, 0) >= 0 {
		panic(fmt.Sprintf("index: path %q contains NUL", path))
	}
	b.staged = true
	b.path = path
}

// Add records a trigram for the in-flight document.
func (b *Builder) Add(t trigram.Trigram) {
	b.AddID(trigram.Encode(t))
}

// AddID records an encoded trigram for the in-flight document.
func (b *Builder) AddID(id uint32) {
	b.uncommitted.Add(id)
}

// AddText records every trigram of text for the in-flight document.
func (b *Builder) AddText(text []byte) {
	it := trigram.NewIter(text)
	for {
		t, ok := it.Next()
		if !ok {
			return
		}
		b.uncommitted.Add(trigram.Encode(t))
	}
}

// Commit assigns the in-flight document the next id and appends it to the
// posting list of every staged trigram.
func (b *Builder) Commit() uint32 {
	if !b.staged {
		panic("index: Commit without Begin")
	}
	if uint64(len(b.paths)) > math.MaxUint32 {
		panic("index: document id space exhausted")
	}
	id := uint32(len(b.paths))
	b.paths = append(b.paths, b.path)
	for _, it := range b.uncommitted.Items() {
		b.appendPosting(it.Value, id)
	}
	b.uncommitted.Reset()
	b.staged = false
	b.path = ""
	return id
}

// Rollback discards the in-flight document.
func (b *Builder) Rollback() {
	b.uncommitted.Reset()
	b.staged = false
	b.path = ""
}

func (b *Builder) appendPosting(tri, doc uint32) {
	slot, ok := b.trigrams.Get(tri)
	if !ok {
		slot = uint32(len(b.postings))
		b.trigrams.AddWithData(tri, slot)
		b.postings = append(b.postings, posting{})
	}
	p := &b.postings[slot]
	p.data = appendVarint(p.data, doc-p.last)
	p.last = doc
}

// Merge imports every document and posting of ix. Document ids of ix are
// shifted by the number of documents already in the builder.
func (b *Builder) Merge(ix *Index) error {
	offset := uint64(len(b.paths) - 1)
	incoming := uint64(ix.NumDocuments() - 1)
	if offset+incoming > math.MaxUint32 {
		return fmt.Errorf("%w: merging %d documents into %d", ErrTooManyDocuments, incoming, offset)
	}

	paths := make([]string, 0, incoming)
	for id := uint32(1); uint64(id) <= incoming; id++ {
		p, err := ix.DocumentPath(id)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}
	b.paths = append(b.paths, paths...)

	shift := uint32(offset)
	for i := 0; i < ix.NumTrigrams(); i++ {
		d := ix.descriptor(i)
		it := ix.postingsAt(d)
		for doc, ok := it.Next(); ok; doc, ok = it.Next() {
			b.appendPosting(d.ID, doc+shift)
		}
	}
	return nil
}

// encode lays out the full index image.
func (b *Builder) encode() ([]byte, error) {
	size := HeaderSize + len(b.paths)*4 + b.trigrams.Len()*DescriptorSize + 4*Alignment
	for _, p := range b.paths {
		size += len(p) + 1
	}
	for _, p := range b.postings {
		size += len(p.data)
	}
	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	var h Header
	buf := make([]byte, HeaderSize, size)
	buf = pad(buf)

	positions := make([]uint32, len(b.paths))
	blobStart := len(buf)
	for i := 1; i < len(b.paths); i++ {
		positions[i] = uint32(len(buf))
		buf = append(buf, b.paths[i]...)
		buf = append(buf, 0)
	}
	h.DocumentsBytes = uint32(len(buf) - blobStart)
	buf = pad(buf)

	h.NumDocuments = uint32(len(b.paths))
	h.Documents = uint32(len(buf))
	for _, pos := range positions {
		buf = binary.LittleEndian.AppendUint32(buf, pos)
	}
	buf = pad(buf)

	ids := b.trigrams.Values()
	slices.Sort(ids)
	descriptors := make([]Descriptor, 0, len(ids))
	h.TrigramsData = uint32(len(buf))
	for _, id := range ids {
		slot, _ := b.trigrams.Get(id)
		start := uint32(len(buf))
		buf = append(buf, b.postings[slot].data...)
		descriptors = append(descriptors, Descriptor{ID: id, Start: start, End: uint32(len(buf))})
	}
	h.TrigramsDataBytes = uint32(len(buf)) - h.TrigramsData
	buf = pad(buf)

	h.NumTrigrams = uint32(len(descriptors))
	h.Trigrams = uint32(len(buf))
	for _, d := range descriptors {
		buf = appendDescriptor(buf, d)
	}
	h.TrigramsBytes = uint32(len(buf)) - h.Trigrams
	buf = pad(buf)

	copy(buf, h.Encode(nil))
	return buf, nil
}

// Bytes returns the serialized index.
func (b *Builder) Bytes() ([]byte, error) {
	return b.encode()
}

// WriteTo serializes the index to w. The builder is left unchanged and may
// keep accepting documents afterwards.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	buf, err := b.encode()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, bytes.NewReader(buf))
	return n, err
}

// WriteFile atomically replaces filename with the serialized index.
func (b *Builder) WriteFile(filename string) error {
	buf, err := b.encode()
	if err != nil {
		return err
	}

	tmpPath := filename + ".tmp"
	f, err := b.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		b.fs.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		b.fs.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		b.fs.Remove(tmpPath)
		return err
	}
	if err := b.fs.Rename(tmpPath, filename); err != nil {
		b.fs.Remove(tmpPath)
		return err
	}
	return nil
}

type aborter interface {
	Abort() error
}

// WriteBlob uploads the serialized index to store under name.
func (b *Builder) WriteBlob(ctx context.Context, store blobstore.BlobStore, name string) error {
	buf, err := b.encode()
	if err != nil {
		return err
	}
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		if a, ok := w.(aborter); ok {
			return errors.Join(err, a.Abort())
		}
		w.Close()
		return err
	}
	return w.Close()
}
