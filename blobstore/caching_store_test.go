package blobstore

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/codeindex/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records backend reads of a MemoryStore.
type countingStore struct {
	*MemoryStore
	reads atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, reads: &s.reads}, nil
}

type countingBlob struct {
	Blob
	reads *atomic.Int64
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.reads.Add(1)
	return b.Blob.ReadAt(ctx, p, off)
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "doc", data))

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1<<20, nil), 256)
	blob, err := store.Open(ctx, "doc")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 300)
	n, err := blob.ReadAt(ctx, buf, 100)
	require.NoError(t, err)
	assert.Equal(t, 300, n)
	assert.Equal(t, data[100:400], buf)
	assert.Equal(t, int64(1), inner.reads.Load(), "one coalesced run for blocks 0-1")

	n, err = blob.ReadAt(ctx, buf, 50)
	require.NoError(t, err)
	assert.Equal(t, data[50:350], buf[:n])
	assert.Equal(t, int64(1), inner.reads.Load(), "served from cache")

	tail := make([]byte, 100)
	n, err = blob.ReadAt(ctx, tail, 950)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 50, n)
	assert.Equal(t, data[950:], tail[:n])

	_, err = blob.ReadAt(ctx, tail, 1000)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_ReadRangeAndInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "doc", []byte("hello world")))

	c := cache.NewLRUBlockCache(1<<20, nil)
	store := NewCachingStore(inner, c, 4)
	blob, err := store.Open(ctx, "doc")
	require.NoError(t, err)

	rc, err := blob.ReadRange(ctx, 0, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
	assert.Positive(t, c.Len())

	require.NoError(t, store.Put(ctx, "doc", []byte("HELLO")))
	assert.Zero(t, c.Len())

	data, err := ReadAll(ctx, store, "doc")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(data))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, names)

	require.NoError(t, store.Delete(ctx, "doc"))
	_, err = store.Open(ctx, "doc")
	assert.ErrorIs(t, err, ErrNotFound)
}
