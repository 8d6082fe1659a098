package cache

import "context"

// Key identifies one cached block.
type Key struct {
	// Path is the blob name.
	Path string
	// Block is the block number within the blob.
	Block uint64
}

// BlockCache caches immutable blocks. Returned slices must be treated as
// read-only.
type BlockCache interface {
	Get(ctx context.Context, key Key) ([]byte, bool)
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes every entry matching pred.
	Invalidate(pred func(Key) bool)
	Stats() (hits, misses int64)
	Close() error
}
