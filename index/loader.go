package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/codeindex/blobstore"
	"github.com/hupe1980/codeindex/internal/compression"
)

// DocumentLoader fetches the current contents of an indexed document.
// Implementations must be safe for concurrent use.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// LoaderFunc adapts a function to DocumentLoader.
type LoaderFunc func(ctx context.Context, path string) ([]byte, error)

// Load implements DocumentLoader.
func (f LoaderFunc) Load(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// FileLoader reads documents from the local file system. Relative paths are
// resolved against Root when it is set.
type FileLoader struct {
	Root string
}

// Load implements DocumentLoader.
func (l FileLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}
	return os.ReadFile(path)
}

// BlobLoader reads documents from a blob store, using the document path as
// the blob name.
type BlobLoader struct {
	Store blobstore.BlobStore
}

// Load implements DocumentLoader.
func (l BlobLoader) Load(ctx context.Context, path string) ([]byte, error) {
	blob, err := l.Store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// The mapping dies with the blob.
		return append([]byte(nil), data...), nil
	}
	if blob.Size() == 0 {
		return []byte{}, nil
	}
	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DecompressingLoader inflates documents whose path ends in ".zst" or
// ".lz4" after loading them through Inner.
type DecompressingLoader struct {
	Inner DocumentLoader
}

// Load implements DocumentLoader.
func (l DecompressingLoader) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := l.Inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	var out []byte
	switch {
	case strings.HasSuffix(path, ".zst"):
		out, err = compression.Decompress(compression.Zstd, data)
	case strings.HasSuffix(path, ".lz4"):
		out, err = compression.Decompress(compression.LZ4, data)
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}

type loaderBox struct {
	l DocumentLoader
}

// SetDocumentLoader replaces the loader used by LoadDocument. A nil loader
// restores the default FileLoader.
func (ix *Index) SetDocumentLoader(l DocumentLoader) {
	if l == nil {
		l = FileLoader{}
	}
	ix.loader.Store(&loaderBox{l: l})
}

// DocumentLoader returns the current loader.
func (ix *Index) DocumentLoader() DocumentLoader {
	return ix.loader.Load().l
}

// LoadDocumentPath loads path through the index's loader.
func (ix *Index) LoadDocumentPath(ctx context.Context, path string) ([]byte, error) {
	return ix.DocumentLoader().Load(ctx, path)
}

// LoadDocument loads the contents of document id.
func (ix *Index) LoadDocument(ctx context.Context, id uint32) ([]byte, error) {
	path, err := ix.DocumentPath(id)
	if err != nil {
		return nil, err
	}
	return ix.LoadDocumentPath(ctx, path)
}
