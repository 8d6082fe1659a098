package crawl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/internal/fs"
	"github.com/hupe1980/codeindex/trigram"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func documents(t *testing.T, b *index.Builder) []string {
	t.Helper()
	data, err := b.Bytes()
	require.NoError(t, err)
	ix, err := index.OpenBytes(data)
	require.NoError(t, err)
	defer ix.Close()

	var out []string
	for id := uint32(1); id < uint32(ix.NumDocuments()); id++ {
		p, err := ix.DocumentPath(id)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":        "*.log\nvendor/\n",
		"main.go":           "package main\n\nfunc main() {}\n",
		"internal/a.go":     "package internal // alpha",
		"internal/b.go":     "package internal // beta",
		"debug.log":         "noise",
		"vendor/dep/dep.go": "package dep",
		".git/HEAD":         "ref: refs/heads/main",
		"big.txt":           string(make([]byte, 64)),
	})

	b := index.NewBuilder()
	stats, err := Walk(context.Background(), root, b, WithMaxFileSize(32), WithWorkers(3))
	require.NoError(t, err)

	slash := filepath.ToSlash(root)
	assert.Equal(t, []string{
		slash + "/.gitignore",
		slash + "/internal/a.go",
		slash + "/internal/b.go",
		slash + "/main.go",
	}, documents(t, b))
	assert.Equal(t, 4, stats.Files)
	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, stats.Failed)
}

func TestWalk_Postings(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "hello world",
		"b.txt": "goodbye world",
	})

	b := index.NewBuilder()
	_, err := Walk(context.Background(), root, b)
	require.NoError(t, err)

	data, err := b.Bytes()
	require.NoError(t, err)
	ix, err := index.OpenBytes(data)
	require.NoError(t, err)
	defer ix.Close()

	var ids []uint32
	for _, s := range []string{"wor", "orl", "rld"} {
		ids = append(ids, trigram.Encode(trigram.Trigram{X: rune(s[0]), Y: rune(s[1]), Z: rune(s[2])}))
	}
	var docs []uint32
	for id := range ix.Candidates(ids, nil) {
		docs = append(docs, id)
	}
	assert.Equal(t, []uint32{1, 2}, docs)

	it, ok := ix.Postings(trigram.Trigram{X: 'h', Y: 'e', Z: 'l'})
	require.True(t, ok)
	id, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestWalk_IgnorePatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.go":          "package keep",
		"gen/types.pb.go":  "package gen",
		"gen/manual.go":    "package gen",
		"testdata/big.bin": "xxxx",
	})

	b := index.NewBuilder()
	_, err := Walk(context.Background(), root, b, WithIgnorePatterns("*.pb.go", "testdata/"))
	require.NoError(t, err)

	slash := filepath.ToSlash(root)
	assert.Equal(t, []string{slash + "/gen/manual.go", slash + "/keep.go"}, documents(t, b))
}

func TestWalk_ReadFailure(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok.go":     "package ok",
		"broken.go": "package broken",
	})

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("broken.go", fs.Fault{FailOnOpen: true})

	b := index.NewBuilder()
	stats, err := Walk(context.Background(), root, b, WithFileSystem(ffs))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{filepath.ToSlash(root) + "/ok.go"}, documents(t, b))
}

func TestWalk_MissingRoot(t *testing.T) {
	b := index.NewBuilder()
	_, err := Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), b)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWalk_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := index.NewBuilder()
	_, err := Walk(ctx, root, b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, b.NumDocuments())
}
