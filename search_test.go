package codeindex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/codeindex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenIndexes(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.idx")
	b := index.NewBuilder()
	b.Begin("a.txt")
	b.AddText([]byte("hello"))
	b.Commit()
	require.NoError(t, b.WriteFile(good))

	bad := filepath.Join(dir, "bad.idx")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not an index, but long enough for a header"), 0o644))

	indexes, err := OpenIndexes([]string{good, good})
	require.NoError(t, err)
	assert.Len(t, indexes, 2)
	require.NoError(t, CloseIndexes(indexes))

	_, err = OpenIndexes([]string{good, bad})
	var oerr *OpenError
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, bad, oerr.Path)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Contains(t, err.Error(), "bad.idx")

	_, err = OpenIndexes([]string{filepath.Join(dir, "missing.idx")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
