package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/codeindex/codec"
	"github.com/hupe1980/codeindex/index"
)

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

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

func lines(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

func TestBuildSearchStatMerge(t *testing.T) {
	t.Chdir(t.TempDir())
	src := writeTree(t, map[string]string{
		"a.txt":    "hello world",
		"b.txt":    "goodbye world",
		"skip.log": "hello log",
		"sub/c.go": "package sub // hello",
	})
	other := writeTree(t, map[string]string{"d.txt": "brave new world"})
	slash := filepath.ToSlash(src)

	code, stdout, stderr := runCmd(t, "build", "-o", "src.idx", "-ignore", "*.log", src)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "src.idx: 3 documents")

	code, _, stderr = runCmd(t, "build", "-o", "other.idx", other)
	require.Equal(t, 0, code, stderr)

	t.Run("contains", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "search", "-i", "src.idx", "hello")
		require.Equal(t, 0, code, stderr)
		assert.ElementsMatch(t, []string{slash + "/a.txt", slash + "/sub/c.go"}, lines(stdout))
	})

	t.Run("regex and glob", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "search", "-regex", "-glob", "*.txt", "-i", "src.idx", `(hello|goodbye) world`)
		require.Equal(t, 0, code, stderr)
		assert.ElementsMatch(t, []string{slash + "/a.txt", slash + "/b.txt"}, lines(stdout))
	})

	t.Run("several indexes as json", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "search", "-json", "-i", "src.idx", "-i", "other.idx", "world")
		require.Equal(t, 0, code, stderr)

		var got []string
		for _, line := range lines(stdout) {
			var m match
			require.NoError(t, codec.Default.Unmarshal([]byte(line), &m))
			got = append(got, filepath.Base(m.Index)+":"+filepath.Base(m.Path))
		}
		assert.ElementsMatch(t, []string{"src.idx:a.txt", "src.idx:b.txt", "other.idx:d.txt"}, got)
	})

	t.Run("stat json", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "stat", "-json", "src.idx")
		require.Equal(t, 0, code, stderr)

		var s index.Stat
		require.NoError(t, codec.Default.Unmarshal([]byte(stdout), &s))
		assert.Equal(t, "src.idx", s.Name)
		assert.Equal(t, 3, s.NumDocuments)
		assert.Positive(t, s.NumTrigrams)
	})

	t.Run("stat table", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "stat", "src.idx", "other.idx")
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "DOCUMENTS")
		assert.Contains(t, stdout, "other.idx")
	})

	t.Run("merge", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "merge", "-o", "all.idx", "src.idx", "other.idx")
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "all.idx: 4 documents from 2 indexes")

		code, stdout, stderr = runCmd(t, "search", "-i", "all.idx", "world")
		require.Equal(t, 0, code, stderr)
		assert.Len(t, lines(stdout), 3)
	})
}

func TestMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	metrics := filepath.Join(dir, "codeindex.prom")
	t.Setenv("CODEINDEX_METRICS", metrics)

	src := writeTree(t, map[string]string{"a.txt": "hello world"})
	code, _, stderr := runCmd(t, "build", "-o", "a.idx", src)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "codeindex_build_duration_seconds")
	assert.Contains(t, string(data), "codeindex_indexed_documents 1")
}

func TestUsageErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	code, _, stderr := runCmd(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: codeindex")

	code, _, _ = runCmd(t, "frobnicate")
	assert.Equal(t, 2, code)

	code, _, stderr = runCmd(t, "search", "needle")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: codeindex search")

	code, _, _ = runCmd(t, "build", "-no-such-flag", ".")
	assert.Equal(t, 2, code)

	code, _, stderr = runCmd(t, "search", "-i", "missing.idx", "needle")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "open index missing.idx")

	code, _, stderr = runCmd(t, "search", "-regex", "-i", "missing.idx", "(")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "codeindex search")

	code, _, stderr = runCmd(t, "publish", "x.idx")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "x.idx")
}
