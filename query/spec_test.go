package query

import (
	"sort"
	"testing"

	"github.com/hupe1980/codeindex/trigram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(texts ...string) []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for _, text := range texts {
		for _, id := range trigram.IDs([]byte(text)) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sorted(v []uint32) []uint32 {
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	return v
}

func TestContains(t *testing.T) {
	s := Contains("world")
	assert.True(t, s.Matches("a.txt", []byte("hello world")))
	assert.False(t, s.Matches("a.txt", []byte("hello")))

	nul := Contains("b\x00c")
	assert.True(t, nul.Matches("bin", []byte("a\x00b\x00c\x00d")))
	assert.False(t, nul.Matches("bin", []byte("a\x00bc")))

	assert.Equal(t, ids("world"), sorted(New(s).Trigrams()))
	assert.Empty(t, New(Contains("ab")).Trigrams())
	assert.Equal(t, `contains("world")`, s.String())
}

func TestAnd(t *testing.T) {
	s := And(Contains("hello"), Contains("world"))
	assert.True(t, s.Matches("", []byte("hello, world")))
	assert.False(t, s.Matches("", []byte("hello")))
	assert.Equal(t, ids("hello", "world"), sorted(New(s).Trigrams()))
	assert.Equal(t, `and(contains("hello"), contains("world"))`, s.String())
}

func TestRegex_RequiredLiterals(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{`hello`, []string{"hello"}},
		{`hello.*world`, []string{"hello", "world"}},
		{`(hello) world`, []string{"hello world"}},
		{`func\s+main`, []string{"func", "main"}},
		{`(?:abc)+`, []string{"abc"}},
		{`(abcd){2,}`, []string{"abcd", "abcd"}},
		{`(?i)hello`, nil},
		{`foo|bar`, nil},
		{`(hello)?`, nil},
		{`a*`, nil},
		{`^package main$`, []string{"package main"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s, err := Regex(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.(*regexSpec).required)
		})
	}
}

func TestRegex_Matches(t *testing.T) {
	s := MustRegex(`hel+o\s+w.rld`)
	assert.True(t, s.Matches("", []byte("say helllo  world!")))
	assert.False(t, s.Matches("", []byte("hello there")))

	got := sorted(New(s).Trigrams())
	for _, id := range got {
		assert.Contains(t, ids("say helllo  world!"), id)
	}
	assert.NotEmpty(t, got)
}

func TestRegex_Invalid(t *testing.T) {
	_, err := Regex(`(`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustRegex(`(`) })
}
