package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobFilter(t *testing.T) {
	tests := []struct {
		patterns []string
		path     string
		want     bool
	}{
		{[]string{"*.go"}, "cmd/main.go", true},
		{[]string{"*.go"}, "README.md", false},
		{[]string{"cmd/*.go"}, "cmd/main.go", true},
		{[]string{"cmd/*.go"}, "internal/cmd/main.go", false},
		{[]string{"*.md", "*.go"}, "README.md", true},
		{[]string{"[", "*.go"}, "x.go", true},
		{[]string{"["}, "[", false},
		{nil, "x.go", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GlobFilter(tt.patterns...)(tt.path), "%v %s", tt.patterns, tt.path)
	}
}

func TestSelect(t *testing.T) {
	ix := open(t, build(t,
		"cmd/main.go", "package main",
		"README.md", "# readme",
		"internal/util.go", "package internal",
	))

	bm := ix.Select(GlobFilter("*.go"))
	assert.Equal(t, []uint32{1, 3}, bm.ToArray())

	assert.True(t, ix.Select(func(string) bool { return false }).IsEmpty())
	assert.Equal(t, uint64(3), ix.Select(func(string) bool { return true }).GetCardinality())
}
