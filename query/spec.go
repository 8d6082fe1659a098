package query

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/hupe1980/codeindex/sparse"
	"github.com/hupe1980/codeindex/trigram"
)

// Spec is a predicate over document contents.
type Spec interface {
	// Matches reports whether the document satisfies the predicate.
	Matches(path string, data []byte) bool
	// CollectTrigrams adds the trigram ids every matching document must
	// contain.
	CollectTrigrams(set *sparse.Set)
	String() string
}

// Contains matches documents holding needle as a raw byte substring. NUL
// bytes in either side are compared like any other byte.
func Contains(needle string) Spec {
	return containsSpec{needle: []byte(needle)}
}

type containsSpec struct {
	needle []byte
}

func (s containsSpec) Matches(_ string, data []byte) bool {
	return bytes.Contains(data, s.needle)
}

func (s containsSpec) CollectTrigrams(set *sparse.Set) {
	for t := range trigram.All(s.needle) {
		set.Add(t.ID())
	}
}

func (s containsSpec) String() string {
	return "contains(" + strconv.Quote(string(s.needle)) + ")"
}

// And matches documents satisfying every spec.
func And(specs ...Spec) Spec {
	return andSpec(specs)
}

type andSpec []Spec

func (s andSpec) Matches(path string, data []byte) bool {
	for _, sub := range s {
		if !sub.Matches(path, data) {
			return false
		}
	}
	return true
}

func (s andSpec) CollectTrigrams(set *sparse.Set) {
	for _, sub := range s {
		sub.CollectTrigrams(set)
	}
}

func (s andSpec) String() string {
	parts := make([]string, len(s))
	for i, sub := range s {
		parts[i] = sub.String()
	}
	return "and(" + strings.Join(parts, ", ") + ")"
}
