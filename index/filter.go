package index

import (
	"path"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Select returns the ids of every document whose path satisfies keep.
func (ix *Index) Select(keep func(path string) bool) *roaring.Bitmap {
	bm := roaring.New()
	for id := uint32(1); id < ix.header.NumDocuments; id++ {
		p, _ := ix.DocumentPath(id)
		if keep(p) {
			bm.Add(id)
		}
	}
	bm.RunOptimize()
	return bm
}

// GlobFilter returns a predicate matching paths against any of the given
// path.Match patterns. A pattern without a slash is matched against the
// base name only. Malformed patterns never match.
func GlobFilter(patterns ...string) func(string) bool {
	return func(p string) bool {
		for _, pat := range patterns {
			target := p
			if !strings.Contains(pat, "/") {
				target = path.Base(p)
			}
			if ok, err := path.Match(pat, target); err == nil && ok {
				return true
			}
		}
		return false
	}
}
