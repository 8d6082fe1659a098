// Package crawl feeds a directory tree into an index.Builder.
//
// Files are read and split into trigrams by a bounded set of workers while
// a single goroutine commits them to the builder, in walk order. Walk skips
// .git directories, paths matched by the root .gitignore or extra ignore
// patterns, non-regular files and files above the size limit.
//
//	b := index.NewBuilder()
//	stats, err := crawl.Walk(ctx, "./src", b, crawl.WithMaxFileSize(4<<20))
//	if err != nil {
//		return err
//	}
//	err = b.WriteFile("src.idx")
package crawl
