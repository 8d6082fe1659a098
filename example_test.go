package codeindex_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/hupe1980/codeindex"
	"github.com/hupe1980/codeindex/crawl"
	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/query"
)

// memoryIndex builds an index whose documents are served from files.
func memoryIndex(files map[string]string) *index.Index {
	b := index.NewBuilder()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.Begin(name)
		b.AddText([]byte(files[name]))
		b.Commit()
	}
	data, err := b.Bytes()
	if err != nil {
		log.Fatal(err)
	}
	ix, err := index.OpenBytes(data, index.WithDocumentLoader(index.LoaderFunc(
		func(_ context.Context, path string) ([]byte, error) {
			return []byte(files[path]), nil
		},
	)))
	if err != nil {
		log.Fatal(err)
	}
	return ix
}

// Example_search demonstrates a substring search over an in-memory index.
func Example_search() {
	ix := memoryIndex(map[string]string{
		"a.txt": "hello world",
		"b.txt": "goodbye world",
	})
	defer ix.Close()

	results, err := codeindex.Search(context.Background(), query.Contains("world"), []*index.Index{ix})
	if err != nil {
		log.Fatal(err)
	}
	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.Path
	}
	sort.Strings(paths)
	fmt.Println(paths)
	// Output: [a.txt b.txt]
}

// Example_regex demonstrates a regular expression search restricted to Go
// files.
func Example_regex() {
	ix := memoryIndex(map[string]string{
		"main.go":   "func main() { run() }",
		"run.go":    "func run() {}",
		"README.md": "func main() is the entry point",
	})
	defer ix.Close()

	spec, err := query.Regex(`func main\(\)`)
	if err != nil {
		log.Fatal(err)
	}
	results, err := codeindex.Search(context.Background(), spec, []*index.Index{ix},
		codeindex.WithDocumentFilter(index.GlobFilter("*.go")))
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		fmt.Println(r.Path)
	}
	// Output: main.go
}

// Example_subscribe demonstrates streaming results while a search runs.
func Example_subscribe() {
	ix := memoryIndex(map[string]string{"only.txt": "needle"})
	defer ix.Close()

	rs := codeindex.NewResultSet(query.Contains("needle"), []*index.Index{ix})
	defer rs.Close()

	rs.Subscribe(func(ev codeindex.Event) {
		switch ev.Kind {
		case codeindex.EventInserted:
			for i := ev.Position; i < ev.Position+ev.Count; i++ {
				fmt.Println("match:", rs.At(i).Path)
			}
		case codeindex.EventCountChanged:
			fmt.Println("total:", ev.Count)
		}
	})
	if err := rs.Populate(context.Background()); err != nil {
		log.Fatal(err)
	}
	fmt.Println(rs.State())
	// Output:
	// match: only.txt
	// total: 1
	// populated
}

// Example_crawl demonstrates indexing a directory and reopening the index
// from disk.
func Example_crawl() {
	dir, err := os.MkdirTemp("", "codeindex-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "main.go"), []byte("package main // TODO: ship it"), 0o644); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	b := index.NewBuilder()
	stats, err := crawl.Walk(ctx, src, b)
	if err != nil {
		log.Fatal(err)
	}
	filename := filepath.Join(dir, "src.idx")
	if err := b.WriteFile(filename); err != nil {
		log.Fatal(err)
	}

	indexes, err := codeindex.OpenIndexes([]string{filename})
	if err != nil {
		log.Fatal(err)
	}
	defer codeindex.CloseIndexes(indexes)

	results, err := codeindex.Search(ctx, query.Contains("TODO"), indexes)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(stats.Files, len(results), filepath.Base(results[0].Path))
	// Output: 1 1 main.go
}
