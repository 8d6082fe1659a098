// Package fs abstracts the file system operations used when writing index
// files, so tests can inject failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailOnSync: true})
//	b := index.NewBuilder(index.WithFileSystem(ffs))
package fs
