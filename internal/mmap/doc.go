// Package mmap maps index files read-only into memory.
//
//	m, err := mmap.Open("repo.idx")
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.AccessRandom)
//	data := m.Bytes()
//
// On Unix the mapping uses mmap(2) and madvise(2); on Windows
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// Bytes must not be used after Close. Close is idempotent.
package mmap
