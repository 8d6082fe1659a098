// Package index implements the trigram inverted index: a Builder that
// serializes documents into a compact binary image and an Index that reads
// such an image directly from memory.
//
// The image is validated once when it is opened; after that every accessor
// trusts the layout and never fails.
//
// # Binary layout
//
// All integers are little-endian u32 and every section starts on an 8-byte
// boundary:
//
//	+---------------------------+ 0
//	| Header (36 bytes)         |
//	+---------------------------+ 40
//	| path blob                 |  NUL-terminated document paths
//	+---------------------------+ Header.Documents
//	| document table            |  n_documents x u32 path offsets, entry 0 = 0
//	+---------------------------+ Header.TrigramsData
//	| posting blob              |  delta-encoded LEB128 document ids
//	+---------------------------+ Header.Trigrams
//	| descriptor table          |  (trigram id, start, end) sorted by id
//	+---------------------------+
//
// Document id 0 is reserved; real documents are numbered from 1 in commit
// order, which keeps every posting list strictly ascending.
package index
