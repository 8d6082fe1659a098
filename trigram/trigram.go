// Package trigram encodes 3-codepoint windows of text as 24-bit integers.
//
// Every codepoint is folded to its low 8 bits before encoding, so the id
// space is exactly 2^24 and fits the posting tables of package index.
// Whitespace is replaced by Placeholder for the trigram value only; the text
// itself is never modified.
package trigram

import (
	"fmt"
	"iter"
	"unicode"
	"unicode/utf8"
)

// Placeholder replaces whitespace codepoints inside a trigram.
const Placeholder = '_'

// MaxID is the largest encodable trigram id.
const MaxID = 1<<24 - 1

// Cardinality is the size of the trigram id space.
const Cardinality = MaxID + 1

// Trigram is a window of three folded codepoints.
type Trigram struct {
	X, Y, Z rune
}

// Encode packs t into a 24-bit id.
func Encode(t Trigram) uint32 {
	return uint32(t.X&0xFF)<<16 | uint32(t.Y&0xFF)<<8 | uint32(t.Z&0xFF)
}

// Decode unpacks an id produced by Encode.
func Decode(id uint32) Trigram {
	return Trigram{
		X: rune(id>>16) & 0xFF,
		Y: rune(id>>8) & 0xFF,
		Z: rune(id) & 0xFF,
	}
}

// ID is shorthand for Encode(t).
func (t Trigram) ID() uint32 { return Encode(t) }

func (t Trigram) String() string {
	return fmt.Sprintf("%c%c%c", t.X, t.Y, t.Z)
}

// Fold normalizes a single codepoint the way the iterator does.
func Fold(r rune) rune {
	if unicode.IsSpace(r) {
		return Placeholder
	}
	return r & 0xFF
}

// Iter walks the trigrams of a byte slice.
//
// It keeps a two-codepoint lookahead so every call to Next is O(1).
// Iteration stops at the end of input or at the first invalid UTF-8
// sequence. NUL bytes are ordinary content.
type Iter struct {
	text []byte
	pos  int
	prev [2]rune
	done bool
}

// NewIter returns an iterator positioned before the first trigram of text.
func NewIter(text []byte) *Iter {
	it := &Iter{text: text}
	for i := range it.prev {
		r, ok := it.read()
		if !ok {
			it.done = true
			break
		}
		it.prev[i] = r
	}
	return it
}

func (it *Iter) read() (rune, bool) {
	if it.pos >= len(it.text) {
		return 0, false
	}
	r, size := utf8.DecodeRune(it.text[it.pos:])
	if r == utf8.RuneError && size <= 1 {
		return 0, false
	}
	it.pos += size
	return Fold(r), true
}

// Next returns the next trigram, or false once the input is exhausted.
func (it *Iter) Next() (Trigram, bool) {
	if it.done {
		return Trigram{}, false
	}
	r, ok := it.read()
	if !ok {
		it.done = true
		return Trigram{}, false
	}
	t := Trigram{X: it.prev[0], Y: it.prev[1], Z: r}
	it.prev[0], it.prev[1] = it.prev[1], r
	return t, true
}

// All yields every trigram of text in order, duplicates included.
func All(text []byte) iter.Seq[Trigram] {
	return func(yield func(Trigram) bool) {
		it := NewIter(text)
		for {
			t, ok := it.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// IDs returns the encoded ids of every trigram in text, duplicates included.
func IDs(text []byte) []uint32 {
	var ids []uint32
	for t := range All(text) {
		ids = append(ids, Encode(t))
	}
	return ids
}
