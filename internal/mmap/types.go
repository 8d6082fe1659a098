package mmap

import "errors"

// AccessPattern is a paging hint passed to Advise.
type AccessPattern int

const (
	// AccessDefault removes any previous hint.
	AccessDefault AccessPattern = iota
	// AccessSequential favours read-ahead.
	AccessSequential
	// AccessRandom disables read-ahead; used for posting lookups.
	AccessRandom
	// AccessWillNeed prefetches the mapping.
	AccessWillNeed
)

var (
	// ErrClosed is returned by methods called after Close.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files that cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned by ReadAt for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
