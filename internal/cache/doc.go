// Package cache provides a byte-bounded LRU cache for immutable blob blocks.
//
// CachingStore in package blobstore keys blocks by blob name and block
// number. When a resource.Controller is supplied, cached bytes are also
// charged against its memory budget.
package cache
