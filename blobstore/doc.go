// Package blobstore abstracts where index images and document contents are
// stored.
//
// # Implementations
//
//   - LocalStore: a directory on the local file system, opened with mmap
//   - MemoryStore: in-process map, for tests
//   - CachingStore: block cache in front of any other store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Blobs are immutable once written. Readers that support memory mapping
// implement Mappable so indexes can be opened without copying.
package blobstore
