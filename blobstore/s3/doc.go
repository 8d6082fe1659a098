// Package s3 stores index images in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "indexes/")
//
//	err = b.WriteBlob(ctx, store, "repo.idx")
//	ix, err := index.OpenBlob(ctx, store, "repo.idx")
//
// Reads use ranged GETs, writes stream through multipart uploads with CRC32C
// checksums. Catalog adds a DynamoDB table recording which image is current.
package s3
