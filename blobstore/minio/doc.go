// Package minio stores index images in MinIO or any other S3-compatible
// object store (Ceph, Garage, SeaweedFS) without pulling in the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "code", "indexes/")
//	ix, err := index.OpenBlob(ctx, store, "repo.idx")
package minio
