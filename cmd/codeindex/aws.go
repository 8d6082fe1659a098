package main

import (
	"context"
	"errors"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/codeindex/blobstore"
	s3store "github.com/hupe1980/codeindex/blobstore/s3"
	"github.com/hupe1980/codeindex/index"
	"github.com/hupe1980/codeindex/internal/cache"
)

// indexCacheBytes bounds the block cache used while downloading an index.
const indexCacheBytes = 256 << 20

type remote struct {
	store   *s3store.Store
	catalog *s3store.Catalog
}

// remote connects to the bucket and catalog table from the configuration.
// The catalog is nil when no table is configured.
func (a *app) remote(ctx context.Context) (*remote, error) {
	s := a.cfg.S3
	if s.Bucket == "" {
		return nil, errors.New("no bucket configured (s3.bucket or -bucket)")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	r := &remote{
		store: s3store.NewStore(awss3.NewFromConfig(awsCfg), s.Bucket, s.Prefix),
	}
	if s.Table != "" {
		r.catalog = s3store.NewCatalog(dynamodb.NewFromConfig(awsCfg), s.Table, baseURI(s.Bucket, s.Prefix))
	}
	return r, nil
}

func baseURI(bucket, prefix string) string {
	return "s3://" + path.Join(bucket, prefix)
}

// openCurrent downloads the published index. Blocks are fetched in
// parallel through a caching store.
func (a *app) openCurrent(ctx context.Context, optFns ...index.Option) (*index.Index, error) {
	r, err := a.remote(ctx)
	if err != nil {
		return nil, err
	}
	if r.catalog == nil {
		return nil, errors.New("no catalog table configured (s3.table)")
	}
	entry, err := r.catalog.Current(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "opening published index", "name", entry.Name, "version", entry.Version)

	bc := cache.NewLRUBlockCache(indexCacheBytes, nil)
	defer bc.Close()
	store := blobstore.NewCachingStore(r.store, bc, 0)
	return index.OpenBlob(ctx, store, entry.Name, optFns...)
}
