package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/codeindex/blobstore"
)

// ErrConcurrentModification is returned by Publish when another writer
// published the same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by Catalog.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Entry is one published index version.
type Entry struct {
	Version     uint64
	Name        string
	PublishedAt time.Time
}

// Catalog records which index image in a bucket is current. S3 has no
// compare-and-swap, so versions are appended to a DynamoDB table with a
// conditional write.
//
// Table schema:
//   - Partition key: base_uri (string), e.g. "s3://bucket/prefix"
//   - Sort key: version (number), increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name codeindex-catalog \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client    DDBClient
	tableName string
	baseURI   string
	now       func() time.Time
}

// NewCatalog returns a catalog for the indexes stored under baseURI.
func NewCatalog(client DDBClient, tableName, baseURI string) *Catalog {
	return &Catalog{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
		now:       time.Now,
	}
}

// Current returns the latest published entry, or blobstore.ErrNotFound when
// nothing was published yet.
func (c *Catalog) Current(ctx context.Context) (Entry, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return Entry{}, blobstore.ErrNotFound
	}
	return decodeEntry(resp.Items[0])
}

// Publish makes name the current index and returns its version.
func (c *Catalog) Publish(ctx context.Context, name string) (uint64, error) {
	var version uint64 = 1
	cur, err := c.Current(ctx)
	switch {
	case err == nil:
		version = cur.Version + 1
	case !errors.Is(err, blobstore.ErrNotFound):
		return 0, err
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":     &types.AttributeValueMemberS{Value: c.baseURI},
			"version":      &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"index_name":   &types.AttributeValueMemberS{Value: name},
			"published_at": &types.AttributeValueMemberS{Value: c.now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentModification
		}
		return 0, fmt.Errorf("failed to publish version to DynamoDB: %w", err)
	}
	return version, nil
}

func decodeEntry(item map[string]types.AttributeValue) (Entry, error) {
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return Entry{}, errors.New("invalid version attribute in DynamoDB")
	}
	nameAttr, ok := item["index_name"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("invalid index_name attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse version: %w", err)
	}

	e := Entry{Version: version, Name: nameAttr.Value}
	if at, ok := item["published_at"].(*types.AttributeValueMemberS); ok {
		e.PublishedAt, _ = time.Parse(time.RFC3339, at.Value)
	}
	return e, nil
}
