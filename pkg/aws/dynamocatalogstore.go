package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
)

// The catalog table holds exactly one logical row under this fixed composite
// key, so every rebuild overwrites the same item.
const (
	catalogPartitionKey = "all_videos"
	catalogSortKey      = "current"
)

// DynamoCatalogStore implements the CatalogStore interface on dynamodb
type DynamoCatalogStore struct {
	tableName      string
	dynamoDbClient *dynamodb.Client
}

// NewDynamoCatalogStore returns a CatalogStore connected to a AWS DynamoDB table
func NewDynamoCatalogStore(cfg aws.Config, tableName string, opts ...func(*dynamodb.Options)) *DynamoCatalogStore {
	return &DynamoCatalogStore{
		tableName:      tableName,
		dynamoDbClient: dynamodb.NewFromConfig(cfg, opts...),
	}
}

type catalogItem struct {
	VideoList   string `dynamodbav:"videoList"`
	Date        string `dynamodbav:"Date"`
	Videos      string `dynamodbav:"videos"`
	LastUpdated string `dynamodbav:"lastUpdated"`
	PlaylistKey string `dynamodbav:"playlistKey,omitempty"`
}

func catalogItemKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"videoList": &types.AttributeValueMemberS{Value: catalogPartitionKey},
		"Date":      &types.AttributeValueMemberS{Value: catalogSortKey},
	}
}

// Get implements catalogstore.CatalogStore.
func (d *DynamoCatalogStore) Get(ctx context.Context) (catalogstore.Record, error) {
	response, err := d.dynamoDbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       catalogItemKey(),
	})
	if err != nil {
		return catalogstore.Record{}, fmt.Errorf("getting catalog item: %w", err)
	}
	if len(response.Item) == 0 {
		return catalogstore.Record{}, store.ErrNotFound
	}

	var item catalogItem
	if err := attributevalue.UnmarshalMap(response.Item, &item); err != nil {
		return catalogstore.Record{}, fmt.Errorf("parsing catalog item: %w", err)
	}

	var videos []catalogstore.Video
	if err := json.Unmarshal([]byte(item.Videos), &videos); err != nil {
		return catalogstore.Record{}, fmt.Errorf("parsing video list: %w", err)
	}
	lastUpdated, err := time.Parse(time.RFC3339Nano, item.LastUpdated)
	if err != nil {
		return catalogstore.Record{}, fmt.Errorf("parsing last updated timestamp: %w", err)
	}

	return catalogstore.Record{
		Videos:      videos,
		LastUpdated: lastUpdated,
		PlaylistKey: item.PlaylistKey,
	}, nil
}

// Put implements catalogstore.CatalogStore. The write is a full overwrite -
// concurrent rebuilds are resolved last-writer-wins with no version counter.
func (d *DynamoCatalogStore) Put(ctx context.Context, rec catalogstore.Record) error {
	videos, err := json.Marshal(rec.Videos)
	if err != nil {
		return fmt.Errorf("serializing video list: %w", err)
	}
	item, err := attributevalue.MarshalMap(catalogItem{
		VideoList:   catalogPartitionKey,
		Date:        catalogSortKey,
		Videos:      string(videos),
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
		PlaylistKey: rec.PlaylistKey,
	})
	if err != nil {
		return fmt.Errorf("serializing item: %w", err)
	}
	_, err = d.dynamoDbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName), Item: item,
	})
	if err != nil {
		return fmt.Errorf("storing item: %w", err)
	}
	return nil
}

var _ catalogstore.CatalogStore = (*DynamoCatalogStore)(nil)
