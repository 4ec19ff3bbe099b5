package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcdynamodb "github.com/testcontainers/testcontainers-go/modules/dynamodb"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/vodworks/video-delivery/pkg/internal/testutil"
	"github.com/vodworks/video-delivery/pkg/service/catalog"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
)

func TestConstruct(t *testing.T) {
	ctx := context.Background()

	s3Endpoint := createS3(t)
	dynamoEndpoint := createDynamo(t)

	cfg := Config{
		Config: aws.Config{},
		S3Options: []func(*s3.Options){
			func(o *s3.Options) {
				o.Credentials = credentials.NewStaticCredentialsProvider("minioadmin", "minioadmin", "")
				o.UsePathStyle = true
				o.Region = "us-east-1"
				o.BaseEndpoint = aws.String(s3Endpoint.String())
			},
		},
		DynamoOptions: []func(*dynamodb.Options){
			func(o *dynamodb.Options) {
				o.Credentials = credentials.NewStaticCredentialsProvider("DUMMYIDEXAMPLE", "DUMMYEXAMPLEKEY", "")
				o.Region = "us-east-1"
				o.BaseEndpoint = aws.String(dynamoEndpoint.String())
			},
		},
		BucketName: fmt.Sprintf("videos-%d", time.Now().UnixMilli()),
		TableName:  fmt.Sprintf("catalog-%d", time.Now().UnixMilli()),
	}

	service, err := Construct(cfg)
	require.NoError(t, err)

	createBucket(t, cfg)
	createTable(t, cfg)

	t.Run("video store round trip", func(t *testing.T) {
		data := []byte("pretend this is video data")
		err := service.Videos().Put(ctx, "clip1.mp4", "video/mp4", int64(len(data)), bytes.NewReader(data))
		require.NoError(t, err)

		body, size, err := service.Videos().Get(ctx, "clip1.mp4")
		require.NoError(t, err)
		defer body.Close()
		require.Equal(t, int64(len(data)), size)
		require.Equal(t, data, testutil.Must(io.ReadAll(body))(t))

		objects, err := service.Videos().List(ctx)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		require.Equal(t, "clip1.mp4", objects[0].Key)
		require.Equal(t, int64(len(data)), objects[0].Size)
		require.False(t, objects[0].LastModified.IsZero())
	})

	t.Run("missing object", func(t *testing.T) {
		_, _, err := service.Videos().Get(ctx, "nope.mp4")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("presigned URLs", func(t *testing.T) {
		signer := service.Presigner()

		u, _, err := signer.SignUploadURL(ctx, "clip2.mp4", "video/mp4", 3600*time.Second)
		require.NoError(t, err)
		require.Contains(t, u.Path, "clip2.mp4")
		require.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))

		d, err := signer.SignDownloadURL(ctx, "clip1.mp4", 300*time.Second)
		require.NoError(t, err)
		require.Equal(t, "300", d.Query().Get("X-Amz-Expires"))
	})

	t.Run("catalog store", func(t *testing.T) {
		_, err := service.Catalog().Get(ctx)
		require.ErrorIs(t, err, store.ErrNotFound)

		rec := catalogstore.Record{
			Videos: []catalogstore.Video{
				{FileName: "clip1.mp4", Size: 26, UploadDate: "2024-03-01T11:59:00Z", ContentType: "video/mp4"},
			},
			LastUpdated: time.Now().UTC().Truncate(time.Millisecond),
			PlaylistKey: "playlist.m3u",
		}
		require.NoError(t, service.Catalog().Put(ctx, rec))

		got, err := service.Catalog().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, rec.Videos, got.Videos)
		require.Equal(t, rec.PlaylistKey, got.PlaylistKey)
		require.True(t, rec.LastUpdated.Equal(got.LastUpdated))
	})

	t.Run("rebuild over real stores", func(t *testing.T) {
		summary, err := service.Rebuilder().Rebuild(ctx, cfg.BucketName, "clip1.mp4")
		require.NoError(t, err)
		require.Equal(t, 1, summary.VideoCount)
		require.NotEmpty(t, summary.PlaylistURL)

		body, _, err := service.Videos().Get(ctx, catalog.PlaylistKey)
		require.NoError(t, err)
		defer body.Close()
		playlist := string(testutil.Must(io.ReadAll(body))(t))
		require.Contains(t, playlist, "#EXTM3U")
		require.Contains(t, playlist, "clip1.mp4")
	})
}

func createBucket(t *testing.T, cfg Config) {
	client := s3.NewFromConfig(cfg.Config, cfg.S3Options...)
	_, err := client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(cfg.BucketName),
	})
	require.NoError(t, err)
}

func createTable(t *testing.T, cfg Config) {
	client := dynamodb.NewFromConfig(cfg.Config, cfg.DynamoOptions...)
	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: aws.String(cfg.TableName),
		AttributeDefinitions: []dynamodbtypes.AttributeDefinition{
			{AttributeName: aws.String("videoList"), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("Date"), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []dynamodbtypes.KeySchemaElement{
			{AttributeName: aws.String("videoList"), KeyType: dynamodbtypes.KeyTypeHash},
			{AttributeName: aws.String("Date"), KeyType: dynamodbtypes.KeyTypeRange},
		},
		BillingMode: dynamodbtypes.BillingModePayPerRequest,
	})
	require.NoError(t, err)
}

func createDynamo(t *testing.T) *url.URL {
	ctx := context.Background()
	container, err := tcdynamodb.Run(ctx, "amazon/dynamodb-local:latest")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	return testutil.Must(url.Parse("http://" + endpoint))(t)
}

func createS3(t *testing.T) *url.URL {
	ctx := context.Background()
	container, err := tcminio.Run(ctx, "minio/minio:latest")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	return testutil.Must(url.Parse("http://" + endpoint))(t)
}
