package aws

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/vodworks/video-delivery/pkg/service/catalog"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

// ErrMissingSecret means that the value returned from Secrets was empty
var ErrMissingSecret = errors.New("missing value for secret")

func mustGetEnv(envVar string) string {
	value := os.Getenv(envVar)
	if len(value) == 0 {
		panic(fmt.Errorf("missing env var: %s", envVar))
	}
	return value
}

type Config struct {
	Config            aws.Config
	S3Options         []func(*s3.Options)
	DynamoOptions     []func(*dynamodb.Options)
	SentryDSN         string
	SentryEnvironment string
	Region            string
	BucketName        string
	TableName         string
}

func mustGetSSMParams(ctx context.Context, client *ssm.Client, names ...string) map[string]string {
	results := map[string]string{}
	for _, name := range names {
		r, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			panic(fmt.Errorf("retrieving ssm secret %s: %w", name, err))
		}
		if r.Parameter.Value == nil || len(*r.Parameter.Value) == 0 {
			panic(fmt.Errorf("for ssm secret %s: %w", name, ErrMissingSecret))
		}
		results[name] = *r.Parameter.Value
	}
	return results
}

// FromEnv constructs configuration for the store-backed lambdas from the
// environment.
func FromEnv(ctx context.Context) Config {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}

	return Config{
		Config:            awsConfig,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: os.Getenv("SENTRY_ENVIRONMENT"),
		Region:            os.Getenv("REGION"),
		BucketName:        mustGetEnv("BUCKET_NAME"),
		TableName:         mustGetEnv("TABLE_NAME"),
	}
}

// ExpectedTokenFromEnv resolves the authorizer's shared secret, either
// directly from EXPECTED_TOKEN or from the SSM parameter named by
// EXPECTED_TOKEN_SSM_PARAM. A missing token is a hard configuration error -
// the authorizer never falls back to a default value.
func ExpectedTokenFromEnv(ctx context.Context) string {
	if token := os.Getenv("EXPECTED_TOKEN"); token != "" {
		return token
	}

	paramName := os.Getenv("EXPECTED_TOKEN_SSM_PARAM")
	if paramName == "" {
		panic(errors.New("missing env var: EXPECTED_TOKEN or EXPECTED_TOKEN_SSM_PARAM"))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}
	secrets := mustGetSSMParams(ctx, ssm.NewFromConfig(awsConfig), paramName)
	return secrets[paramName]
}

// Service bundles the AWS-backed collaborators of the pipeline.
type Service struct {
	videos  *S3VideoStore
	catalog *DynamoCatalogStore
}

// Construct wires up the S3 video store and DynamoDB catalog store from
// config.
func Construct(cfg Config) (*Service, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.TableName == "" {
		return nil, errors.New("table name is required")
	}
	return &Service{
		videos:  NewS3VideoStore(cfg.Config, cfg.BucketName, cfg.S3Options...),
		catalog: NewDynamoCatalogStore(cfg.Config, cfg.TableName, cfg.DynamoOptions...),
	}, nil
}

func (s *Service) Videos() videostore.VideoStore {
	return s.videos
}

func (s *Service) Presigner() *S3VideoPresigner {
	return s.videos.Presigner().(*S3VideoPresigner)
}

func (s *Service) Catalog() catalogstore.CatalogStore {
	return s.catalog
}

// Rebuilder creates a catalog rebuilder over the AWS collaborators.
func (s *Service) Rebuilder() *catalog.Rebuilder {
	return catalog.NewRebuilder(s.videos, s.videos.Presigner(), s.catalog)
}
