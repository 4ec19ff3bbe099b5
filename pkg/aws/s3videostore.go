package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

// S3VideoStore implements the videostore.VideoStore interface on S3
type S3VideoStore struct {
	bucket   string
	s3Client *s3.Client
}

var _ videostore.VideoStore = (*S3VideoStore)(nil)

func NewS3VideoStore(cfg aws.Config, bucket string, opts ...func(*s3.Options)) *S3VideoStore {
	return &S3VideoStore{
		s3Client: s3.NewFromConfig(cfg, opts...),
		bucket:   bucket,
	}
}

// List implements videostore.VideoStore. It pages through the bucket until
// the listing is exhausted.
func (s *S3VideoStore) List(ctx context.Context) ([]videostore.Object, error) {
	var objects []videostore.Object
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, videostore.Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// Put implements videostore.VideoStore.
func (s *S3VideoStore) Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	return err
}

// Get implements videostore.VideoStore.
func (s *S3VideoStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	output, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, 0, store.ErrNotFound
		}
		return nil, 0, err
	}
	return output.Body, aws.ToInt64(output.ContentLength), nil
}

type S3VideoPresigner struct {
	vs            *S3VideoStore
	presignClient *s3.PresignClient
}

var _ presigner.RequestPresigner = (*S3VideoPresigner)(nil)

func (s *S3VideoStore) Presigner() presigner.RequestPresigner {
	presignClient := s3.NewPresignClient(s.s3Client)
	return &S3VideoPresigner{s, presignClient}
}

// SignUploadURL implements presigner.RequestPresigner.
func (s *S3VideoPresigner) SignUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (url.URL, http.Header, error) {
	signedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.vs.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("signing request: %w", err)
	}

	reqURL, err := url.Parse(signedReq.URL)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("parsing signed URL: %w", err)
	}

	return *reqURL, signedReq.SignedHeader, nil
}

// SignDownloadURL implements presigner.RequestPresigner.
func (s *S3VideoPresigner) SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (url.URL, error) {
	signedReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.vs.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return url.URL{}, fmt.Errorf("signing request: %w", err)
	}

	reqURL, err := url.Parse(signedReq.URL)
	if err != nil {
		return url.URL{}, fmt.Errorf("parsing signed URL: %w", err)
	}

	return *reqURL, nil
}

// VerifyUploadURL implements presigner.RequestPresigner. Uploads to S3 are
// verified by S3 itself, so this is never called in the AWS deployment.
func (s *S3VideoPresigner) VerifyUploadURL(ctx context.Context, url url.URL, headers http.Header) (url.URL, http.Header, error) {
	panic("unimplemented")
}
