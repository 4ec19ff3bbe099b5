package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/vodworks/video-delivery/internal/telemetry"
	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/catalog"
)

// S3EventHandler is a function that handles S3 events, suitable to use as a
// lambda handler.
type S3EventHandler func(context.Context, events.S3Event) (catalog.Response, error)

// S3EventHandlerBuilder is a function that creates a S3EventHandler from a
// config.
type S3EventHandlerBuilder func(aws.Config) (S3EventHandler, error)

// StartS3EventHandler starts a lambda handler that processes S3 events.
func StartS3EventHandler(makeHandler S3EventHandlerBuilder) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)
	telemetry.SetupErrorReporting(cfg.SentryDSN, cfg.SentryEnvironment)

	handler, err := makeHandler(cfg)
	if err != nil {
		telemetry.ReportError(err)
		panic(err)
	}

	lambda.StartWithOptions(instrumentS3EventHandler(handler), lambda.WithContext(ctx))
}

// instrumentS3EventHandler wraps a S3EventHandler with error reporting.
func instrumentS3EventHandler(handler S3EventHandler) S3EventHandler {
	return func(ctx context.Context, s3Event events.S3Event) (catalog.Response, error) {
		res, err := handler(ctx, s3Event)
		if err != nil {
			telemetry.ReportError(err)
		}

		return res, err
	}
}

// HTTPHandlerBuilder is a function that creates a http.Handler from a config.
type HTTPHandlerBuilder func(aws.Config) (http.Handler, error)

// StartHTTPHandler starts a lambda handler that processes HTTP requests.
func StartHTTPHandler(makeHandler HTTPHandlerBuilder) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)
	telemetry.SetupErrorReporting(cfg.SentryDSN, cfg.SentryEnvironment)

	handler, err := makeHandler(cfg)
	if err != nil {
		telemetry.ReportError(err)
		panic(err)
	}

	lambda.StartWithOptions(httpadapter.NewV2(handler).ProxyWithContext, lambda.WithContext(ctx))
}
