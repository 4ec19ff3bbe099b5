package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	logging "github.com/ipfs/go-log/v2"
	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/auth"
)

var log = logging.Logger("lambda/authorizer")

func makeHandler(expectedToken string) func(ctx context.Context, request events.APIGatewayCustomAuthorizerRequest) (auth.Decision, error) {
	return func(ctx context.Context, request events.APIGatewayCustomAuthorizerRequest) (auth.Decision, error) {
		decision := auth.Authorize(request.AuthorizationToken, expectedToken, request.MethodArn)
		if decision.PolicyDocument != nil {
			log.Infof("authorization decision for %s: %s", request.MethodArn, decision.PolicyDocument.Statement[0].Effect)
		}
		return decision, nil
	}
}

func main() {
	expectedToken := aws.ExpectedTokenFromEnv(context.Background())
	lambda.Start(makeHandler(expectedToken))
}
