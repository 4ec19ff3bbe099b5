package main

import (
	"github.com/vodworks/video-delivery/cmd/lambda"
	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/catalog"
)

func makeHandler(cfg aws.Config) (lambda.S3EventHandler, error) {
	service, err := aws.Construct(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.NewEventHandler(service.Rebuilder()), nil
}

func main() {
	lambda.StartS3EventHandler(makeHandler)
}
