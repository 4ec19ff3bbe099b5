package main

import (
	"net/http"

	"github.com/vodworks/video-delivery/cmd/lambda"
	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/upload"
)

func makeHandler(cfg aws.Config) (http.Handler, error) {
	service, err := aws.Construct(cfg)
	if err != nil {
		return nil, err
	}
	return http.HandlerFunc(upload.NewHandler(service.Videos())), nil
}

func main() {
	lambda.StartHTTPHandler(makeHandler)
}
