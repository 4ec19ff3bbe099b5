package main

import (
	"net/http"

	"github.com/vodworks/video-delivery/cmd/lambda"
	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/presign"
)

func makeHandler(cfg aws.Config) (http.Handler, error) {
	service, err := aws.Construct(cfg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	presign.NewServer(service.Presigner(), service.Catalog()).Serve(mux)
	return mux, nil
}

func main() {
	lambda.StartHTTPHandler(makeHandler)
}
