package presigner

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type RequestPresigner interface {
	// SignUploadURL creates and signs a URL that allows a PUT request to
	// upload an object with the given key and content type.
	//
	// The ttl parameter determines how long the signed URL is valid for.
	//
	// It returns a signed URL that will accept a PUT request, and a set of
	// HTTP headers that should also be sent with the request.
	SignUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (url.URL, http.Header, error)
	// SignDownloadURL creates and signs a URL that allows a GET request for
	// the object with the given key. No content type constraint applies - the
	// object's stored type is served.
	SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (url.URL, error)
	// VerifyUploadURL ensures the upload URL was signed by this service. It
	// returns the _signed_ URL and headers or error if the signature is
	// invalid.
	VerifyUploadURL(ctx context.Context, url url.URL, headers http.Header) (url.URL, http.Header, error)
}
