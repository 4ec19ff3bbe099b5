// Package server runs the whole delivery pipeline as a single local HTTP
// process: the presign API, direct uploads, signed-URL PUT/GET object
// endpoints and an upload-triggered catalog rebuild standing in for the
// bucket's create-event.
package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/vodworks/video-delivery/pkg/internal/httputil"
	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/service/auth"
	"github.com/vodworks/video-delivery/pkg/service/catalog"
	presignsvc "github.com/vodworks/video-delivery/pkg/service/presign"
	"github.com/vodworks/video-delivery/pkg/service/upload"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

var log = logging.Logger("server")

type config struct {
	videos        videostore.VideoStore
	catalog       catalogstore.CatalogStore
	presigner     presigner.RequestPresigner
	expectedToken string
	bucketName    string
}

type Option func(*config)

// WithVideoStore configures the video store backing the server.
func WithVideoStore(videos videostore.VideoStore) Option {
	return func(c *config) {
		c.videos = videos
	}
}

// WithCatalogStore configures the catalog store backing the server.
func WithCatalogStore(catalog catalogstore.CatalogStore) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithPresigner configures the request presigner used to issue and verify
// signed URLs.
func WithPresigner(presigner presigner.RequestPresigner) Option {
	return func(c *config) {
		c.presigner = presigner
	}
}

// WithExpectedToken configures the bearer token the presign API requires.
func WithExpectedToken(token string) Option {
	return func(c *config) {
		c.expectedToken = token
	}
}

// WithBucketName configures the path segment object URLs are served under.
// Defaults to "videos".
func WithBucketName(name string) Option {
	return func(c *config) {
		c.bucketName = name
	}
}

// ListenAndServe creates a new local delivery server, and starts it up.
func ListenAndServe(addr string, opts ...Option) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewServer(opts...),
	}
	log.Infof("Listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewServer creates a new local delivery server.
func NewServer(opts ...Option) *http.ServeMux {
	c := &config{bucketName: "videos"}
	for _, opt := range opts {
		opt(c)
	}
	if c.videos == nil || c.catalog == nil || c.presigner == nil {
		panic("server requires a video store, a catalog store and a presigner")
	}

	rebuilder := catalog.NewRebuilder(c.videos, c.presigner, c.catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /urls", authorized(c.expectedToken, presignsvc.NewURLHandler(c.presigner, c.catalog)))
	mux.HandleFunc("POST /uploads", authorized(c.expectedToken, newUploadHandler(c.videos, rebuilder)))
	mux.HandleFunc("PUT /"+c.bucketName+"/{key...}", newObjectPutHandler(c.videos, c.presigner, rebuilder))
	mux.HandleFunc("GET /"+c.bucketName+"/{key...}", newObjectGetHandler(c.videos))
	return mux
}

// authorized enforces the bearer token the way the API front door does in
// the AWS deployment: the authorizer decision gates the request.
func authorized(expectedToken string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		decision := auth.Authorize(token, expectedToken, r.URL.Path)
		if decision.PolicyDocument == nil || decision.PolicyDocument.Statement[0].Effect != auth.EffectAllow {
			httputil.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
			return
		}
		next(w, r)
	}
}

// newUploadHandler wraps the direct upload handler so an accepted upload
// triggers a catalog rebuild, mirroring the bucket create-event.
func newUploadHandler(videos videostore.VideoStore, rebuilder *catalog.Rebuilder) http.HandlerFunc {
	inner := upload.NewHandler(videos)
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		inner(rec, r)
		if rec.status == http.StatusOK {
			if _, err := rebuilder.Rebuild(r.Context(), "local", "direct-upload"); err != nil {
				log.Errorf("rebuilding catalog after upload: %s", err)
			}
		}
	}
}

func newObjectPutHandler(videos videostore.VideoStore, signer presigner.RequestPresigner, rebuilder *catalog.Rebuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sHeaders, err := signer.VerifyUploadURL(r.Context(), *r.URL, r.Header)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		key := r.PathValue("key")
		contentType := sHeaders.Get("Content-Type")

		err = videos.Put(r.Context(), key, contentType, r.ContentLength, r.Body)
		if err != nil {
			log.Errorf("writing %q: %s", key, err)
			http.Error(w, "write failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

		// an accepted video upload triggers a rebuild, like the bucket
		// create-event does in the AWS deployment
		if strings.HasSuffix(strings.ToLower(key), catalog.VideoSuffix) {
			if _, err := rebuilder.Rebuild(r.Context(), "local", key); err != nil {
				log.Errorf("rebuilding catalog after upload of %q: %s", key, err)
			}
		}
	}
}

func newObjectGetHandler(videos videostore.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		body, size, err := videos.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Errorf("reading %q: %s", key, err)
			http.Error(w, "read failed", http.StatusInternalServerError)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", contentTypeForKey(key))
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		if _, err := io.Copy(w, body); err != nil {
			log.Errorf("streaming %q: %s", key, err)
		}
	}
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(key), ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(strings.ToLower(key), ".m3u"):
		return "application/x-mpegurl"
	default:
		return "application/octet-stream"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

