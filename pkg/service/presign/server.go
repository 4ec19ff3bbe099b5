// Package presign implements the presigned URL issuer: a request-scoped HTTP
// handler that hands out time-limited upload/download URLs and serves the
// cached video catalog.
package presign

import (
	"errors"
	"net/http"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/vodworks/video-delivery/pkg/internal/httputil"
	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
)

var log = logging.Logger("presign")

const (
	ActionList           = "list"
	ActionGetUploadURL   = "get_upload_url"
	ActionGetDownloadURL = "get_download_url"

	// UploadURLTTL is the validity window of presigned upload URLs.
	UploadURLTTL = 3600 * time.Second
	// DownloadURLTTL is the validity window of presigned download URLs.
	DownloadURLTTL = 300 * time.Second

	// VideoContentType is the fixed content type presigned uploads must
	// carry. The stored type applies on download.
	VideoContentType = "video/mp4"
)

type URLResponse struct {
	URL string `json:"url"`
}

type ListResponse struct {
	Files       []catalogstore.Video `json:"files"`
	LastUpdated string               `json:"lastUpdated,omitempty"`
	PlaylistKey string               `json:"playlistKey,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	presigner presigner.RequestPresigner
	catalog   catalogstore.CatalogStore
}

func NewServer(presigner presigner.RequestPresigner, catalog catalogstore.CatalogStore) *Server {
	return &Server{presigner, catalog}
}

func (srv *Server) Serve(mux *http.ServeMux) {
	mux.HandleFunc("GET /urls", NewURLHandler(srv.presigner, srv.catalog))
}

// NewURLHandler creates the handler that dispatches on the "action" query
// parameter. Every response, success or failure, carries a permissive CORS
// header and a JSON body with a stable shape.
func NewURLHandler(presigner presigner.RequestPresigner, catalog catalogstore.CatalogStore) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case ActionList:
			handleList(w, r, catalog)
		case ActionGetUploadURL:
			handleSignURL(w, r, func(key string) (string, error) {
				u, _, err := presigner.SignUploadURL(r.Context(), key, VideoContentType, UploadURLTTL)
				return u.String(), err
			})
		case ActionGetDownloadURL:
			handleSignURL(w, r, func(key string) (string, error) {
				u, err := presigner.SignDownloadURL(r.Context(), key, DownloadURLTTL)
				return u.String(), err
			})
		default:
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Invalid action parameter"})
		}
	}
}

func handleSignURL(w http.ResponseWriter, r *http.Request, sign func(key string) (string, error)) {
	key, ok := r.URL.Query()["key"]
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Missing key parameter"})
		return
	}
	if !validKey(key[0]) {
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Invalid key parameter"})
		return
	}

	url, err := sign(key[0])
	if err != nil {
		log.Errorf("signing URL for key %q: %s", key[0], err)
		httputil.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{"Failed to generate URL"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, URLResponse{url})
}

func handleList(w http.ResponseWriter, r *http.Request, catalog catalogstore.CatalogStore) {
	rec, err := catalog.Get(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// no uploads yet - a valid empty state, not a fault
			httputil.WriteJSON(w, http.StatusOK, ListResponse{Files: []catalogstore.Video{}})
			return
		}
		log.Errorf("reading catalog record: %s", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{"Failed to list videos"})
		return
	}

	files := rec.Videos
	if files == nil {
		files = []catalogstore.Video{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Files:       files,
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
		PlaylistKey: rec.PlaylistKey,
	})
}

// validKey rejects empty or whitespace-only keys, parent-directory traversal
// and keys that begin with a path separator.
func validKey(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	if strings.HasPrefix(key, "/") {
		return false
	}
	if strings.Contains(key, "..") {
		return false
	}
	return true
}

