// Package catalog implements the upload-triggered catalog rebuild: a full
// re-list of the video store, playlist regeneration and a last-writer-wins
// overwrite of the single catalog record.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

var log = logging.Logger("catalog")

const (
	// VideoSuffix selects catalog members from the store listing. Matching is
	// case-insensitive.
	VideoSuffix = ".mp4"
	// VideoContentType is recorded for every catalog entry.
	VideoContentType = "video/mp4"

	// PlaylistKey is the fixed name of the playlist artifact.
	PlaylistKey = "playlist.m3u"
	// PlaylistContentType is the MIME type of the playlist artifact.
	PlaylistContentType = "application/x-mpegurl"
	// PlaylistURLTTL is the validity window of the presigned URLs embedded in
	// the playlist, and of the playlist URL in the rebuild summary.
	PlaylistURLTTL = 24 * time.Hour
)

// Summary reports the outcome of a rebuild.
type Summary struct {
	Message     string               `json:"message"`
	VideoCount  int                  `json:"videoCount"`
	LastUpdated string               `json:"lastUpdated"`
	Videos      []catalogstore.Video `json:"videos"`
	PlaylistURL string               `json:"playlistUrl,omitempty"`
}

type Rebuilder struct {
	videos    videostore.VideoStore
	presigner presigner.RequestPresigner
	catalog   catalogstore.CatalogStore
	playlist  bool
}

// Option configures a Rebuilder.
type Option func(*Rebuilder)

// WithoutPlaylist disables playlist artifact generation.
func WithoutPlaylist() Option {
	return func(r *Rebuilder) {
		r.playlist = false
	}
}

func NewRebuilder(videos videostore.VideoStore, presigner presigner.RequestPresigner, catalog catalogstore.CatalogStore, opts ...Option) *Rebuilder {
	r := &Rebuilder{videos: videos, presigner: presigner, catalog: catalog, playlist: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rebuild re-derives the catalog from the current store contents. The
// triggering bucket/key is informational only - the whole store is re-listed
// rather than incrementally appending the new object, so a rebuild is
// idempotent for a fixed store state. Concurrent rebuilds race on the single
// catalog record and the last writer wins.
func (r *Rebuilder) Rebuild(ctx context.Context, bucket string, key string) (Summary, error) {
	log.Infof("rebuilding catalog, triggered by %s/%s", bucket, key)

	videos, err := r.listVideos(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing videos: %w", err)
	}
	log.Infof("found %d videos", len(videos))

	rec := catalogstore.Record{
		Videos:      videos,
		LastUpdated: time.Now().UTC(),
	}

	var playlistURL string
	if r.playlist {
		if err := r.writePlaylist(ctx, videos); err != nil {
			return Summary{}, fmt.Errorf("generating playlist: %w", err)
		}
		rec.PlaylistKey = PlaylistKey

		u, err := r.presigner.SignDownloadURL(ctx, PlaylistKey, PlaylistURLTTL)
		if err != nil {
			return Summary{}, fmt.Errorf("signing playlist URL: %w", err)
		}
		playlistURL = u.String()
	}

	if err := r.catalog.Put(ctx, rec); err != nil {
		return Summary{}, fmt.Errorf("writing catalog record: %w", err)
	}

	return Summary{
		Message:     "Successfully updated video catalog",
		VideoCount:  len(videos),
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
		Videos:      videos,
		PlaylistURL: playlistURL,
	}, nil
}

func (r *Rebuilder) listVideos(ctx context.Context) ([]catalogstore.Video, error) {
	objects, err := r.videos.List(ctx)
	if err != nil {
		return nil, err
	}

	videos := []catalogstore.Video{}
	for _, obj := range objects {
		if !strings.HasSuffix(strings.ToLower(obj.Key), VideoSuffix) {
			continue
		}
		videos = append(videos, catalogstore.Video{
			FileName:    obj.Key,
			Size:        obj.Size,
			UploadDate:  obj.LastModified.Format(time.RFC3339Nano),
			ContentType: VideoContentType,
		})
	}
	return videos, nil
}

func (r *Rebuilder) writePlaylist(ctx context.Context, videos []catalogstore.Video) error {
	entries := make([]PlaylistEntry, 0, len(videos))
	for _, v := range videos {
		u, err := r.presigner.SignDownloadURL(ctx, v.FileName, PlaylistURLTTL)
		if err != nil {
			return fmt.Errorf("signing URL for %q: %w", v.FileName, err)
		}
		entries = append(entries, PlaylistEntry{Name: v.FileName, URL: u.String()})
	}

	playlist := GeneratePlaylist(entries)
	reader := strings.NewReader(playlist)
	if err := r.videos.Put(ctx, PlaylistKey, PlaylistContentType, int64(len(playlist)), reader); err != nil {
		return fmt.Errorf("uploading playlist: %w", err)
	}
	log.Infof("playlist uploaded as %s with %d entries", PlaylistKey, len(entries))
	return nil
}
