package catalogstore

import (
	"context"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/require"
	"github.com/vodworks/video-delivery/pkg/store"
)

func TestDsCatalogStore(t *testing.T) {
	catalog := NewDsCatalogStore(datastore.NewMapDatastore())

	t.Run("not found before first put", func(t *testing.T) {
		_, err := catalog.Get(context.Background())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("roundtrip", func(t *testing.T) {
		rec := Record{
			Videos: []Video{
				{FileName: "clip1.mp4", Size: 10485760, UploadDate: "2025-01-02T03:04:05Z", ContentType: "video/mp4"},
				{FileName: "clip2.mp4", Size: 512, UploadDate: "2025-01-03T03:04:05Z", ContentType: "video/mp4"},
			},
			LastUpdated: time.Now().UTC().Truncate(time.Millisecond),
			PlaylistKey: "playlist.m3u",
		}

		require.NoError(t, catalog.Put(context.Background(), rec))

		got, err := catalog.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, rec.Videos, got.Videos)
		require.True(t, rec.LastUpdated.Equal(got.LastUpdated))
		require.Equal(t, rec.PlaylistKey, got.PlaylistKey)
	})

	t.Run("replaces previous record", func(t *testing.T) {
		rec := Record{
			Videos:      []Video{{FileName: "only.mp4", Size: 1, UploadDate: "2025-02-01T00:00:00Z", ContentType: "video/mp4"}},
			LastUpdated: time.Now().UTC(),
		}

		require.NoError(t, catalog.Put(context.Background(), rec))

		got, err := catalog.Get(context.Background())
		require.NoError(t, err)
		require.Len(t, got.Videos, 1)
		require.Equal(t, "only.mp4", got.Videos[0].FileName)
	})

	t.Run("empty video list survives", func(t *testing.T) {
		rec := Record{Videos: []Video{}, LastUpdated: time.Now().UTC()}
		require.NoError(t, catalog.Put(context.Background(), rec))

		got, err := catalog.Get(context.Background())
		require.NoError(t, err)
		require.Empty(t, got.Videos)
	})
}
