package videostore_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vodworks/video-delivery/pkg/internal/testutil"
	"github.com/vodworks/video-delivery/pkg/store"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

func TestFsVideoStore(t *testing.T) {
	rootdir := path.Join(os.TempDir(), fmt.Sprintf("videostore%d", time.Now().UnixMilli()))
	t.Cleanup(func() { os.RemoveAll(rootdir) })
	tmpdir := path.Join(os.TempDir(), fmt.Sprintf("videostore-tmp%d", time.Now().UnixMilli()))
	t.Cleanup(func() { os.RemoveAll(tmpdir) })

	videos := testutil.Must(videostore.NewFsVideoStore(rootdir, tmpdir))(t)

	t.Run("roundtrip", func(t *testing.T) {
		data := []byte("some video bytes")

		err := videos.Put(context.Background(), "clips/intro.mp4", "video/mp4", int64(len(data)), bytes.NewReader(data))
		require.NoError(t, err)

		body, size, err := videos.Get(context.Background(), "clips/intro.mp4")
		require.NoError(t, err)
		defer body.Close()
		require.Equal(t, int64(len(data)), size)
		require.Equal(t, data, testutil.Must(io.ReadAll(body))(t))
	})

	t.Run("list", func(t *testing.T) {
		objects, err := videos.List(context.Background())
		require.NoError(t, err)
		require.Len(t, objects, 1)
		require.Equal(t, "clips/intro.mp4", objects[0].Key)
		require.Equal(t, int64(len("some video bytes")), objects[0].Size)
		require.False(t, objects[0].LastModified.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		body, _, err := videos.Get(context.Background(), "missing.mp4")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.Nil(t, body)
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		for _, key := range []string{"", "/abs.mp4", "../escape.mp4", "a/../../b.mp4"} {
			err := videos.Put(context.Background(), key, "video/mp4", 1, bytes.NewReader([]byte{1}))
			require.Error(t, err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := videos.Put(context.Background(), "short.mp4", "video/mp4", 100, bytes.NewReader([]byte("tiny")))
		require.Error(t, err)

		_, _, err = videos.Get(context.Background(), "short.mp4")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
