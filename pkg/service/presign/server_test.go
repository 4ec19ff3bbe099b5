package presign

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vodworks/video-delivery/pkg/internal/testutil"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/stretchr/testify/require"
)

func TestURLHandler(t *testing.T) {
	signer := testutil.NewFakePresigner()
	catalog := testutil.NewFakeCatalogStore()

	mux := http.NewServeMux()
	NewServer(signer, catalog).Serve(mux)
	httpsrv := httptest.NewServer(mux)
	t.Cleanup(httpsrv.Close)

	get := func(t *testing.T, query string) (*http.Response, []byte) {
		res, err := http.Get(httpsrv.URL + "/urls?" + query)
		require.NoError(t, err)
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		res.Body.Close()
		return res, body
	}

	t.Run("response headers on every path", func(t *testing.T) {
		for _, query := range []string{"action=list", "action=nope", "action=get_upload_url"} {
			res, _ := get(t, query)
			require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
			require.Equal(t, "application/json", res.Header.Get("Content-Type"))
		}
	})

	t.Run("missing action", func(t *testing.T) {
		res, body := get(t, "")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.JSONEq(t, `{"error":"Invalid action parameter"}`, string(body))
	})

	t.Run("unknown action", func(t *testing.T) {
		res, body := get(t, "action=delete_everything")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.JSONEq(t, `{"error":"Invalid action parameter"}`, string(body))
	})

	t.Run("upload URL", func(t *testing.T) {
		res, body := get(t, "action=get_upload_url&key=clip1.mp4")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var ur URLResponse
		require.NoError(t, json.Unmarshal(body, &ur))
		require.Contains(t, ur.URL, "clip1.mp4")

		require.Equal(t, UploadURLTTL, signer.UploadTTLs["clip1.mp4"])
		require.Equal(t, VideoContentType, signer.UploadContentTypes["clip1.mp4"])
	})

	t.Run("download URL", func(t *testing.T) {
		res, body := get(t, "action=get_download_url&key=clip1.mp4")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var ur URLResponse
		require.NoError(t, json.Unmarshal(body, &ur))
		require.Contains(t, ur.URL, "clip1.mp4")

		require.Equal(t, DownloadURLTTL, signer.DownloadTTLs["clip1.mp4"])
	})

	t.Run("missing key", func(t *testing.T) {
		for _, action := range []string{ActionGetUploadURL, ActionGetDownloadURL} {
			res, body := get(t, "action="+action)
			require.Equal(t, http.StatusBadRequest, res.StatusCode)
			require.JSONEq(t, `{"error":"Missing key parameter"}`, string(body))
		}
	})

	t.Run("invalid keys rejected before signing", func(t *testing.T) {
		fresh := testutil.NewFakePresigner()
		mux := http.NewServeMux()
		mux.HandleFunc("GET /urls", NewURLHandler(fresh, catalog))
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		for _, key := range []string{
			"..%2Fevil.mp4",
			"a%2F..%2Fb.mp4",
			"%2Fabs.mp4",
			"",
			"%20%20",
		} {
			res, err := http.Get(srv.URL + "/urls?action=get_upload_url&key=" + key)
			require.NoError(t, err)
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			res.Body.Close()

			require.Equal(t, http.StatusBadRequest, res.StatusCode, "key %q", key)
			require.JSONEq(t, `{"error":"Invalid key parameter"}`, string(body), "key %q", key)
		}
		require.Empty(t, fresh.UploadTTLs)
	})

	t.Run("signer fault is a generic server error", func(t *testing.T) {
		signer.Err = errors.New("connection reset by beer")
		t.Cleanup(func() { signer.Err = nil })

		res, body := get(t, "action=get_upload_url&key=clip1.mp4")
		require.Equal(t, http.StatusInternalServerError, res.StatusCode)
		require.JSONEq(t, `{"error":"Failed to generate URL"}`, string(body))
		require.NotContains(t, string(body), "beer")
	})

	t.Run("list with no catalog record", func(t *testing.T) {
		res, body := get(t, "action=list")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.JSONEq(t, `{"files":[]}`, string(body))
	})

	t.Run("list ignores key", func(t *testing.T) {
		res, _ := get(t, "action=list&key=../evil.mp4")
		require.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("list returns catalog contents", func(t *testing.T) {
		lastUpdated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		err := catalog.Put(context.Background(), catalogstore.Record{
			Videos: []catalogstore.Video{
				{FileName: "clip1.mp4", Size: 10485760, UploadDate: "2024-03-01T11:59:00Z", ContentType: "video/mp4"},
			},
			LastUpdated: lastUpdated,
			PlaylistKey: "playlist.m3u",
		})
		require.NoError(t, err)

		res, body := get(t, "action=list")
		require.Equal(t, http.StatusOK, res.StatusCode)

		var lr ListResponse
		require.NoError(t, json.Unmarshal(body, &lr))
		require.Len(t, lr.Files, 1)
		require.Equal(t, "clip1.mp4", lr.Files[0].FileName)
		require.Equal(t, int64(10485760), lr.Files[0].Size)
		require.Equal(t, "playlist.m3u", lr.PlaylistKey)
		require.Equal(t, lastUpdated.Format(time.RFC3339Nano), lr.LastUpdated)
	})

	t.Run("catalog fault is a generic server error", func(t *testing.T) {
		catalog.GetErr = errors.New("throttled")
		t.Cleanup(func() { catalog.GetErr = nil })

		res, body := get(t, "action=list")
		require.Equal(t, http.StatusInternalServerError, res.StatusCode)
		require.JSONEq(t, `{"error":"Failed to list videos"}`, string(body))
	})
}

func TestValidKey(t *testing.T) {
	valid := []string{"clip1.mp4", "series/episode1.mp4", "a b.mp4"}
	for _, key := range valid {
		require.True(t, validKey(key), "key %q", key)
	}

	invalid := []string{"", " ", "\t", "/clip1.mp4", "../clip1.mp4", "a/../b.mp4", "a..b.mp4"}
	for _, key := range invalid {
		require.False(t, validKey(key), "key %q", key)
	}
}
