// Package upload implements the direct upload handler: a JSON body carrying
// a base64-encoded video, stored straight into the video store. Presigned
// uploads are the preferred path - this surface exists for small files and
// clients that cannot do a two-step upload.
package upload

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/vodworks/video-delivery/pkg/internal/httputil"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

var log = logging.Logger("upload")

const videoContentType = "video/mp4"

type Request struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
}

type Response struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the direct upload handler. Only .mp4 file names are
// accepted and the decoded bytes are stored with the video content type.
func NewHandler(videos videostore.VideoStore) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || len(body) == 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Missing file data"})
			return
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Missing file data"})
			return
		}
		if req.FileName == "" || req.FileContent == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Missing fileName or fileContent"})
			return
		}
		if !strings.HasSuffix(strings.ToLower(req.FileName), ".mp4") {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Only MP4 files are allowed"})
			return
		}
		if strings.HasPrefix(req.FileName, "/") || strings.Contains(req.FileName, "..") {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Invalid fileName"})
			return
		}

		content, err := base64.StdEncoding.DecodeString(req.FileContent)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, ErrorResponse{"Invalid file content"})
			return
		}

		err = videos.Put(r.Context(), req.FileName, videoContentType, int64(len(content)), bytes.NewReader(content))
		if err != nil {
			log.Errorf("storing %q: %s", req.FileName, err)
			httputil.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{"Failed to store file"})
			return
		}

		httputil.WriteJSON(w, http.StatusOK, Response{
			Message:  "File uploaded successfully",
			FileName: req.FileName,
		})
	}
}

