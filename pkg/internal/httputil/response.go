// Package httputil holds response helpers shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("httputil")

// WriteJSON writes body as a JSON response. Every response carries a
// permissive CORS header so browser clients can call the API directly.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response body: %s", err)
	}
}
