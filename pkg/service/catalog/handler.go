package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Response is the summary returned to the event dispatch layer. Nothing
// observes it synchronously - a failure simply leaves the catalog stale until
// the next triggering upload.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// NewEventHandler adapts a Rebuilder to S3 object-created events. Any failure
// is caught here, logged and converted to a 500-shaped response - errors
// never propagate past the handler boundary.
func NewEventHandler(rebuilder *Rebuilder) func(context.Context, events.S3Event) (Response, error) {
	return func(ctx context.Context, event events.S3Event) (Response, error) {
		if len(event.Records) == 0 {
			log.Warn("event contained no records")
			return errorResponse(http.StatusBadRequest, "No records in event"), nil
		}

		record := event.Records[0]
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key

		summary, err := rebuilder.Rebuild(ctx, bucket, key)
		if err != nil {
			log.Errorf("rebuilding catalog for %s/%s: %s", bucket, key, err)
			return errorResponse(http.StatusInternalServerError, "Internal server error"), nil
		}

		body, err := json.Marshal(summary)
		if err != nil {
			log.Errorf("encoding rebuild summary: %s", err)
			return errorResponse(http.StatusInternalServerError, "Internal server error"), nil
		}
		return Response{StatusCode: http.StatusOK, Body: string(body)}, nil
	}
}

func errorResponse(status int, message string) Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return Response{StatusCode: status, Body: string(body)}
}
