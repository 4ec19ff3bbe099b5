package telemetry

import (
	"log"

	"github.com/getsentry/sentry-go"

	"github.com/vodworks/video-delivery/pkg/build"
)

// SetupErrorReporting configures the Sentry SDK for error reporting. It is a
// no-op when no DSN is configured.
func SetupErrorReporting(dsn string, environment string) {
	if dsn == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
		Transport:   sentry.NewHTTPSyncTransport(),
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
}

// ReportError reports an error to Sentry
func ReportError(err error) {
	sentry.CaptureException(err)
}
