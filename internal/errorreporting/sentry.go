// Package errorreporting wires Sentry into the packing workers. Without a DSN
// every function is a no-op, so local runs need no configuration.
package errorreporting

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/brianruggieri/garden-craft-sub000/internal/config"
)

var initialized bool

// Init initializes Sentry error reporting. Returns without error when no DSN
// is configured.
func Init() error {
	cfg := config.Load()
	if cfg.SentryDSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	initialized = true
	return nil
}

// CaptureError reports an error with a bed identifier tag.
func CaptureError(err error, bedName string) {
	if !initialized || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("bed", bedName)
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value from a packing worker. The
// caller decides whether to re-panic or degrade to an error.
func CapturePanic(recovered any, bedName string) {
	if !initialized || recovered == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("bed", bedName)
		sentry.CurrentHub().Recover(recovered)
	})
	sentry.Flush(2 * time.Second)
}

// Flush waits for buffered events to be sent, up to the given timeout.
func Flush(timeout time.Duration) {
	if initialized {
		sentry.Flush(timeout)
	}
}
