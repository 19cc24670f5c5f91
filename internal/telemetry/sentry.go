// Package telemetry wires optional Sentry error reporting. Nothing is sent
// unless a DSN is configured, and events are stripped of host and user
// details before they leave the process.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// DefaultFlushTimeout bounds how long Flush waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

var enabled atomic.Bool

// Options configures Init.
type Options struct {
	Release string
	// Transport replaces the HTTP transport, for tests.
	Transport sentry.Transport
}

// Init starts Sentry when settings carry a DSN and installs the error
// reporter so that enhanced errors are captured. It reports whether
// telemetry is active.
func Init(settings *conf.Settings, log logger.Logger, opts Options) (bool, error) {
	dsn := settings.Telemetry.SentryDSN
	if dsn == "" {
		errors.SetTelemetryReporter(nil)
		enabled.Store(false)
		return false, nil
	}

	environment := settings.Telemetry.Environment
	if environment == "" {
		environment = "production"
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          "vectorinsight@" + opts.Release,
		Transport:        opts.Transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return false, errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	enabled.Store(true)
	if log != nil {
		log.Module("telemetry").Info("error telemetry enabled", logger.String("environment", environment))
	}
	return true, nil
}

// Enabled reports whether Init activated Sentry.
func Enabled() bool {
	return enabled.Load()
}

// applyPrivacyFilters clears user, host and runtime details.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}

// Flush waits up to timeout for queued events. It is a no-op when
// telemetry is disabled.
func Flush(timeout time.Duration) {
	if enabled.Load() {
		sentry.Flush(timeout)
	}
}

// Shutdown flushes and detaches the error reporter.
func Shutdown() {
	Flush(DefaultFlushTimeout)
	errors.SetTelemetryReporter(nil)
	enabled.Store(false)
}
