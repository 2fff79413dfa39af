// Package monitoring provides the Sentry implementation of core/monitoring.Monitor.
package monitoring

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/cspbc/config"
	"github.com/kilianp07/cspbc/core/instance"
	coremon "github.com/kilianp07/cspbc/core/monitoring"
	"github.com/kilianp07/cspbc/core/solution"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	hub := sentry.CurrentHub()
	hub.ConfigureScope(func(scope *sentry.Scope) { scope.SetTag("app", "cspbc") })
	return &sentryMonitor{hub: hub}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

// CaptureException reports err with tags. Instance and solution parse
// errors are sent as warnings carrying their location, grouped per file.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if ctx, ok := parseContext(err); ok {
			scope.SetLevel(sentry.LevelWarning)
			scope.SetContext("parse", ctx)
			scope.SetFingerprint([]string{"parse-error", tags["stage"], tags["file"]})
		}
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }

func parseContext(err error) (sentry.Context, bool) {
	var ie *instance.ParseError
	if errors.As(err, &ie) {
		return sentry.Context{"format": "instance", "file": ie.Name, "line": ie.Line, "message": ie.Msg}, true
	}
	var se *solution.ParseError
	if errors.As(err, &se) {
		return sentry.Context{"format": "solution", "line": se.Line, "token": se.Token, "message": se.Msg}, true
	}
	return nil, false
}
