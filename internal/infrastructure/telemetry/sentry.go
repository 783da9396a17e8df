// Package telemetry forwards non-fatal errors to Sentry, fire-and-forget.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"plansbot/internal/ports"
)

// Sentry reports errors to a configured DSN.
type Sentry struct{}

var _ ports.Telemetry = (*Sentry)(nil)

// NewSentry initializes the global Sentry client.
func NewSentry(dsn string) (*Sentry, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return &Sentry{}, nil
}

// Report captures the error without blocking the caller on delivery.
func (s *Sentry) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Flush drains buffered events before process exit.
func (s *Sentry) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Nop discards all reports; used when no DSN is configured.
type Nop struct{}

var _ ports.Telemetry = Nop{}

func (Nop) Report(context.Context, error) {}
func (Nop) Flush(time.Duration)           {}
