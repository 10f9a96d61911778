package telemetry

import (
	"context"

	"github.com/robalyx/todbot/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// ServiceVersion is reported with every exported span.
const ServiceVersion = "1.0.0"

// Tracing owns the OpenTelemetry exporter set up through uptrace-go.
// The zero value is a disabled tracer whose Shutdown does nothing.
type Tracing struct {
	enabled bool
}

// SetupTracing installs the global tracer provider when a DSN is configured.
// Without a DSN the global no-op provider stays in place.
func SetupTracing(cfg *config.Telemetry, serviceType ServiceType) *Tracing {
	if cfg.UptraceDSN == "" {
		return &Tracing{}
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName("todbot-"+serviceType.String()),
		uptrace.WithServiceVersion(ServiceVersion),
	)

	return &Tracing{enabled: true}
}

// Enabled reports whether spans are exported.
func (t *Tracing) Enabled() bool {
	return t.enabled
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if !t.enabled {
		return nil
	}
	return uptrace.Shutdown(ctx)
}
