package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

const (
	serviceName    = "usagetrack"
	serviceVersion = "1.0.0"
)

// Exporter exports ingestion metrics to an OTEL Collector. A hook process
// lives for one event, so metrics are pushed when Close shuts the
// provider down rather than on the periodic schedule.
type Exporter struct {
	provider      *sdkmetric.MeterProvider
	eventsTotal   metric.Int64Counter
	toolsTotal    metric.Int64Counter
	sessionsTotal metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	return newExporter(ctx, sdkmetric.NewPeriodicReader(exp))
}

// newExporter builds the instruments on top of an arbitrary reader.
func newExporter(ctx context.Context, reader sdkmetric.Reader) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	eventsTotal, err := meter.Int64Counter(
		"usagetrack_hook_events_total",
		metric.WithDescription("Hook invocations ingested, by resolved kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	toolsTotal, err := meter.Int64Counter(
		"usagetrack_tool_usage_total",
		metric.WithDescription("Tool invocations observed, by tool and category"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool usage counter: %w", err)
	}

	sessionsTotal, err := meter.Int64Counter(
		"usagetrack_sessions_closed_total",
		metric.WithDescription("Session close events recorded"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"usagetrack_session_duration_seconds",
		metric.WithDescription("Session duration in seconds at close"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:      provider,
		eventsTotal:   eventsTotal,
		toolsTotal:    toolsTotal,
		sessionsTotal: sessionsTotal,
		durationHist:  durationHist,
	}, nil
}

func (e *Exporter) RecordEvent(ctx context.Context, kind domain.HookKind) {
	e.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("hook_type", string(kind))))
}

func (e *Exporter) RecordToolUsage(ctx context.Context, toolName string, category domain.ToolCategory) {
	e.toolsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool_name", toolName),
		attribute.String("tool_category", string(category)),
	))
}

func (e *Exporter) RecordSessionClosed(ctx context.Context, session *domain.Session) {
	opt := metric.WithAttributes(attribute.String("project_path", session.ProjectPath))
	e.sessionsTotal.Add(ctx, 1, opt)
	if session.DurationSeconds != nil {
		e.durationHist.Record(ctx, float64(*session.DurationSeconds), opt)
	}
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
