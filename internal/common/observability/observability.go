// Package observability owns the OpenTelemetry meter and tracer providers used by the router
// and the job workers.
package observability

import (
	"context"
	"errors"
	"time"

	"support-router/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the service name, the optional Jaeger collector and the Prometheus registry
// the meter exports into. A nil Registerer means the default registry.
type Config struct {
	ServiceName    string
	JaegerEndpoint string
	Registerer     promclient.Registerer
}

// Observability is safe to use as a nil pointer; every method then does nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	routeCounter  otelmetric.Int64Counter
	routeDuration otelmetric.Float64Histogram
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
}

func New(cfg Config, log logger.Logger) *Observability {
	o := &Observability{}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	reg := cfg.Registerer
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)
		o.initInstruments(o.meterProvider.Meter(cfg.ServiceName))
	}

	if cfg.JaegerEndpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			log.Error("failed to create jaeger exporter", map[string]interface{}{"error": err.Error()})
		} else {
			o.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(jexp),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(o.tracerProvider)
		}
	}

	if o.tracerProvider != nil {
		o.tracer = o.tracerProvider.Tracer(cfg.ServiceName)
	} else {
		o.tracer = otel.Tracer(cfg.ServiceName)
	}
	return o
}

func (o *Observability) initInstruments(meter otelmetric.Meter) {
	o.routeCounter, _ = meter.Int64Counter(
		"router.queries",
		otelmetric.WithDescription("Number of routed queries"),
	)
	o.routeDuration, _ = meter.Float64Histogram(
		"router.duration",
		otelmetric.WithDescription("End-to-end route duration"),
		otelmetric.WithUnit("ms"),
	)
	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
}

// StartSpan always returns a usable span; without a tracer provider it is a no-op span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordRoute(ctx context.Context, intent, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	if o.routeCounter != nil {
		o.routeCounter.Add(ctx, 1, attrs)
	}
	if o.routeDuration != nil {
		o.routeDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
