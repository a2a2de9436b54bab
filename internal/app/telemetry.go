package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const meterName = "github.com/ravenent/show-booking-system/internal/app"

// boxOfficeMetrics counts what happens at the box office and at the door.
type boxOfficeMetrics struct {
	bookings      metric.Int64Counter
	ticketsSold   metric.Int64Counter
	seatConflicts metric.Int64Counter
	ticketScans   metric.Int64Counter
}

func newBoxOfficeMetrics(mp metric.MeterProvider) (*boxOfficeMetrics, error) {
	meter := mp.Meter(meterName)

	bookings, err := meter.Int64Counter("booking.created",
		metric.WithDescription("Bookings committed, by channel"),
		metric.WithUnit("{booking}"))
	if err != nil {
		return nil, err
	}

	ticketsSold, err := meter.Int64Counter("booking.tickets",
		metric.WithDescription("Seats sold, by channel"),
		metric.WithUnit("{ticket}"))
	if err != nil {
		return nil, err
	}

	seatConflicts, err := meter.Int64Counter("booking.seat_conflicts",
		metric.WithDescription("Booking attempts rejected because a seat was already taken"),
		metric.WithUnit("{booking}"))
	if err != nil {
		return nil, err
	}

	ticketScans, err := meter.Int64Counter("ticket.scans",
		metric.WithDescription("Ticket QR scans, first admissions and repeats"),
		metric.WithUnit("{scan}"))
	if err != nil {
		return nil, err
	}

	return &boxOfficeMetrics{
		bookings:      bookings,
		ticketsSold:   ticketsSold,
		seatConflicts: seatConflicts,
		ticketScans:   ticketScans,
	}, nil
}

// mustBoxOfficeMetrics falls back to no-op instruments so a bad meter never
// takes the API down.
func mustBoxOfficeMetrics(mp metric.MeterProvider, logger *slog.Logger) *boxOfficeMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	m, err := newBoxOfficeMetrics(mp)
	if err != nil {
		logger.Warn("box office metrics disabled", "error", err)
		m, _ = newBoxOfficeMetrics(noop.NewMeterProvider())
	}

	return m
}

func bookingChannel(offline bool) attribute.KeyValue {
	if offline {
		return attribute.String("channel", "offline")
	}
	return attribute.String("channel", "online")
}

func (m *boxOfficeMetrics) bookingCreated(ctx context.Context, tickets int, offline bool) {
	attrs := metric.WithAttributes(bookingChannel(offline))

	m.bookings.Add(ctx, 1, attrs)
	m.ticketsSold.Add(ctx, int64(tickets), attrs)
}

func (m *boxOfficeMetrics) seatConflict(ctx context.Context, offline bool) {
	m.seatConflicts.Add(ctx, 1, metric.WithAttributes(bookingChannel(offline)))
}

func (m *boxOfficeMetrics) ticketScanned(ctx context.Context, first bool, atDoor bool) {
	kind := "repeat"
	if first {
		kind = "first"
	}

	source := "qr"
	if atDoor {
		source = "door"
	}

	m.ticketScans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scan", kind),
		attribute.String("source", source),
	))
}

// InitTelemetry points the global trace, meter and log providers at the
// collector. Instruments created before it runs, like the box office counters,
// start exporting once the meter provider is set.
func (app *Application) InitTelemetry() (func(context.Context), error) {
	if app.config.OtelCollectorUrl == "" {
		app.logger.Info("no otel collector configured, telemetry stays local")

		return func(context.Context) {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(app.config.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(app.config.OtelCollectorUrl),
	)
	if err != nil {
		return nil, fmt.Errorf("otel trace exporter: %w", err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithResource(res),
		trace.WithSpanProcessor(trace.NewBatchSpanProcessor(traceExporter)),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(app.config.OtelCollectorUrl),
	)
	if err != nil {
		return nil, fmt.Errorf("otel metric exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithInsecure(),
		otlploggrpc.WithEndpoint(app.config.OtelCollectorUrl),
	)
	if err != nil {
		return nil, fmt.Errorf("otel log exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)

	global.SetLoggerProvider(loggerProvider)

	shutdown := func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := errors.Join(
			tracerProvider.Shutdown(shutdownCtx),
			meterProvider.Shutdown(shutdownCtx),
			loggerProvider.Shutdown(shutdownCtx),
		)
		if err != nil {
			app.logger.Error("failed to shutdown telemetry providers", "error", err)
		}
	}

	return shutdown, nil
}

// MultiHandler fans log records out to several handlers, e.g. stdout and the
// otel log bridge.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{
		handlers: handlers,
	}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to every handler that wants it. A failing
// collector must not stop local logging, so handler errors are dropped.
func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		_ = handler.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}
