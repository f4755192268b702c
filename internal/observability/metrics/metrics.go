package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes domain instruments exported over OTLP.
type Metrics struct {
	transitions        metric.Int64Counter
	transitionsRefused metric.Int64Counter
	limitReserved      metric.Int64Counter
	limitDenied        metric.Int64Counter
	notifications      metric.Int64Counter
	notificationErrors metric.Int64Counter
	reconMatched       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "nel3"
	}
	meter := provider.Meter(name)

	counters := map[string]*metric.Int64Counter{}
	m := &Metrics{}
	counters["nel3_transitions_total"] = &m.transitions
	counters["nel3_transitions_refused_total"] = &m.transitionsRefused
	counters["nel3_limit_reservations_total"] = &m.limitReserved
	counters["nel3_limit_denials_total"] = &m.limitDenied
	counters["nel3_notifications_emitted_total"] = &m.notifications
	counters["nel3_notification_failures_total"] = &m.notificationErrors
	counters["nel3_reconciliation_matched_total"] = &m.reconMatched

	for instrument, dst := range counters {
		c, err := meter.Int64Counter(instrument)
		if err != nil {
			return nil, err
		}
		*dst = c
	}
	return m, nil
}

// NewNop returns instruments backed by a noop provider. Used by tests.
func NewNop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordTransition counts a committed lifecycle transition.
func (m *Metrics) RecordTransition(ctx context.Context, entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("entity", entity),
		attribute.String("from", from),
		attribute.String("to", to),
	)...))
}

// RecordTransitionRefused counts a transition outside the table.
func (m *Metrics) RecordTransitionRefused(ctx context.Context, entity, from, to string) {
	if m == nil {
		return
	}
	m.transitionsRefused.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("entity", entity),
		attribute.String("from", from),
		attribute.String("to", to),
	)...))
}

func (m *Metrics) RecordLimitReserved(ctx context.Context, period string) {
	if m == nil {
		return
	}
	m.limitReserved.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("period", period))...))
}

func (m *Metrics) RecordLimitDenied(ctx context.Context, period string) {
	if m == nil {
		return
	}
	m.limitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("period", period))...))
}

func (m *Metrics) RecordNotification(ctx context.Context, kind, priority string) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", kind),
		attribute.String("priority", priority),
	)...))
}

func (m *Metrics) RecordNotificationFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.notificationErrors.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("kind", kind))...))
}

// RecordReconciliationMatched counts items matched by one AutoMatch run.
func (m *Metrics) RecordReconciliationMatched(ctx context.Context, source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconMatched.Add(ctx, int64(n), metric.WithAttributes(FilterAttributes(attribute.String("source", source))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"entity":   {},
	"from":     {},
	"to":       {},
	"period":   {},
	"kind":     {},
	"priority": {},
	"source":   {},
	"reason":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
