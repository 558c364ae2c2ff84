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

const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
	OutcomePartial   = "partial"
)

// Metrics exposes application-level instruments. A nil *Metrics records nothing.
type Metrics struct {
	cacheFetch     metric.Int64Counter
	cacheDiscarded metric.Int64Counter
	remoteWrite    metric.Int64Counter
	invoiceSaved   metric.Int64Counter
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
		name = "siino"
	}
	meter := provider.Meter(name)

	cacheFetch, err := meter.Int64Counter("siino_cache_fetch_total")
	if err != nil {
		return nil, err
	}
	cacheDiscarded, err := meter.Int64Counter("siino_cache_discarded_total")
	if err != nil {
		return nil, err
	}
	remoteWrite, err := meter.Int64Counter("siino_remote_write_total")
	if err != nil {
		return nil, err
	}
	invoiceSaved, err := meter.Int64Counter("siino_invoice_saved_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheFetch:     cacheFetch,
		cacheDiscarded: cacheDiscarded,
		remoteWrite:    remoteWrite,
		invoiceSaved:   invoiceSaved,
	}, nil
}

// RecordCacheFetch counts one collection fetch during a refresh.
func (m *Metrics) RecordCacheFetch(ctx context.Context, collection, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("collection", strings.TrimSpace(collection)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.cacheFetch.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheDiscarded counts fetch results dropped because the team changed mid-flight.
func (m *Metrics) RecordCacheDiscarded(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("collection", strings.TrimSpace(collection)))
	m.cacheDiscarded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRemoteWrite(ctx context.Context, collection, op, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("collection", strings.TrimSpace(collection)),
		attribute.String("op", strings.TrimSpace(op)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.remoteWrite.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordInvoiceSaved(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.invoiceSaved.Add(ctx, 1, metric.WithAttributes(attrs...))
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

// Team ids and record ids never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"collection": {},
	"op":         {},
	"outcome":    {},
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
