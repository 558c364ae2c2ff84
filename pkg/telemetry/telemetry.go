package telemetry

import (
	"context"
	"time"

	"github.com/smallbiznis/siino/internal/teamcontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the tracer provider.
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	ExporterEndpoint string
	SamplingRatio    float64
}

// NewTracerProvider configures the OTLP exporter and registers the global
// tracer provider. With tracing disabled spans are still created but never
// exported.
func NewTracerProvider(lc fx.Lifecycle, cfg Config, logger *zap.Logger) (*trace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSpanProcessor(&teamSpanProcessor{}),
	}

	if cfg.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.ExporterEndpoint), otlptracegrpc.WithInsecure())
		cancel()
		if err != nil {
			return nil, err
		}
		ratio := cfg.SamplingRatio
		if ratio <= 0 {
			ratio = 0.1
		}
		opts = append(opts,
			trace.WithBatcher(exporter),
			trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		)
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Info("shutting down tracer provider")
				return tp.Shutdown(ctx)
			},
		})
	}

	if cfg.Enabled {
		logger.Info("telemetry initialized", zap.String("endpoint", cfg.ExporterEndpoint))
	}
	return tp, nil
}

// teamSpanProcessor tags every span with the active team from the context.
type teamSpanProcessor struct{}

func (p *teamSpanProcessor) OnStart(ctx context.Context, s trace.ReadWriteSpan) {
	if teamID, ok := teamcontext.TeamIDFromContext(ctx); ok {
		s.SetAttributes(attribute.String("team_id", teamID))
	}
}

func (p *teamSpanProcessor) OnEnd(trace.ReadOnlySpan) {}

func (p *teamSpanProcessor) Shutdown(context.Context) error { return nil }

func (p *teamSpanProcessor) ForceFlush(context.Context) error { return nil }
