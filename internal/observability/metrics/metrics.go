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

// Metrics exposes application-level instruments.
type Metrics struct {
	clicksRecorded      metric.Int64Counter
	clicksRejected      metric.Int64Counter
	attributionRuns     metric.Int64Counter
	attributionFallback metric.Int64Counter
	conversions         metric.Int64Counter
	ledgerCredits       metric.Int64Counter
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
		name = "refgate"
	}
	meter := provider.Meter(name)

	clicksRecorded, err := meter.Int64Counter("refgate_clicks_recorded_total")
	if err != nil {
		return nil, err
	}
	clicksRejected, err := meter.Int64Counter("refgate_clicks_rejected_total")
	if err != nil {
		return nil, err
	}
	attributionRuns, err := meter.Int64Counter("refgate_attribution_runs_total")
	if err != nil {
		return nil, err
	}
	attributionFallback, err := meter.Int64Counter("refgate_attribution_fallback_total")
	if err != nil {
		return nil, err
	}
	conversions, err := meter.Int64Counter("refgate_conversions_total")
	if err != nil {
		return nil, err
	}
	ledgerCredits, err := meter.Int64Counter("refgate_ledger_credits_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		clicksRecorded:      clicksRecorded,
		clicksRejected:      clicksRejected,
		attributionRuns:     attributionRuns,
		attributionFallback: attributionFallback,
		conversions:         conversions,
		ledgerCredits:       ledgerCredits,
	}, nil
}

// RecordClick increments recorded click counts.
func (m *Metrics) RecordClick(ctx context.Context, valid bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("valid", valid))
	m.clicksRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordClickRejected increments rejected click counts by reason.
func (m *Metrics) RecordClickRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.clicksRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAttribution increments attribution run counts by model.
func (m *Metrics) RecordAttribution(ctx context.Context, model string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("model", strings.TrimSpace(model)))
	m.attributionRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAttributionFallback increments counts of runs recovered to last-click.
func (m *Metrics) RecordAttributionFallback(ctx context.Context, model string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("model", strings.TrimSpace(model)))
	m.attributionFallback.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConversion increments conversion counts.
func (m *Metrics) RecordConversion(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.conversions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLedgerCredit increments ledger credit counts.
func (m *Metrics) RecordLedgerCredit(ctx context.Context, duplicate bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("duplicate", duplicate))
	m.ledgerCredits.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"valid":     {},
	"reason":    {},
	"model":     {},
	"status":    {},
	"duplicate": {},
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
