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
	visitsRetained   metric.Int64Counter
	importFiles      metric.Int64Counter
	billingRuns      metric.Int64Counter
	missingRateLines metric.Int64Counter
	historyEntries   metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
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
		name = "carebill"
	}
	meter := provider.Meter(name)

	visitsRetained, err := meter.Int64Counter("carebill_visits_retained_total")
	if err != nil {
		return nil, err
	}
	importFiles, err := meter.Int64Counter("carebill_import_files_total")
	if err != nil {
		return nil, err
	}
	billingRuns, err := meter.Int64Counter("carebill_billing_runs_total")
	if err != nil {
		return nil, err
	}
	missingRateLines, err := meter.Int64Counter("carebill_missing_rate_lines_total")
	if err != nil {
		return nil, err
	}
	historyEntries, err := meter.Int64Counter("carebill_history_entries_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("carebill_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		visitsRetained:   visitsRetained,
		importFiles:      importFiles,
		billingRuns:      billingRuns,
		missingRateLines: missingRateLines,
		historyEntries:   historyEntries,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordVisitsRetained adds the count of verified rows kept by an import.
func (m *Metrics) RecordVisitsRetained(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.visitsRetained.Add(ctx, count)
}

// RecordImportFile increments per-file import outcomes.
func (m *Metrics) RecordImportFile(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.importFiles.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBillingRun increments billing run counts.
func (m *Metrics) RecordBillingRun(ctx context.Context) {
	if m == nil {
		return
	}
	m.billingRuns.Add(ctx, 1)
}

// RecordMissingRateLine increments ledger lines flagged without a rate.
func (m *Metrics) RecordMissingRateLine(ctx context.Context, serviceType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("service_type", strings.TrimSpace(serviceType)))
	m.missingRateLines.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordHistoryEntry increments history entry counts by action.
func (m *Metrics) RecordHistoryEntry(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.historyEntries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"outcome":      {},
	"service_type": {},
	"action":       {},
	"endpoint":     {},
	"status_code":  {},
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
