package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterAPI forwards every report to the wrapped API and additionally records counts
// on a gauge, keyed by the report id.
type MeterAPI struct {
	API
	counts metric.Int64Gauge
}

func NewMeterAPI(inner API, meter metric.Meter) (MeterAPI, error) {
	counts, err := meter.Int64Gauge(
		"report_count",
		metric.WithDescription("Latest count reported by a component."),
	)
	if err != nil {
		return MeterAPI{}, err
	}
	return MeterAPI{API: inner, counts: counts}, nil
}

func (m MeterAPI) ReportCount(id string, count int64) {
	m.API.ReportCount(id, count)
	m.counts.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
}
