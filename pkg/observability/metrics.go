package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the domain instruments. Instruments come from the global
// meter provider, so they are no-ops until InitTelemetry runs.
type Metrics struct {
	gateTaps      metric.Int64Counter
	gateRejects   metric.Int64Counter
	offlineSynced metric.Int64Counter
	clinicSteps   metric.Int64Counter
	published     metric.Int64Counter
	delivered     metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(tracerName)
	m := &Metrics{}
	var err error

	if m.gateTaps, err = meter.Int64Counter("educare_gate_taps_total",
		metric.WithDescription("Accepted gate taps by entry type and status")); err != nil {
		return nil, err
	}
	if m.gateRejects, err = meter.Int64Counter("educare_gate_rejections_total",
		metric.WithDescription("Rejected gate taps by reason")); err != nil {
		return nil, err
	}
	if m.offlineSynced, err = meter.Int64Counter("educare_offline_scans_total",
		metric.WithDescription("Replayed offline scans by result")); err != nil {
		return nil, err
	}
	if m.clinicSteps, err = meter.Int64Counter("educare_clinic_transitions_total",
		metric.WithDescription("Clinic workflow transitions by step")); err != nil {
		return nil, err
	}
	if m.published, err = meter.Int64Counter("educare_notifications_published_total",
		metric.WithDescription("Notification events published by result")); err != nil {
		return nil, err
	}
	if m.delivered, err = meter.Int64Counter("educare_notifications_delivered_total",
		metric.WithDescription("Parent alerts delivered by channel and result")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) GateTap(ctx context.Context, entryType, status string) {
	if m == nil {
		return
	}
	m.gateTaps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entry_type", entryType),
		attribute.String("status", status),
	))
}

func (m *Metrics) GateRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.gateRejects.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) OfflineScan(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.offlineSynced.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

func (m *Metrics) ClinicStep(ctx context.Context, step string) {
	if m == nil {
		return
	}
	m.clinicSteps.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

func (m *Metrics) Published(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.published.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

func (m *Metrics) Delivered(ctx context.Context, channel string, ok bool) {
	if m == nil {
		return
	}
	m.delivered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.Bool("ok", ok),
	))
}
