package observability

import (
	"context"
	"testing"
)

func TestMetricsNoopWithoutProvider(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.GateTap(ctx, "entry", "late")
	m.GateRejected(ctx, "duplicate")
	m.OfflineScan(ctx, true)
	m.ClinicStep(ctx, "checkin")
	m.Published(ctx, false)
	m.Delivered(ctx, "sms", true)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.GateTap(context.Background(), "exit", "present")
	m.Delivered(context.Background(), "email", false)
}
