package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestChatMetricsObserve(t *testing.T) {
	m := NewChatMetrics(prometheus.NewRegistry())
	m.ObserveRequest("patient_dashboard", "ok")
	m.ObserveUpstream("patient_dashboard", "200", 0.5)
	m.ObserveBooking("booked")
	m.ObserveEviction("ttl")
}

func TestChatMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveBooking("failed")
	m.ObserveBooking("failed")
	m.ObserveRequest("main", "ok")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var bookings *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "healthbot_booking_submissions_total" {
			bookings = mf
		}
	}
	if bookings == nil {
		t.Fatalf("booking submissions metric not registered")
	}
	if got := bookings.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 failed submissions, got %v", got)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveRequest("main", "ok")
	m.ObserveUpstream("op", "500", 0.1)
	m.ObserveBooking("booked")
	m.ObserveEviction("lru")
}
