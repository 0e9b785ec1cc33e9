package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersGaugeAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.ObserveOperation("add", "ok", 20*time.Millisecond)
	m.ObserveOperation("add", "ok", 10*time.Millisecond)
	m.ObserveOperation("add", "", time.Millisecond)
	m.SetLiveStores(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_operations_total", map[string]string{"op": "add", "result": "ok"}); err != nil {
		t.Fatalf("fetch ok: %v", err)
	} else if got != 2 {
		t.Fatalf("expected ok=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "cart_operations_total", map[string]string{"op": "add", "result": "unknown"}); err != nil {
		t.Fatalf("fetch unknown: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "cart_operation_duration_seconds", map[string]string{"op": "add"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	mf := findMetricFamily(mfs, "cart_live_stores")
	if mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatalf("expected live stores gauge of 3")
	}
}

func TestCheckoutAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	checkout := NewCheckoutMetrics(reg)
	outbox := NewOutboxMetrics(reg)
	checkout.ObserveSubmission("declined", 5*time.Millisecond)
	outbox.IncPublished("order.confirmed")
	outbox.IncFailed("order.confirmed")
	outbox.IncDeadLettered("order.confirmed", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for name, labels := range map[string]map[string]string{
		"checkout_submissions_total":    {"outcome": "declined"},
		"outbox_published_total":        {"event_type": "order.confirmed"},
		"outbox_publish_failures_total": {"event_type": "order.confirmed"},
		"outbox_dead_lettered_total":    {"event_type": "order.confirmed", "reason": "max_attempts"},
	} {
		if got, err := fetchCounterValue(mfs, name, labels); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cart *CartMetrics
	cart.ObserveOperation("add", "ok", time.Second)
	cart.SetLiveStores(1)
	NewCartMetrics(nil).ObserveOperation("add", "ok", time.Second)

	var checkout *CheckoutMetrics
	checkout.ObserveSubmission("ok", time.Second)

	var outbox *OutboxMetrics
	outbox.IncPublished("x")
	outbox.IncFailed("x")
	outbox.IncDeadLettered("x", "max_attempts")
	outbox.ObserveLag(time.Now(), time.Now())
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
