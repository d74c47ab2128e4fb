package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordAppleAction_IncrementsCounter は操作カウンタがラベル別に増加することを検証する。
func TestRecordAppleAction_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAppleAction("eat", "success")
	c.RecordAppleAction("eat", "success")
	c.RecordAppleAction("eat", "rejected")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "orchard_apple_actions_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("orchard_apple_actions_total metric not found")
	}
}

// TestRecordRotTransition_IncrementsCounter は腐敗遷移カウンタの増加を検証する。
func TestRecordRotTransition_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRotTransition()
	c.RecordRotTransition()
	c.RecordRotTransition()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == "orchard_rot_transitions_total" {
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 3 {
				t.Errorf("rot_transitions_total = %v, want 3", val)
			}
			return
		}
	}
	t.Error("orchard_rot_transitions_total metric not found")
}

// TestRecordApplesGenerated_AddsCount は生成数カウンタの加算を検証する。
func TestRecordApplesGenerated_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApplesGenerated(5)
	c.RecordApplesGenerated(3)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == "orchard_apples_generated_total" {
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 8 {
				t.Errorf("apples_generated_total = %v, want 8", val)
			}
			return
		}
	}
	t.Error("orchard_apples_generated_total metric not found")
}

// TestRecordRequestLatency_Observes はレイテンシヒストグラムへの記録を検証する。
func TestRecordRequestLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(50 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == "orchard_request_latency_seconds" {
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Error("histogram sample count = 0, want 1")
			}
			return
		}
	}
	t.Error("orchard_request_latency_seconds metric not found")
}

// TestHandler_ExposesMetrics は/metricsハンドラーがPrometheus形式で
// メトリクスを公開することを検証する。
func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to request metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "orchard_http_status_total") {
		t.Error("orchard_http_status_total が公開されていない")
	}
}
