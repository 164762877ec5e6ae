package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewEngineMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	em := NewEngineMetrics(nil, registry)
	if em == nil {
		t.Fatal("Expected non-nil metrics")
	}

	// Registering the same metrics twice must panic, proving they were
	// registered the first time.
	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	NewEngineMetrics(nil, registry)
}

func TestEngineMetrics_RecordEvaluation(t *testing.T) {
	registry := prometheus.NewRegistry()
	em := NewEngineMetrics(DefaultConfig(), registry)

	em.RecordEvaluation("defined", 50*time.Microsecond)
	em.RecordEvaluation("defined", 80*time.Microsecond)
	em.RecordEvaluation("error", time.Millisecond)

	defined := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("defined"))
	if defined != 2 {
		t.Errorf("defined count = %f, want 2", defined)
	}
	errored := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("error"))
	if errored != 1 {
		t.Errorf("error count = %f, want 1", errored)
	}
	undefined := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("undefined"))
	if undefined != 0 {
		t.Errorf("undefined count = %f, want 0", undefined)
	}
}

func TestEngineMetrics_SetPoliciesLoaded(t *testing.T) {
	registry := prometheus.NewRegistry()
	em := NewEngineMetrics(DefaultConfig(), registry)

	em.SetPoliciesLoaded(3)
	if got := testutil.ToFloat64(em.policiesLoaded); got != 3 {
		t.Errorf("policies loaded = %f, want 3", got)
	}

	em.SetPoliciesLoaded(1)
	if got := testutil.ToFloat64(em.policiesLoaded); got != 1 {
		t.Errorf("policies loaded = %f, want 1", got)
	}
}

func TestEngineMetrics_RecordReload(t *testing.T) {
	registry := prometheus.NewRegistry()
	em := NewEngineMetrics(DefaultConfig(), registry)

	em.RecordReload("ok")
	em.RecordReload("ok")
	em.RecordReload("error")

	if got := testutil.ToFloat64(em.reloadsTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok reloads = %f, want 2", got)
	}
	if got := testutil.ToFloat64(em.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error reloads = %f, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(&Config{Namespace: "test", Subsystem: "engine"})
	collector.Engine.RecordEvaluation("defined", time.Microsecond)
	collector.Engine.SetPoliciesLoaded(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "test_engine_evaluations_total") {
		t.Errorf("exposition missing evaluations counter:\n%s", body)
	}
	if !strings.Contains(body, "test_engine_policies_loaded 2") {
		t.Errorf("exposition missing policies gauge:\n%s", body)
	}
}
