package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPDurationSeconds == nil {
		t.Error("HTTPDurationSeconds is nil")
	}
	if m.AnalysesTotal == nil {
		t.Error("AnalysesTotal is nil")
	}
	if m.AnalysisDurationSeconds == nil {
		t.Error("AnalysisDurationSeconds is nil")
	}
	if m.AnalysisScore == nil {
		t.Error("AnalysisScore is nil")
	}
	if m.ExtractionsTotal == nil {
		t.Error("ExtractionsTotal is nil")
	}
	if m.OCRRequestsTotal == nil {
		t.Error("OCRRequestsTotal is nil")
	}
	if m.ReportUploadsTotal == nil {
		t.Error("ReportUploadsTotal is nil")
	}
	if m.LoginsTotal == nil {
		t.Error("LoginsTotal is nil")
	}
}

func TestRecordAnalysis(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordAnalysis("lab_report", "ok", 85)
	m.RecordAnalysis("lab_report", "ok", 59)
	m.RecordAnalysis("thesis", "empty_file", 0)

	got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("lab_report", "ok"))
	if got != 2 {
		t.Errorf("lab_report/ok count = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("thesis", "empty_file"))
	if got != 1 {
		t.Errorf("thesis/empty_file count = %v, want 1", got)
	}
}

func TestRecordHelpers_NoPanic(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordHTTPRequest("/api/analyze", "200", 0.42)
	m.RecordAnalysisDuration("pdf", 1.2)
	m.RecordExtraction("docx", "success")
	m.RecordOCR("success", 3.1)
	m.RecordOCR("empty", 0.9)
	m.RecordReportUpload("error")
	m.RecordLogin("success")
	m.RecordLogin("bad_credentials")
}
