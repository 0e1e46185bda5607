// Package metrics defines the Prometheus metrics exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec

	// Analysis metrics
	AnalysesTotal           *prometheus.CounterVec
	AnalysisDurationSeconds *prometheus.HistogramVec
	AnalysisScore           prometheus.Histogram

	// Extraction metrics
	ExtractionsTotal *prometheus.CounterVec

	// OCR metrics
	OCRRequestsTotal   *prometheus.CounterVec
	OCRDurationSeconds prometheus.Histogram

	// Report metrics
	ReportUploadsTotal *prometheus.CounterVec

	// Auth metrics
	LoginsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),

		HTTPDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studycheck_http_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route"},
		),

		AnalysesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_analyses_total",
				Help: "Total document analyses by work type and status",
			},
			[]string{"work_type", "status"}, // status: ok, empty_file, unsupported_format, no_text_in_image, error
		),

		AnalysisDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studycheck_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds by file type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"file_type"},
		),

		AnalysisScore: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studycheck_analysis_score",
				Help:    "Distribution of analysis scores",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),

		ExtractionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_extractions_total",
				Help: "Total text extractions by file type and status",
			},
			[]string{"file_type", "status"}, // status: success, error
		),

		OCRRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_ocr_requests_total",
				Help: "Total OCR requests by status",
			},
			[]string{"status"}, // status: success, empty, error
		),

		OCRDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studycheck_ocr_duration_seconds",
				Help:    "OCR request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		ReportUploadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_report_uploads_total",
				Help: "Total PDF report uploads to object storage by status",
			},
			[]string{"status"}, // status: success, error
		),

		LoginsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studycheck_logins_total",
				Help: "Total login attempts by status",
			},
			[]string{"status"}, // status: success, bad_credentials
		),
	}

	return m
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(route, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordAnalysis records a finished document analysis
func (m *Metrics) RecordAnalysis(workType, status string, score int) {
	m.AnalysesTotal.WithLabelValues(workType, status).Inc()
	if status == "ok" {
		m.AnalysisScore.Observe(float64(score))
	}
}

// RecordAnalysisDuration records how long a full analysis took
func (m *Metrics) RecordAnalysisDuration(fileType string, duration float64) {
	m.AnalysisDurationSeconds.WithLabelValues(fileType).Observe(duration)
}

// RecordExtraction records a text extraction attempt
func (m *Metrics) RecordExtraction(fileType, status string) {
	m.ExtractionsTotal.WithLabelValues(fileType, status).Inc()
}

// RecordOCR records an OCR request
func (m *Metrics) RecordOCR(status string, duration float64) {
	m.OCRRequestsTotal.WithLabelValues(status).Inc()
	m.OCRDurationSeconds.Observe(duration)
}

// RecordReportUpload records a report upload attempt
func (m *Metrics) RecordReportUpload(status string) {
	m.ReportUploadsTotal.WithLabelValues(status).Inc()
}

// RecordLogin records a login attempt
func (m *Metrics) RecordLogin(status string) {
	m.LoginsTotal.WithLabelValues(status).Inc()
}
