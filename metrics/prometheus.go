package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the classification service.
type Metrics struct {
	// Pipeline metrics
	PredictionsTotal   *prometheus.CounterVec
	PredictionErrors   *prometheus.CounterVec
	PipelineDuration   prometheus.Histogram
	InferenceDuration  prometheus.Histogram
	ExtractionDuration prometheus.Histogram

	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	CacheEntries prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resp_predictions_total",
			Help: "Total number of completed classifications by predicted label",
		}, []string{"label"}),
		PredictionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resp_prediction_errors_total",
			Help: "Total number of failed classifications by error kind",
		}, []string{"kind"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "resp_pipeline_duration_seconds",
			Help:    "End-to-end duration of the decode-to-prediction pipeline",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		InferenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "resp_inference_duration_seconds",
			Help:    "Duration of the forest inference step",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		ExtractionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "resp_feature_extraction_duration_seconds",
			Help:    "Duration of acoustic feature extraction and aggregation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resp_cache_hits_total",
			Help: "Total number of prediction cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resp_cache_misses_total",
			Help: "Total number of prediction cache misses",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "resp_cache_entries",
			Help: "Current number of entries in the prediction cache",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resp_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resp_http_request_duration_seconds",
			Help:    "HTTP request duration by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
