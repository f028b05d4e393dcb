package respiratory

// Service ties the pipeline stages together: decode, duration
// normalization, feature extraction, statistical aggregation, cached forest
// inference. It is the single entry point used by the HTTP handlers, the
// socket handlers, and the cmd tools.
//
// Every invocation is synchronous and CPU-bound. The loaded forest is
// read-only and the cache serializes its own access, so one Service is
// shared across all request goroutines. Failures propagate immediately as
// typed errors; there are no internal retries because the pipeline is
// deterministic and a second attempt over the same bytes would fail
// identically.

import (
	"errors"
	"time"

	"breath-classification/metrics"
)

// ServiceConfig controls pipeline behaviour.
type ServiceConfig struct {
	// CacheSize bounds the prediction cache entry count.
	CacheSize int
	// SilenceGate rejects clips with no detectable signal when true.
	SilenceGate bool
}

// Service runs the audio-to-prediction pipeline.
type Service struct {
	forest  *Forest
	cache   *PredictionCache
	config  ServiceConfig
	metrics *metrics.Metrics
}

// NewService assembles a pipeline around a loaded forest. metrics may be
// nil (cmd tools and tests run without instrumentation).
func NewService(forest *Forest, config ServiceConfig, m *metrics.Metrics) *Service {
	return &Service{
		forest:  forest,
		cache:   NewPredictionCache(config.CacheSize),
		config:  config,
		metrics: m,
	}
}

// Forest exposes the loaded model for the health and model-info surfaces.
func (s *Service) Forest() *Forest {
	return s.forest
}

// Cache exposes the prediction cache for stats reporting.
func (s *Service) Cache() *PredictionCache {
	return s.cache
}

// ClassifyBytes runs the full pipeline over an uploaded audio payload. ext
// hints the container format for non-WAV uploads and may be empty. The raw
// bytes are only used in-memory; nothing is persisted. The returned bool
// reports whether the result was served from cache.
func (s *Service) ClassifyBytes(data []byte, ext string) (*ClassificationResult, bool, error) {
	started := time.Now()

	result, hit, err := s.cache.GetOrCompute(Fingerprint(data), func() (*ClassificationResult, error) {
		return s.classify(data, ext)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PredictionErrors.WithLabelValues(errorKind(err)).Inc()
		}
		return nil, false, err
	}

	if s.metrics != nil {
		if hit {
			s.metrics.CacheHits.Inc()
		} else {
			s.metrics.CacheMisses.Inc()
		}
		s.metrics.CacheEntries.Set(float64(s.cache.Len()))
		s.metrics.PredictionsTotal.WithLabelValues(result.Prediction).Inc()
		s.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
	}

	return result, hit, nil
}

// ClassifyVector runs inference only, bypassing decode and extraction. Used
// by the cmd tools when a feature vector is already at hand.
func (s *Service) ClassifyVector(vector []float64) (*ClassificationResult, error) {
	return s.forest.Predict(vector)
}

// ExtractVector runs decode, normalization, extraction, and aggregation,
// returning the 30-element feature vector without classifying it.
func (s *Service) ExtractVector(data []byte, ext string) ([]float64, error) {
	sample, err := PrepareAudioSample(data, ext)
	if err != nil {
		return nil, err
	}
	return s.vectorFromSample(sample)
}

func (s *Service) classify(data []byte, ext string) (*ClassificationResult, error) {
	sample, err := PrepareAudioSample(data, ext)
	if err != nil {
		return nil, err
	}

	vector, err := s.vectorFromSample(sample)
	if err != nil {
		return nil, err
	}

	inferenceStarted := time.Now()
	result, err := s.forest.Predict(vector)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.InferenceDuration.Observe(time.Since(inferenceStarted).Seconds())
	}
	return result, nil
}

func (s *Service) vectorFromSample(sample *AudioSample) ([]float64, error) {
	normalize := NormalizeDuration
	if s.config.SilenceGate {
		normalize = NormalizeDurationGated
	}

	normalized, err := normalize(sample.Samples, sample.SampleRate)
	if err != nil {
		return nil, err
	}

	extractionStarted := time.Now()
	features, err := ExtractFeatures(normalized, sample.SampleRate)
	if err != nil {
		return nil, err
	}

	vector, err := AggregateFeatures(features)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ExtractionDuration.Observe(time.Since(extractionStarted).Seconds())
	}
	return vector, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrInvalidAudio):
		return "invalid_audio"
	case errors.Is(err, ErrFeatureExtraction):
		return "feature_extraction"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrInference):
		return "inference"
	default:
		return "internal"
	}
}
