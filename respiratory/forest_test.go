package respiratory

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewForestFromFileFallsBackToExampleArtifact(t *testing.T) {
	t.Parallel()

	// model.json is not checked in; the loader must fall back to the
	// neighbouring example artifact.
	forest, err := NewForestFromFile(modelFilePath(t))
	if err != nil {
		t.Fatalf("NewForestFromFile returned error: %v", err)
	}

	info := forest.Info()
	if !info.UsingExample {
		t.Fatal("expected the example artifact fallback to be reported")
	}
	if info.FeatureCount != FeatureVectorWidth {
		t.Fatalf("artifact expects %d features, want %d", info.FeatureCount, FeatureVectorWidth)
	}
	if info.TreeCount == 0 {
		t.Fatal("artifact contains no trees")
	}
	if len(info.Classes) == 0 {
		t.Fatal("artifact declares no classes")
	}
}

func TestNewForestFromFileMissingArtifact(t *testing.T) {
	t.Parallel()

	_, err := NewForestFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestNewForestFromFileRejectsCorruptArtifact(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt artifact: %v", err)
	}

	if _, err := NewForestFromFile(path); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for corrupt artifact, got %v", err)
	}
}

func TestForestPredictProbabilitiesFormDistribution(t *testing.T) {
	t.Parallel()

	forest := loadTestForest(t)

	vectors := [][]float64{
		make([]float64, FeatureVectorWidth),
		testFeatureVector(),
	}

	for _, vector := range vectors {
		result, err := forest.Predict(vector)
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}

		if result.Prediction == "" {
			t.Fatal("empty prediction label")
		}
		if len(result.AllProbabilities) != len(forest.Classes()) {
			t.Fatalf("got %d probabilities, want one per class (%d)",
				len(result.AllProbabilities), len(forest.Classes()))
		}

		var sum float64
		for class, p := range result.AllProbabilities {
			if p < 0 || p > 1 {
				t.Fatalf("probability of %s out of range: %f", class, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("probabilities sum to %f, want 1", sum)
		}

		if result.AllProbabilities[result.Prediction] != result.Confidence {
			t.Fatalf("confidence %f does not match predicted class probability %f",
				result.Confidence, result.AllProbabilities[result.Prediction])
		}
		for _, p := range result.AllProbabilities {
			if p > result.Confidence {
				t.Fatalf("predicted class is not the arg-max: %f > confidence %f", p, result.Confidence)
			}
		}
	}
}

func TestForestPredictRejectsWrongWidth(t *testing.T) {
	t.Parallel()

	forest := loadTestForest(t)

	if _, err := forest.Predict(make([]float64, FeatureVectorWidth-1)); !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference for short vector, got %v", err)
	}
	if _, err := forest.Predict(nil); !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference for nil vector, got %v", err)
	}
}

func TestForestPredictIsDeterministic(t *testing.T) {
	t.Parallel()

	forest := loadTestForest(t)
	vector := testFeatureVector()

	first, err := forest.Predict(vector)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	second, err := forest.Predict(vector)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}

	if first.Prediction != second.Prediction || first.Confidence != second.Confidence {
		t.Fatalf("predictions differ between runs: %+v vs %+v", first, second)
	}
}

func loadTestForest(t *testing.T) *Forest {
	t.Helper()
	forest, err := NewForestFromFile(modelFilePath(t))
	if err != nil {
		t.Fatalf("failed to load test forest: %v", err)
	}
	return forest
}

// testFeatureVector returns a vector with magnitudes in the rough range the
// extractor produces for real clips.
func testFeatureVector() []float64 {
	vector := make([]float64, FeatureVectorWidth)
	for i, column := range FeatureColumns() {
		switch {
		case column == "mfcc_mean" || column == "mfcc_min":
			vector[i] = -40
		case column == "spectral_centroid_mean" || column == "spectral_centroid_max":
			vector[i] = 1800
		case column == "spectral_rolloff_mean" || column == "spectral_rolloff_max":
			vector[i] = 3500
		case column == "spectral_bandwidth_mean":
			vector[i] = 1200
		case column == "zero_crossing_rate_mean":
			vector[i] = 0.09
		default:
			vector[i] = 0.1 * float64(i+1)
		}
	}
	return vector
}

func modelFilePath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine caller information")
	}
	return filepath.Join(filepath.Dir(file), "model.json")
}
