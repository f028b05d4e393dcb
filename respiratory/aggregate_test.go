package respiratory

import (
	"errors"
	"math"
	"testing"
)

func TestFeatureColumnsAreFrozen(t *testing.T) {
	t.Parallel()

	columns := FeatureColumns()
	if len(columns) != FeatureVectorWidth {
		t.Fatalf("FeatureColumns returned %d names, want %d", len(columns), FeatureVectorWidth)
	}

	// The two columns dropped at training time must never reappear.
	for _, column := range columns {
		if column == "chroma_stft_max" || column == "mel_spectrogram_min" {
			t.Fatalf("excluded column %s present in feature table", column)
		}
	}

	// Spot-check the anchoring of the frozen ordering.
	if columns[0] != "chroma_stft_mean" {
		t.Fatalf("first column = %s, want chroma_stft_mean", columns[0])
	}
	if columns[3] != "mfcc_mean" {
		t.Fatalf("fourth column = %s, want mfcc_mean", columns[3])
	}
	if columns[FeatureVectorWidth-1] != "zero_crossing_rate_min" {
		t.Fatalf("last column = %s, want zero_crossing_rate_min", columns[FeatureVectorWidth-1])
	}
}

func TestAggregateFeaturesComputesWholeMatrixStatistics(t *testing.T) {
	t.Parallel()

	set := &FeatureSet{
		ChromaEnergy:      [][]float64{{1, 2}, {3, 4}},
		MFCC:              [][]float64{{-1, 1}},
		MelSpectrogram:    [][]float64{{0, 2}},
		SpectralContrast:  [][]float64{{5, 5}},
		SpectralCentroid:  []float64{100, 300},
		SpectralBandwidth: []float64{50, 50},
		SpectralRolloff:   []float64{1000, 3000},
		ZeroCrossingRate:  []float64{0.1, 0.3},
	}

	vector, err := AggregateFeatures(set)
	if err != nil {
		t.Fatalf("AggregateFeatures returned error: %v", err)
	}
	if len(vector) != FeatureVectorWidth {
		t.Fatalf("vector width = %d, want %d", len(vector), FeatureVectorWidth)
	}

	// chroma: values 1..4 over the whole matrix.
	assertClose(t, "chroma_stft_mean", vector[0], 2.5)
	assertClose(t, "chroma_stft_std", vector[1], math.Sqrt(1.25))
	assertClose(t, "chroma_stft_min", vector[2], 1)

	// mfcc: mean 0, population std 1, max 1, min -1.
	assertClose(t, "mfcc_mean", vector[3], 0)
	assertClose(t, "mfcc_std", vector[4], 1)
	assertClose(t, "mfcc_max", vector[5], 1)
	assertClose(t, "mfcc_min", vector[6], -1)

	// centroid series: mean 200, std 100, max 300, min 100.
	assertClose(t, "spectral_centroid_mean", vector[14], 200)
	assertClose(t, "spectral_centroid_std", vector[15], 100)
	assertClose(t, "spectral_centroid_max", vector[16], 300)
	assertClose(t, "spectral_centroid_min", vector[17], 100)
}

func TestAggregateFeaturesRejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	set := &FeatureSet{
		ChromaEnergy:      [][]float64{{math.NaN()}},
		MFCC:              [][]float64{{0}},
		MelSpectrogram:    [][]float64{{0}},
		SpectralContrast:  [][]float64{{0}},
		SpectralCentroid:  []float64{0},
		SpectralBandwidth: []float64{0},
		SpectralRolloff:   []float64{0},
		ZeroCrossingRate:  []float64{0},
	}

	if _, err := AggregateFeatures(set); !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("expected ErrFeatureExtraction for NaN input, got %v", err)
	}

	if _, err := AggregateFeatures(nil); !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("expected ErrFeatureExtraction for nil set, got %v", err)
	}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %f, want %f", name, got, want)
	}
}
