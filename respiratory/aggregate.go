package respiratory

// Statistical aggregation of per-frame descriptors into the classifier's
// fixed-width input vector.
//
// Each descriptor matrix is collapsed to mean / standard deviation / maximum
// / minimum over ALL of its elements (whole-matrix, not per band) and the
// scalars are concatenated in the order below. The order and the two
// excluded columns were fixed when the forest was trained; they are part of
// the model's contract and must never be re-derived or reordered. See
// featureColumnTable.

import (
	"fmt"
	"math"
)

// FeatureVectorWidth is the classifier's expected input dimensionality.
const FeatureVectorWidth = 30

// featureColumnTable is the frozen (descriptor, statistic) ordering, version
// 1. chroma_stft_max and mel_spectrogram_min were dropped during training
// and stay excluded here.
var featureColumnTable = []string{
	"chroma_stft_mean", "chroma_stft_std", "chroma_stft_min",
	"mfcc_mean", "mfcc_std", "mfcc_max", "mfcc_min",
	"mel_spectrogram_mean", "mel_spectrogram_std", "mel_spectrogram_max",
	"spectral_contrast_mean", "spectral_contrast_std", "spectral_contrast_max", "spectral_contrast_min",
	"spectral_centroid_mean", "spectral_centroid_std", "spectral_centroid_max", "spectral_centroid_min",
	"spectral_bandwidth_mean", "spectral_bandwidth_std", "spectral_bandwidth_max", "spectral_bandwidth_min",
	"spectral_rolloff_mean", "spectral_rolloff_std", "spectral_rolloff_max", "spectral_rolloff_min",
	"zero_crossing_rate_mean", "zero_crossing_rate_std", "zero_crossing_rate_max", "zero_crossing_rate_min",
}

// FeatureColumns returns the ordered column names of the feature vector.
func FeatureColumns() []string {
	return append([]string(nil), featureColumnTable...)
}

// descriptorStats holds the four summary statistics of one descriptor.
type descriptorStats struct {
	mean, std, max, min float64
}

// AggregateFeatures reduces a FeatureSet to the ordered 30-element vector
// the classifier expects.
func AggregateFeatures(set *FeatureSet) ([]float64, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil feature set", ErrFeatureExtraction)
	}

	chroma := matrixStats(set.ChromaEnergy)
	mfcc := matrixStats(set.MFCC)
	mel := matrixStats(set.MelSpectrogram)
	contrast := matrixStats(set.SpectralContrast)
	centroid := seriesStats(set.SpectralCentroid)
	bandwidth := seriesStats(set.SpectralBandwidth)
	rolloff := seriesStats(set.SpectralRolloff)
	zcr := seriesStats(set.ZeroCrossingRate)

	vector := []float64{
		chroma.mean, chroma.std, chroma.min,
		mfcc.mean, mfcc.std, mfcc.max, mfcc.min,
		mel.mean, mel.std, mel.max,
		contrast.mean, contrast.std, contrast.max, contrast.min,
		centroid.mean, centroid.std, centroid.max, centroid.min,
		bandwidth.mean, bandwidth.std, bandwidth.max, bandwidth.min,
		rolloff.mean, rolloff.std, rolloff.max, rolloff.min,
		zcr.mean, zcr.std, zcr.max, zcr.min,
	}

	if len(vector) != FeatureVectorWidth {
		return nil, fmt.Errorf("%w: produced %d columns, expected %d",
			ErrFeatureExtraction, len(vector), FeatureVectorWidth)
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %s is not finite",
				ErrFeatureExtraction, featureColumnTable[i])
		}
	}
	return vector, nil
}

func matrixStats(matrix [][]float64) descriptorStats {
	var count int
	var sum float64
	minValue := math.Inf(1)
	maxValue := math.Inf(-1)

	for _, row := range matrix {
		for _, v := range row {
			sum += v
			if v < minValue {
				minValue = v
			}
			if v > maxValue {
				maxValue = v
			}
			count++
		}
	}
	if count == 0 {
		return descriptorStats{}
	}

	mean := sum / float64(count)
	var variance float64
	for _, row := range matrix {
		for _, v := range row {
			diff := v - mean
			variance += diff * diff
		}
	}

	return descriptorStats{
		mean: mean,
		std:  math.Sqrt(variance / float64(count)),
		max:  maxValue,
		min:  minValue,
	}
}

func seriesStats(series []float64) descriptorStats {
	if len(series) == 0 {
		return descriptorStats{}
	}

	var sum float64
	minValue := math.Inf(1)
	maxValue := math.Inf(-1)
	for _, v := range series {
		sum += v
		if v < minValue {
			minValue = v
		}
		if v > maxValue {
			maxValue = v
		}
	}

	mean := sum / float64(len(series))
	var variance float64
	for _, v := range series {
		diff := v - mean
		variance += diff * diff
	}

	return descriptorStats{
		mean: mean,
		std:  math.Sqrt(variance / float64(len(series))),
		max:  maxValue,
		min:  minValue,
	}
}
