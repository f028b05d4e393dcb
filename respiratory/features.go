package respiratory

// Acoustic Feature Extraction
//
// The extractor computes the eight descriptor families the classifier was
// trained on, all derived from one shared short-time magnitude spectrogram
// (Hann window, frozen window/hop constants in stft.go):
//
//   - Chroma energy: spectral power folded onto 12 pitch classes
//   - MFCC: 13 mel-frequency cepstral coefficients
//   - Mel spectrogram: 128 mel band power energies
//   - Spectral contrast: peak-to-valley difference per octave sub-band
//   - Spectral centroid: magnitude-weighted mean frequency
//   - Spectral bandwidth: magnitude-weighted spread around the centroid
//   - Spectral rolloff: frequency below which 85% of energy is contained
//   - Zero crossing rate: sign-change rate per analysis frame
//
// Every descriptor yields one value (or one vector) per frame, and the frame
// count is constant because the normalizer fixes the input length. The whole
// computation is sequential and allocation-deterministic: identical input
// bytes always produce identical descriptor values.

import (
	"fmt"
	"math"
)

// rolloffThreshold is the cumulative-energy fraction defining the rolloff
// frequency, fixed at training time.
const rolloffThreshold = 0.85

// FeatureSet holds the per-frame descriptor matrices for one clip, in the
// order fixed at training time.
type FeatureSet struct {
	ChromaEnergy      [][]float64 // frames x 12
	MFCC              [][]float64 // frames x 13
	MelSpectrogram    [][]float64 // frames x 128
	SpectralContrast  [][]float64 // frames x 7
	SpectralCentroid  []float64   // per frame
	SpectralBandwidth []float64   // per frame
	SpectralRolloff   []float64   // per frame
	ZeroCrossingRate  []float64   // per frame
}

// ExtractFeatures computes all descriptor families for a fixed-length
// normalized signal.
func ExtractFeatures(samples []float64, sampleRate int) (*FeatureSet, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrFeatureExtraction, sampleRate)
	}

	spectra, err := magnitudeSpectrogram(samples)
	if err != nil {
		return nil, err
	}

	mel := melSpectrogram(spectra, sampleRate)

	frames := len(spectra)
	centroid := make([]float64, frames)
	bandwidth := make([]float64, frames)
	rolloff := make([]float64, frames)
	for frame, magnitudes := range spectra {
		centroid[frame] = spectralCentroid(magnitudes, sampleRate)
		bandwidth[frame] = spectralBandwidth(magnitudes, sampleRate, centroid[frame])
		rolloff[frame] = spectralRolloff(magnitudes, sampleRate)
	}

	return &FeatureSet{
		ChromaEnergy:      chromaEnergy(spectra, sampleRate),
		MFCC:              mfccFromMel(mel),
		MelSpectrogram:    mel,
		SpectralContrast:  spectralContrast(spectra, sampleRate),
		SpectralCentroid:  centroid,
		SpectralBandwidth: bandwidth,
		SpectralRolloff:   rolloff,
		ZeroCrossingRate:  zeroCrossingRates(samples),
	}, nil
}

func spectralCentroid(magnitudes []float64, sampleRate int) float64 {
	var weightedSum, total float64
	for k, mag := range magnitudes {
		weightedSum += mag * binFrequency(k, sampleRate)
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weightedSum / total
}

func spectralBandwidth(magnitudes []float64, sampleRate int, centroid float64) float64 {
	var variance, total float64
	for k, mag := range magnitudes {
		deviation := binFrequency(k, sampleRate) - centroid
		variance += mag * deviation * deviation
		total += mag
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(variance / total)
}

func spectralRolloff(magnitudes []float64, sampleRate int) float64 {
	var total float64
	for _, mag := range magnitudes {
		total += mag
	}
	if total == 0 {
		return 0
	}

	target := rolloffThreshold * total
	var cumulative float64
	for k, mag := range magnitudes {
		cumulative += mag
		if cumulative >= target {
			return binFrequency(k, sampleRate)
		}
	}
	return binFrequency(len(magnitudes)-1, sampleRate)
}

// zeroCrossingRates computes the fraction of sign changes inside each
// analysis frame, using the same framing as the spectral descriptors.
func zeroCrossingRates(samples []float64) []float64 {
	frames := frameCount(len(samples))
	rates := make([]float64, frames)
	for frame := 0; frame < frames; frame++ {
		offset := frame * hopSize
		var crossings int
		for i := 1; i < fftSize; i++ {
			prev, cur := samples[offset+i-1], samples[offset+i]
			if (prev >= 0) != (cur >= 0) {
				crossings++
			}
		}
		rates[frame] = float64(crossings) / float64(fftSize)
	}
	return rates
}
