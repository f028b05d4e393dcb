package respiratory

import (
	"math"
	"sync"
)

// Mel filterbank and cepstral coefficients.

const (
	melBandCount  = 128
	mfccCoeffs    = 13
	melFloorValue = 1e-10
)

var (
	melFilterMu    sync.Mutex
	melFilterBanks = make(map[int][][]float64)
)

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank returns the melBandCount triangular filters over the FFT
// bins, spanning 0 Hz to Nyquist for the given sample rate. Banks are cached
// per rate; the returned slices are read-only.
func melFilterbank(sampleRate int) [][]float64 {
	melFilterMu.Lock()
	defer melFilterMu.Unlock()

	if bank, ok := melFilterBanks[sampleRate]; ok {
		return bank
	}
	bank := buildMelFilterbank(sampleRate)
	melFilterBanks[sampleRate] = bank
	return bank
}

func buildMelFilterbank(sampleRate int) [][]float64 {
	binCount := fftSize/2 + 1
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2)

	melPoints := make([]float64, melBandCount+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(melBandCount+1)
	}

	hzPoints := make([]float64, len(melPoints))
	for i, mel := range melPoints {
		hzPoints[i] = melToHz(mel)
	}

	bank := make([][]float64, melBandCount)
	for m := 0; m < melBandCount; m++ {
		filter := make([]float64, binCount)
		left := hzPoints[m]
		center := hzPoints[m+1]
		right := hzPoints[m+2]

		for k := 0; k < binCount; k++ {
			f := binFrequency(k, sampleRate)
			switch {
			case f >= left && f <= center && center > left:
				filter[k] = (f - left) / (center - left)
			case f > center && f <= right && right > center:
				filter[k] = (right - f) / (right - center)
			}
		}
		bank[m] = filter
	}
	return bank
}

// melSpectrogram folds per-frame power spectra through the mel filterbank.
// Result shape: frames x melBandCount.
func melSpectrogram(spectra [][]float64, sampleRate int) [][]float64 {
	filters := melFilterbank(sampleRate)

	mel := make([][]float64, len(spectra))
	for frame, magnitudes := range spectra {
		bands := make([]float64, melBandCount)
		for m, filter := range filters {
			var sum float64
			for k, weight := range filter {
				if weight == 0 {
					continue
				}
				sum += weight * magnitudes[k] * magnitudes[k]
			}
			bands[m] = sum
		}
		mel[frame] = bands
	}
	return mel
}

// mfccFromMel computes mfccCoeffs cepstral coefficients per frame via a
// DCT-II over the log mel energies.
func mfccFromMel(mel [][]float64) [][]float64 {
	coeffs := make([][]float64, len(mel))
	logEnergies := make([]float64, melBandCount)

	for frame, bands := range mel {
		for i, energy := range bands {
			if energy < melFloorValue {
				energy = melFloorValue
			}
			logEnergies[i] = math.Log(energy)
		}

		row := make([]float64, mfccCoeffs)
		for i := 0; i < mfccCoeffs; i++ {
			var sum float64
			for j := 0; j < melBandCount; j++ {
				sum += logEnergies[j] * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/float64(melBandCount))
			}
			row[i] = sum
		}
		coeffs[frame] = row
	}
	return coeffs
}
