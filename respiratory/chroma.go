package respiratory

import "math"

// chromaClassCount is the number of pitch classes (C, C#, ..., B).
const chromaClassCount = 12

// chromaEnergy folds per-frame spectral power onto the 12 pitch classes.
// Each bin's center frequency is mapped to its nearest equal-tempered pitch
// (A4 = 440 Hz) and its power accumulated under that pitch class. Frames are
// max-normalized so the strongest class in a frame is 1.
// Result shape: frames x 12.
func chromaEnergy(spectra [][]float64, sampleRate int) [][]float64 {
	binCount := fftSize/2 + 1
	classOf := make([]int, binCount)
	for k := 1; k < binCount; k++ {
		freq := binFrequency(k, sampleRate)
		// MIDI note number; note 0 is C, so midi mod 12 gives the class.
		midi := 69 + 12*math.Log2(freq/440.0)
		class := int(math.Round(midi)) % chromaClassCount
		if class < 0 {
			class += chromaClassCount
		}
		classOf[k] = class
	}

	chroma := make([][]float64, len(spectra))
	for frame, magnitudes := range spectra {
		classes := make([]float64, chromaClassCount)
		for k := 1; k < binCount; k++ {
			classes[classOf[k]] += magnitudes[k] * magnitudes[k]
		}

		peak := 0.0
		for _, v := range classes {
			if v > peak {
				peak = v
			}
		}
		if peak > 0 {
			for i := range classes {
				classes[i] /= peak
			}
		}
		chroma[frame] = classes
	}
	return chroma
}
