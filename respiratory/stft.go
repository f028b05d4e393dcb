package respiratory

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Frozen short-time analysis parameters. These match the values used when
// the classifier was trained; changing either silently changes the frame
// count and corrupts the statistics the model expects.
const (
	fftSize = 2048
	hopSize = 512
)

// frameCount returns the number of analysis frames produced for a signal of
// the given length with the frozen window and hop.
func frameCount(sampleCount int) int {
	if sampleCount < fftSize {
		return 0
	}
	return 1 + (sampleCount-fftSize)/hopSize
}

// magnitudeSpectrogram computes one magnitude spectrum per frame. Each row
// holds fftSize/2+1 bins. Identical input always yields identical output:
// frames are processed sequentially in a fixed order with no shared state.
func magnitudeSpectrogram(samples []float64) ([][]float64, error) {
	if fftSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("%w: window=%d hop=%d", ErrFeatureExtraction, fftSize, hopSize)
	}

	frames := frameCount(len(samples))
	if frames == 0 {
		return nil, fmt.Errorf("%w: %d samples is shorter than one %d-sample window",
			ErrFeatureExtraction, len(samples), fftSize)
	}

	hann := window.Hann(fftSize)
	binCount := fftSize/2 + 1

	spectra := make([][]float64, frames)
	buffer := make([]float64, fftSize)
	for frame := 0; frame < frames; frame++ {
		offset := frame * hopSize
		for i := 0; i < fftSize; i++ {
			buffer[i] = samples[offset+i] * hann[i]
		}

		spectrum := fft.FFTReal(buffer)
		magnitudes := make([]float64, binCount)
		for i := 0; i < binCount; i++ {
			magnitudes[i] = cmplx.Abs(spectrum[i])
		}
		spectra[frame] = magnitudes
	}

	return spectra, nil
}

// binFrequency returns the center frequency in Hz of an FFT bin.
func binFrequency(bin, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(fftSize)
}
