package respiratory

import (
	"math"
	"sort"
)

// Spectral contrast: per-frame peak-to-valley energy difference inside
// octave-spaced sub-bands. Respiratory sounds (wheezes, crackles) show up as
// narrow-band structure that raises contrast in the affected band.

const (
	contrastBands    = 6
	contrastFmin     = 200.0
	contrastQuantile = 0.02
)

// contrastBandEdges returns the contrastBands+2 octave band edges in Hz:
// [0, fmin, 2*fmin, ..., nyquist].
func contrastBandEdges(sampleRate int) []float64 {
	edges := make([]float64, contrastBands+2)
	edges[0] = 0
	for i := 1; i <= contrastBands; i++ {
		edges[i] = contrastFmin * math.Pow(2, float64(i-1))
	}
	edges[contrastBands+1] = float64(sampleRate) / 2
	return edges
}

// spectralContrast computes one contrast value per sub-band per frame.
// Result shape: frames x (contrastBands+1).
func spectralContrast(spectra [][]float64, sampleRate int) [][]float64 {
	edges := contrastBandEdges(sampleRate)
	binCount := fftSize/2 + 1

	// Precompute the bin ranges for every band once; they only depend on
	// the frozen analysis constants.
	type bandRange struct{ start, end int }
	ranges := make([]bandRange, contrastBands+1)
	for band := 0; band <= contrastBands; band++ {
		low, high := edges[band], edges[band+1]
		start, end := binCount, 0
		for k := 0; k < binCount; k++ {
			f := binFrequency(k, sampleRate)
			if f >= low && f < high {
				if k < start {
					start = k
				}
				end = k + 1
			}
		}
		if start >= end {
			start, end = 0, 1
		}
		ranges[band] = bandRange{start: start, end: end}
	}

	const eps = 1e-10
	contrast := make([][]float64, len(spectra))
	for frame, magnitudes := range spectra {
		row := make([]float64, contrastBands+1)
		for band, r := range ranges {
			width := r.end - r.start
			power := make([]float64, width)
			for i := 0; i < width; i++ {
				mag := magnitudes[r.start+i]
				power[i] = mag * mag
			}
			sort.Float64s(power)

			take := int(math.Max(1, contrastQuantile*float64(width)))
			var valley, peak float64
			for i := 0; i < take; i++ {
				valley += power[i]
				peak += power[width-1-i]
			}
			valley /= float64(take)
			peak /= float64(take)

			row[band] = 10*math.Log10(peak+eps) - 10*math.Log10(valley+eps)
		}
		contrast[frame] = row
	}
	return contrast
}
