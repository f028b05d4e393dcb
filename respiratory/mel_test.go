package respiratory

import "testing"

func TestMelScaleIsInvertible(t *testing.T) {
	t.Parallel()

	for _, freq := range []float64{0, 100, 440, 1000, 4000, 8000} {
		back := melToHz(hzToMel(freq))
		if diff := back - freq; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("melToHz(hzToMel(%f)) = %f", freq, back)
		}
	}
}

func TestMelFilterbankIsKeyedBySampleRate(t *testing.T) {
	t.Parallel()

	bank16k := melFilterbank(16000)
	bank8k := melFilterbank(8000)

	if len(bank16k) != melBandCount || len(bank8k) != melBandCount {
		t.Fatalf("filter counts = %d / %d, want %d", len(bank16k), len(bank8k), melBandCount)
	}

	// The banks span different Nyquist ranges, so their weights must differ.
	identical := true
	for m := range bank16k {
		for k := range bank16k[m] {
			if bank16k[m][k] != bank8k[m][k] {
				identical = false
				break
			}
		}
		if !identical {
			break
		}
	}
	if identical {
		t.Fatal("8 kHz request returned the 16 kHz filterbank")
	}

	// Repeated requests for the same rate are served from cache.
	if again := melFilterbank(16000); &again[0] != &bank16k[0] {
		t.Fatal("repeated 16 kHz request rebuilt the filterbank")
	}
}

func TestMelFilterbankFiltersCoverSpectrum(t *testing.T) {
	t.Parallel()

	bank := melFilterbank(TargetSampleRate)
	binCount := fftSize/2 + 1

	for m, filter := range bank {
		if len(filter) != binCount {
			t.Fatalf("filter %d has %d bins, want %d", m, len(filter), binCount)
		}
		var sum float64
		for _, w := range filter {
			if w < 0 {
				t.Fatalf("filter %d has a negative weight", m)
			}
			sum += w
		}
		if sum == 0 {
			t.Fatalf("filter %d is empty", m)
		}
	}
}
