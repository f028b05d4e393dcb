package respiratory

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeDurationPadsShortClip(t *testing.T) {
	t.Parallel()

	sampleRate := 16000
	samples := sineWave(440, sampleRate, 3*sampleRate)

	normalized, err := NormalizeDuration(samples, sampleRate)
	if err != nil {
		t.Fatalf("NormalizeDuration returned error: %v", err)
	}

	want := int(TargetDuration * float64(sampleRate))
	if len(normalized) != want {
		t.Fatalf("normalized length = %d, want %d", len(normalized), want)
	}
	for i, v := range samples {
		if normalized[i] != v {
			t.Fatalf("sample %d changed during padding: got %f, want %f", i, normalized[i], v)
		}
	}
	for i := len(samples); i < len(normalized); i++ {
		if normalized[i] != 0 {
			t.Fatalf("padding sample %d is %f, want 0", i, normalized[i])
		}
	}
}

func TestNormalizeDurationTruncatesLongClip(t *testing.T) {
	t.Parallel()

	sampleRate := 16000
	samples := sineWave(440, sampleRate, 20*sampleRate)

	normalized, err := NormalizeDuration(samples, sampleRate)
	if err != nil {
		t.Fatalf("NormalizeDuration returned error: %v", err)
	}

	want := int(TargetDuration * float64(sampleRate))
	if len(normalized) != want {
		t.Fatalf("normalized length = %d, want %d", len(normalized), want)
	}
	for i := range normalized {
		if normalized[i] != samples[i] {
			t.Fatalf("sample %d changed during truncation", i)
		}
	}
}

func TestNormalizeDurationRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeDuration(nil, 16000); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("expected ErrInvalidAudio for empty input, got %v", err)
	}
	if _, err := NormalizeDuration([]float64{0.1}, 0); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("expected ErrInvalidAudio for zero sample rate, got %v", err)
	}
}

func TestNormalizeDurationGatedRejectsSilence(t *testing.T) {
	t.Parallel()

	silent := make([]float64, 16000)

	if _, err := NormalizeDurationGated(silent, 16000); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("expected ErrInvalidAudio for silent clip, got %v", err)
	}

	// The ungated path must still accept silence; padding-only clips occur in
	// practice when a user uploads a muted recording.
	if _, err := NormalizeDuration(silent, 16000); err != nil {
		t.Fatalf("ungated normalization rejected silence: %v", err)
	}
}

func sineWave(freq float64, sampleRate, length int) []float64 {
	samples := make([]float64, length)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}
