package respiratory

import (
	"fmt"
	"math"
)

// TargetDuration is the fixed clip length in seconds used at training time
// (the shortest clip in the training dataset). Every request is truncated or
// zero-padded to exactly this duration so the downstream frame count, and
// therefore the statistics feeding the classifier, never varies.
const TargetDuration = 7.8560090702947845

// silenceThreshold is the peak amplitude below which a clip is treated as
// carrying no detectable signal when the silence gate is enabled.
const silenceThreshold = 1e-5

// NormalizeDuration returns exactly TargetDuration*sampleRate samples.
// Longer input keeps its first N samples; shorter input is right-padded
// with zeros.
func NormalizeDuration(samples []float64, sampleRate int) ([]float64, error) {
	return normalizeDuration(samples, sampleRate, false)
}

// NormalizeDurationGated behaves like NormalizeDuration but additionally
// rejects clips whose peak amplitude never rises above the detectable-signal
// threshold.
func NormalizeDurationGated(samples []float64, sampleRate int) ([]float64, error) {
	return normalizeDuration(samples, sampleRate, true)
}

func normalizeDuration(samples []float64, sampleRate int, gated bool) ([]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample sequence", ErrInvalidAudio)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidAudio, sampleRate)
	}

	if gated {
		peak := 0.0
		for _, v := range samples {
			if abs := math.Abs(v); abs > peak {
				peak = abs
			}
		}
		if peak < silenceThreshold {
			return nil, fmt.Errorf("%w: no detectable signal (peak %.2e)", ErrInvalidAudio, peak)
		}
	}

	targetSamples := int(TargetDuration * float64(sampleRate))

	normalized := make([]float64, targetSamples)
	copy(normalized, samples)
	return normalized, nil
}
