package respiratory

// Audio decode path. Uploaded bytes arrive in whatever container the client
// produced (WAV from the recorder widget, m4a from Android, webm from
// browsers). Native WAV is decoded in-memory; everything else is converted
// through ffmpeg first. The decoded signal is downmixed to mono and
// resampled to the rate the classifier was trained at.

import (
	"fmt"

	"breath-classification/wav"
)

// TargetSampleRate is the rate the classifier expects. The mobile capture
// path records at 44.1 kHz; the decoder resamples regardless of source rate.
const TargetSampleRate = 16000

// PrepareAudioSample converts an uploaded payload into mono samples at
// TargetSampleRate. ext hints the container format for non-WAV uploads and
// may be empty.
func PrepareAudioSample(data []byte, ext string) (*AudioSample, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	payload := data
	if !wav.IsWAV(data) {
		converted, err := wav.ConvertBytesToWAV(data, ext)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		payload = converted
	}

	decoded, err := wav.DecodeBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(decoded.Samples) == 0 {
		return nil, fmt.Errorf("%w: no samples decoded", ErrDecode)
	}

	samples := wav.Resample(decoded.Samples, decoded.SampleRate, TargetSampleRate)

	return &AudioSample{
		Samples:    samples,
		SampleRate: TargetSampleRate,
		Duration:   float64(len(samples)) / float64(TargetSampleRate),
	}, nil
}
