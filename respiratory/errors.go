package respiratory

import "errors"

// Error taxonomy for the classification pipeline. Handlers map these to
// status codes with errors.Is; everything user-fixable sits under ErrDecode
// or ErrInvalidAudio, the rest indicates server-side trouble.
var (
	// ErrDecode marks an unrecognized or corrupt audio payload.
	ErrDecode = errors.New("audio decode failed")

	// ErrInvalidAudio marks decoded audio that is empty or below the
	// detectable-signal threshold.
	ErrInvalidAudio = errors.New("invalid audio signal")

	// ErrFeatureExtraction marks a numerical invariant violation inside the
	// feature extractor. The normalizer guarantees fixed-length input, so
	// hitting this is a bug, not a user condition.
	ErrFeatureExtraction = errors.New("feature extraction failed")

	// ErrModelUnavailable marks a classifier whose artifact never loaded.
	ErrModelUnavailable = errors.New("classification model unavailable")

	// ErrInference marks a feature vector that does not match the model's
	// expected input shape.
	ErrInference = errors.New("inference input mismatch")
)
