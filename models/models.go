package models

// RecordData is the realtime recording payload emitted by the mobile and
// web clients over the socket channel. Audio is base64-encoded WAV; the
// capture metadata describes the recorder settings (the mobile path records
// at 44.1 kHz, the web widget at 16 kHz — the backend resamples either way).
type RecordData struct {
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate"`
	SampleSize int     `json:"sampleSize"`
}

// AnalysisSummary packages a classification result with request telemetry
// for the socket and HTTP surfaces.
type AnalysisSummary struct {
	Prediction       string             `json:"prediction"`
	Confidence       float64            `json:"confidence"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
	LatencyMs        float64            `json:"latencyMs"`
	Cached           bool               `json:"cached,omitempty"`
}
