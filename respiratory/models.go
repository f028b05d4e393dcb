package respiratory

// AudioSample bundles decoded mono PCM samples with contextual metadata.
// Instances live for a single request and are discarded after feature
// extraction; raw audio is never persisted.
type AudioSample struct {
	Samples    []float64
	SampleRate int
	Duration   float64
}

// ClassificationResult is the fully populated outcome of one inference run.
// Probabilities always cover every class and sum to 1 within floating-point
// tolerance.
type ClassificationResult struct {
	Prediction       string             `json:"prediction"`
	Confidence       float64            `json:"confidence"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
}

// ModelInfo summarises the loaded forest artifact.
type ModelInfo struct {
	Classes      []string `json:"classes"`
	TreeCount    int      `json:"treeCount"`
	FeatureCount int      `json:"featureCount"`
	Path         string   `json:"path"`
	UsingExample bool     `json:"usingExample"`
}
