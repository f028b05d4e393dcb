package main

// Print the 30-element feature vector of an audio file, one labeled column
// per line. Handy when debugging the frozen column ordering against vectors
// exported from the training environment.
//
// Usage:
//   go run ./cmd/extract_features recording.wav

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"breath-classification/respiratory"
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: extract_features <audio-file>")
		os.Exit(2)
	}
	audioPath := flag.Arg(0)

	data, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", audioPath, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")

	sample, err := respiratory.PrepareAudioSample(data, ext)
	if err != nil {
		log.Fatalf("failed to decode audio: %v", err)
	}

	normalized, err := respiratory.NormalizeDuration(sample.Samples, sample.SampleRate)
	if err != nil {
		log.Fatalf("failed to normalize audio: %v", err)
	}

	features, err := respiratory.ExtractFeatures(normalized, sample.SampleRate)
	if err != nil {
		log.Fatalf("failed to extract features: %v", err)
	}

	vector, err := respiratory.AggregateFeatures(features)
	if err != nil {
		log.Fatalf("failed to aggregate features: %v", err)
	}

	columns := respiratory.FeatureColumns()
	for i, value := range vector {
		fmt.Printf("%-28s %.10f\n", columns[i], value)
	}
}
