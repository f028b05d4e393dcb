package main

// Classify a local audio file and print the prediction as JSON. Useful for
// spot-checking the model against known recordings without running the
// server.
//
// Usage:
//   go run ./cmd/classify_file -model respiratory/model.json recording.wav

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"breath-classification/respiratory"
)

func main() {
	modelPath := flag.String("model", filepath.Join("respiratory", "model.json"), "path to the forest artifact")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: classify_file [-model path] <audio-file>")
		os.Exit(2)
	}
	audioPath := flag.Arg(0)

	forest, err := respiratory.NewForestFromFile(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	service := respiratory.NewService(forest, respiratory.ServiceConfig{}, nil)

	data, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", audioPath, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
	result, _, err := service.ClassifyBytes(data, ext)
	if err != nil {
		log.Fatalf("classification failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}
