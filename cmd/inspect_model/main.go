package main

// Print metadata of a forest artifact: classes, tree count, expected
// feature width.
//
// Usage:
//   go run ./cmd/inspect_model -model respiratory/model.json

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"breath-classification/respiratory"
)

func main() {
	modelPath := flag.String("model", filepath.Join("respiratory", "model.json"), "path to the forest artifact")
	flag.Parse()

	forest, err := respiratory.NewForestFromFile(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(forest.Info()); err != nil {
		log.Fatalf("failed to encode model info: %v", err)
	}
}
