package respiratory

// Random Forest Classifier
//
// The pre-trained ensemble is shipped as a JSON artifact: the closed class
// list, the expected feature count, and a flattened node array per tree.
// Internal nodes route on (feature index, threshold); leaves carry the
// training-sample class counts observed at that leaf.
//
// Prediction averages the normalized leaf distributions of all trees and
// takes the arg-max label; the averaged probability of that label is the
// confidence. The artifact is loaded once at startup and is read-only from
// then on, so a single Forest is safe for concurrent Predict calls.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"breath-classification/utils"
)

// treeNode is one node of a flattened decision tree. A node is a leaf when
// Left and Right are both negative; leaves carry Counts.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Counts    []float64 `json:"counts,omitempty"`
}

func (n treeNode) isLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

type decisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

type forestArtifact struct {
	Version      int            `json:"version"`
	Classes      []string       `json:"classes"`
	FeatureCount int            `json:"n_features"`
	Trees        []decisionTree `json:"trees"`
}

// Forest is the loaded ensemble. All fields are immutable after load.
type Forest struct {
	classes      []string
	featureCount int
	trees        []decisionTree
	path         string
	usingExample bool
}

// NewForestFromFile loads the forest artifact from the supplied path. When
// the primary file is missing it falls back to the neighbouring
// `.example.json` artifact (e.g. "model.json" -> "model.example.json") so a
// fresh checkout can still serve predictions.
func NewForestFromFile(path string) (*Forest, error) {
	resolvedPath := filepath.Clean(path)
	data, err := os.ReadFile(resolvedPath)
	usingExample := false
	if err != nil {
		ext := filepath.Ext(resolvedPath)
		base := strings.TrimSuffix(resolvedPath, ext)
		fallbackPath := base + ".example" + ext
		data, err = os.ReadFile(fallbackPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load model artifact (%s): %v",
				ErrModelUnavailable, resolvedPath, err)
		}
		utils.GetLogger().Warn("falling back to example model artifact", "path", fallbackPath)
		resolvedPath = fallbackPath
		usingExample = true
	}

	var artifact forestArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: unable to parse model artifact: %v", ErrModelUnavailable, err)
	}

	if len(artifact.Classes) == 0 {
		return nil, fmt.Errorf("%w: artifact declares no classes", ErrModelUnavailable)
	}
	if len(artifact.Trees) == 0 {
		return nil, fmt.Errorf("%w: artifact contains no trees", ErrModelUnavailable)
	}
	// The column ordering is a training-time contract; an artifact expecting
	// a different width cannot be served by this extractor.
	if artifact.FeatureCount != FeatureVectorWidth {
		return nil, fmt.Errorf("%w: artifact expects %d features, extractor produces %d",
			ErrModelUnavailable, artifact.FeatureCount, FeatureVectorWidth)
	}

	for t, tree := range artifact.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tree %d has no nodes", ErrModelUnavailable, t)
		}
		for n, node := range tree.Nodes {
			if node.isLeaf() {
				if len(node.Counts) != len(artifact.Classes) {
					return nil, fmt.Errorf("%w: tree %d leaf %d has %d counts, expected %d",
						ErrModelUnavailable, t, n, len(node.Counts), len(artifact.Classes))
				}
				continue
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) ||
				node.Right < 0 || node.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("%w: tree %d node %d has out-of-range children",
					ErrModelUnavailable, t, n)
			}
			if node.Feature < 0 || node.Feature >= artifact.FeatureCount {
				return nil, fmt.Errorf("%w: tree %d node %d splits on feature %d (model has %d)",
					ErrModelUnavailable, t, n, node.Feature, artifact.FeatureCount)
			}
		}
	}

	utils.GetLogger().Info("loaded classification model",
		slog.String("path", resolvedPath),
		slog.Int("classes", len(artifact.Classes)),
		slog.Int("trees", len(artifact.Trees)),
		slog.Int("features", artifact.FeatureCount),
	)

	return &Forest{
		classes:      artifact.Classes,
		featureCount: artifact.FeatureCount,
		trees:        artifact.Trees,
		path:         resolvedPath,
		usingExample: usingExample,
	}, nil
}

// Classes returns the closed set of labels the model can predict.
func (f *Forest) Classes() []string {
	return append([]string(nil), f.classes...)
}

// Info returns artifact metadata for the health and model-info surfaces.
func (f *Forest) Info() ModelInfo {
	return ModelInfo{
		Classes:      f.Classes(),
		TreeCount:    len(f.trees),
		FeatureCount: f.featureCount,
		Path:         f.path,
		UsingExample: f.usingExample,
	}
}

// Predict runs the ensemble vote over a feature vector.
func (f *Forest) Predict(vector []float64) (*ClassificationResult, error) {
	if f == nil || len(f.trees) == 0 {
		return nil, fmt.Errorf("%w: no model loaded", ErrModelUnavailable)
	}
	if len(vector) != f.featureCount {
		return nil, fmt.Errorf("%w: got %d features, model expects %d",
			ErrInference, len(vector), f.featureCount)
	}

	accumulated := make([]float64, len(f.classes))
	for _, tree := range f.trees {
		leaf := tree.walk(vector)

		var total float64
		for _, count := range leaf.Counts {
			total += count
		}
		if total == 0 {
			continue
		}
		for i, count := range leaf.Counts {
			accumulated[i] += count / total
		}
	}

	var sum float64
	for _, v := range accumulated {
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: ensemble produced an empty vote", ErrInference)
	}

	probabilities := make(map[string]float64, len(f.classes))
	best := 0
	for i, class := range f.classes {
		accumulated[i] /= sum
		probabilities[class] = accumulated[i]
		if accumulated[i] > accumulated[best] {
			best = i
		}
	}

	return &ClassificationResult{
		Prediction:       f.classes[best],
		Confidence:       accumulated[best],
		AllProbabilities: probabilities,
	}, nil
}

func (t decisionTree) walk(vector []float64) treeNode {
	node := t.Nodes[0]
	for !node.isLeaf() {
		if vector[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node
}
