// Package linear implements a minimal sparse logistic regression: deterministic SGD training with L2,
// inference, the serialized model artifact, evaluation metrics and embedding of artifacts into other files.
package linear

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/umputun/rss-sniffer/lib/features"
)

// Model is a logistic regression model over sparse feature maps. Absent keys imply weight 0.
type Model struct {
	Weights map[string]float64 `json:"weights"`
	Bias    float64            `json:"bias"`
}

// Weight is a single named model weight
type Weight struct {
	Feature string
	Value   float64
}

// defaultArtifact is a hand-tuned seed model, not produced by a training run, hence zero samples count
//
//go:embed default_model.json
var defaultArtifact []byte

var defaultModel = sync.OnceValues(func() (Model, error) {
	a, err := ParseArtifact(defaultArtifact)
	if err != nil {
		return Model{}, fmt.Errorf("can't parse embedded model: %w", err)
	}
	return a.Model, nil
})

// Default returns the model embedded into the binary
func Default() (Model, error) {
	return defaultModel()
}

// PredictProba returns probability of the positive class, always in (0,1).
// Only features present in x contribute, unknown features get weight 0.
func (m Model) PredictProba(x features.Map) float64 {
	return sigmoid(m.Bias + m.dot(x))
}

// dot is a sparse dot product over keys of x visited in sorted order, non-finite values skipped
func (m Model) dot(x features.Map) float64 {
	res := 0.0
	for _, k := range sortedKeys(x) {
		v := x[k]
		if !isFinite(v) {
			continue
		}
		if w, ok := m.Weights[k]; ok {
			res += w * v
		}
	}
	return res
}

// Top returns n strongest weights by absolute value, ties resolved by feature name.
// n <= 0 returns all weights.
func (m Model) Top(n int) []Weight {
	res := make([]Weight, 0, len(m.Weights))
	for k, v := range m.Weights {
		res = append(res, Weight{Feature: k, Value: v})
	}
	sort.Slice(res, func(i, j int) bool {
		ai, aj := math.Abs(res[i].Value), math.Abs(res[j].Value)
		if ai != aj {
			return ai > aj
		}
		return res[i].Feature < res[j].Feature
	})
	if n > 0 && len(res) > n {
		res = res[:n]
	}
	return res
}

// sigmoid is a numerically stable logistic function, clipped into the open interval (0,1)
func sigmoid(z float64) float64 {
	if math.IsNaN(z) {
		return 0.5
	}
	var p float64
	if z >= 0 {
		p = 1 / (1 + math.Exp(-z))
	} else {
		ez := math.Exp(z)
		p = ez / (1 + ez)
	}
	const eps = 1e-12
	return min(max(p, eps), 1-eps)
}

func sortedKeys(x features.Map) []string {
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
