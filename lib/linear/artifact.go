package linear

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ArtifactKind identifies the model artifact format
const ArtifactKind = "rss-logreg-binary-v1"

// ErrBadArtifact returned for model payloads of unexpected shape
var ErrBadArtifact = errors.New("bad model artifact")

// Classes lists class labels, negative class first
var Classes = []string{"human", "ai"}

// Artifact is a serialized trained model with its metadata
type Artifact struct {
	Kind      string    `json:"kind"`
	TrainedAt time.Time `json:"trainedAt"`
	N         int       `json:"n"` // number of training samples
	Classes   []string  `json:"classes"`
	Model     Model     `json:"model"`
	Top       []Weight  `json:"top"`
}

// NewArtifact wraps trained model into an artifact with topN strongest weights
func NewArtifact(m Model, n int, trainedAt time.Time, topN int) Artifact {
	if m.Weights == nil {
		m.Weights = map[string]float64{}
	}
	return Artifact{
		Kind:      ArtifactKind,
		TrainedAt: trainedAt.UTC(),
		N:         n,
		Classes:   slices.Clone(Classes),
		Model:     m,
		Top:       m.Top(topN),
	}
}

// ParseArtifact decodes and validates artifact payload. All shape problems are reported together.
func ParseArtifact(payload []byte) (Artifact, error) {
	var raw struct {
		Kind      *string    `json:"kind"`
		TrainedAt *time.Time `json:"trainedAt"`
		N         int        `json:"n"`
		Classes   []string   `json:"classes"`
		Model     *struct {
			Weights map[string]*float64 `json:"weights"`
			Bias    *float64            `json:"bias"`
		} `json:"model"`
		Top []Weight `json:"top"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrBadArtifact, err)
	}

	errs := new(multierror.Error)
	switch {
	case raw.Kind == nil:
		errs = multierror.Append(errs, errors.New("kind is missing"))
	case *raw.Kind != ArtifactKind:
		errs = multierror.Append(errs, fmt.Errorf("unexpected kind %q, expected %q", *raw.Kind, ArtifactKind))
	}
	if raw.Classes != nil && !slices.Equal(raw.Classes, Classes) {
		errs = multierror.Append(errs, fmt.Errorf("unexpected classes %v, expected %v", raw.Classes, Classes))
	}
	if raw.N < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative samples count %d", raw.N))
	}

	res := Artifact{N: raw.N, Classes: raw.Classes, Top: raw.Top, Model: Model{Weights: map[string]float64{}}}
	if raw.Kind != nil {
		res.Kind = *raw.Kind
	}
	if raw.TrainedAt != nil {
		res.TrainedAt = *raw.TrainedAt
	}
	if res.Classes == nil {
		res.Classes = slices.Clone(Classes)
	}

	if raw.Model == nil {
		errs = multierror.Append(errs, errors.New("model is missing"))
	} else {
		if raw.Model.Weights == nil {
			errs = multierror.Append(errs, errors.New("model.weights is missing"))
		}
		for k, v := range raw.Model.Weights {
			if v == nil || !isFinite(*v) {
				errs = multierror.Append(errs, fmt.Errorf("model.weights[%q] is not a number", k))
				continue
			}
			res.Model.Weights[k] = *v
		}
		if raw.Model.Bias == nil {
			errs = multierror.Append(errs, errors.New("model.bias is missing"))
		} else {
			res.Model.Bias = *raw.Model.Bias
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrBadArtifact, err)
	}
	return res, nil
}

// LoadArtifact reads and validates artifact file
func LoadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from the operator
	if err != nil {
		return Artifact{}, fmt.Errorf("can't read model %s: %w", path, err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("can't load model %s: %w", path, err)
	}
	return a, nil
}

// SaveArtifact writes indented artifact to path atomically
func SaveArtifact(path string, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("can't marshal artifact: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// MarshalJSON encodes weight as [feature, value] pair
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Feature, w.Value})
}

// UnmarshalJSON decodes weight from [feature, value] pair
func (w *Weight) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("weight is not a pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("weight pair has %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Feature); err != nil {
		return fmt.Errorf("weight feature: %w", err)
	}
	if err := json.Unmarshal(pair[1], &w.Value); err != nil {
		return fmt.Errorf("weight value: %w", err)
	}
	return nil
}
