package linear

import (
	"errors"
	"fmt"

	"github.com/umputun/rss-sniffer/lib/features"
)

// training errors
var (
	ErrTooFewSamples = errors.New("too few samples")
	ErrSingleClass   = errors.New("samples of a single class")
)

// Sample is a single labeled training sample
type Sample struct {
	X      features.Map
	Y      bool    // true for the positive (ai) class
	Weight float64 // sample weight, 1 if not set
}

// TrainOptions defines SGD parameters
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64 // L2 penalty applied to weights, not to bias
	Seed         uint32
	Shuffle      bool
	MinSamples   int
}

// DefaultTrainOptions returns default training parameters
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 20, LearningRate: 0.1, L2: 1e-4, Seed: 1337, Shuffle: true, MinSamples: 10}
}

// Train fits logistic regression with stochastic gradient descent.
// Same samples in the same order with the same options always produce a bit-identical model.
func Train(samples []Sample, opts TrainOptions) (Model, error) {
	def := DefaultTrainOptions()
	if opts.Epochs <= 0 {
		opts.Epochs = def.Epochs
	}
	if opts.LearningRate <= 0 || !isFinite(opts.LearningRate) {
		opts.LearningRate = def.LearningRate
	}
	if opts.L2 < 0 || !isFinite(opts.L2) {
		opts.L2 = 0
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = def.MinSamples
	}

	if len(samples) < opts.MinSamples {
		return Model{}, fmt.Errorf("%w: %d, need at least %d", ErrTooFewSamples, len(samples), opts.MinSamples)
	}
	pos := 0
	for _, s := range samples {
		if s.Y {
			pos++
		}
	}
	if pos == 0 || pos == len(samples) {
		return Model{}, fmt.Errorf("%w: %d of %d positive", ErrSingleClass, pos, len(samples))
	}

	// active features of each sample, in sorted order
	keys := make([][]string, len(samples))
	for i, s := range samples {
		for _, k := range sortedKeys(s.X) {
			if v := s.X[k]; v != 0 && isFinite(v) {
				keys[i] = append(keys[i], k)
			}
		}
	}

	m := Model{Weights: map[string]float64{}}
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	rnd := newMulberry32(opts.Seed)
	lr, l2 := opts.LearningRate, opts.L2

	for range opts.Epochs {
		if opts.Shuffle {
			rnd.shuffle(order)
		}
		for _, i := range order {
			s := samples[i]
			w := s.Weight
			if w <= 0 || !isFinite(w) {
				w = 1
			}
			y := 0.0
			if s.Y {
				y = 1
			}

			z := m.Bias
			for _, k := range keys[i] {
				z += m.Weights[k] * s.X[k]
			}
			g := w * (sigmoid(z) - y)

			m.Bias -= lr * g
			for _, k := range keys[i] {
				wk := m.Weights[k]
				m.Weights[k] = wk - lr*(g*s.X[k]+l2*wk)
			}
		}
	}
	return m, nil
}
