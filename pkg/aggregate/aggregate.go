// Package aggregate merges contributor weight updates into a shared model
// using equal-weight averaging and a one-step exponential moving average
// against an optional baseline (asynchronous FedAvg).
package aggregate

import (
	"fmt"

	"github.com/absmach/fedrelay/pkg/weights"
)

// Aggregator merges one or more updates with an optional baseline.
type Aggregator interface {
	// Merge computes the elementwise mean of updates and, when baseline is
	// non-nil, interpolates result = (1-lr)*baseline + lr*mean. A nil
	// baseline yields the mean itself regardless of learning rate.
	Merge(updates []weights.Vector, baseline weights.Vector, learningRate float64) (weights.Vector, error)
}

type fedEMAAggregator struct{}

// NewFedEMA returns the default aggregator. Every update is weighted
// equally, regardless of the contributor's local dataset size. This is a
// deliberate policy choice, not size-weighted FedAvg.
func NewFedEMA() Aggregator {
	return fedEMAAggregator{}
}

func (fedEMAAggregator) Merge(updates []weights.Vector, baseline weights.Vector, learningRate float64) (weights.Vector, error) {
	if len(updates) == 0 {
		return nil, ErrNoUpdates
	}
	// A zero learning rate is legal here and reduces to the unchanged
	// baseline; the coordinator config is stricter and requires (0, 1].
	if learningRate < 0 || learningRate > 1 {
		return nil, fmt.Errorf("%w: learning rate must be in [0, 1], got %g", ErrInvalidLearningRate, learningRate)
	}

	if err := weights.SameShape(updates...); err != nil {
		return nil, err
	}
	if baseline != nil {
		// A baseline of a different shape is rejected rather than silently
		// ignored, since it may indicate store corruption.
		if err := weights.SameShape(append([]weights.Vector{baseline}, updates...)...); err != nil {
			return nil, err
		}
	}

	n := len(updates[0])
	avg := make([]float64, n)
	for _, u := range updates {
		for i, f := range u {
			avg[i] += float64(f)
		}
	}
	for i := range avg {
		avg[i] /= float64(len(updates))
	}

	out := make(weights.Vector, n)
	if baseline == nil {
		for i := range out {
			out[i] = float32(avg[i])
		}

		return out, nil
	}

	for i := range out {
		out[i] = float32((1-learningRate)*float64(baseline[i]) + learningRate*avg[i])
	}

	return out, nil
}
