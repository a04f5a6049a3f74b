// Package privacy implements the differential-privacy transform applied to a
// contributor's weight update before it leaves the contributor: L2 clipping
// followed by Gaussian noise calibrated with the analytic Gaussian mechanism.
package privacy

import (
	"errors"
	"fmt"
	"math"

	"github.com/absmach/fedrelay/pkg/weights"
)

var ErrInvalidParams = errors.New("invalid privacy parameters")

// Params are the privacy parameters for one Apply invocation. They are never
// persisted alongside weights.
type Params struct {
	Epsilon    float64 `json:"epsilon"`
	Delta      float64 `json:"delta"`
	L2NormClip float64 `json:"l2_norm_clip"`
	SampleRate float64 `json:"sample_rate"`
}

func (p Params) Validate() error {
	if p.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive, got %g", ErrInvalidParams, p.Epsilon)
	}
	if p.Delta <= 0 || p.Delta >= 1 {
		return fmt.Errorf("%w: delta must be in (0, 1), got %g", ErrInvalidParams, p.Delta)
	}
	if p.L2NormClip <= 0 {
		return fmt.Errorf("%w: l2 norm clip must be positive, got %g", ErrInvalidParams, p.L2NormClip)
	}
	if p.SampleRate <= 0 || p.SampleRate > 1 {
		return fmt.Errorf("%w: sample rate must be in (0, 1], got %g", ErrInvalidParams, p.SampleRate)
	}

	return nil
}

// Cost is a composed privacy budget estimate.
type Cost struct {
	Epsilon float64 `json:"epsilon"`
	Delta   float64 `json:"delta"`
}

// Clip bounds the L2 norm of v to clip. Vectors already within the bound are
// returned unchanged; otherwise every element is scaled by clip/norm.
func Clip(v weights.Vector, clip float64) (weights.Vector, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParams, weights.ErrEmptyVector)
	}
	if clip <= 0 {
		return nil, fmt.Errorf("%w: l2 norm clip must be positive, got %g", ErrInvalidParams, clip)
	}

	norm := v.L2Norm()
	if norm <= clip {
		return v, nil
	}

	scale := clip / norm
	out := make(weights.Vector, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) * scale)
	}

	return out, nil
}

// Apply clips v to params.L2NormClip and adds Gaussian noise with standard
// deviation calibrated by the analytic Gaussian mechanism:
//
//	stdDev = sqrt(2 * ln(1.25/delta)) * L2NormClip / epsilon
//
// The sensitivity of one clipped contribution is the clipping threshold
// itself. Noise is drawn from a cryptographically secure source; a
// general-purpose PRNG would weaken the guarantee. The calibration holds in
// the conventional small-epsilon regime; very large epsilon yields
// correspondingly negligible noise.
func Apply(v weights.Vector, params Params) (weights.Vector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	clipped, err := Clip(v, params.L2NormClip)
	if err != nil {
		return nil, err
	}

	sensitivity := params.L2NormClip
	stdDev := math.Sqrt(2*math.Log(1.25/params.Delta)) * sensitivity / params.Epsilon

	noise, err := gaussianNoise(len(clipped), stdDev)
	if err != nil {
		return nil, fmt.Errorf("failed to generate noise: %w", err)
	}

	out := make(weights.Vector, len(clipped))
	for i, f := range clipped {
		out[i] = float32(float64(f) + noise[i])
	}

	return out, nil
}

// EstimateCost computes a heuristic composed privacy cost over a number of
// training iterations:
//
//	epsilon * sqrt(ln(1/delta) * iterations * sampleRate)
//
// This is an approximation for user-facing guidance, not a tight
// moments-accountant bound, and must not be treated as a security guarantee.
func EstimateCost(epsilon, delta float64, iterations int, sampleRate float64) (Cost, error) {
	if epsilon <= 0 {
		return Cost{}, fmt.Errorf("%w: epsilon must be positive, got %g", ErrInvalidParams, epsilon)
	}
	if delta <= 0 || delta >= 1 {
		return Cost{}, fmt.Errorf("%w: delta must be in (0, 1), got %g", ErrInvalidParams, delta)
	}
	if iterations < 1 {
		return Cost{}, fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidParams, iterations)
	}
	if sampleRate <= 0 || sampleRate > 1 {
		return Cost{}, fmt.Errorf("%w: sample rate must be in (0, 1], got %g", ErrInvalidParams, sampleRate)
	}

	composed := epsilon * math.Sqrt(math.Log(1/delta)*float64(iterations)*sampleRate)

	return Cost{
		Epsilon: composed,
		Delta:   delta,
	}, nil
}
