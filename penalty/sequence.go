// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package penalty

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidPenalty reports a malformed penalty sequence or an out-of-range shape parameter.
var ErrInvalidPenalty = errors.New("penalty: invalid penalty")

// Kind selects how the sequence λ is generated.
type Kind int

const (
	// BH uses the Benjamini-Hochberg critical values λᵢ = Φ⁻¹(1 - iq/2p).
	BH Kind = iota
	// Gaussian corrects the BH sequence for the number of observations.
	Gaussian
	// OSCAR uses the linearly decaying λᵢ = θ₁ + θ₂(p - i).
	OSCAR
	// Lasso uses a constant sequence, reducing SLOPE to the lasso.
	Lasso
	// Explicit takes the sequence from Spec.Values.
	Explicit
)

func (k Kind) String() string {
	switch k {
	case BH:
		return "bh"
	case Gaussian:
		return "gaussian"
	case OSCAR:
		return "oscar"
	case Lasso:
		return "lasso"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a lower case name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k := BH; k <= Explicit; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sequence %q", ErrInvalidPenalty, name)
}

// Spec describes the shape of a penalty sequence.
type Spec struct {
	Kind Kind
	// Target false discovery rate for BH and Gaussian, 0 < Q < 1.
	Q float64
	// Number of observations, required by Gaussian.
	N int
	// Intercept and slope of the OSCAR sequence.
	Theta1, Theta2 float64
	// Sequence used by Explicit.
	Values []float64
}

// Build returns the penalty sequence of length p described by spec.
// The result is finite, non-negative and non-increasing.
func Build(p int, spec Spec) (lambda []float64, err error) {

	if p <= 0 {
		return nil, fmt.Errorf("%w: dimension %d must be positive", ErrInvalidPenalty, p)
	}

	switch spec.Kind {
	case BH, Gaussian:
		if !(spec.Q > 0 && spec.Q < 1) {
			return nil, fmt.Errorf("%w: q = %v outside (0, 1)", ErrInvalidPenalty, spec.Q)
		}
		lambda = bh(p, spec.Q)
		if spec.Kind == Gaussian {
			if spec.N <= 0 {
				return nil, fmt.Errorf("%w: gaussian sequence needs n > 0", ErrInvalidPenalty)
			}
			gaussianCorrect(lambda, spec.N)
		}
	case OSCAR:
		if !(spec.Theta1 >= 0 && spec.Theta2 >= 0) || math.IsInf(spec.Theta1, 0) || math.IsInf(spec.Theta2, 0) {
			return nil, fmt.Errorf("%w: oscar theta must be finite and non-negative", ErrInvalidPenalty)
		}
		lambda = make([]float64, p)
		for i := range lambda {
			lambda[i] = spec.Theta1 + spec.Theta2*float64(p-1-i)
		}
	case Lasso:
		lambda = make([]float64, p)
		for i := range lambda {
			lambda[i] = 1
		}
	case Explicit:
		if len(spec.Values) != p {
			return nil, fmt.Errorf("%w: sequence length %d, want %d", ErrInvalidPenalty, len(spec.Values), p)
		}
		lambda = make([]float64, p)
		copy(lambda, spec.Values)
	default:
		return nil, fmt.Errorf("%w: unknown kind %v", ErrInvalidPenalty, spec.Kind)
	}

	if err = Check(lambda); err != nil {
		return nil, err
	}
	return lambda, nil
}

// Check verifies that λ is finite, non-negative and non-increasing.
func Check(lambda []float64) error {
	for i, l := range lambda {
		switch {
		case math.IsNaN(l) || math.IsInf(l, 0):
			return fmt.Errorf("%w: λ[%d] = %v is not finite", ErrInvalidPenalty, i, l)
		case l < 0:
			return fmt.Errorf("%w: λ[%d] = %v is negative", ErrInvalidPenalty, i, l)
		case i > 0 && l > lambda[i-1]:
			return fmt.Errorf("%w: λ[%d] = %v exceeds λ[%d] = %v", ErrInvalidPenalty, i, l, i-1, lambda[i-1])
		}
	}
	return nil
}

// bh computes the Benjamini-Hochberg critical values Φ⁻¹(1 - iq/2p), i = 1..p.
func bh(p int, q float64) []float64 {
	lambda := make([]float64, p)
	for i := range lambda {
		lambda[i] = distuv.UnitNormal.Quantile(1 - float64(i+1)*q/float64(2*p))
	}
	return lambda
}

// gaussianCorrect inflates the BH sequence to account for the variance of the
// least squares estimates on the selected support
//
//	λᵢ = λᴮᴴᵢ √(1 + ∑ⱼ₌₁..ᵢ₋₁ λⱼ² / 𝚖𝚊𝚡(1, n - i))
//
// The sequence is flattened at its first increase.
//
// M. Bogdan et al., 'SLOPE - adaptive variable selection via convex optimization', Section 3.2.2.
func gaussianCorrect(lambda []float64, n int) {
	sum := 0.0
	for i := range lambda {
		if i > 0 {
			df := max(1, n-(i+1))
			l := lambda[i] * math.Sqrt(1+sum/float64(df))
			if l > lambda[i-1] {
				flatten(lambda, i)
				return
			}
			lambda[i] = l
		}
		sum += lambda[i] * lambda[i]
	}
}

func flatten(lambda []float64, from int) {
	for j := from; j < len(lambda); j++ {
		lambda[j] = lambda[from-1]
	}
}
