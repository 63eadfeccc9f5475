// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Poisson is log-linear regression on non-negative counts.
type Poisson struct{}

func (Poisson) Name() string          { return "poisson" }
func (Poisson) Classes() int          { return 1 }
func (Poisson) Blocks() int           { return 1 }
func (Poisson) ResponseLen(n int) int { return n }

func (Poisson) Validate(y []float64, n int) error {
	if len(y) != n {
		return fmt.Errorf("%w: %d responses for %d observations", ErrResponse, len(y), n)
	}
	for i, v := range y {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%w: y[%d] = %v is not a non-negative count", ErrResponse, i, v)
		}
	}
	return nil
}

// Loss computes ∑ exp(ηᵢ) - yᵢηᵢ, dropping the constant log(yᵢ!).
func (Poisson) Loss(eta, y []float64) float64 {
	s := 0.0
	for i, v := range y {
		s += math.Exp(eta[i]) - v*eta[i]
	}
	return s
}

func (Poisson) Residual(eta, y, r []float64) {
	for i, v := range y {
		r[i] = math.Exp(eta[i]) - v
	}
}

// Curvature has no global bound since the variance is exp(η).
// Near the solution exp(η) ≈ y, so the largest count is used and the
// solver backtracks when it is too small.
func (Poisson) Curvature(y []float64) float64 {
	return math.Max(floats.Max(y), 1)
}

func (Poisson) NullIntercept(y []float64, _ int) []float64 {
	return []float64{math.Log(math.Max(stat.Mean(y, nil), probEps))}
}

func (Poisson) Deviance(eta, y []float64) float64 {
	s := 0.0
	for i, v := range y {
		mu := math.Exp(eta[i])
		if v > 0 {
			s += v*math.Log(v/mu) - (v - mu)
		} else {
			s += mu
		}
	}
	return 2 * s
}

func (Poisson) Mean(eta, mu []float64) {
	for i, v := range eta {
		mu[i] = math.Exp(v)
	}
}
