// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Binomial is logistic regression on 0/1 labels.
type Binomial struct{}

func (Binomial) Name() string          { return "binomial" }
func (Binomial) Classes() int          { return 2 }
func (Binomial) Blocks() int           { return 1 }
func (Binomial) ResponseLen(n int) int { return n }

func (Binomial) Validate(y []float64, n int) error {
	if len(y) != n {
		return fmt.Errorf("%w: %d responses for %d observations", ErrResponse, len(y), n)
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: y[%d] = %v is not a 0/1 label", ErrResponse, i, v)
		}
	}
	return nil
}

// Loss computes ∑ log(1 + exp(ηᵢ)) - yᵢηᵢ.
func (Binomial) Loss(eta, y []float64) float64 {
	s := 0.0
	for i, v := range y {
		s += softplus(eta[i]) - v*eta[i]
	}
	return s
}

func (Binomial) Residual(eta, y, r []float64) {
	for i, v := range y {
		r[i] = sigmoid(eta[i]) - v
	}
}

// Curvature is the bound p(1-p) ≤ ¼ of the logistic variance.
func (Binomial) Curvature([]float64) float64 {
	return 0.25
}

func (Binomial) NullIntercept(y []float64, _ int) []float64 {
	p := clamp(stat.Mean(y, nil), probEps, 1-probEps)
	return []float64{math.Log(p / (1 - p))}
}

// Deviance of 0/1 labels is twice the loss since the saturated log-likelihood is zero.
func (b Binomial) Deviance(eta, y []float64) float64 {
	return 2 * b.Loss(eta, y)
}

func (Binomial) Mean(eta, mu []float64) {
	for i, v := range eta {
		mu[i] = sigmoid(v)
	}
}
