// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Gaussian is least squares regression with loss ½‖y - η‖².
type Gaussian struct{}

func (Gaussian) Name() string          { return "gaussian" }
func (Gaussian) Classes() int          { return 1 }
func (Gaussian) Blocks() int           { return 1 }
func (Gaussian) ResponseLen(n int) int { return n }

func (Gaussian) Validate(y []float64, n int) error {
	if len(y) != n {
		return fmt.Errorf("%w: %d responses for %d observations", ErrResponse, len(y), n)
	}
	for i, v := range y {
		if !finite(v) {
			return fmt.Errorf("%w: y[%d] = %v", ErrResponse, i, v)
		}
	}
	return nil
}

func (Gaussian) Loss(eta, y []float64) float64 {
	s := 0.0
	for i, v := range y {
		d := eta[i] - v
		s += d * d
	}
	return 0.5 * s
}

func (Gaussian) Residual(eta, y, r []float64) {
	for i, v := range y {
		r[i] = eta[i] - v
	}
}

func (Gaussian) Curvature([]float64) float64 {
	return 1
}

func (Gaussian) NullIntercept(y []float64, _ int) []float64 {
	return []float64{stat.Mean(y, nil)}
}

func (g Gaussian) Deviance(eta, y []float64) float64 {
	return 2 * g.Loss(eta, y)
}

func (Gaussian) Mean(eta, mu []float64) {
	copy(mu, eta)
}
