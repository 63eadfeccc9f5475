// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"
	"math"
)

// Multinomial is softmax regression over K classes.
//
// The response is an n×K indicator matrix stored class by class, y[k·n + i].
// Class K is the reference with its linear predictor fixed at zero, so the
// model carries K-1 coefficient blocks and
//
//	P(class k | xᵢ) = exp(ηᵢₖ) / (1 + ∑ⱼ exp(ηᵢⱼ)),  j = 1..K-1
type Multinomial struct {
	K int
}

func (Multinomial) Name() string            { return "multinomial" }
func (m Multinomial) Classes() int          { return m.K }
func (m Multinomial) Blocks() int           { return m.K - 1 }
func (m Multinomial) ResponseLen(n int) int { return n * m.K }

func (m Multinomial) Validate(y []float64, n int) error {
	if m.K < 2 {
		return fmt.Errorf("%w: multinomial needs at least 2 classes", ErrResponse)
	}
	if len(y) != n*m.K {
		return fmt.Errorf("%w: indicator matrix has %d entries, want %d×%d", ErrResponse, len(y), n, m.K)
	}
	for i := 0; i < n; i++ {
		ones := 0
		for k := 0; k < m.K; k++ {
			switch y[k*n+i] {
			case 0:
			case 1:
				ones++
			default:
				return fmt.Errorf("%w: y[%d, %d] = %v is not an indicator", ErrResponse, i, k, y[k*n+i])
			}
		}
		if ones != 1 {
			return fmt.Errorf("%w: row %d has %d classes", ErrResponse, i, ones)
		}
	}
	return nil
}

// logNorm returns log(1 + ∑ⱼ exp(ηᵢⱼ)) shifted by the largest exponent.
func (m Multinomial) logNorm(eta []float64, n, i int) float64 {
	shift := 0.0 // reference class
	for k := 0; k < m.K-1; k++ {
		shift = math.Max(shift, eta[k*n+i])
	}
	s := math.Exp(-shift)
	for k := 0; k < m.K-1; k++ {
		s += math.Exp(eta[k*n+i] - shift)
	}
	return shift + math.Log(s)
}

func (m Multinomial) Loss(eta, y []float64) float64 {
	n := len(y) / m.K
	s := 0.0
	for i := 0; i < n; i++ {
		lse := m.logNorm(eta, n, i)
		s += lse
		for k := 0; k < m.K-1; k++ {
			s -= y[k*n+i] * eta[k*n+i]
		}
	}
	return s
}

func (m Multinomial) Residual(eta, y, r []float64) {
	n := len(y) / m.K
	for i := 0; i < n; i++ {
		lse := m.logNorm(eta, n, i)
		for k := 0; k < m.K-1; k++ {
			r[k*n+i] = math.Exp(eta[k*n+i]-lse) - y[k*n+i]
		}
	}
}

// Curvature is the bound ½ on the largest eigenvalue of 𝚍𝚒𝚊𝚐(π) - ππᵀ.
func (Multinomial) Curvature([]float64) float64 {
	return 0.5
}

func (m Multinomial) NullIntercept(y []float64, n int) []float64 {
	freq := make([]float64, m.K)
	for k := range freq {
		for i := 0; i < n; i++ {
			freq[k] += y[k*n+i]
		}
		freq[k] = clamp(freq[k]/float64(n), probEps, 1)
	}
	b0 := make([]float64, m.K-1)
	for k := range b0 {
		b0[k] = math.Log(freq[k] / freq[m.K-1])
	}
	return b0
}

func (m Multinomial) Deviance(eta, y []float64) float64 {
	return 2 * m.Loss(eta, y)
}

// Mean stores the class probabilities, mu[k·n + i], for all K classes.
func (m Multinomial) Mean(eta, mu []float64) {
	n := len(mu) / m.K
	for i := 0; i < n; i++ {
		lse := m.logNorm(eta, n, i)
		for k := 0; k < m.K-1; k++ {
			mu[k*n+i] = math.Exp(eta[k*n+i] - lse)
		}
		mu[(m.K-1)*n+i] = math.Exp(-lse)
	}
}
