// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predict

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
)

// LinearPredictor computes η = β₀ + Xβ for every coefficient block.
// beta holds m blocks of p coefficients, the result is n×m with η[c·n + i].
func LinearPredictor(x design.Matrix, beta, intercept []float64) ([]float64, error) {
	n, p := x.Dims()
	m := len(intercept)
	if m == 0 || len(beta) != p*m {
		return nil, fmt.Errorf("%w: %d coefficients and %d intercepts for %d predictors",
			slope.ErrDimensionMismatch, len(beta), m, p)
	}
	eta := make([]float64, n*m)
	for c := 0; c < m; c++ {
		blk := eta[c*n : (c+1)*n]
		x.MulVec(blk, beta[c*p:(c+1)*p])
		floats.AddConst(intercept[c], blk)
	}
	return eta, nil
}

// Response maps a linear predictor to the mean of fam.
// Multinomial means hold the probabilities of all K classes, mu[k·n + i].
func Response(fam family.Family, eta []float64) ([]float64, error) {
	m := fam.Blocks()
	if len(eta)%m != 0 {
		return nil, fmt.Errorf("%w: linear predictor of length %d for %d blocks", slope.ErrDimensionMismatch, len(eta), m)
	}
	mu := make([]float64, fam.ResponseLen(len(eta)/m))
	fam.Mean(eta, mu)
	return mu, nil
}

// Classes maps a linear predictor to the most probable class label.
// Binomial predicts the second level once its probability exceeds ½.
func Classes(fam family.Family, eta []float64, levels []string) ([]string, error) {
	k := fam.Classes()
	switch {
	case k < 2:
		return nil, fmt.Errorf("%w: %s does not predict classes", family.ErrResponse, fam.Name())
	case len(levels) != k:
		return nil, fmt.Errorf("%w: %d labels for %d classes", slope.ErrDimensionMismatch, len(levels), k)
	}

	mu, err := Response(fam, eta)
	if err != nil {
		return nil, err
	}
	n := len(eta) / fam.Blocks()
	labels := make([]string, n)
	if len(mu) == n {
		for i, v := range mu {
			labels[i] = levels[0]
			if v > 0.5 {
				labels[i] = levels[1]
			}
		}
		return labels, nil
	}
	for i := range labels {
		best := 0
		for c := 1; c < k; c++ {
			if mu[c*n+i] > mu[best*n+i] {
				best = c
			}
		}
		labels[i] = levels[best]
	}
	return labels, nil
}

// Point computes the linear predictor of x at computed point k of res.
func Point(res *slope.Result, k int, x design.Matrix) ([]float64, error) {
	return LinearPredictor(x, res.Coef(k), res.Intercept(k))
}
