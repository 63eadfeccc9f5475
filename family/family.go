// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonFinite reports a NaN or infinite loss or gradient.
	ErrNonFinite = errors.New("family: non-finite value")
	// ErrResponse reports a response outside the support of the family.
	ErrResponse = errors.New("family: invalid response")
	// ErrUnknown reports an unknown family name.
	ErrUnknown = errors.New("family: unknown family")
)

// Family is the capability set of a generalized linear model family.
//
// Responses and linear predictors of n observations are stored block by block:
// the linear predictor η is n×m with η[c·n + i], m = Blocks().
// Gaussian, Binomial and Poisson use a single block, Multinomial uses K-1.
type Family interface {
	// Name returns the lower case family name.
	Name() string
	// Classes returns the number of response categories (1 for continuous responses).
	Classes() int
	// Blocks returns the number of coefficient blocks m.
	Blocks() int
	// ResponseLen returns the length of a response for n observations.
	ResponseLen(n int) int
	// Validate checks that y lies in the support of the family.
	Validate(y []float64, n int) error
	// Loss returns the negative log-likelihood (½ squared error for Gaussian).
	Loss(eta, y []float64) float64
	// Residual stores ∂ loss / ∂ η in r.
	Residual(eta, y, r []float64)
	// Curvature bounds the second derivative of the loss with respect to η.
	Curvature(y []float64) float64
	// NullIntercept returns the intercepts of the model without predictors.
	NullIntercept(y []float64, n int) []float64
	// Deviance returns twice the log-likelihood gap to the saturated model.
	Deviance(eta, y []float64) float64
	// Mean applies the inverse link, mu has length ResponseLen(n).
	Mean(eta, mu []float64)
}

// New returns the family with the given name.
// classes is only used by multinomial.
func New(name string, classes int) (Family, error) {
	switch name {
	case "gaussian":
		return Gaussian{}, nil
	case "binomial":
		return Binomial{}, nil
	case "poisson":
		return Poisson{}, nil
	case "multinomial":
		if classes < 2 {
			return nil, fmt.Errorf("%w: multinomial needs at least 2 classes, got %d", ErrResponse, classes)
		}
		return Multinomial{K: classes}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// softplus computes log(1 + eˣ) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

const probEps = 1e-5
