// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/slope/design"
)

// Objective binds a family to a design and a response, and evaluates the
// smooth part f(β, β₀) of the SLOPE objective.
//
// Coefficients are m blocks of p values, β[c·p + j], with one intercept per block.
// An objective owns scratch space and must not be shared between goroutines.
type Objective struct {
	fam       Family
	x         design.Matrix
	y         []float64
	intercept bool

	n, p, m int
	eta     []float64 // n×m linear predictor of the last evaluation
	res     []float64 // n×m residual ∂f/∂η
}

// NewObjective binds fam to the design x and response y.
// The response must have been validated by fam.Validate.
func NewObjective(fam Family, x design.Matrix, y []float64, intercept bool) *Objective {
	n, p := x.Dims()
	m := fam.Blocks()
	if len(y) != fam.ResponseLen(n) {
		panic("bound check error")
	}
	return &Objective{
		fam: fam, x: x, y: y, intercept: intercept,
		n: n, p: p, m: m,
		eta: make([]float64, n*m),
		res: make([]float64, n*m),
	}
}

// Dims returns the number of observations, predictors and blocks.
func (o *Objective) Dims() (n, p, m int) {
	return o.n, o.p, o.m
}

// Family returns the bound family.
func (o *Objective) Family() Family {
	return o.fam
}

func (o *Objective) predict(beta, b0 []float64) {
	n, p := o.n, o.p
	if len(beta) != p*o.m || len(b0) != o.m {
		panic("bound check error")
	}
	for c := 0; c < o.m; c++ {
		eta := o.eta[c*n : (c+1)*n]
		o.x.MulVec(eta, beta[c*p:(c+1)*p])
		if o.intercept {
			floats.AddConst(b0[c], eta)
		}
	}
}

// Loss evaluates f(β, β₀).
func (o *Objective) Loss(beta, b0 []float64) (float64, error) {
	o.predict(beta, b0)
	f := o.fam.Loss(o.eta, o.y)
	if !finite(f) {
		return f, fmt.Errorf("%w: loss %v", ErrNonFinite, f)
	}
	return f, nil
}

// Gradient evaluates f(β, β₀) and stores ∇βf in gBeta and ∇β₀f in gB0.
// gB0 is zero when the objective has no intercept.
func (o *Objective) Gradient(beta, b0, gBeta, gB0 []float64) (float64, error) {
	f, err := o.Loss(beta, b0)
	if err != nil {
		return f, err
	}
	if len(gBeta) != len(beta) || len(gB0) != len(b0) {
		panic("bound check error")
	}

	n, p := o.n, o.p
	o.fam.Residual(o.eta, o.y, o.res)
	for _, r := range o.res {
		if !finite(r) {
			return f, fmt.Errorf("%w: residual %v", ErrNonFinite, r)
		}
	}
	for c := 0; c < o.m; c++ {
		res := o.res[c*n : (c+1)*n]
		o.x.MulTransVec(gBeta[c*p:(c+1)*p], res)
		gB0[c] = 0
		if o.intercept {
			gB0[c] = floats.Sum(res)
		}
	}
	return f, nil
}

// StepBound returns an upper bound on the Lipschitz constant of ∇f, the
// family curvature times ‖[1 X]‖₂² (without the column of ones when there is
// no intercept). The inverse is the proximal gradient step.
func (o *Objective) StepBound() float64 {
	l := o.fam.Curvature(o.y) * design.SpectralNormSq(o.x, o.intercept)
	if l <= 0 || math.IsNaN(l) {
		// zero design, any step is exact
		l = 1
	}
	return l
}

// Deviance returns the deviance of (β, β₀).
func (o *Objective) Deviance(beta, b0 []float64) float64 {
	o.predict(beta, b0)
	return o.fam.Deviance(o.eta, o.y)
}

// NullIntercept returns the intercepts of the model without predictors,
// or zeros when the objective has no intercept.
func (o *Objective) NullIntercept() []float64 {
	if !o.intercept {
		return make([]float64, o.m)
	}
	return o.fam.NullIntercept(o.y, o.n)
}
