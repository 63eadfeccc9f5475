// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package design

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrShape reports a malformed matrix.
var ErrShape = errors.New("design: malformed matrix")

// Matrix is an n×p design matrix. The solver only needs products with
// vectors, so dense and sparse storage share this interface.
// Implementations must not be mutated while a fit is running.
type Matrix interface {
	// Dims returns the number of observations n and predictors p.
	Dims() (n, p int)
	// MulVec computes dst = Xβ, len(dst) = n, len(β) = p.
	MulVec(dst, beta []float64)
	// MulTransVec computes dst = Xᵀr, len(dst) = p, len(r) = n.
	MulTransVec(dst, r []float64)
	// Moments stores the column means and population standard deviations.
	Moments(mean, sd []float64)
}

// Dense is a dense design matrix backed by gonum.
type Dense struct {
	x *mat.Dense
}

// NewDense wraps an existing gonum matrix without copying.
func NewDense(x *mat.Dense) *Dense {
	return &Dense{x: x}
}

// DenseFromRows builds a dense design from row-major data.
func DenseFromRows(n, p int, data []float64) (*Dense, error) {
	if n <= 0 || p <= 0 || len(data) != n*p {
		return nil, ErrShape
	}
	return &Dense{x: mat.NewDense(n, p, data)}, nil
}

// Raw returns the underlying gonum matrix.
func (d *Dense) Raw() *mat.Dense {
	return d.x
}

func (d *Dense) Dims() (n, p int) {
	return d.x.Dims()
}

func (d *Dense) MulVec(dst, beta []float64) {
	n, p := d.x.Dims()
	if len(dst) != n || len(beta) != p {
		panic("bound check error")
	}
	mat.NewVecDense(n, dst).MulVec(d.x, mat.NewVecDense(p, beta))
}

func (d *Dense) MulTransVec(dst, r []float64) {
	n, p := d.x.Dims()
	if len(dst) != p || len(r) != n {
		panic("bound check error")
	}
	mat.NewVecDense(p, dst).MulVec(d.x.T(), mat.NewVecDense(n, r))
}

func (d *Dense) Moments(mean, sd []float64) {
	n, p := d.x.Dims()
	if len(mean) != p || len(sd) != p {
		panic("bound check error")
	}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, d.x)
		mean[j], sd[j] = stat.PopMeanStdDev(col, nil)
	}
}

// SpectralNormSq estimates ‖X‖₂², the largest eigenvalue of XᵀX, by power iteration.
// With intercept set the implicit column of ones is included, i.e. ‖[1 X]‖₂².
// The estimate approaches the true value from below.
func SpectralNormSq(x Matrix, intercept bool) float64 {

	const (
		maxIter = 200
		relTol  = 1e-8
	)

	n, p := x.Dims()
	off := 0
	if intercept {
		off = 1
	}

	v := make([]float64, p+off)
	u := make([]float64, n)
	w := make([]float64, p+off)

	for j := range v {
		v[j] = 1 / math.Sqrt(float64(j+1))
	}
	normalize(v)

	est := 0.0
	for k := 0; k < maxIter; k++ {
		x.MulVec(u, v[off:])
		if intercept {
			floats.AddConst(v[0], u)
			w[0] = floats.Sum(u)
		}
		x.MulTransVec(w[off:], u)

		// vᵀXᵀXv with ‖v‖ = 1
		next := floats.Dot(v, w)
		copy(v, w)
		if normalize(v) == 0 {
			return 0
		}
		if math.Abs(next-est) <= relTol*next {
			return math.Max(next, est)
		}
		est = math.Max(next, est)
	}
	return est
}

func normalize(v []float64) float64 {
	s := floats.Norm(v, 2)
	if s > 0 {
		floats.Scale(1/s, v)
	}
	return s
}
