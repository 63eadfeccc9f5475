// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predict

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/penalty"
)

func path(t *testing.T) (*slope.Optimizer, *slope.Result, *design.Dense, []float64) {
	t.Helper()
	const n, p = 40, 3
	rnd := rand.New(rand.NewPCG(17, 3))
	data := make([]float64, n*p)
	for i := range data {
		data[i] = rnd.NormFloat64()
	}
	x, err := design.DenseFromRows(n, p, data)
	require.NoError(t, err)
	y := make([]float64, n)
	x.MulVec(y, []float64{2, -1, 0.5})
	for i := range y {
		y[i] += 1 + 0.3*rnd.NormFloat64()
	}

	o, err := (&slope.Problem{
		X: x, Y: y, Family: family.Gaussian{},
		Lambda: penalty.Spec{Kind: penalty.BH, Q: 0.2},
		Sigma:  []float64{4, 2, 1, 0.5},
		Stop:   slope.Termination{CoefTolerance: 1e-10, ObjTolerance: math.NaN()},
	}).New(nil)
	require.NoError(t, err)
	res, err := o.Fit(o.Init())
	require.NoError(t, err)
	require.Equal(t, 4, res.Len())
	return o, res, x, y
}

func TestInterpolate(t *testing.T) {
	_, res, _, _ := path(t)

	beta, b0, err := Interpolate(res, 1.5)
	require.NoError(t, err)
	hi, lo := res.Coef(1), res.Coef(2)
	for j := range beta {
		assert.InDelta(t, (hi[j]+lo[j])/2, beta[j], 1e-12)
	}
	assert.InDelta(t, (res.Intercept(1)[0]+res.Intercept(2)[0])/2, b0[0], 1e-12)

	beta, _, err = Interpolate(res, 1)
	require.NoError(t, err)
	assert.Equal(t, res.Coef(2), beta)

	beta, _, err = Interpolate(res, 10)
	require.NoError(t, err)
	assert.Equal(t, res.Coef(0), beta)

	beta, _, err = Interpolate(res, 0.1)
	require.NoError(t, err)
	assert.Equal(t, res.Coef(3), beta)

	_, _, err = Interpolate(res, -1)
	assert.ErrorIs(t, err, penalty.ErrInvalidPenalty)
	_, _, err = Interpolate(&slope.Result{}, 1)
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestCoefficientsExact(t *testing.T) {
	o, res, _, _ := path(t)
	refit := Exact(o, o.Init())

	beta, _, err := Coefficients(res, 2, true, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Coef(1), beta)

	_, _, err = Coefficients(res, 1.5, true, nil)
	assert.Error(t, err)

	exact, _, err := Coefficients(res, 1.5, true, refit)
	require.NoError(t, err)
	approx, _, err := Coefficients(res, 1.5, false, nil)
	require.NoError(t, err)

	// the path is piecewise linear only between kinks, both must stay close
	for j := range exact {
		assert.InDelta(t, approx[j], exact[j], 0.1)
	}

	_, _, err = Coefficients(res, math.NaN(), false, nil)
	assert.ErrorIs(t, err, penalty.ErrInvalidPenalty)
}

func TestLinearPredictor(t *testing.T) {
	_, res, x, y := path(t)
	eta, err := Point(res, 3, x)
	require.NoError(t, err)
	require.Len(t, eta, len(y))

	// a weakly penalized fit explains most of the response
	var rss, tss, mean float64
	for _, v := range y {
		mean += v / float64(len(y))
	}
	for i, v := range y {
		rss += (v - eta[i]) * (v - eta[i])
		tss += (v - mean) * (v - mean)
	}
	assert.Less(t, rss/tss, 0.1)

	_, err = LinearPredictor(x, []float64{1}, []float64{0})
	assert.ErrorIs(t, err, slope.ErrDimensionMismatch)

	mu, err := Response(family.Gaussian{}, eta)
	require.NoError(t, err)
	assert.Equal(t, eta, mu)
}

func TestClasses(t *testing.T) {
	labels, err := Classes(family.Binomial{}, []float64{-2, 0.5, 3}, []string{"no", "yes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "yes", "yes"}, labels)

	// two observations, K = 3, η[c·n + i] against the last class
	eta := []float64{
		2, -1,
		0, -1,
	}
	labels, err = Classes(family.Multinomial{K: 3}, eta, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, labels)

	mu, err := Response(family.Multinomial{K: 3}, eta)
	require.NoError(t, err)
	require.Len(t, mu, 6)
	assert.InDelta(t, 1, mu[0]+mu[2]+mu[4], 1e-12)
	assert.InDelta(t, 1, mu[1]+mu[3]+mu[5], 1e-12)

	_, err = Classes(family.Gaussian{}, eta, nil)
	assert.ErrorIs(t, err, family.ErrResponse)
	_, err = Classes(family.Binomial{}, eta, []string{"x"})
	assert.ErrorIs(t, err, slope.ErrDimensionMismatch)
}
