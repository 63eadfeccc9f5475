// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/internal/numdiff"
)

type fixture struct {
	fam Family
	x   design.Matrix
	y   []float64
}

func newFixture(t *testing.T, fam Family, seed uint64) fixture {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 11))
	const n, p = 40, 5
	data := make([]float64, n*p)
	for i := range data {
		data[i] = r.NormFloat64() * 0.5
	}
	x, err := design.DenseFromRows(n, p, data)
	require.NoError(t, err)

	var y []float64
	switch f := fam.(type) {
	case Gaussian:
		y = make([]float64, n)
		for i := range y {
			y[i] = r.NormFloat64() + 1
		}
	case Binomial:
		y = make([]float64, n)
		for i := range y {
			y[i] = float64(r.IntN(2))
		}
	case Poisson:
		y = make([]float64, n)
		for i := range y {
			y[i] = float64(r.IntN(6))
		}
	case Multinomial:
		codes := make([]int, n)
		for i := range codes {
			codes[i] = r.IntN(f.K)
		}
		var err error
		y, err = Response(f, codes)
		require.NoError(t, err)
	}
	require.NoError(t, fam.Validate(y, n))
	return fixture{fam: fam, x: x, y: y}
}

func allFamilies() []Family {
	return []Family{Gaussian{}, Binomial{}, Poisson{}, Multinomial{K: 3}}
}

func TestObjective_GradientMatchesFiniteDifference(t *testing.T) {
	for k, fam := range allFamilies() {
		t.Run(fam.Name(), func(t *testing.T) {
			fx := newFixture(t, fam, uint64(k))
			obj := NewObjective(fam, fx.x, fx.y, true)
			_, p, m := obj.Dims()

			r := rand.New(rand.NewPCG(uint64(k), 99))
			theta := make([]float64, p*m+m)
			for i := range theta {
				theta[i] = 0.3 * r.NormFloat64()
			}
			beta, b0 := theta[:p*m], theta[p*m:]

			gBeta, gB0 := make([]float64, p*m), make([]float64, m)
			f, err := obj.Gradient(beta, b0, gBeta, gB0)
			require.NoError(t, err)

			loss, err := obj.Loss(beta, b0)
			require.NoError(t, err)
			assert.Equal(t, f, loss)

			gs := numdiff.GradSpec{
				N:      len(theta),
				Method: numdiff.Central,
				Object: func(th []float64) float64 {
					v, err := obj.Loss(th[:p*m], th[p*m:])
					require.NoError(t, err)
					return v
				},
			}
			approx := make([]float64, len(theta))
			require.NoError(t, gs.Gradient(theta, approx))
			assert.InDeltaSlice(t, approx, append(slices.Clone(gBeta), gB0...), 1e-5)
		})
	}
}

func TestObjective_NullIntercept(t *testing.T) {
	for k, fam := range allFamilies() {
		t.Run(fam.Name(), func(t *testing.T) {
			fx := newFixture(t, fam, uint64(10+k))
			obj := NewObjective(fam, fx.x, fx.y, true)
			_, p, m := obj.Dims()

			b0 := obj.NullIntercept()
			require.Len(t, b0, m)

			gBeta, gB0 := make([]float64, p*m), make([]float64, m)
			_, err := obj.Gradient(make([]float64, p*m), b0, gBeta, gB0)
			require.NoError(t, err)
			assert.InDeltaSlice(t, make([]float64, m), gB0, 1e-8)
		})
	}
}

func TestObjective_NoIntercept(t *testing.T) {
	fx := newFixture(t, Gaussian{}, 21)
	obj := NewObjective(fx.fam, fx.x, fx.y, false)
	_, p, _ := obj.Dims()

	assert.Equal(t, []float64{0}, obj.NullIntercept())

	gBeta, gB0 := make([]float64, p), []float64{7}
	f, err := obj.Gradient(make([]float64, p), []float64{5}, gBeta, gB0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gB0[0])
	// the intercept is ignored, f = ½‖y‖²
	want := 0.0
	for _, v := range fx.y {
		want += 0.5 * v * v
	}
	assert.InDelta(t, want, f, 1e-9)
}

func TestObjective_StepBound(t *testing.T) {
	fx := newFixture(t, Gaussian{}, 31)
	obj := NewObjective(fx.fam, fx.x, fx.y, true)
	l := obj.StepBound()
	assert.InDelta(t, design.SpectralNormSq(fx.x, true), l, 1e-12)

	bin := NewObjective(Binomial{}, fx.x, make([]float64, len(fx.y)), true)
	assert.InDelta(t, l/4, bin.StepBound(), 1e-12)
}

func TestObjective_NonFinite(t *testing.T) {
	x, err := design.DenseFromRows(2, 1, []float64{1000, 2000})
	require.NoError(t, err)
	obj := NewObjective(Poisson{}, x, []float64{1, 2}, true)

	g, g0 := make([]float64, 1), make([]float64, 1)
	_, err = obj.Gradient([]float64{1}, []float64{0}, g, g0)
	require.ErrorIs(t, err, ErrNonFinite)
}

func TestObjective_Deviance(t *testing.T) {
	y := []float64{0, 2, 5}
	eta := []float64{math.Log(1e-300), math.Log(2), math.Log(5)}
	assert.InDelta(t, 0, Poisson{}.Deviance(eta, y), 1e-12)

	assert.InDelta(t, 2.0, Gaussian{}.Deviance([]float64{1, 0}, []float64{0, 1}), 1e-12)
	// a fair coin costs log 2 per observation
	assert.InDelta(t, 4*math.Ln2, Binomial{}.Deviance([]float64{0, 0}, []float64{0, 1}), 1e-12)
}
