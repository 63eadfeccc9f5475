// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"gaussian", "binomial", "poisson"} {
		fam, err := New(name, 0)
		require.NoError(t, err)
		assert.Equal(t, name, fam.Name())
		assert.Equal(t, 1, fam.Blocks())
	}

	fam, err := New("multinomial", 4)
	require.NoError(t, err)
	assert.Equal(t, 3, fam.Blocks())
	assert.Equal(t, 4, fam.Classes())
	assert.Equal(t, 20, fam.ResponseLen(5))

	_, err = New("multinomial", 1)
	require.ErrorIs(t, err, ErrResponse)
	_, err = New("gamma", 0)
	require.ErrorIs(t, err, ErrUnknown)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fam  Family
		y    []float64
		n    int
	}{
		{"gaussian length", Gaussian{}, []float64{1}, 2},
		{"gaussian nan", Gaussian{}, []float64{math.NaN()}, 1},
		{"binomial label", Binomial{}, []float64{0, 2}, 2},
		{"poisson negative", Poisson{}, []float64{-1}, 1},
		{"poisson inf", Poisson{}, []float64{math.Inf(1)}, 1},
		{"multinomial length", Multinomial{K: 3}, []float64{1, 0, 0}, 2},
		{"multinomial two classes", Multinomial{K: 2}, []float64{1, 1}, 1},
		{"multinomial no class", Multinomial{K: 2}, []float64{0, 0}, 1},
		{"multinomial value", Multinomial{K: 2}, []float64{0.5, 0.5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.fam.Validate(tt.y, tt.n), ErrResponse)
		})
	}
}

func TestMean(t *testing.T) {
	m := Multinomial{K: 3}
	const n = 2
	eta := []float64{0.5, -2, 1, 3}
	mu := make([]float64, m.ResponseLen(n))
	m.Mean(eta, mu)
	for i := 0; i < n; i++ {
		s := 0.0
		for k := 0; k < m.K; k++ {
			s += mu[k*n+i]
		}
		assert.InDelta(t, 1, s, 1e-12)
	}
	// the reference class has a zero linear predictor
	assert.InDelta(t, math.Exp(0.5)/(1+math.Exp(0.5)+math.E), mu[0], 1e-12)

	mu = make([]float64, 2)
	Binomial{}.Mean([]float64{0, -800}, mu)
	assert.Equal(t, []float64{0.5, 0}, mu)
}

func TestFactorAndResponse(t *testing.T) {
	codes, levels := Factor([]string{"setosa", "virginica", "setosa", "versicolor"})
	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, levels)
	assert.Equal(t, []int{0, 2, 0, 1}, codes)

	y, err := Response(Multinomial{K: 3}, codes)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		1, 0, 1, 0,
		0, 0, 0, 1,
		0, 1, 0, 0,
	}, y)
	require.NoError(t, Multinomial{K: 3}.Validate(y, 4))

	y, err = Response(Binomial{}, []int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, y)

	_, err = Response(Binomial{}, []int{2})
	require.ErrorIs(t, err, ErrResponse)
	_, err = Response(Gaussian{}, []int{0})
	require.ErrorIs(t, err, ErrResponse)
}
