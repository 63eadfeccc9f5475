// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package design

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaledMatchesExplicit(t *testing.T) {
	r := rand.New(rand.NewPCG(4, 5))
	const n, p = 25, 7
	data := sparseRows(r, n, p, 0.4)
	// constant column keeps a unit scale
	for i := 0; i < n; i++ {
		data[i*p+3] = 2
	}
	c, err := CSCFromRows(n, p, data)
	require.NoError(t, err)

	for _, center := range []bool{false, true} {
		std := Standardize(c, center, true)
		view := NewScaled(c, std)

		explicit := make([]float64, n*p)
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				v := data[i*p+j]
				if center {
					v -= std.Center[j]
				}
				explicit[i*p+j] = v / std.Scale[j]
			}
		}
		d, err := DenseFromRows(n, p, explicit)
		require.NoError(t, err)

		beta := make([]float64, p)
		res := make([]float64, n)
		for j := range beta {
			beta[j] = r.NormFloat64()
		}
		for i := range res {
			res[i] = r.NormFloat64()
		}

		a, b := make([]float64, n), make([]float64, n)
		view.MulVec(a, beta)
		d.MulVec(b, beta)
		assert.InDeltaSlice(t, b, a, 1e-12)

		g, h := make([]float64, p), make([]float64, p)
		view.MulTransVec(g, res)
		d.MulTransVec(h, res)
		assert.InDeltaSlice(t, h, g, 1e-12)

		if center {
			mean, sd := make([]float64, p), make([]float64, p)
			view.Moments(mean, sd)
			for j := range mean {
				assert.InDelta(t, 0, mean[j], 1e-12)
				if j != 3 {
					assert.InDelta(t, 1, sd[j], 1e-12)
				}
			}
		}
	}
}

func TestStandardizationOriginal(t *testing.T) {
	r := rand.New(rand.NewPCG(6, 7))
	const n, p, m = 12, 4, 2
	data := sparseRows(r, n, p, 1)
	x, err := DenseFromRows(n, p, data)
	require.NoError(t, err)

	std := Standardize(x, true, true)
	view := NewScaled(x, std)

	beta := make([]float64, p*m)
	b0 := []float64{0.5, -1}
	for j := range beta {
		beta[j] = r.NormFloat64()
	}

	want := make([][]float64, m)
	for c := 0; c < m; c++ {
		want[c] = make([]float64, n)
		view.MulVec(want[c], beta[c*p:(c+1)*p])
		for i := range want[c] {
			want[c][i] += b0[c]
		}
	}

	std.Original(beta, b0)
	for c := 0; c < m; c++ {
		got := make([]float64, n)
		x.MulVec(got, beta[c*p:(c+1)*p])
		for i := range got {
			got[i] += b0[c]
		}
		assert.InDeltaSlice(t, want[c], got, 1e-10)
	}
}

func TestStandardizeUncentered(t *testing.T) {
	x, err := DenseFromRows(2, 1, []float64{3, 4})
	require.NoError(t, err)
	std := Standardize(x, false, true)
	assert.Nil(t, std.Center)
	// √((9 + 16)/2)
	assert.InDelta(t, math.Sqrt(12.5), std.Scale[0], 1e-12)
}

func TestStandardizationRoundTrip(t *testing.T) {
	std := Standardization{Center: []float64{1, -2}, Scale: []float64{0.5, 4}}
	beta := []float64{3, -1, 0.25, 2}
	b0 := []float64{1, 2}

	gotBeta := append([]float64(nil), beta...)
	gotB0 := append([]float64(nil), b0...)
	std.Standardized(gotBeta, gotB0)
	std.Original(gotBeta, gotB0)
	assert.InDeltaSlice(t, beta, gotBeta, 1e-12)
	assert.InDeltaSlice(t, b0, gotB0, 1e-12)
}
