// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package design

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Standardization holds the column centers and scales of a design.
type Standardization struct {
	Center []float64 // subtracted from every column, nil for none
	Scale  []float64 // divides every centered column, nil for none
}

// Standardize computes the centers and scales of x.
// Columns with zero spread keep a unit scale.
func Standardize(x Matrix, center, scale bool) Standardization {
	_, p := x.Dims()
	mean, sd := make([]float64, p), make([]float64, p)
	x.Moments(mean, sd)

	var s Standardization
	if center {
		s.Center = mean
	}
	if scale {
		for j, v := range sd {
			if !center {
				// spread around zero when the column is not centered
				v = math.Hypot(mean[j], v)
			}
			if v <= 0 {
				v = 1
			}
			sd[j] = v
		}
		s.Scale = sd
	}
	return s
}

// Scaled is an implicitly standardized view of a design matrix,
//
//	X̃ = (X - 1cᵀ) 𝚍𝚒𝚊𝚐(s)⁻¹
//
// that never densifies the underlying storage.
// A view carries scratch space and must not be shared between goroutines.
type Scaled struct {
	x   Matrix
	std Standardization
	tmp []float64
}

// NewScaled returns the standardized view of x.
func NewScaled(x Matrix, std Standardization) *Scaled {
	_, p := x.Dims()
	if (std.Center != nil && len(std.Center) != p) || (std.Scale != nil && len(std.Scale) != p) {
		panic("bound check error")
	}
	return &Scaled{x: x, std: std, tmp: make([]float64, p)}
}

func (s *Scaled) Dims() (n, p int) {
	return s.x.Dims()
}

func (s *Scaled) MulVec(dst, beta []float64) {
	t := beta
	if s.std.Scale != nil {
		t = s.tmp
		floats.DivTo(t, beta, s.std.Scale)
	}
	s.x.MulVec(dst, t)
	if s.std.Center != nil {
		floats.AddConst(-floats.Dot(s.std.Center, t), dst)
	}
}

func (s *Scaled) MulTransVec(dst, r []float64) {
	s.x.MulTransVec(dst, r)
	if s.std.Center != nil {
		floats.AddScaled(dst, -floats.Sum(r), s.std.Center)
	}
	if s.std.Scale != nil {
		floats.Div(dst, s.std.Scale)
	}
}

func (s *Scaled) Moments(mean, sd []float64) {
	s.x.Moments(mean, sd)
	if s.std.Center != nil {
		floats.Sub(mean, s.std.Center)
	}
	if s.std.Scale != nil {
		floats.Div(mean, s.std.Scale)
		floats.Div(sd, s.std.Scale)
	}
}

// Original maps coefficients fitted on the standardized view back to the
// scale of the raw design. beta holds m blocks of p coefficients and
// intercept holds one value per block; both are updated in place.
func (std Standardization) Original(beta, intercept []float64) {
	m := len(intercept)
	if m == 0 {
		return
	}
	p := len(beta) / m
	for c := 0; c < m; c++ {
		b := beta[c*p : (c+1)*p]
		if std.Scale != nil {
			floats.Div(b, std.Scale)
		}
		if std.Center != nil {
			intercept[c] -= floats.Dot(std.Center, b)
		}
	}
}

// Standardized maps coefficients on the scale of the raw design onto the
// standardized view. It is the inverse of Original.
func (std Standardization) Standardized(beta, intercept []float64) {
	m := len(intercept)
	if m == 0 {
		return
	}
	p := len(beta) / m
	for c := 0; c < m; c++ {
		b := beta[c*p : (c+1)*p]
		if std.Center != nil {
			intercept[c] += floats.Dot(std.Center, b)
		}
		if std.Scale != nil {
			floats.Mul(b, std.Scale)
		}
	}
}
