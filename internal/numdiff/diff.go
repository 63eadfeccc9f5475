// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// GradSpec estimates the gradient of a scalar function by finite differences.
// It is used to check analytic gradients of loss functions.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	// It may modify nothing but must tolerate x being perturbed in place.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Relative step size, h = RelStep × sign(x₀) × |x₀|.
	// The default is selected from the machine precision and the method.
	RelStep float64
	// Absolute step size, overrides RelStep when non-zero.
	AbsStep float64
	step    []float64
}

// Gradient stores the finite difference approximation of ∇f(x₀) in g.
// x₀ is restored before returning.
func (gs *GradSpec) Gradient(x0, g []float64) error {
	switch {
	case gs.N <= 0:
		return errors.New("negative dimensions")
	case gs.Method != Forward && gs.Method != Central:
		return errors.New("unknown method")
	case gs.Object == nil:
		return errors.New("object function is required")
	case gs.N != len(x0) || gs.N != len(g):
		return errors.New("invalid x0 dimensions")
	}
	if len(gs.step) != gs.N {
		gs.step = make([]float64, gs.N)
	}
	gs.absoluteStep(x0)

	f := gs.Object
	if gs.Method == Forward {
		f0 := f(x0)
		for i, h := range gs.step {
			t := x0[i]
			x0[i] = t + h
			g[i] = (f(x0) - f0) / h
			x0[i] = t
		}
		return nil
	}
	for i, h := range gs.step {
		t := x0[i]
		x0[i] = t + h
		f2 := f(x0)
		x0[i] = t - h
		f1 := f(x0)
		x0[i] = t
		g[i] = (f2 - f1) / (2 * h)
	}
	return nil
}

func (gs *GradSpec) absoluteStep(x0 []float64) {
	eps := sqrtEps
	if gs.Method == Central {
		eps = cubeEps
	}
	for i, v := range x0 {
		s := gs.AbsStep
		if s == 0 && gs.RelStep != 0 {
			s = math.Copysign(gs.RelStep, v) * math.Abs(v)
		}
		// fall back to the default when the step vanishes in floating point
		if (v+s)-v == 0 {
			s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		gs.step[i] = s
	}
}
