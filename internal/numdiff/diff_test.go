// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"testing"
)

func TestGradient(t *testing.T) {
	obj := func(x []float64) float64 {
		return x[0]*math.Sin(x[1]) + math.Pow(x[0], 3)*math.Pow(x[1], -0.5)
	}
	grad := func(x []float64) []float64 {
		return []float64{
			math.Sin(x[1]) + 3*math.Pow(x[0], 2)*math.Pow(x[1], -0.5),
			x[0]*math.Cos(x[1]) - 0.5*math.Pow(x[0], 3)*math.Pow(x[1], -1.5),
		}
	}

	x0 := []float64{1, 2}
	want := grad(x0)

	tests := []struct {
		method Method
		tol    float64
	}{
		{Forward, 1e-6},
		{Central, 1e-8},
	}
	for _, tt := range tests {
		gs := GradSpec{N: 2, Object: obj, Method: tt.method}
		g := make([]float64, 2)
		if err := gs.Gradient(x0, g); err != nil {
			t.Fatal(err)
		}
		for i := range g {
			if math.Abs(g[i]-want[i]) > tt.tol*math.Max(1, math.Abs(want[i])) {
				t.Fatalf("TestGradient: method %d component %d = %v, want %v", tt.method, i, g[i], want[i])
			}
		}
		if x0[0] != 1 || x0[1] != 2 {
			t.Fatal("TestGradient: x0 not restored")
		}
	}
}

func TestGradientArgs(t *testing.T) {
	g := make([]float64, 1)
	tests := []GradSpec{
		{N: 0, Object: func([]float64) float64 { return 0 }},
		{N: 1},
		{N: 1, Method: Method(7), Object: func([]float64) float64 { return 0 }},
		{N: 2, Object: func([]float64) float64 { return 0 }},
	}
	for _, gs := range tests {
		if err := gs.Gradient([]float64{0}, g); err == nil {
			t.Fatal("TestGradientArgs: expected error")
		}
	}
}
