// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sorted

import (
	"math"
	"testing"
)

func TestNorm(t *testing.T) {
	beta := []float64{-1, 3, 0, 2}
	lambda := []float64{4, 3, 2, 1}
	// 4·3 + 3·2 + 2·1 + 1·0
	if got := Norm(beta, lambda); got != 20 {
		t.Fatalf("TestNorm: got %v", got)
	}
}

func TestDualNorm(t *testing.T) {
	tests := []struct {
		g, lambda []float64
		want      float64
	}{
		{[]float64{1, -3}, []float64{1, 1}, 3},
		{[]float64{2, 2}, []float64{2, 0}, 2},
		{[]float64{0, 0}, []float64{0, 0}, 0},
		{[]float64{1, 0}, []float64{0, 0}, math.Inf(1)},
		{[]float64{4, 3, 2}, []float64{3, 1, 1}, 1.8},
	}
	for _, tt := range tests {
		if got := DualNorm(tt.g, tt.lambda); !almostEqual(got, tt.want, 1e-12) && got != tt.want {
			t.Fatalf("TestDualNorm: DualNorm(%v, %v) = %v, want %v", tt.g, tt.lambda, got, tt.want)
		}
	}
}

func TestClusters(t *testing.T) {
	tests := []struct {
		beta []float64
		want int
	}{
		{[]float64{0, 0}, 0},
		{[]float64{1, -1, 0.5}, 2},
		{[]float64{4.2, 4.2}, 1},
		{[]float64{3, 0, -2, 2, 1}, 3},
	}
	for _, tt := range tests {
		if got := Clusters(tt.beta); got != tt.want {
			t.Fatalf("TestClusters: Clusters(%v) = %d, want %d", tt.beta, got, tt.want)
		}
	}
}
