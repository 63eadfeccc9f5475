// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sorted

import (
	"math"
	"slices"
)

func descendingAbs(x []float64) []float64 {
	a := make([]float64, len(x))
	for i, v := range x {
		a[i] = math.Abs(v)
	}
	slices.Sort(a)
	slices.Reverse(a)
	return a
}

// Norm evaluates the sorted-L1 norm J(β; λ) = ∑ λᵢ|β|₍ᵢ₎.
func Norm(beta, lambda []float64) float64 {
	if len(beta) != len(lambda) {
		panic("bound check error")
	}
	s := 0.0
	for i, b := range descendingAbs(beta) {
		s += lambda[i] * b
	}
	return s
}

// DualNorm evaluates the dual of the sorted-L1 norm
//
//	J*(g; λ) = 𝚖𝚊𝚡ₖ ∑ᵢ₌₁..ₖ |g|₍ᵢ₎ / ∑ᵢ₌₁..ₖ λᵢ
//
// so that β = 0 minimizes f(β) + σJ(β; λ) iff σ ≥ J*(∇f(0); λ).
// Ranks whose cumulative λ is still zero are skipped; if every λ is zero the
// result is +Inf unless g is zero.
func DualNorm(g, lambda []float64) float64 {
	if len(g) != len(lambda) {
		panic("bound check error")
	}
	best := 0.0
	cg, cl := 0.0, 0.0
	for i, a := range descendingAbs(g) {
		cg += a
		cl += lambda[i]
		if cl > 0 {
			best = math.Max(best, cg/cl)
		} else if cg > 0 {
			return math.Inf(1)
		}
	}
	return best
}

// Clusters counts the distinct non-zero magnitudes of β.
func Clusters(beta []float64) int {
	n, last := 0, math.NaN()
	for _, b := range descendingAbs(beta) {
		if b == 0 {
			break
		}
		if b != last {
			n++
			last = b
		}
	}
	return n
}
