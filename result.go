// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slope

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/curioloop/slope/family"
)

// Point reports the outcome of one path point.
type Point struct {
	Status       PointStatus
	NumIter      int     // inner iterations
	NumBacktrack int     // step halvings
	Loss         float64 // f(β, β₀) without the penalty
	Deviance     float64
	DevRatio     float64 // 1 - deviance / null deviance
	NumActive    int     // non-zero coefficients
	NumClusters  int     // distinct non-zero magnitudes
}

// Result holds a fitted SLOPE path.
//
// The coefficient tensor is p × m × s stored flat, coefficient j of block c at
// computed point k is Beta[(k·m + c)·p + j]. Coefficients and intercepts are on
// the scale of the raw design. Computed points always form a prefix of the
// requested path, so point k of Coef matches Points[k] and Sigma[k].
type Result struct {
	P, M       int
	Beta       []float64 // s·m·p coefficients
	Intercepts []float64 // s·m intercepts
	Sigma      []float64 // scales of the computed points
	Requested  []float64 // scales requested, including skipped ones
	Points     []Point   // one per requested scale

	Lambda       []float64
	NullDeviance float64
	Classes      []string
	Family       family.Family
}

func newResult(s *fitSpec, sigma []float64) *Result {
	dim := s.p * s.m
	return &Result{
		P: s.p, M: s.m,
		Beta:         make([]float64, 0, dim*len(sigma)),
		Intercepts:   make([]float64, 0, s.m*len(sigma)),
		Sigma:        make([]float64, 0, len(sigma)),
		Requested:    slices.Clone(sigma),
		Points:       make([]Point, len(sigma)),
		Lambda:       slices.Clone(s.lambda),
		NullDeviance: s.nullDev,
		Classes:      slices.Clone(s.classes),
		Family:       s.fam,
	}
}

// add appends a copy of the solution of point k mapped to the raw scale.
func (r *Result) add(s *fitSpec, k int, beta, b0 []float64, pt Point) {
	if k != len(r.Sigma) {
		panic("bound check error")
	}
	lo, blo := len(r.Beta), len(r.Intercepts)
	r.Beta = append(r.Beta, beta...)
	r.Intercepts = append(r.Intercepts, b0...)
	s.std.Original(r.Beta[lo:], r.Intercepts[blo:])
	r.Sigma = append(r.Sigma, r.Requested[k])
	r.Points[k] = pt
}

// Len returns the number of computed path points.
func (r *Result) Len() int {
	return len(r.Sigma)
}

func (r *Result) check(k int) {
	if k < 0 || k >= len(r.Sigma) {
		panic("bound check error")
	}
}

// Coef returns a copy of the m·p coefficients of computed point k.
func (r *Result) Coef(k int) []float64 {
	r.check(k)
	dim := r.P * r.M
	return slices.Clone(r.Beta[k*dim : (k+1)*dim])
}

// Intercept returns a copy of the m intercepts of computed point k.
func (r *Result) Intercept(k int) []float64 {
	r.check(k)
	return slices.Clone(r.Intercepts[k*r.M : (k+1)*r.M])
}

// Active returns the indices c·p + j of the non-zero coefficients of computed point k.
func (r *Result) Active(k int) []int {
	r.check(k)
	dim := r.P * r.M
	var active []int
	for i, v := range r.Beta[k*dim : (k+1)*dim] {
		if v != 0 {
			active = append(active, i)
		}
	}
	return active
}

// Converged reports whether every computed point met its tolerance.
func (r *Result) Converged() bool {
	for k := range r.Sigma {
		if r.Points[k].Status != PointConverged {
			return false
		}
	}
	return true
}

// Nearest returns the computed point whose scale is closest to sigma, or -1 for an empty result.
func (r *Result) Nearest(sigma float64) int {
	best, dist := -1, math.Inf(1)
	for k, s := range r.Sigma {
		if d := math.Abs(s - sigma); d < dist {
			best, dist = k, d
		}
	}
	return best
}

// Fingerprint hashes the scales, coefficients and intercepts bit for bit.
// Two fits of the same problem yield the same fingerprint.
func (r *Result) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, vs := range [][]float64{r.Sigma, r.Beta, r.Intercepts} {
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}
