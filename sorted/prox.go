// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sorted

import (
	"cmp"
	"math"
	"slices"
)

// Workspace holds the scratch buffers of the sorted-L1 proximal operator.
// A workspace is not safe for concurrent use, create one per goroutine.
type Workspace struct {
	ord []int     // permutation sorting |v| in descending order
	mag []float64 // |v| in input order
	blk []block   // pooled blocks of the current pass
}

// block is a run of consecutive ranks [lo, hi] sharing the same output magnitude.
type block struct {
	lo, hi int
	sum    float64 // ∑ (|v|₍ᵢ₎ - λᵢ) over the run
}

func (b block) mean() float64 {
	return b.sum / float64(b.hi-b.lo+1)
}

// NewWorkspace allocates a workspace for vectors of dimension p.
func NewWorkspace(p int) *Workspace {
	w := new(Workspace)
	w.grow(p)
	return w
}

func (w *Workspace) grow(p int) {
	if cap(w.ord) < p {
		w.ord = make([]int, p)
		w.mag = make([]float64, p)
		w.blk = make([]block, 0, p)
	}
	w.ord = w.ord[:p]
	w.mag = w.mag[:p]
	w.blk = w.blk[:0]
}

// Prox computes the proximal operator of the sorted-L1 norm
//
//	𝚙𝚛𝚘𝚡(v) = 𝚊𝚛𝚐𝚖𝚒𝚗 ½‖v - β‖² + ∑ λᵢ|β|₍ᵢ₎
//
// where |β|₍₁₎ ≥ |β|₍₂₎ ≥ ... ≥ |β|₍ₚ₎ and λ is non-increasing and non-negative.
// The result is written to dst, which may alias v.
//
// The magnitudes are sorted in descending order, shrunk by λ and projected onto
// the monotone cone with a stack based pool-adjacent-violators pass. Ranks that end
// up pooled share one output magnitude, which is how SLOPE clusters coefficients.
//
// M. Bogdan, E. van den Berg, C. Sabatti, W. Su, E. J. Candès,
// 'SLOPE - adaptive variable selection via convex optimization', Ann. Appl. Stat. 2015.
// Algorithm 4 (FastProxSL1).
func (w *Workspace) Prox(dst, v, lambda []float64) {

	p := len(v)
	if len(lambda) != p || len(dst) != p {
		panic("bound check error")
	}

	w.grow(p)
	ord, mag := w.ord, w.mag

	for i, x := range v {
		ord[i] = i
		mag[i] = math.Abs(x)
	}

	// Stable sort keeps index order among equal magnitudes.
	// Ties receive the same output so the order does not change the result.
	slices.SortStableFunc(ord, func(a, b int) int {
		return cmp.Compare(mag[b], mag[a])
	})

	blk := w.blk
	for i, k := range ord {
		blk = append(blk, block{lo: i, hi: i, sum: mag[k] - lambda[i]})
		// Pool while the previous block does not strictly dominate the new one.
		for n := len(blk); n > 1 && blk[n-2].mean() <= blk[n-1].mean(); n-- {
			top := blk[n-1]
			blk[n-2].hi = top.hi
			blk[n-2].sum += top.sum
			blk = blk[:n-1]
		}
	}
	w.blk = blk

	for _, b := range blk {
		x := math.Max(b.mean(), 0)
		for i := b.lo; i <= b.hi; i++ {
			k := ord[i]
			dst[k] = math.Copysign(x, v[k])
			if x == 0 {
				dst[k] = 0
			}
		}
	}
}

// Prox is the allocating form of Workspace.Prox.
func Prox(v, lambda []float64) []float64 {
	dst := make([]float64, len(v))
	NewWorkspace(len(v)).Prox(dst, v, lambda)
	return dst
}
