// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package design

import (
	"fmt"
	"math"
	"sort"
)

// CSC is a design matrix in compressed sparse column format.
// The row indices of column j are idx[ptr[j]:ptr[j+1]] in increasing order.
type CSC struct {
	n, p int
	ptr  []int
	idx  []int
	val  []float64
}

// NewCSC validates and wraps compressed sparse column arrays without copying.
func NewCSC(n, p int, ptr, idx []int, val []float64) (*CSC, error) {
	switch {
	case n <= 0 || p <= 0:
		return nil, fmt.Errorf("%w: dimensions %d×%d", ErrShape, n, p)
	case len(ptr) != p+1 || ptr[0] != 0:
		return nil, fmt.Errorf("%w: column pointer length %d, want %d", ErrShape, len(ptr), p+1)
	case len(idx) != len(val) || ptr[p] != len(val):
		return nil, fmt.Errorf("%w: %d indices for %d values", ErrShape, len(idx), len(val))
	}
	for j := 0; j < p; j++ {
		if ptr[j] > ptr[j+1] {
			return nil, fmt.Errorf("%w: column pointer decreases at %d", ErrShape, j)
		}
		last := -1
		for k := ptr[j]; k < ptr[j+1]; k++ {
			if i := idx[k]; i <= last || i >= n {
				return nil, fmt.Errorf("%w: row index %d in column %d", ErrShape, i, j)
			} else {
				last = i
			}
		}
	}
	return &CSC{n: n, p: p, ptr: ptr, idx: idx, val: val}, nil
}

// CSCFromRows compresses row-major dense data, dropping exact zeros.
func CSCFromRows(n, p int, data []float64) (*CSC, error) {
	if n <= 0 || p <= 0 || len(data) != n*p {
		return nil, ErrShape
	}
	c := &CSC{n: n, p: p, ptr: make([]int, p+1)}
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			if v := data[i*p+j]; v != 0 {
				c.idx = append(c.idx, i)
				c.val = append(c.val, v)
			}
		}
		c.ptr[j+1] = len(c.val)
	}
	return c, nil
}

// Identity returns the n×n identity as a sparse matrix.
func Identity(n int) *CSC {
	c := &CSC{n: n, p: n, ptr: make([]int, n+1), idx: make([]int, n), val: make([]float64, n)}
	for j := 0; j < n; j++ {
		c.ptr[j+1] = j + 1
		c.idx[j] = j
		c.val[j] = 1
	}
	return c
}

func (c *CSC) Dims() (n, p int) {
	return c.n, c.p
}

// NNZ returns the number of stored entries.
func (c *CSC) NNZ() int {
	return len(c.val)
}

// At returns the element at row i and column j.
func (c *CSC) At(i, j int) float64 {
	if i < 0 || i >= c.n || j < 0 || j >= c.p {
		panic("bound check error")
	}
	lo, hi := c.ptr[j], c.ptr[j+1]
	k := lo + sort.SearchInts(c.idx[lo:hi], i)
	if k < hi && c.idx[k] == i {
		return c.val[k]
	}
	return 0
}

func (c *CSC) MulVec(dst, beta []float64) {
	if len(dst) != c.n || len(beta) != c.p {
		panic("bound check error")
	}
	clear(dst)
	for j, b := range beta {
		if b == 0 {
			continue
		}
		for k := c.ptr[j]; k < c.ptr[j+1]; k++ {
			dst[c.idx[k]] += c.val[k] * b
		}
	}
}

func (c *CSC) MulTransVec(dst, r []float64) {
	if len(dst) != c.p || len(r) != c.n {
		panic("bound check error")
	}
	for j := range dst {
		s := 0.0
		for k := c.ptr[j]; k < c.ptr[j+1]; k++ {
			s += c.val[k] * r[c.idx[k]]
		}
		dst[j] = s
	}
}

func (c *CSC) Moments(mean, sd []float64) {
	if len(mean) != c.p || len(sd) != c.p {
		panic("bound check error")
	}
	n := float64(c.n)
	for j := 0; j < c.p; j++ {
		s, ss := 0.0, 0.0
		for k := c.ptr[j]; k < c.ptr[j+1]; k++ {
			s += c.val[k]
		}
		m := s / n
		// implicit zeros contribute m² each
		zeros := c.n - (c.ptr[j+1] - c.ptr[j])
		ss = float64(zeros) * m * m
		for k := c.ptr[j]; k < c.ptr[j+1]; k++ {
			d := c.val[k] - m
			ss += d * d
		}
		mean[j], sd[j] = m, math.Sqrt(ss/n)
	}
}
