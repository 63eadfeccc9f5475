// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slope

import "errors"

var (
	// ErrDimensionMismatch reports incompatible shapes of the design, the response or the warm start.
	ErrDimensionMismatch = errors.New("slope: dimension mismatch")
	// ErrInvalidResponse reports a response outside the support of the family.
	ErrInvalidResponse = errors.New("slope: invalid response")
	// ErrNumericalInstability reports a non-finite loss or gradient during a path point.
	// Earlier path points are kept and the remaining ones are skipped.
	ErrNumericalInstability = errors.New("slope: numerical instability")
)

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
)

const (
	defaultMaxIter      = 10000
	defaultMaxBacktrack = 16
	defaultCoefTol      = 1e-7
	defaultObjTol       = 1e-14
	defaultPathCount    = 100
	defaultDevRatioMax  = 0.995
	defaultDevChangeMin = 1e-5
)

// PointStatus is the outcome of one path point.
type PointStatus int

const (
	// PointSkipped the point was not computed, the path stopped before reaching it.
	PointSkipped PointStatus = iota
	// PointConverged the inner solver met its tolerance.
	PointConverged
	// PointMaxIter the inner solver ran out of iterations, the last iterate is kept.
	PointMaxIter
	// PointUnstable the inner solver hit a non-finite loss or gradient, nothing is kept.
	PointUnstable
)

func (s PointStatus) String() string {
	switch s {
	case PointSkipped:
		return "skipped"
	case PointConverged:
		return "converged"
	case PointMaxIter:
		return "max-iter"
	case PointUnstable:
		return "unstable"
	default:
		return "unknown"
	}
}

// Computed reports whether the point contributed a slice to the coefficient tensor.
func (s PointStatus) Computed() bool {
	return s == PointConverged || s == PointMaxIter
}

// stopReason explains why the path ended before its last scale.
type stopReason int

const (
	stopNone stopReason = iota
	stopMaxActive
	stopDevRatio
	stopDevChange
	stopUnstable
)

func (r stopReason) String() string {
	switch r {
	case stopMaxActive:
		return "active set saturated"
	case stopDevRatio:
		return "deviance ratio reached limit"
	case stopDevChange:
		return "deviance ratio stalled"
	case stopUnstable:
		return "numerical instability"
	default:
		return "path complete"
	}
}
