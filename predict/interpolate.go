// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package predict extracts coefficients from fitted SLOPE paths and maps
// them to linear predictors, means and class labels.
package predict

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/penalty"
)

// ErrEmptyPath reports a result without any computed point.
var ErrEmptyPath = errors.New("predict: no computed path point")

// Refitter solves a problem exactly at one scale, warm started from a fitted path.
type Refitter func(res *slope.Result, sigma float64) (*slope.Result, error)

// Exact returns a Refitter that solves with optimizer o on workspace w.
// The workspace must not be used concurrently.
func Exact(o *slope.Optimizer, w *slope.Workspace) Refitter {
	return func(res *slope.Result, sigma float64) (*slope.Result, error) {
		return o.Refit(res, sigma, w)
	}
}

// Interpolate returns the coefficients at sigma by linear interpolation between
// the two computed points whose scales bracket it. Scales outside the computed
// range take the coefficients of the nearest end of the path.
func Interpolate(res *slope.Result, sigma float64) (beta, intercept []float64, err error) {
	if err = checkScale(res, sigma); err != nil {
		return
	}

	s := res.Sigma
	last := len(s) - 1
	switch {
	case sigma >= s[0]:
		return res.Coef(0), res.Intercept(0), nil
	case sigma <= s[last]:
		return res.Coef(last), res.Intercept(last), nil
	}

	// s[k] > sigma > s[k+1]
	k := 0
	for s[k+1] > sigma {
		k++
	}
	if s[k+1] == sigma {
		return res.Coef(k + 1), res.Intercept(k + 1), nil
	}

	w := (sigma - s[k+1]) / (s[k] - s[k+1])
	beta, intercept = res.Coef(k), res.Intercept(k)
	lo, lob := res.Coef(k+1), res.Intercept(k+1)
	for j := range beta {
		beta[j] = w*beta[j] + (1-w)*lo[j]
	}
	for c := range intercept {
		intercept[c] = w*intercept[c] + (1-w)*lob[c]
	}
	return
}

// Coefficients returns the coefficients at sigma. A scale on the path is read
// back directly. Otherwise the coefficients are interpolated, or solved exactly
// through refit when exact is set.
func Coefficients(res *slope.Result, sigma float64, exact bool, refit Refitter) (beta, intercept []float64, err error) {
	if err = checkScale(res, sigma); err != nil {
		return
	}
	if k := res.Nearest(sigma); res.Sigma[k] == sigma {
		return res.Coef(k), res.Intercept(k), nil
	}
	if !exact {
		return Interpolate(res, sigma)
	}
	if refit == nil {
		return nil, nil, errors.New("exact coefficients need a refitter")
	}
	one, err := refit(res, sigma)
	if err != nil {
		return nil, nil, err
	}
	return one.Coef(0), one.Intercept(0), nil
}

func checkScale(res *slope.Result, sigma float64) error {
	if res == nil || res.Len() == 0 {
		return ErrEmptyPath
	}
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 {
		return fmt.Errorf("%w: σ = %v is not a non-negative finite scale", penalty.ErrInvalidPenalty, sigma)
	}
	return nil
}
