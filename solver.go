// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slope

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/sorted"
)

// fitSpec is the validated, read-only part of a problem.
type fitSpec struct {
	n, p, m int

	x      design.Matrix
	y      []float64
	fam    family.Family
	std    design.Standardization
	lambda []float64
	sigma  []float64
	stop   Termination

	intercept bool
	momentum  bool
	maxActive int
	devRatio  float64
	devChange float64
	sigmaMax  float64 // top of a generated path, the null model is exact at or above it

	nullB0  []float64
	nullDev float64
	step    float64
	start   *Start
	classes []string

	logger Logger
}

// view returns the design seen by the solver, standardized when requested.
// Every call builds a fresh view since a scaled view owns scratch space.
func (s *fitSpec) view() design.Matrix {
	if s.std.Center == nil && s.std.Scale == nil {
		return s.x
	}
	return design.NewScaled(s.x, s.std)
}

// fitCtx is the mutable state of one path point.
// The current iterate (x, xb) is the warm start of the next point.
type fitCtx struct {
	obj  *family.Objective
	prox *sorted.Workspace

	x, xb   []float64 // current iterate
	xn, xbn []float64 // candidate iterate
	y, yb   []float64 // extrapolated point
	g, gb   []float64 // gradient at the extrapolated point
	v       []float64 // gradient step, reused for the step difference
	lam     []float64 // σλ/L
}

func (c *fitCtx) init(s *fitSpec) {
	dim := s.p * s.m
	c.obj = family.NewObjective(s.fam, s.view(), s.y, s.intercept)
	c.prox = sorted.NewWorkspace(dim)
	buf := make([]float64, 6*dim+4*s.m)
	c.x, buf = buf[:dim], buf[dim:]
	c.xn, buf = buf[:dim], buf[dim:]
	c.y, buf = buf[:dim], buf[dim:]
	c.g, buf = buf[:dim], buf[dim:]
	c.v, buf = buf[:dim], buf[dim:]
	c.lam, buf = buf[:dim], buf[dim:]
	c.xb, buf = buf[:s.m], buf[s.m:]
	c.xbn, buf = buf[:s.m], buf[s.m:]
	c.yb, buf = buf[:s.m], buf[s.m:]
	c.gb = buf[:s.m]
}

// reset loads the warm start of the first path point.
func (c *fitCtx) reset(s *fitSpec, start *Start) {
	if start != nil {
		copy(c.x, start.Beta)
		copy(c.xb, start.Intercept)
	} else {
		clear(c.x)
		copy(c.xb, s.nullB0)
	}
}

// null loads the null model, the exact solution at every scale from sigmaMax up.
func (c *fitCtx) null(s *fitSpec) (pt Point, err error) {
	clear(c.x)
	copy(c.xb, s.nullB0)
	if pt.Loss, err = c.obj.Loss(c.x, c.xb); err != nil {
		return
	}
	pt.Status = PointConverged
	return
}

// objective evaluates F(β, β₀) = f(β, β₀) + σ J(β; λ) and returns both F and f.
func (c *fitCtx) objective(s *fitSpec, beta, b0 []float64, sigma float64) (obj, loss float64, err error) {
	if loss, err = c.obj.Loss(beta, b0); err != nil {
		return
	}
	obj = loss
	if sigma > 0 {
		obj += sigma * sorted.Norm(beta, s.lambda)
	}
	return
}

// solve minimizes the objective at scale sigma starting from the current iterate,
// by accelerated proximal gradient descent with backtracking and adaptive restart.
// On return the current iterate holds the solution.
func (c *fitCtx) solve(s *fitSpec, sigma float64) (pt Point, err error) {

	stop, log := &s.stop, &s.logger
	x, xb, xn, xbn := c.x, c.xb, c.xn, c.xbn
	y, yb, g, gb := c.y, c.yb, c.g, c.gb
	v, lam := c.v, c.lam

	fx, _, err := c.objective(s, x, xb, sigma)
	if err != nil {
		return
	}

	copy(y, x)
	copy(yb, xb)
	L := s.step
	t := one
	extrapolated := false

	pt.Status = PointMaxIter
	for pt.NumIter < stop.MaxIterations {
		pt.NumIter++

		var fy float64
		if fy, err = c.obj.Gradient(y, yb, g, gb); err != nil {
			return
		}

		var fn, loss float64
		for bt := 0; ; bt++ {
			floats.AddScaledTo(v, y, -one/L, g)
			floats.ScaleTo(lam, sigma/L, s.lambda)
			c.prox.Prox(xn, v, lam)
			if s.intercept {
				floats.AddScaledTo(xbn, yb, -one/L, gb)
			}

			if loss, err = c.obj.Loss(xn, xbn); err != nil {
				return
			}

			// quadratic upper bound of f around y
			floats.SubTo(v, xn, y)
			q := fy + floats.Dot(g, v) + L/two*floats.Dot(v, v)
			if s.intercept {
				var db2 float64
				for i := range xbn {
					db := xbn[i] - yb[i]
					q += gb[i] * db
					db2 += db * db
				}
				q += L / two * db2
			}
			if loss <= q+1e-12*math.Max(one, math.Abs(fy)) || bt >= stop.MaxBacktrack {
				break
			}
			L *= two
			pt.NumBacktrack++
		}

		fn = loss
		if sigma > 0 {
			fn += sigma * sorted.Norm(xn, s.lambda)
		}

		if extrapolated && fn > fx {
			// discard the momentum and retry from x with a plain proximal step
			if log.enable(LogTrace) {
				log.log("momentum restart", zap.Float64("sigma", sigma), zap.Int("iter", pt.NumIter))
			}
			copy(y, x)
			copy(yb, xb)
			t, extrapolated = one, false
			continue
		}

		// v still holds xn - y
		diff := math.Max(floats.Norm(v, math.Inf(1)), maxAbsDiff(xbn, yb))
		coefConv := diff <= stop.CoefTolerance*math.Max(one, floats.Norm(xn, math.Inf(1)))
		objConv := math.Abs(fx-fn) <= stop.ObjTolerance*math.Max(one, math.Abs(fn))

		if log.enable(LogTrace) {
			log.log("iteration",
				zap.Float64("sigma", sigma), zap.Int("iter", pt.NumIter),
				zap.Float64("objective", fn), zap.Float64("step", one/L), zap.Float64("diff", diff))
		}

		if s.momentum && !coefConv && !objConv {
			tn := (one + math.Sqrt(one+4*t*t)) / two
			mu := (t - one) / tn
			for j := range y {
				y[j] = xn[j] + mu*(xn[j]-x[j])
			}
			for i := range yb {
				yb[i] = xbn[i] + mu*(xbn[i]-xb[i])
			}
			t, extrapolated = tn, mu > 0
		} else {
			copy(y, xn)
			copy(yb, xbn)
		}

		copy(x, xn)
		copy(xb, xbn)
		fx = fn
		pt.Loss = loss

		if coefConv || objConv {
			pt.Status = PointConverged
			break
		}
	}
	return
}

func maxAbsDiff(a, b []float64) (d float64) {
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return
}

func instability(k int, sigma float64, err error) error {
	return fmt.Errorf("%w: σ[%d] = %v: %w", ErrNumericalInstability, k, sigma, err)
}
