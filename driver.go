// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slope

import (
	"math"

	"go.uber.org/zap"

	"github.com/curioloop/slope/sorted"
)

// run solves the problem along sigma, warm starting every point from the previous one.
// devRatio and devChange bound the deviance ratio, NaN disables them.
func (o *Optimizer) run(w *Workspace, sigma []float64, start *Start, devRatio, devChange float64) (*Result, error) {

	s, log := &o.fitSpec, &o.logger
	res := newResult(s, sigma)
	w.reset(s, start)

	reason := stopNone
	prevRatio := math.NaN()
	for k, sk := range sigma {

		var pt Point
		var err error
		if sk >= s.sigmaMax {
			// the prox leaves round-off sized coefficients at the top of the path
			pt, err = w.null(s)
		} else {
			pt, err = w.solve(s, sk)
		}
		if err != nil {
			res.Points[k].Status = PointUnstable
			if log.enable(LogLast) {
				log.warn("path aborted",
					zap.Int("point", k), zap.Float64("sigma", sk),
					zap.Stringer("reason", stopUnstable), zap.Error(err))
			}
			return res, instability(k, sk, err)
		}

		pt.Deviance = w.obj.Deviance(w.x, w.xb)
		if s.nullDev > 0 {
			pt.DevRatio = one - pt.Deviance/s.nullDev
		}
		pt.NumActive = countNonZero(w.x)
		pt.NumClusters = sorted.Clusters(w.x)
		res.add(s, k, w.x, w.xb, pt)

		if pt.Status == PointMaxIter && log.enable(LogLast) {
			log.warn("point did not converge",
				zap.Int("point", k), zap.Float64("sigma", sk), zap.Int("iter", pt.NumIter))
		}
		if log.enable(LogPoint) {
			log.log("path point",
				zap.Int("point", k), zap.Float64("sigma", sk),
				zap.Stringer("status", pt.Status), zap.Int("iter", pt.NumIter),
				zap.Float64("loss", pt.Loss), zap.Float64("devRatio", pt.DevRatio),
				zap.Int("active", pt.NumActive), zap.Int("clusters", pt.NumClusters))
		}
		if log.enable(LogVerbose) {
			log.log("coefficients", zap.Int("point", k),
				zap.Float64s("beta", res.Coef(k)), zap.Float64s("intercept", res.Intercept(k)))
		}

		switch {
		case s.maxActive > 0 && pt.NumActive > s.maxActive:
			reason = stopMaxActive
		case pt.DevRatio > devRatio:
			reason = stopDevRatio
		case math.Abs(pt.DevRatio-prevRatio) < devChange:
			reason = stopDevChange
		}
		prevRatio = pt.DevRatio
		if reason != stopNone {
			break
		}
	}

	if log.enable(LogLast) {
		log.log("path finished",
			zap.Int("computed", res.Len()), zap.Int("requested", len(sigma)),
			zap.Stringer("reason", reason))
	}
	return res, nil
}

func countNonZero(x []float64) (n int) {
	for _, v := range x {
		if v != 0 {
			n++
		}
	}
	return
}
