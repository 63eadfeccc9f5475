// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simulate runs false discovery rate studies of SLOPE on orthonormal designs.
//
// With X = I and λ the BH sequence at level q, SLOPE controls the false
// discovery rate at q·p₀/p where p₀ is the number of null predictors.
//
// M. Bogdan, E. van den Berg, C. Sabatti, W. Su, E. J. Candès,
// 'SLOPE - adaptive variable selection via convex optimization', Ann. Appl. Stat. 2015.
// Theorem 1.1.
package simulate

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/penalty"
)

// Study describes a simulation of y = β + ε with ε ~ N(0, Noise²·I).
type Study struct {
	P       int     // predictors
	K       int     // true signals, the first K coefficients
	Signal  float64 // magnitude of the true signals
	Q       float64 // target false discovery rate
	Noise   float64 // noise level, also used as σ (default 1)
	Trials  int
	Seed    uint64
	Workers int // concurrent trials (default GOMAXPROCS)
}

// Report summarizes a study.
type Report struct {
	Trials    int
	FDR       float64 // mean false discovery proportion
	FDRStdErr float64
	Power     float64 // mean fraction of true signals selected
	Expected  float64 // q·p₀/p
	MaxIter   int     // trials whose solve did not converge
}

// Run executes the trials concurrently. The report does not depend on the number of workers.
func (s Study) Run(ctx context.Context, logger *zap.Logger) (Report, error) {
	switch {
	case s.P <= 0 || s.K < 0 || s.K > s.P:
		return Report{}, errors.New("signals must lie in [0, p]")
	case s.Trials <= 0:
		return Report{}, errors.New("trials must be positive")
	case !(s.Q > 0 && s.Q < 1):
		return Report{}, errors.New("q must lie in (0, 1)")
	case s.Noise < 0:
		return Report{}, errors.New("noise must not be negative")
	}
	if s.Noise == 0 {
		s.Noise = 1
	}
	if s.Workers <= 0 {
		s.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	x := design.Identity(s.P)
	fdp := make([]float64, s.Trials)
	power := make([]float64, s.Trials)
	stalled := make([]bool, s.Trials)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for t := 0; t < s.Trials; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.trial(x, t)
			if err != nil {
				return err
			}
			fdp[t], power[t] = s.score(res.Active(0))
			stalled[t] = res.Points[0].Status != slope.PointConverged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	r := Report{Trials: s.Trials, Expected: s.Q * float64(s.P-s.K) / float64(s.P)}
	var sd float64
	r.FDR, sd = stat.MeanStdDev(fdp, nil)
	r.FDRStdErr = stat.StdErr(sd, float64(s.Trials))
	r.Power = stat.Mean(power, nil)
	for _, b := range stalled {
		if b {
			r.MaxIter++
		}
	}

	logger.Info("fdr study finished",
		zap.Int("p", s.P), zap.Int("k", s.K), zap.Int("trials", s.Trials),
		zap.Float64("fdr", r.FDR), zap.Float64("expected", r.Expected),
		zap.Float64("power", r.Power))
	return r, nil
}

// trial fits one noisy draw. Every trial owns its random stream so results are reproducible.
func (s Study) trial(x design.Matrix, t int) (*slope.Result, error) {
	noise := distuv.Normal{Mu: 0, Sigma: s.Noise, Src: rand.NewPCG(s.Seed, uint64(t))}
	y := make([]float64, s.P)
	for j := range y {
		y[j] = noise.Rand()
		if j < s.K {
			y[j] += s.Signal
		}
	}

	o, err := (&slope.Problem{
		X: x, Y: y, Family: family.Gaussian{},
		Lambda:      penalty.Spec{Kind: penalty.BH, Q: s.Q},
		Sigma:       []float64{s.Noise},
		NoIntercept: true,
	}).New(nil)
	if err != nil {
		return nil, err
	}
	return o.Fit(o.Init())
}

// score returns the false discovery proportion and the power of a selection.
func (s Study) score(active []int) (fdp, power float64) {
	var tp, fp int
	for _, j := range active {
		if j < s.K {
			tp++
		} else {
			fp++
		}
	}
	if r := tp + fp; r > 0 {
		fdp = float64(fp) / float64(r)
	}
	if s.K > 0 {
		power = float64(tp) / float64(s.K)
	}
	return
}
