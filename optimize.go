// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slope fits Sorted L-One Penalized Estimation (SLOPE) models,
//
//	𝚖𝚒𝚗𝚒𝚖𝚒𝚣𝚎 f(β, β₀) + σ ∑ λᵢ|β|₍ᵢ₎
//
// along a decreasing path of scales σ, where f is the negative log-likelihood
// of a generalized linear model and λ is a non-increasing penalty sequence.
// Each path point is solved by accelerated proximal gradient descent and is
// warm started from the previous one.
package slope

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/penalty"
	"github.com/curioloop/slope/sorted"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only the summary of the path
	LogLast LogLevel = 0
	// LogPoint print also one line for every path point
	LogPoint LogLevel = 1
	// LogTrace print details of every inner iteration
	LogTrace LogLevel = 99
	// LogVerbose print also the coefficients of every path point
	LogVerbose LogLevel = 101
)

// Logger handles logging output for the solver.
// Note the sink must be safe for concurrent use when workspaces run in parallel.
type Logger struct {
	Level LogLevel
	Sink  *zap.Logger
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(msg string, fields ...zap.Field) {
	l.Sink.Info(msg, fields...)
}

func (l *Logger) warn(msg string, fields ...zap.Field) {
	l.Sink.Warn(msg, fields...)
}

// Termination specifies the stopping criteria of the inner solver at each path point.
type Termination struct {
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int
	// The step is halved at most this many times per iteration before it is accepted anyway.
	MaxBacktrack int
	// The iteration will stop when the proximal gradient step satisfies:
	//   ‖ xₖ₊₁ - yₖ ‖∞ ≤ 𝚌𝚘𝚎𝚏𝚝𝚘𝚕 × 𝚖𝚊𝚡(1, ‖ xₖ₊₁ ‖∞)
	CoefTolerance float64
	// The iteration will stop when the objective stalls:
	//   |Fₖ - Fₖ₊₁| ≤ 𝚘𝚋𝚓𝚝𝚘𝚕 × 𝚖𝚊𝚡(1, |Fₖ₊₁|)
	// NaN disables the test.
	ObjTolerance float64
}

// Path specifies how the scale path is generated when no explicit scales are given.
type Path struct {
	// Number of scales, σ₁ = σₘₐₓ down to σₘₐₓ × MinRatio.
	Count int
	// Ratio of the smallest to the largest scale.
	// The default is 10⁻² when n < p·m and 10⁻⁴ otherwise.
	MinRatio float64
	// The path stops once the deviance ratio exceeds this value. NaN disables the test.
	DevRatioMax float64
	// The path stops once the deviance ratio moves by less than this value, in absolute terms,
	// between two consecutive points. NaN disables the test.
	DevChangeMin float64
}

// Start holds coefficients on the scale of the raw design.
type Start struct {
	Beta      []float64 // m blocks of p coefficients
	Intercept []float64 // one intercept per block
}

// Problem specifies the SLOPE path problem.
type Problem struct {
	X      design.Matrix // The design, never modified
	Y      []float64     // The response, laid out as family.Family expects
	Family family.Family // The GLM family
	Lambda penalty.Spec  // The penalty sequence of length p·m, Lambda.N defaults to n
	Sigma  []float64     // Optional explicit scales, strictly decreasing and non-negative
	Path   Path          // Scale path generation, used when Sigma is nil
	Stop   Termination   // Stop condition of every path point

	NoIntercept bool // Fit without an intercept
	Center      bool // Center the columns of X (implicitly, sparse designs stay sparse)
	Scale       bool // Scale the columns of X to unit standard deviation
	NoMomentum  bool // Disable the accelerated extrapolation step

	// The path stops once more than MaxActive coefficients are non-zero (0 for no limit).
	MaxActive int
	// Optional warm start for the first path point.
	WarmStart *Start
	// Optional labels of the response classes, carried to the result.
	Classes []string
}

// New creates a new SLOPE optimizer for given problem.
// The inputs are validated once here, before any iteration begins.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Sink == nil {
		logger.Sink = zap.NewNop()
	}

	x, fam, stop, path := p.X, p.Family, p.Stop, p.Path

	switch {
	case x == nil:
		return nil, errors.New("design matrix is required")
	case fam == nil:
		return nil, errors.New("family is required")
	}

	n, np := x.Dims()
	m := fam.Blocks()
	dim := np * m

	switch {
	case n <= 0 || np <= 0:
		err = fmt.Errorf("%w: design is %d×%d", ErrDimensionMismatch, n, np)
	case m <= 0:
		err = fmt.Errorf("%w: family %s has no coefficient block", ErrDimensionMismatch, fam.Name())
	case len(p.Y) != fam.ResponseLen(n):
		err = fmt.Errorf("%w: response has %d entries, want %d", ErrDimensionMismatch, len(p.Y), fam.ResponseLen(n))
	case p.WarmStart != nil && (len(p.WarmStart.Beta) != dim || len(p.WarmStart.Intercept) != m):
		err = fmt.Errorf("%w: warm start has %d coefficients and %d intercepts, want %d and %d",
			ErrDimensionMismatch, len(p.WarmStart.Beta), len(p.WarmStart.Intercept), dim, m)
	case p.Lambda.Kind == penalty.Explicit && len(p.Lambda.Values) != dim:
		err = fmt.Errorf("%w: penalty sequence has %d entries, want %d", ErrDimensionMismatch, len(p.Lambda.Values), dim)
	case p.MaxActive < 0:
		err = errors.New("max active must not less than 0")
	case stop.MaxIterations < 0:
		err = errors.New("max iteration must not less than 0")
	case stop.MaxBacktrack < 0:
		err = errors.New("max backtrack must not less than 0")
	case stop.CoefTolerance < zero:
		err = errors.New("coefficient tolerance must not less than 0")
	case !math.IsNaN(stop.ObjTolerance) && stop.ObjTolerance < zero:
		err = errors.New("objective tolerance must not less than 0")
	case p.Center && p.NoIntercept:
		err = errors.New("centering requires an intercept")
	case path.Count < 0:
		err = errors.New("path count must not less than 0")
	case path.MinRatio < zero || path.MinRatio >= one:
		err = fmt.Errorf("%w: scale ratio %v outside [0, 1)", penalty.ErrInvalidPenalty, path.MinRatio)
	}
	if err != nil {
		return nil, err
	}

	if err = fam.Validate(p.Y, n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	ls := p.Lambda
	if ls.N == 0 {
		ls.N = n
	}
	lambda, err := penalty.Build(dim, ls)
	if err != nil {
		return nil, err
	}

	if stop.MaxIterations == 0 {
		stop.MaxIterations = defaultMaxIter
	}
	if stop.MaxBacktrack == 0 {
		stop.MaxBacktrack = defaultMaxBacktrack
	}
	if stop.CoefTolerance == 0 {
		stop.CoefTolerance = defaultCoefTol
	}
	if stop.ObjTolerance == 0 {
		stop.ObjTolerance = defaultObjTol
	}

	var std design.Standardization
	if p.Center || p.Scale {
		std = design.Standardize(x, p.Center, p.Scale)
	}

	spec := fitSpec{
		n: n, p: np, m: m,
		x: x, y: slices.Clone(p.Y),
		fam:       fam,
		std:       std,
		lambda:    lambda,
		stop:      stop,
		intercept: !p.NoIntercept,
		momentum:  !p.NoMomentum,
		maxActive: p.MaxActive,
		devRatio:  math.NaN(),
		devChange: math.NaN(),
		sigmaMax:  math.Inf(1),
		classes:   slices.Clone(p.Classes),
		logger:    *logger,
	}

	// The null model and the step bound are evaluated once on a scratch objective.
	obj := family.NewObjective(fam, spec.view(), spec.y, spec.intercept)
	spec.nullB0 = obj.NullIntercept()
	spec.nullDev = obj.Deviance(make([]float64, dim), spec.nullB0)
	spec.step = obj.StepBound()

	if p.WarmStart != nil {
		start := Start{Beta: slices.Clone(p.WarmStart.Beta), Intercept: slices.Clone(p.WarmStart.Intercept)}
		std.Standardized(start.Beta, start.Intercept)
		if !spec.intercept {
			clear(start.Intercept)
		}
		spec.start = &start
	}

	if p.Sigma != nil {
		if err = checkSigma(p.Sigma); err != nil {
			return nil, err
		}
		spec.sigma = slices.Clone(p.Sigma)
	} else {
		gBeta, gB0 := make([]float64, dim), make([]float64, m)
		if _, err = obj.Gradient(make([]float64, dim), spec.nullB0, gBeta, gB0); err != nil {
			return nil, fmt.Errorf("%w: null model: %w", ErrNumericalInstability, err)
		}
		sigmaMax := sorted.DualNorm(gBeta, lambda)
		if math.IsInf(sigmaMax, 0) {
			return nil, fmt.Errorf("%w: zero penalty sequence admits no scale path", penalty.ErrInvalidPenalty)
		}
		if sigmaMax <= 0 {
			// the null model is optimal at every scale
			sigmaMax = one
		}
		spec.sigmaMax = sigmaMax

		count, ratio := path.Count, path.MinRatio
		if count == 0 {
			count = defaultPathCount
		}
		if ratio == 0 {
			ratio = 1e-4
			if n < dim {
				ratio = 1e-2
			}
		}
		spec.sigma = geometricPath(sigmaMax, ratio, count)

		spec.devRatio, spec.devChange = path.DevRatioMax, path.DevChangeMin
		if spec.devRatio == 0 {
			spec.devRatio = defaultDevRatioMax
		}
		if spec.devChange == 0 {
			spec.devChange = defaultDevChangeMin
		}
	}

	optimizer = &Optimizer{spec}
	return
}

func checkSigma(sigma []float64) error {
	if len(sigma) == 0 {
		return fmt.Errorf("%w: empty scale path", penalty.ErrInvalidPenalty)
	}
	for k, s := range sigma {
		switch {
		case math.IsNaN(s) || math.IsInf(s, 0) || s < 0:
			return fmt.Errorf("%w: σ[%d] = %v is not a non-negative finite scale", penalty.ErrInvalidPenalty, k, s)
		case k > 0 && s >= sigma[k-1]:
			return fmt.Errorf("%w: σ[%d] = %v does not decrease from %v", penalty.ErrInvalidPenalty, k, s, sigma[k-1])
		}
	}
	return nil
}

// geometricPath returns count scales decreasing geometrically from top to top × ratio.
func geometricPath(top, ratio float64, count int) []float64 {
	sigma := make([]float64, count)
	sigma[0] = top
	for k := 1; k < count; k++ {
		sigma[k] = top * math.Pow(ratio, float64(k)/float64(count-1))
	}
	return sigma
}

// Optimizer fits SLOPE paths for one problem.
// It is immutable once created and may be shared between goroutines.
type Optimizer struct {
	fitSpec
}

// Lambda returns a copy of the penalty sequence.
func (o *Optimizer) Lambda() []float64 {
	return slices.Clone(o.lambda)
}

// Sigma returns a copy of the requested scale path.
func (o *Optimizer) Sigma() []float64 {
	return slices.Clone(o.sigma)
}

// Workspace contains the state of the path and inner solvers.
// Given n observations, p predictors and m blocks, the workspace holds about 6×pm + 2×nm floats.
type Workspace struct {
	n, p, m int
	fitCtx
}

// Init allocate the workspace for the optimizer.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n, w.p, w.m = o.n, o.p, o.m
	w.init(&o.fitSpec)
	return w
}

// Fit computes the SLOPE path using workspace w.
//
// The error is non-nil only when a path point met a non-finite loss or gradient.
// In that case it wraps ErrNumericalInstability and the returned result still
// holds every point computed before the failure.
func (o *Optimizer) Fit(w *Workspace) (*Result, error) {
	o.checkWorkspace(w)
	return o.run(w, o.sigma, o.start, o.devRatio, o.devChange)
}

// Refit solves the problem exactly at a scale that need not lie on the path of res.
// The solve is warm started from the computed point of res nearest to sigma and
// returns a single point result.
func (o *Optimizer) Refit(res *Result, sigma float64, w *Workspace) (*Result, error) {
	o.checkWorkspace(w)
	if err := checkSigma([]float64{sigma}); err != nil {
		return nil, err
	}
	if res == nil || res.P != o.p || res.M != o.m {
		return nil, fmt.Errorf("%w: result does not belong to this problem", ErrDimensionMismatch)
	}

	var start *Start
	if k := res.Nearest(sigma); k >= 0 {
		start = &Start{Beta: res.Coef(k), Intercept: res.Intercept(k)}
		o.std.Standardized(start.Beta, start.Intercept)
	} else {
		start = o.start
	}
	return o.run(w, []float64{sigma}, start, math.NaN(), math.NaN())
}

func (o *Optimizer) checkWorkspace(w *Workspace) {
	if w == nil || w.n != o.n || w.p != o.p || w.m != o.m {
		panic("workspace dimension not match spec")
	}
}
