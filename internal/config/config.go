// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML configuration of the slope command.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/penalty"
	"github.com/curioloop/slope/simulate"
)

// Config holds all settings of a fit or a simulation.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Model    ModelConfig    `yaml:"model"`
	Penalty  PenaltyConfig  `yaml:"penalty"`
	Path     PathConfig     `yaml:"path"`
	Solver   SolverConfig   `yaml:"solver"`
	Output   OutputConfig   `yaml:"output"`
	Simulate SimulateConfig `yaml:"simulate"`
}

// DataConfig describes the CSV input.
type DataConfig struct {
	Input    string `yaml:"input"`
	Response string `yaml:"response"` // column name, the last column when empty
	Header   bool   `yaml:"header"`
	Sparse   bool   `yaml:"sparse"` // store the design in compressed sparse columns
}

// ModelConfig selects the family and the standardization.
type ModelConfig struct {
	Family    string `yaml:"family"` // gaussian, binomial, poisson, multinomial
	Intercept bool   `yaml:"intercept"`
	Center    bool   `yaml:"center"`
	Scale     bool   `yaml:"scale"`
}

// PenaltyConfig describes the sequence λ.
type PenaltyConfig struct {
	Type   string    `yaml:"type"` // bh, gaussian, oscar, lasso, explicit
	Q      float64   `yaml:"q"`
	Theta1 float64   `yaml:"theta1"`
	Theta2 float64   `yaml:"theta2"`
	Values []float64 `yaml:"values,omitempty"`
}

// PathConfig describes the scale path.
type PathConfig struct {
	Sigma        []float64 `yaml:"sigma,omitempty"` // explicit scales, generated when empty
	Count        int       `yaml:"count"`
	MinRatio     float64   `yaml:"min_ratio"`
	EarlyStop    bool      `yaml:"early_stop"` // deviance based stopping of generated paths
	DevRatioMax  float64   `yaml:"dev_ratio_max"`
	DevChangeMin float64   `yaml:"dev_change_min"`
	MaxActive    int       `yaml:"max_active"`
}

// SolverConfig holds the stopping rules of every path point.
type SolverConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	MaxBacktrack  int     `yaml:"max_backtrack"`
	CoefTolerance float64 `yaml:"coef_tolerance"`
	ObjTolerance  float64 `yaml:"obj_tolerance"`
	Momentum      bool    `yaml:"momentum"`
}

// OutputConfig describes where results go.
type OutputConfig struct {
	Path     string `yaml:"path"`      // CSV, zstd compressed when the name ends in .zst
	LogLevel string `yaml:"log_level"` // noop, last, point, trace, verbose
}

// SimulateConfig describes an orthonormal FDR study.
type SimulateConfig struct {
	P       int     `yaml:"p"`
	K       int     `yaml:"k"`
	Signal  float64 `yaml:"signal"`
	Q       float64 `yaml:"q"`
	Noise   float64 `yaml:"noise"`
	Trials  int     `yaml:"trials"`
	Seed    uint64  `yaml:"seed"`
	Workers int     `yaml:"workers"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{Header: true},
		Model: ModelConfig{
			Family:    "gaussian",
			Intercept: true,
			Center:    true,
			Scale:     true,
		},
		Penalty: PenaltyConfig{Type: "bh", Q: 0.1},
		Path:    PathConfig{Count: 100, EarlyStop: true},
		Solver:  SolverConfig{Momentum: true},
		Output:  OutputConfig{Path: "path.csv", LogLevel: "last"},
		Simulate: SimulateConfig{
			P: 1000, K: 20, Signal: 5, Q: 0.1, Noise: 1,
			Trials: 100, Seed: 1,
		},
	}
}

// Load reads a YAML file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SLOPE_FAMILY"); v != "" {
		c.Model.Family = v
	}
	if v := os.Getenv("SLOPE_LOG_LEVEL"); v != "" {
		c.Output.LogLevel = v
	}
	if v := os.Getenv("SLOPE_OUTPUT"); v != "" {
		c.Output.Path = v
	}
}

// Validate checks the settings that do not depend on the data.
func (c *Config) Validate() error {
	var errs []error
	if _, err := penalty.ParseKind(c.Penalty.Type); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Model.Center && !c.Model.Intercept {
		errs = append(errs, errors.New("model: centering requires an intercept"))
	}
	switch strings.ToLower(c.Model.Family) {
	case "gaussian", "binomial", "poisson", "multinomial":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", family.ErrUnknown, c.Model.Family))
	}
	return errors.Join(errs...)
}

var levels = map[string]slope.LogLevel{
	"noop":    slope.LogNoop,
	"last":    slope.LogLast,
	"point":   slope.LogPoint,
	"trace":   slope.LogTrace,
	"verbose": slope.LogVerbose,
}

// LogLevel parses the solver log level.
func (c *Config) LogLevel() (slope.LogLevel, error) {
	if c.Output.LogLevel == "" {
		return slope.LogLast, nil
	}
	l, ok := levels[strings.ToLower(c.Output.LogLevel)]
	if !ok {
		return slope.LogNoop, fmt.Errorf("output: unknown log level %q", c.Output.LogLevel)
	}
	return l, nil
}

// Family returns the configured family for a response with the given number of classes.
func (c *Config) Family(classes int) (family.Family, error) {
	return family.New(strings.ToLower(c.Model.Family), classes)
}

// Problem maps the configuration onto a SLOPE problem.
func (c *Config) Problem(x design.Matrix, y []float64, fam family.Family, classes []string) (*slope.Problem, error) {
	kind, err := penalty.ParseKind(c.Penalty.Type)
	if err != nil {
		return nil, err
	}
	n, _ := x.Dims()

	path := slope.Path{
		Count:        c.Path.Count,
		MinRatio:     c.Path.MinRatio,
		DevRatioMax:  c.Path.DevRatioMax,
		DevChangeMin: c.Path.DevChangeMin,
	}
	if !c.Path.EarlyStop {
		path.DevRatioMax, path.DevChangeMin = math.NaN(), math.NaN()
	}

	return &slope.Problem{
		X: x, Y: y, Family: fam,
		Lambda: penalty.Spec{
			Kind: kind, Q: c.Penalty.Q, N: n,
			Theta1: c.Penalty.Theta1, Theta2: c.Penalty.Theta2,
			Values: c.Penalty.Values,
		},
		Sigma: c.Path.Sigma,
		Path:  path,
		Stop: slope.Termination{
			MaxIterations: c.Solver.MaxIterations,
			MaxBacktrack:  c.Solver.MaxBacktrack,
			CoefTolerance: c.Solver.CoefTolerance,
			ObjTolerance:  c.Solver.ObjTolerance,
		},
		NoIntercept: !c.Model.Intercept,
		Center:      c.Model.Center,
		Scale:       c.Model.Scale,
		NoMomentum:  !c.Solver.Momentum,
		MaxActive:   c.Path.MaxActive,
		Classes:     classes,
	}, nil
}

// Study maps the simulation settings onto a study.
func (c *Config) Study() simulate.Study {
	s := c.Simulate
	return simulate.Study{
		P: s.P, K: s.K, Signal: s.Signal, Q: s.Q, Noise: s.Noise,
		Trials: s.Trials, Seed: s.Seed, Workers: s.Workers,
	}
}
