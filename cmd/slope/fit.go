// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curioloop/slope"
	"github.com/curioloop/slope/internal/config"
)

var fitFlags struct {
	input, response, family, penalty, output string
	q                                        float64
	sparse                                   bool
	count, maxActive                         int
}

// fitCmd fits a SLOPE path
var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a SLOPE path from a CSV file",
	Long: `Reads a CSV file whose response is the last column (or the column named by
--response), fits the SLOPE path and writes the coefficients of every computed
point as CSV. Files ending in .zst are read and written zstd compressed.

Example:
  slope fit --input data.csv --family binomial --q 0.1 --output path.csv.zst`,
	Args: cobra.NoArgs,
	RunE: runFit,
}

func init() {
	f := fitCmd.Flags()
	f.StringVarP(&fitFlags.input, "input", "i", "", "input CSV file")
	f.StringVar(&fitFlags.response, "response", "", "response column name (default last column)")
	f.StringVar(&fitFlags.family, "family", "", "gaussian, binomial, poisson or multinomial")
	f.StringVar(&fitFlags.penalty, "penalty", "", "bh, gaussian, oscar, lasso or explicit")
	f.Float64Var(&fitFlags.q, "q", 0, "target false discovery rate of the BH sequence")
	f.StringVarP(&fitFlags.output, "output", "o", "", "output CSV file")
	f.BoolVar(&fitFlags.sparse, "sparse", false, "store the design in compressed sparse columns")
	f.IntVar(&fitFlags.count, "count", 0, "number of generated scales")
	f.IntVar(&fitFlags.maxActive, "max-active", 0, "stop the path once more coefficients are active")
}

// applyFitFlags copies the flags set on the command line over the configuration.
func applyFitFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		c.Data.Input = fitFlags.input
	}
	if changed("response") {
		c.Data.Response = fitFlags.response
	}
	if changed("family") {
		c.Model.Family = fitFlags.family
	}
	if changed("penalty") {
		c.Penalty.Type = fitFlags.penalty
	}
	if changed("q") {
		c.Penalty.Q = fitFlags.q
	}
	if changed("output") {
		c.Output.Path = fitFlags.output
	}
	if changed("sparse") {
		c.Data.Sparse = fitFlags.sparse
	}
	if changed("count") {
		c.Path.Count = fitFlags.count
	}
	if changed("max-active") {
		c.Path.MaxActive = fitFlags.maxActive
	}
}

func runFit(cmd *cobra.Command, args []string) error {
	applyFitFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Data.Input == "" {
		return errors.New("no input file, use --input or data.input")
	}

	in, err := openInput(cfg.Data.Input)
	if err != nil {
		return err
	}
	t, err := readTable(in, cfg.Data)
	_ = in.Close()
	if err != nil {
		return err
	}

	x, err := t.design(cfg.Data.Sparse)
	if err != nil {
		return err
	}
	fam, y, classes, err := t.responseFor(cfg)
	if err != nil {
		return err
	}
	p, err := cfg.Problem(x, y, fam, classes)
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()

	logger.Info("Fitting path",
		zap.String("input", cfg.Data.Input), zap.String("family", fam.Name()),
		zap.Int("n", t.n), zap.Int("p", t.p))

	o, err := p.New(&slope.Logger{Level: level, Sink: logger})
	if err != nil {
		return err
	}
	res, fitErr := o.Fit(o.Init())
	if fitErr != nil && res == nil {
		return fitErr
	}

	out, err := createOutput(cfg.Output.Path)
	if err != nil {
		return err
	}
	if err = writePath(out, res, t.names); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	logger.Info("Path written",
		zap.String("output", cfg.Output.Path), zap.Int("points", res.Len()),
		zap.Bool("converged", res.Converged()))
	fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", res.Fingerprint())

	// the partial path is kept on disk before reporting the failure
	return fitErr
}
