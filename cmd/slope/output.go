// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/curioloop/slope"
)

// createOutput creates a file, compressing with zstd when the name ends in .zst.
func createOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &zstdSink{enc, f}, nil
}

type zstdSink struct {
	*zstd.Encoder
	f *os.File
}

func (z *zstdSink) Close() error {
	return errors.Join(z.Encoder.Close(), z.f.Close())
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writePath writes one row per computed point and coefficient block.
func writePath(w io.Writer, res *slope.Result, names []string) error {
	out := csv.NewWriter(w)
	header := []string{"point", "sigma", "status", "iterations", "dev_ratio", "active", "clusters", "block", "intercept"}
	if err := out.Write(append(header, names...)); err != nil {
		return err
	}

	row := make([]string, 0, len(header)+res.P)
	for k := 0; k < res.Len(); k++ {
		pt := res.Points[k]
		beta, b0 := res.Coef(k), res.Intercept(k)
		for c := 0; c < res.M; c++ {
			block := strconv.Itoa(c)
			switch {
			case res.Family != nil && res.Family.Name() == "binomial" && len(res.Classes) == 2:
				// the single block models the second level
				block = res.Classes[1]
			case c < len(res.Classes):
				block = res.Classes[c]
			}
			row = append(row[:0],
				strconv.Itoa(k), format(res.Sigma[k]), pt.Status.String(),
				strconv.Itoa(pt.NumIter), format(pt.DevRatio),
				strconv.Itoa(pt.NumActive), strconv.Itoa(pt.NumClusters),
				block, format(b0[c]))
			for _, v := range beta[c*res.P : (c+1)*res.P] {
				row = append(row, format(v))
			}
			if err := out.Write(row); err != nil {
				return err
			}
		}
	}
	out.Flush()
	return out.Error()
}
