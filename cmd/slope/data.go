// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/curioloop/slope/design"
	"github.com/curioloop/slope/family"
	"github.com/curioloop/slope/internal/config"
)

// table is a CSV split into a design and a raw response column.
type table struct {
	names    []string // predictor names
	n, p     int
	rows     []float64 // row major n×p
	response []string
}

// openInput opens a file, transparently decompressing zstd input.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	return zstdFile{dec, f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

func readTable(r io.Reader, data config.DataConfig) (*table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, fmt.Errorf("csv needs a response and at least one predictor column")
	}

	cols := len(records[0])
	var header []string
	if data.Header {
		header, records = records[0], records[1:]
	} else {
		header = make([]string, cols)
		for j := range header {
			header[j] = fmt.Sprintf("x%d", j+1)
		}
	}

	resp := cols - 1
	if data.Response != "" {
		if resp = slices.Index(header, data.Response); resp < 0 {
			return nil, fmt.Errorf("response column %q not found", data.Response)
		}
	}

	t := &table{n: len(records), p: cols - 1}
	t.names = slices.Delete(slices.Clone(header), resp, resp+1)
	t.rows = make([]float64, 0, t.n*t.p)
	t.response = make([]string, t.n)
	for i, rec := range records {
		for j, field := range rec {
			if j == resp {
				t.response[i] = strings.TrimSpace(field)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+1, header[j], err)
			}
			t.rows = append(t.rows, v)
		}
	}
	return t, nil
}

// design builds the design matrix of the table.
func (t *table) design(sparse bool) (design.Matrix, error) {
	if sparse {
		return design.CSCFromRows(t.n, t.p, t.rows)
	}
	return design.DenseFromRows(t.n, t.p, t.rows)
}

// responseFor encodes the response column for the configured family.
// Classification families take labels, the others take numbers.
func (t *table) responseFor(c *config.Config) (family.Family, []float64, []string, error) {
	switch strings.ToLower(c.Model.Family) {
	case "binomial", "multinomial":
		codes, levels := family.Factor(t.response)
		fam, err := c.Family(len(levels))
		if err != nil {
			return nil, nil, nil, err
		}
		if fam.Classes() != len(levels) {
			return nil, nil, nil, fmt.Errorf("%w: %s needs %d classes, found %d",
				family.ErrResponse, fam.Name(), fam.Classes(), len(levels))
		}
		y, err := family.Response(fam, codes)
		return fam, y, levels, err
	default:
		fam, err := c.Family(1)
		if err != nil {
			return nil, nil, nil, err
		}
		y := make([]float64, t.n)
		for i, s := range t.response {
			if y[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, nil, nil, fmt.Errorf("row %d response: %w", i+1, err)
			}
		}
		return fam, y, nil, nil
	}
}
