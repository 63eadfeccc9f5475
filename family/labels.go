// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"fmt"
	"slices"
)

// Factor encodes labels as class codes. The levels are sorted so the
// encoding does not depend on the order of observations.
func Factor(labels []string) (codes []int, levels []string) {
	levels = slices.Clone(labels)
	slices.Sort(levels)
	levels = slices.Compact(levels)
	codes = make([]int, len(labels))
	for i, l := range labels {
		codes[i], _ = slices.BinarySearch(levels, l)
	}
	return codes, levels
}

// Response builds the response of fam from class codes in [0, K).
// Binomial uses the codes as 0/1 labels, multinomial an indicator matrix.
func Response(fam Family, codes []int) ([]float64, error) {
	n, k := len(codes), fam.Classes()
	if k < 2 {
		return nil, fmt.Errorf("%w: %s is not a classification family", ErrResponse, fam.Name())
	}
	y := make([]float64, fam.ResponseLen(n))
	for i, c := range codes {
		if c < 0 || c >= k {
			return nil, fmt.Errorf("%w: class %d outside [0, %d)", ErrResponse, c, k)
		}
		if len(y) == n {
			y[i] = float64(c)
		} else {
			y[c*n+i] = 1
		}
	}
	return y, nil
}
