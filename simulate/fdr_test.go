// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simulate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOrthonormalFDR(t *testing.T) {
	if testing.Short() {
		t.Skip("simulation")
	}
	s := Study{P: 500, K: 25, Signal: 5, Q: 0.1, Trials: 1000, Seed: 2015}
	r, err := s.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1000, r.Trials)
	assert.InDelta(t, 0.095, r.Expected, 1e-12)
	assert.Greater(t, r.FDRStdErr, 0.0)
	// the orthonormal BH sequence attains q·p₀/p up to Monte Carlo error
	assert.InDelta(t, r.Expected, r.FDR, 3*r.FDRStdErr)
	assert.Greater(t, r.Power, 0.8)
	assert.Zero(t, r.MaxIter)
}

func TestReportIndependentOfWorkers(t *testing.T) {
	s := Study{P: 50, K: 5, Signal: 4, Q: 0.2, Trials: 20, Seed: 7}
	s.Workers = 1
	one, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	s.Workers = 4
	four, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, one, four)
}

func TestNoSignal(t *testing.T) {
	s := Study{P: 30, K: 0, Q: 0.1, Trials: 10, Seed: 1}
	r, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, r.Power)
	assert.InDelta(t, 0.1, r.Expected, 1e-12)
}

func TestStudyErrors(t *testing.T) {
	for _, s := range []Study{
		{P: 0, Trials: 1, Q: 0.1},
		{P: 10, K: 11, Trials: 1, Q: 0.1},
		{P: 10, K: 1, Trials: 0, Q: 0.1},
		{P: 10, K: 1, Trials: 1, Q: 1},
		{P: 10, K: 1, Trials: 1, Q: 0.1, Noise: -1},
	} {
		_, err := s.Run(context.Background(), nil)
		assert.Error(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Study{P: 10, K: 1, Signal: 3, Q: 0.1, Trials: 5}.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScore(t *testing.T) {
	s := Study{K: 4}
	fdp, power := s.score([]int{0, 1, 5, 9})
	assert.Equal(t, 0.5, fdp)
	assert.Equal(t, 0.5, power)
	fdp, power = s.score(nil)
	assert.Zero(t, fdp)
	assert.Zero(t, power)
}
