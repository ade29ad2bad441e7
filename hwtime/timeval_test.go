/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package hwtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncrement(t *testing.T) {
	testCases := []struct {
		name  string
		base  Timeval
		delta float64
		want  Timeval
	}{
		{"zero", Timeval{1700000000, 0}, 0, Timeval{1700000000, 0}},
		{"whole seconds", Timeval{1700000000, 250000}, 3, Timeval{1700000003, 250000}},
		{"fraction carries", Timeval{1700000000, 900000}, 0.2, Timeval{1700000001, 100000}},
		{"negative whole", Timeval{1700000000, 250000}, -2, Timeval{1699999998, 250000}},
		{"negative borrows", Timeval{1700000000, 0}, -1.5, Timeval{1699999998, 500000}},
		{"negative fraction borrows", Timeval{1700000000, 100000}, -0.2, Timeval{1699999999, 900000}},
		{"from zero negative", Timeval{}, -1.5, Timeval{-2, 500000}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Increment(tc.base, tc.delta)
			require.Equal(t, tc.want, got)
			require.GreaterOrEqual(t, got.Usec, int64(0))
			require.Less(t, got.Usec, int64(UsecPerSec))
		})
	}
}

func TestDiff(t *testing.T) {
	require.InDelta(t, 1.5, Diff(Timeval{1700000001, 750000}, Timeval{1700000000, 250000}), 1e-9)
	require.InDelta(t, -1.5, Diff(Timeval{1700000000, 250000}, Timeval{1700000001, 750000}), 1e-9)
	require.InDelta(t, 0.0, Diff(Timeval{1700000000, 250000}, Timeval{1700000000, 250000}), 1e-9)
}

func TestAddSub(t *testing.T) {
	a := Timeval{1700000000, 700000}
	b := Timeval{10, 600000}
	require.Equal(t, Timeval{1700000011, 300000}, Add(a, b))
	require.Equal(t, Timeval{1699999990, 100000}, Sub(a, b))

	sum := Add(a, b)
	require.GreaterOrEqual(t, sum.Usec, int64(0))
	require.Less(t, sum.Usec, int64(UsecPerSec))
}

func TestIncrementRoundTripsDiff(t *testing.T) {
	base := Timeval{1700000000, 123456}
	for _, delta := range []float64{0.000001, 0.5, 1.999999, -0.000001, -3.25, 86400.5} {
		got := Increment(base, delta)
		require.InDelta(t, delta, Diff(got, base), 1e-6, "delta %v", delta)
	}
}
