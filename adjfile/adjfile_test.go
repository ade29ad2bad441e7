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

package adjfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse([]byte("1.234567 1700000000 0.500000\n1699990000\nUTC\n"))
	require.NoError(t, err)
	require.Equal(t, 1.234567, r.DriftFactor)
	require.Equal(t, int64(1700000000), r.LastAdjTime)
	require.Equal(t, 0.5, r.NotAdjusted)
	require.Equal(t, int64(1699990000), r.LastCalibTime)
	require.Equal(t, TimescaleUTC, r.Timescale)
	require.False(t, r.Dirty)
}

func TestParseTimescale(t *testing.T) {
	testCases := []struct {
		line string
		want Timescale
	}{
		{"UTC", TimescaleUTC},
		{"LOCAL", TimescaleLocal},
		{"GARBAGE", TimescaleUnknown},
		{"", TimescaleUnknown},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			r, err := Parse([]byte("0.000000 0 0.000000\n0\n" + tc.line + "\n"))
			require.NoError(t, err)
			require.Equal(t, tc.want, r.Timescale)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"two tokens", "0.000000 1700000000\n0\nUTC\n"},
		{"four tokens", "0.0 1 0.0 extra\n0\nUTC\n"},
		{"non numeric drift", "abc 1700000000 0.000000\n0\nUTC\n"},
		{"non numeric last adj", "0.000000 abc 0.000000\n0\nUTC\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseToleratesMissingTail(t *testing.T) {
	r, err := Parse([]byte("0.100000 1700000000 0.000000\n"))
	require.NoError(t, err)
	require.Equal(t, int64(0), r.LastCalibTime)
	require.Equal(t, TimescaleUnknown, r.Timescale)

	// garbled calibration line reads as zero, historical tolerance
	r, err = Parse([]byte("0.100000 1700000000 0.000000\nnot-a-number\nUTC\n"))
	require.NoError(t, err)
	require.Equal(t, int64(0), r.LastCalibTime)
}

func TestFormatRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		rec  Record
		tag  Timescale
	}{
		{"utc", Record{DriftFactor: 1.234567, LastAdjTime: 1700000000, NotAdjusted: 0.25, LastCalibTime: 1699990000, Timescale: TimescaleUTC}, TimescaleUTC},
		{"local", Record{DriftFactor: -3.5, LastAdjTime: 42, Timescale: TimescaleLocal}, TimescaleLocal},
		{"unknown normalizes to utc", Record{DriftFactor: 0.1, Timescale: TimescaleUnknown}, TimescaleUTC},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.rec.Format())
			require.NoError(t, err)
			require.InDelta(t, tc.rec.DriftFactor, got.DriftFactor, 1e-6)
			require.Equal(t, tc.rec.LastAdjTime, got.LastAdjTime)
			require.InDelta(t, tc.rec.NotAdjusted, got.NotAdjusted, 1e-6)
			require.Equal(t, tc.rec.LastCalibTime, got.LastCalibTime)
			require.Equal(t, tc.tag, got.Timescale)
		})
	}
}

func TestFormatExample(t *testing.T) {
	r := Record{LastAdjTime: 1700000000, LastCalibTime: 1700000000, Timescale: TimescaleUTC}
	require.Equal(t, "0.000000 1700000000 0.000000\n1700000000\nUTC\n", string(r.Format()))
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjtime")
	s, err := NewStore(path, false)
	require.NoError(t, err)

	_, err = s.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	r := &Record{DriftFactor: 2.5, LastAdjTime: 1700000000, LastCalibTime: 1700000000, Timescale: TimescaleLocal}

	// clean record is not written
	require.NoError(t, s.Save(r))
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	r.Dirty = true
	require.NoError(t, s.Save(r))
	require.False(t, r.Dirty)

	got, err := s.Load()
	require.NoError(t, err)
	require.InDelta(t, 2.5, got.DriftFactor, 1e-6)
	require.Equal(t, TimescaleLocal, got.Timescale)
}

func TestStoreLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjtime")
	s, err := NewStore(path, true)
	require.NoError(t, err)

	r := &Record{DriftFactor: 0.5, Dirty: true}
	require.NoError(t, s.Save(r))
	got, err := s.Load()
	require.NoError(t, err)
	require.InDelta(t, 0.5, got.DriftFactor, 1e-6)
}
