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

package rtc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

func TestBCD(t *testing.T) {
	for v := 0; v <= 99; v++ {
		require.Equal(t, v, bcdToDec(decToBCD(v)))
	}
	require.Equal(t, byte(0x59), decToBCD(59))
	require.Equal(t, 23, bcdToDec(0x23))
}

func TestDecodeCmosTimeBCD(t *testing.T) {
	s := cmosSnapshot{
		sec:     0x30,
		min:     0x15,
		hour:    0x22,
		wday:    0x03,
		day:     0x14,
		month:   0x11,
		year:    0x23,
		century: 0x20,
		statusB: cmos24h,
	}
	got := decodeCmosTime(s)
	want := hwtime.BrokenTime{
		Year: 2023, Month: 11, Day: 14, Hour: 22, Minute: 15, Second: 30, Weekday: 2,
	}
	require.Equal(t, want, got)
}

func TestDecodeCmosTimeBinary(t *testing.T) {
	s := cmosSnapshot{
		sec:     30,
		min:     15,
		hour:    22,
		wday:    3,
		day:     14,
		month:   11,
		year:    99,
		century: 0, // bogus century register, fall back to the pivot
		statusB: cmos24h | cmosBinary,
	}
	got := decodeCmosTime(s)
	require.Equal(t, 1999, got.Year)

	s.year = 5
	got = decodeCmosTime(s)
	require.Equal(t, 2005, got.Year)
}
