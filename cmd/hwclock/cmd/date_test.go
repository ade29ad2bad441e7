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

package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		in   string
		want hwtime.Timeval
	}{
		{"@1700000000", hwtime.Timeval{Sec: 1700000000}},
		{"2023-11-14T22:13:20Z", hwtime.Timeval{Sec: 1700000000}},
		{"2023-11-14 22:13:20", hwtime.Timeval{Sec: 1700000000}},
		{"2023-11-14 22:13", hwtime.Timeval{Sec: 1699999980}},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseDate(tc.in, time.UTC)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	for _, in := range []string{"", "yesterday", "@notanumber", "14/11/2023"} {
		t.Run(in, func(t *testing.T) {
			_, err := parseDate(in, time.UTC)
			require.Error(t, err)
		})
	}
}
