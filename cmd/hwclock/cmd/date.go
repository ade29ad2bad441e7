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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// dateLayouts are the accepted --date forms, tried in order
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDate parses a --date argument. Besides the calendar layouts it
// accepts "@<seconds>" for raw epoch seconds.
func parseDate(s string, loc *time.Location) (hwtime.Timeval, error) {
	if rest, ok := strings.CutPrefix(s, "@"); ok {
		sec, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return hwtime.Timeval{}, fmt.Errorf("invalid epoch time %q", s)
		}
		return hwtime.Timeval{Sec: sec}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return hwtime.FromTime(t), nil
		}
	}
	return hwtime.Timeval{}, fmt.Errorf("cannot parse date %q", s)
}
