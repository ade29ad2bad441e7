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
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime means calendar fields that describe no real instant,
// e.g. month 13 or February 30. Hardware clocks with a dead battery are
// known to report such values.
var ErrInvalidTime = errors.New("invalid hardware clock time")

// leapSecondUsec is the microsecond offset assigned to an inserted 61st
// second so it orders strictly between second 59 and the next minute.
const leapSecondUsec = 999000

// BrokenTime is a calendar-form time as hardware clocks keep it.
// Second may be 60 during a UTC leap second. Weekday and Yearday are
// carried through from the device but never interpreted.
type BrokenTime struct {
	Year    int // full calendar year
	Month   int // 1..12
	Day     int // 1..31
	Hour    int // 0..23
	Minute  int // 0..59
	Second  int // 0..60, 60 only during a leap second
	Weekday int
	Yearday int
}

func (bt BrokenTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		bt.Year, bt.Month, bt.Day, bt.Hour, bt.Minute, bt.Second)
}

// Timeval resolves the calendar fields in the given location to a
// normalized Timeval. A leap second (Second == 60) maps to the last
// representable sub-second instant of its minute, so consecutive reads
// across the leap stay monotonically ordered.
func (bt BrokenTime) Timeval(loc *time.Location) (Timeval, error) {
	sec := bt.Second
	leap := sec == 60
	if leap {
		sec = 59
	}
	t := time.Date(bt.Year, time.Month(bt.Month), bt.Day, bt.Hour, bt.Minute, sec, 0, loc)
	// time.Date silently normalizes out-of-range fields, so an impossible
	// date is detected by the fields not surviving the round trip.
	if t.Year() != bt.Year || t.Month() != time.Month(bt.Month) || t.Day() != bt.Day ||
		t.Hour() != bt.Hour || t.Minute() != bt.Minute || t.Second() != sec {
		return Timeval{}, fmt.Errorf("%w: %s", ErrInvalidTime, bt)
	}
	tv := Timeval{Sec: t.Unix()}
	if leap {
		tv.Usec = leapSecondUsec
	}
	return tv, nil
}

// BreakDown truncates a Timeval to calendar fields in the given
// location. This direction never produces a leap second.
func BreakDown(tv Timeval, loc *time.Location) BrokenTime {
	t := time.Unix(tv.Sec, 0).In(loc)
	return BrokenTime{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: int(t.Weekday()),
		Yearday: t.YearDay(),
	}
}
