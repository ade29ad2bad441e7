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
	"fmt"
	"math"
	"time"
)

// UsecPerSec is the number of microseconds in one second
const UsecPerSec = 1000000

// Timeval is a normalized (seconds, microseconds) pair, the only time
// representation the engine does arithmetic on. Usec is always kept in
// [0, UsecPerSec) by borrowing or carrying a whole second.
type Timeval struct {
	Sec  int64
	Usec int64
}

// FromTime converts a time.Time to a Timeval, truncating to microseconds
func FromTime(t time.Time) Timeval {
	return Timeval{Sec: t.Unix(), Usec: int64(t.Nanosecond()) / 1000}
}

// Time converts a Timeval to a time.Time in the given location
func (tv Timeval) Time(loc *time.Location) time.Time {
	return time.Unix(tv.Sec, tv.Usec*1000).In(loc)
}

func (tv Timeval) String() string {
	return fmt.Sprintf("%d.%06d", tv.Sec, tv.Usec)
}

func normalize(tv Timeval) Timeval {
	if tv.Usec < 0 {
		tv.Usec += UsecPerSec
		tv.Sec--
	} else if tv.Usec >= UsecPerSec {
		tv.Usec -= UsecPerSec
		tv.Sec++
	}
	return tv
}

// Increment adds delta seconds (possibly negative, possibly fractional)
// to base, normalizing the microsecond field.
func Increment(base Timeval, delta float64) Timeval {
	whole := int64(delta)
	frac := delta - float64(whole)
	return normalize(Timeval{
		Sec:  base.Sec + whole,
		Usec: base.Usec + int64(math.Round(frac*UsecPerSec)),
	})
}

// Diff returns a-b in seconds, with sign, as a float
func Diff(a, b Timeval) float64 {
	return float64(a.Sec-b.Sec) + float64(a.Usec-b.Usec)/UsecPerSec
}

// Add returns a+b with microsecond carry
func Add(a, b Timeval) Timeval {
	return normalize(Timeval{Sec: a.Sec + b.Sec, Usec: a.Usec + b.Usec})
}

// Sub returns a-b with microsecond borrow
func Sub(a, b Timeval) Timeval {
	return normalize(Timeval{Sec: a.Sec - b.Sec, Usec: a.Usec - b.Usec})
}
