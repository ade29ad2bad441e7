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

package hwclock

import (
	"time"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
	"github.com/openeuler-mirror/easybox-sub001/sysclock"
)

// Clock is the system clock source. The controller and the precise
// setter only read time through it, which is what makes the spin loop
// testable against a synthetic clock.
type Clock interface {
	Now() (hwtime.Timeval, error)
}

// SystemClock reads the real system clock
type SystemClock struct{}

// Now reads the system clock with microsecond resolution
func (SystemClock) Now() (hwtime.Timeval, error) {
	return sysclock.Now()
}

// OSClock is the OS-clock-writer boundary: one call, no partial
// semantics.
type OSClock interface {
	SetSystemClock(tv hwtime.Timeval, writeTimezone bool) error
}

// KernelClock writes the real system clock and kernel timezone
type KernelClock struct {
	// HardwareIsUTC mirrors the run's timescale resolution. With a UTC
	// hardware clock the timezone-write path only needs the kernel tz
	// set; with a local one the system clock read from it at boot must
	// also be warped back to UTC.
	HardwareIsUTC bool
}

// SetSystemClock implements the OSClock boundary on the real kernel
func (k KernelClock) SetSystemClock(tv hwtime.Timeval, writeTimezone bool) error {
	if !writeTimezone {
		return sysclock.Set(tv)
	}
	_, offset := time.Now().Zone() // seconds east of UTC
	minuteswest := -offset / 60
	if k.HardwareIsUTC {
		return sysclock.SetTimezone(minuteswest)
	}
	return sysclock.SetWithTimezone(hwtime.Increment(tv, float64(-offset)), minuteswest)
}
