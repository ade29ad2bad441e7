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

// Package sysclock is the boundary to the operating system clock:
// reading it with microsecond resolution and the single settimeofday
// call the engine makes when propagating hardware time to the OS.
package sysclock

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// timezone mirrors struct timezone from sys/time.h; settimeofday is
// the only remaining consumer of it.
type timezone struct {
	Minuteswest int32
	Dsttime     int32
}

// Now reads the system clock
func Now() (hwtime.Timeval, error) {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		return hwtime.Timeval{}, fmt.Errorf("gettimeofday failed: %w", err)
	}
	return hwtime.Timeval{Sec: int64(tv.Sec), Usec: int64(tv.Usec)}, nil
}

// Set sets the system clock to tv
func Set(tv hwtime.Timeval) error {
	utv := unix.NsecToTimeval(tv.Sec*1e9 + tv.Usec*1e3)
	if err := unix.Settimeofday(&utv); err != nil {
		return fmt.Errorf("settimeofday failed: %w", err)
	}
	return nil
}

// SetWithTimezone sets the system clock and the kernel timezone in one
// call. x/sys exposes no timezone argument, so this goes through the
// raw syscall.
func SetWithTimezone(tv hwtime.Timeval, minuteswest int) error {
	utv := unix.NsecToTimeval(tv.Sec*1e9 + tv.Usec*1e3)
	tz := timezone{Minuteswest: int32(minuteswest)}
	if _, _, errno := unix.Syscall(unix.SYS_SETTIMEOFDAY,
		uintptr(unsafe.Pointer(&utv)), uintptr(unsafe.Pointer(&tz)), 0); errno != 0 {
		return fmt.Errorf("settimeofday with timezone failed: %w", errno)
	}
	return nil
}

// SetTimezone sets only the kernel timezone, leaving the clock alone.
// On the first call after boot the kernel warps a local-time system
// clock by the timezone offset itself.
func SetTimezone(minuteswest int) error {
	tz := timezone{Minuteswest: int32(minuteswest)}
	if _, _, errno := unix.Syscall(unix.SYS_SETTIMEOFDAY,
		0, uintptr(unsafe.Pointer(&tz)), 0); errno != 0 {
		return fmt.Errorf("settimeofday(timezone) failed: %w", errno)
	}
	return nil
}
