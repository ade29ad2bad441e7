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

// Package rtc provides access to battery-backed hardware clocks, either
// through the /dev/rtc character device or by talking to the CMOS
// registers directly over the ISA bus.
package rtc

import (
	"context"
	"errors"
	"time"

	"github.com/openeuler-mirror/easybox-sub001/hwtime"
)

// ErrNoClock means no usable hardware clock interface was found
var ErrNoClock = errors.New("no usable hardware clock interface found")

// Driver is the four-operation contract every hardware backend
// implements. Exactly one driver is selected per run, before the
// engine starts, and held for the lifetime of the process.
type Driver interface {
	// Name identifies the backend for logging
	Name() string
	// CheckPermissions verifies the process may access the device.
	// Must be called once before any read or write.
	CheckPermissions() error
	// ReadTime returns the current hardware clock calendar value
	ReadTime() (hwtime.BrokenTime, error)
	// SetTime commits a calendar value to the device
	SetTime(bt hwtime.BrokenTime) error
	// SynchronizeToTick blocks until the clock's seconds register is
	// observed to change, establishing a phase reference with the
	// device's internal tick. Honors context cancellation.
	SynchronizeToTick(ctx context.Context) error
	// WriteDelay estimates how long a SetTime takes to propagate to
	// the device's seconds register
	WriteDelay() time.Duration
}
